// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"testing"

	"cogentcore.org/core/base/tolassert"
	"cogentcore.org/core/math32"
)

const tol = 1.0e-4

func tolAssertVector3(t *testing.T, want, got math32.Vector3) {
	t.Helper()
	tolassert.EqualTol(t, want.X, got.X, tol)
	tolassert.EqualTol(t, want.Y, got.Y, tol)
	tolassert.EqualTol(t, want.Z, got.Z, tol)
}

func TestCameraViewMatrix(t *testing.T) {
	cm := NewCamera(640, 480)
	cm.LookAt(math32.Vec3(0, 0, 10), math32.Vector3{}, math32.Vector3{})

	view := cm.ViewMatrix()
	// camera position maps to the origin, the origin to -10 z
	tolAssertVector3(t, math32.Vector3{}, math32.Vec3(0, 0, 10).MulMatrix4(&view))
	tolAssertVector3(t, math32.Vec3(0, 0, -10), math32.Vector3{}.MulMatrix4(&view))
	// +x stays +x when looking down -z with y up
	tolAssertVector3(t, math32.Vec3(1, 0, -10), math32.Vec3(1, 0, 0).MulMatrix4(&view))
}

func TestCameraLookAtOffAxis(t *testing.T) {
	cm := NewCamera(640, 480)
	cm.LookAt(math32.Vec3(5, 3, 5), math32.Vec3(1, 1, 1), math32.Vector3{})
	view := cm.ViewMatrix()
	// target lies straight ahead: x == y == 0, z == -distance
	got := math32.Vec3(1, 1, 1).MulMatrix4(&view)
	dist := math32.Vec3(4, 2, 4).Length()
	tolassert.EqualTol(t, 0, got.X, tol)
	tolassert.EqualTol(t, 0, got.Y, tol)
	tolassert.EqualTol(t, -dist, got.Z, tol)
}

func TestCameraFocalLengths(t *testing.T) {
	cm := NewCamera(640, 480)
	cm.FOV = 60
	fx, fy := cm.FocalLengths()
	want := 1 / math32.Tan(math32.DegToRad(30)) * 240
	tolassert.EqualTol(t, want, fy, 0.01)
	// square pixels: fx equals fy for any aspect
	tolassert.EqualTol(t, fy, fx, 0.01)
}

func TestCameraAspect(t *testing.T) {
	cm := NewCamera(200, 100)
	tolassert.EqualTol(t, 2, cm.Aspect(), tol)
	cm.Height = 0
	tolassert.EqualTol(t, 1, cm.Aspect(), tol)
}
