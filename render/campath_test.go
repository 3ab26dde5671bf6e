// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"testing"

	"cogentcore.org/core/base/tolassert"
	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
)

func linearPath() *CameraPath {
	cp := &CameraPath{Mode: Linear}
	cp.AddKeyframe(Keyframe{Time: 0, Pos: math32.Vec3(0, 0, 10), FOV: 45})
	cp.AddKeyframe(Keyframe{Time: 2, Pos: math32.Vec3(4, 0, 10), Target: math32.Vec3(0, 2, 0), FOV: 60})
	return cp
}

func TestCameraPathEndpoints(t *testing.T) {
	cp := linearPath()
	assert.Equal(t, float32(2), cp.Duration())

	got := cp.Sample(0)
	assert.Equal(t, cp.Keys[0].Pos, got.Pos)
	assert.Equal(t, float32(45), got.FOV)

	// without Loop, out-of-range times clamp to the endpoints
	assert.Equal(t, cp.Keys[0].Pos, cp.Sample(-1).Pos)
	assert.Equal(t, cp.Keys[1].Pos, cp.Sample(5).Pos)
	assert.Equal(t, float32(60), cp.Sample(5).FOV)
}

func TestCameraPathLinearMidpoint(t *testing.T) {
	cp := linearPath()
	got := cp.Sample(1)
	tolAssertVector3(t, math32.Vec3(2, 0, 10), got.Pos)
	tolAssertVector3(t, math32.Vec3(0, 1, 0), got.Target)
	tolassert.EqualTol(t, 52.5, got.FOV, tol)
}

func TestCameraPathKeyframesSorted(t *testing.T) {
	cp := &CameraPath{}
	cp.AddKeyframe(Keyframe{Time: 3})
	cp.AddKeyframe(Keyframe{Time: 1})
	cp.AddKeyframe(Keyframe{Time: 2})
	want := []float32{1, 2, 3}
	for i, kf := range cp.Keys {
		assert.Equal(t, want[i], kf.Time)
	}
}

func TestCameraPathLoopWraps(t *testing.T) {
	cp := linearPath()
	cp.Loop = true
	got := cp.Sample(5) // 5 mod 2 = 1
	tolAssertVector3(t, math32.Vec3(2, 0, 10), got.Pos)
	got = cp.Sample(-1) // wraps to 1
	tolAssertVector3(t, math32.Vec3(2, 0, 10), got.Pos)
}

func TestOrbitPathOnCircle(t *testing.T) {
	center := math32.Vec3(1, 0, -2)
	cp := NewOrbitPath(center, 5, 2, 8, 16)
	assert.Equal(t, float32(8), cp.Duration())
	assert.True(t, cp.Loop)

	// closed: first and last keys coincide
	tolAssertVector3(t, cp.Keys[0].Pos, cp.Keys[len(cp.Keys)-1].Pos)

	// every sample stays on the orbit cylinder
	for i := range 33 {
		kf := cp.Sample(8 * float32(i) / 32)
		d := kf.Pos.Sub(center)
		tolassert.EqualTol(t, 2, d.Y, 1e-2)
		r := math32.Sqrt(d.X*d.X + d.Z*d.Z)
		tolassert.EqualTol(t, 5, r, 0.1)
		assert.Equal(t, center, kf.Target)
	}
}

func TestCameraPathSingleKey(t *testing.T) {
	cp := &CameraPath{}
	cp.AddKeyframe(Keyframe{Time: 1, Pos: math32.Vec3(3, 0, 0), FOV: 30})
	for _, tm := range []float32{0, 1, 7} {
		got := cp.Sample(tm)
		assert.Equal(t, math32.Vec3(3, 0, 0), got.Pos)
		assert.Equal(t, float32(30), got.FOV)
	}
}

func TestCameraPathApply(t *testing.T) {
	cp := linearPath()
	cm := NewCamera(64, 64)
	cp.Apply(cm, 2)
	assert.Equal(t, math32.Vec3(4, 0, 10), cm.Pos)
	assert.Equal(t, float32(60), cm.FOV)

	// pose looks at the keyframe target
	view := cm.ViewMatrix()
	p := cp.Keys[1].Target.MulMatrix4(&view)
	tolassert.EqualTol(t, 0, p.X, tol)
	tolassert.EqualTol(t, 0, p.Y, tol)
	assert.Less(t, p.Z, float32(0))
}
