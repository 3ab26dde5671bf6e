// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render projects and rasterizes splat clouds into a
// screen-space framebuffer: per-splat covariance projection via the
// camera's perspective Jacobian, spherical-harmonics color evaluation,
// and back-to-front alpha compositing over a depth-sorted order.
package render

import "cogentcore.org/core/math32"

// Camera defines the view onto a scene: a pose looking down its
// negative Z axis, a perspective projection, and a pixel viewport.
// Cameras are plain value state on the caller's control thread; the
// renderer only reads the derived matrices.
type Camera struct {
	// Pos is the camera position in world space.
	Pos math32.Vector3

	// Quat is the camera orientation, relative to pointing down
	// negative Z with positive Y up.
	Quat math32.Quat

	// FOV is the vertical field of view in degrees.
	FOV float32

	// Near and Far are the clip plane distances.
	Near, Far float32

	// Width and Height are the viewport size in pixels.
	Width, Height int
}

// NewCamera returns a camera with default settings for the given
// viewport, positioned at (0, 0, 10) looking at the origin.
func NewCamera(width, height int) *Camera {
	cm := &Camera{Width: width, Height: height}
	cm.Defaults()
	return cm
}

// Defaults sets default field of view and clip planes and the default
// pose looking at the origin from (0, 0, 10).
func (cm *Camera) Defaults() {
	cm.FOV = 45
	cm.Near = 0.01
	cm.Far = 1000
	cm.Pos = math32.Vec3(0, 0, 10)
	cm.Quat.SetIdentity()
}

// Aspect returns the viewport aspect ratio (width / height).
func (cm *Camera) Aspect() float32 {
	if cm.Height == 0 {
		return 1
	}
	return float32(cm.Width) / float32(cm.Height)
}

// LookAt moves the camera to pos pointing at target with the given up
// direction (Y up if zero).
func (cm *Camera) LookAt(pos, target, up math32.Vector3) {
	if up == (math32.Vector3{}) {
		up = math32.Vec3(0, 1, 0)
	}
	cm.Pos = pos
	cm.Quat.SetFromRotationMatrix(math32.NewLookAt(pos, target, up))
}

// ViewMatrix returns the world-to-camera matrix, the inverse of the
// camera's pose.
func (cm *Camera) ViewMatrix() math32.Matrix4 {
	var pose math32.Matrix4
	pose.SetTransform(cm.Pos, cm.Quat, math32.Vec3(1, 1, 1))
	view, _ := pose.Inverse() // rigid transform, always invertible
	return *view
}

// ProjectionMatrix returns the perspective projection matrix for the
// camera's field of view, aspect and clip planes.
func (cm *Camera) ProjectionMatrix() math32.Matrix4 {
	var proj math32.Matrix4
	proj.SetPerspective(cm.FOV, cm.Aspect(), cm.Near, cm.Far)
	return proj
}

// FocalLengths returns the focal lengths in pixels along x and y,
// derived from the projection matrix and viewport size. These scale
// the perspective Jacobian used for covariance projection.
func (cm *Camera) FocalLengths() (fx, fy float32) {
	proj := cm.ProjectionMatrix()
	return proj[0] * float32(cm.Width) / 2, proj[5] * float32(cm.Height) / 2
}
