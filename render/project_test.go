// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"testing"

	"cogentcore.org/core/base/tolassert"
	"cogentcore.org/core/math32"
	"github.com/sharp3d/sharp/splat"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func testCamera() *Camera {
	cm := NewCamera(640, 480)
	cm.LookAt(math32.Vec3(0, 0, 10), math32.Vector3{}, math32.Vector3{})
	return cm
}

func testConfig() *Config {
	var cf Config
	cf.Defaults()
	return &cf
}

func frontSplat() *splat.Splat {
	sp := splat.NewSplat(
		math32.Vector3{},
		math32.Vec3(0.5, 0.25, 0.1),
		math32.NewQuat(0, 0, 0, 1),
		0.9,
		math32.Vec3(1, 0, 0),
	)
	return &sp
}

func identity() *math32.Matrix4 {
	var m math32.Matrix4
	m.SetIdentity()
	return &m
}

func TestProjectedCovarianceSymmetricPositive(t *testing.T) {
	fr := newFrame(testCamera())
	sp := frontSplat()
	angles := []float32{0, 0.4, 1.2, 2.9}
	for _, ang := range angles {
		sp.Rot.SetFromAxisAngle(math32.Vec3(1, -1, 2).Normal(), ang)
		pc := sp.Pos.MulMatrix4(&fr.view)
		cov := fr.projectCovariance(worldSigma(sp, identity()), pc)
		// symmetric by construction (b is the single off-diagonal);
		// determinant strictly positive after stabilization
		det := cov.a*cov.d - cov.b*cov.b
		assert.Greater(t, det, float32(0), "angle %v", ang)
		assert.Greater(t, cov.a, float32(0))
		assert.Greater(t, cov.d, float32(0))
	}
}

func TestWorldSigmaMatchesCloudTransform(t *testing.T) {
	// identity model leaves the object-space covariance unchanged
	sp := frontSplat()
	s := sp.Covariance()
	got := worldSigma(sp, identity())
	for i := range s {
		tolassert.EqualTol(t, s[i], got[i], tol)
	}

	// uniform scale 2 scales the covariance by 4
	var m math32.Matrix4
	m.SetTransform(math32.Vector3{}, math32.NewQuat(0, 0, 0, 1), math32.Vec3(2, 2, 2))
	got = worldSigma(sp, &m)
	for i := range s {
		tolassert.EqualTol(t, 4*s[i], got[i], tol)
	}
}

func TestEigen2AgainstGonum(t *testing.T) {
	cases := []sym2{
		{a: 4, b: 0, d: 1},
		{a: 1, b: 0, d: 4},
		{a: 3, b: 1.5, d: 2},
		{a: 10, b: -4, d: 7},
		{a: 2, b: 0.001, d: 2},
	}
	for _, c := range cases {
		l1, l2, v1 := eigen2(c)

		var es mat.EigenSym
		ok := es.Factorize(mat.NewSymDense(2, []float64{
			float64(c.a), float64(c.b),
			float64(c.b), float64(c.d),
		}), true)
		assert.True(t, ok)
		vals := es.Values(nil) // ascending
		tolassert.EqualTol(t, float32(vals[1]), l1, tol)
		tolassert.EqualTol(t, float32(vals[0]), l2, tol)

		// v1 is a unit eigenvector for l1: A v = l1 v
		ax := c.a*v1.X + c.b*v1.Y
		ay := c.b*v1.X + c.d*v1.Y
		tolassert.EqualTol(t, l1*v1.X, ax, tol)
		tolassert.EqualTol(t, l1*v1.Y, ay, tol)
		tolassert.EqualTol(t, 1, v1.Length(), tol)
	}
}

func TestProjectSplatCenterAndExtent(t *testing.T) {
	fr := newFrame(testCamera())
	pr := fr.projectSplat(frontSplat(), identity(), testConfig())
	assert.True(t, pr.ok)
	// splat at the view center projects to the framebuffer center
	tolassert.EqualTol(t, 320, pr.center.X, 0.1)
	tolassert.EqualTol(t, 240, pr.center.Y, 0.1)
	// billboard axes are orthogonal
	dot := pr.axis1.X*pr.axis2.X + pr.axis1.Y*pr.axis2.Y
	tolassert.EqualTol(t, 0, dot, 0.01)
	assert.Greater(t, pr.axis1.Length(), float32(0))
	// alpha = opacity * scale
	tolassert.EqualTol(t, 0.9, pr.alpha, tol)
}

func TestProjectSplatSHIsViewDependent(t *testing.T) {
	sp := frontSplat()
	sp.SHRest[2] = math32.Vec3(0.3, 0, 0)
	cf := testConfig()

	cmA := NewCamera(640, 480)
	cmA.LookAt(math32.Vec3(10, 0, 0), math32.Vector3{}, math32.Vector3{})
	cmB := NewCamera(640, 480)
	cmB.LookAt(math32.Vec3(-10, 0, 0), math32.Vector3{}, math32.Vector3{})

	prA := newFrame(cmA).projectSplat(sp, identity(), cf)
	prB := newFrame(cmB).projectSplat(sp, identity(), cf)
	assert.True(t, prA.ok)
	assert.True(t, prB.ok)
	assert.NotEqual(t, prA.color.X, prB.color.X)

	// with SH disabled both views get the DC color
	cf.EnableSH = false
	prA = newFrame(cmA).projectSplat(sp, identity(), cf)
	prB = newFrame(cmB).projectSplat(sp, identity(), cf)
	assert.Equal(t, prA.color, prB.color)
}

func TestProjectSplatCulling(t *testing.T) {
	fr := newFrame(testCamera())
	cf := testConfig()

	behind := frontSplat()
	behind.Pos = math32.Vec3(0, 0, 20) // behind the camera
	assert.False(t, fr.projectSplat(behind, identity(), cf).ok)

	faint := frontSplat()
	faint.Opacity = 0.001
	assert.False(t, fr.projectSplat(faint, identity(), cf).ok)
}

func TestProjectRotatedSplatScreenOrientation(t *testing.T) {
	// a splat elongated along world (1, 1, 0), seen from +z, must
	// brighten the up-right / down-left screen diagonal: world y up
	// is raster y down, and the covariance cross term has to follow
	sp := splat.NewSplat(
		math32.Vector3{},
		math32.Vec3(0.6, 0.08, 0.08),
		math32.NewQuat(0, 0, 0, 1),
		0.9,
		math32.Vec3(1, 1, 1),
	)
	sp.Rot.SetFromAxisAngle(math32.Vec3(0, 0, 1), math32.Pi/4)

	fr := newFrame(testCamera())
	pr := fr.projectSplat(&sp, identity(), testConfig())
	assert.True(t, pr.ok)

	fb := NewFramebuffer(640, 480)
	fb.composite(&pr)
	upRight := fb.At(320+12, 240-12).W
	downRight := fb.At(320+12, 240+12).W
	assert.Greater(t, upRight, float32(0.1))
	assert.Equal(t, float32(0), downRight)
}

func TestCullDepth(t *testing.T) {
	fr := newFrame(testCamera())

	d, ok := fr.cullDepth(math32.Vector3{}, 0.1, true)
	assert.True(t, ok)
	tolassert.EqualTol(t, 10, d, tol)

	_, ok = fr.cullDepth(math32.Vec3(0, 0, 20), 0.1, true)
	assert.False(t, ok, "behind camera")

	_, ok = fr.cullDepth(math32.Vec3(100, 0, 0), 0.1, true)
	assert.False(t, ok, "far outside frustum")

	// an off-screen center whose 3-sigma edge still overlaps the
	// viewport survives: the margin is radius over depth times the
	// frustum slope (1/tan at FOV 45 is ~2.41, not 2)
	_, ok = fr.cullDepth(math32.Vec3(0, 5.05, 0), 1, true)
	assert.True(t, ok, "edge overlapping viewport")

	_, ok = fr.cullDepth(math32.Vec3(0, 5.4, 0), 1, true)
	assert.False(t, ok, "edge clear of viewport")

	// culling disabled keeps everything, returning raw depth
	d, ok = fr.cullDepth(math32.Vec3(0, 0, 20), 0.1, false)
	assert.True(t, ok)
	tolassert.EqualTol(t, -10, d, tol)
}
