// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"cogentcore.org/core/math32"
	"github.com/sharp3d/sharp/splat"
)

// covEpsilon is added to the projected covariance diagonal, in squared
// pixels, to keep near-degenerate splats invertible (a splat seen
// edge-on projects to a zero-thickness line otherwise).
const covEpsilon = 0.3

// sym2 is a symmetric 2x2 matrix [a, b; b, d].
type sym2 struct {
	a, b, d float32
}

// proj is the result of projecting one splat: an oriented screen-space
// billboard with its Gaussian conic, color and alpha. ok is false for
// splats discarded as degenerate.
type proj struct {
	ok bool

	// center in pixel coordinates (y down)
	center math32.Vector2

	// billboard half-extent axes in pixels, along the covariance
	// eigenvectors, 3 standard deviations each
	axis1, axis2 math32.Vector2

	// conic is the inverse of the projected covariance
	conic sym2

	color math32.Vector3
	alpha float32
}

// frame holds the per-frame camera quantities shared by the projection
// kernel invocations. All fields are read-only during a dispatch.
type frame struct {
	view     math32.Matrix4
	viewProj math32.Matrix4
	camPos   math32.Vector3
	fx, fy   float32
	w, h     float32
	// frustum slopes tan(fov/2) per axis, for cull margins
	tanX, tanY float32
	// Jacobian clamp bounds: camera-space x/z and y/z are limited to
	// 1.3x the frustum slope so off-screen tails stay stable
	limX, limY float32
	near, far  float32
}

// newFrame derives the shared frame state from a camera.
func newFrame(cm *Camera) *frame {
	fr := &frame{
		view:   cm.ViewMatrix(),
		camPos: cm.Pos,
		w:      float32(cm.Width),
		h:      float32(cm.Height),
		near:   cm.Near,
		far:    cm.Far,
	}
	proj := cm.ProjectionMatrix()
	fr.viewProj.MulMatrices(&proj, &fr.view)
	fr.fx, fr.fy = cm.FocalLengths()
	fr.tanY = math32.Tan(math32.DegToRad(cm.FOV) / 2)
	fr.tanX = fr.tanY * cm.Aspect()
	fr.limY = 1.3 * fr.tanY
	fr.limX = 1.3 * fr.tanX
	return fr
}

// worldSigma returns the world-space 3D covariance of sp under the
// linear part of the model matrix: A Sigma A^T with A = model 3x3.
func worldSigma(sp *splat.Splat, model *math32.Matrix4) [6]float32 {
	s := sp.Covariance()
	// model linear part, column-major
	a00, a10, a20 := model[0], model[1], model[2]
	a01, a11, a21 := model[4], model[5], model[6]
	a02, a12, a22 := model[8], model[9], model[10]

	// t = A * Sigma (Sigma symmetric packed xx xy xz yy yz zz)
	t00 := a00*s[0] + a01*s[1] + a02*s[2]
	t01 := a00*s[1] + a01*s[3] + a02*s[4]
	t02 := a00*s[2] + a01*s[4] + a02*s[5]
	t10 := a10*s[0] + a11*s[1] + a12*s[2]
	t11 := a10*s[1] + a11*s[3] + a12*s[4]
	t12 := a10*s[2] + a11*s[4] + a12*s[5]
	t20 := a20*s[0] + a21*s[1] + a22*s[2]
	t21 := a20*s[1] + a21*s[3] + a22*s[4]
	t22 := a20*s[2] + a21*s[4] + a22*s[5]

	// Sigma' = t * A^T
	return [6]float32{
		t00*a00 + t01*a01 + t02*a02,
		t00*a10 + t01*a11 + t02*a12,
		t00*a20 + t01*a21 + t02*a22,
		t10*a10 + t11*a11 + t12*a12,
		t10*a20 + t11*a21 + t12*a22,
		t20*a20 + t21*a21 + t22*a22,
	}
}

// projectCovariance maps a world-space 3D covariance to the 2x2
// raster-space covariance at camera-space position pc, via the
// first-order Jacobian of the perspective projection composed with the
// view rotation W: Sigma2 = (J W) Sigma3 (J W)^T, then epsilon-
// stabilized on the diagonal. The result is symmetric by construction
// with strictly positive determinant after stabilization.
func (fr *frame) projectCovariance(sig [6]float32, pc math32.Vector3) sym2 {
	z := pc.Z
	tx := math32.Clamp(pc.X/z, -fr.limX, fr.limX) * z
	ty := math32.Clamp(pc.Y/z, -fr.limY, fr.limY) * z

	// Jacobian of raster coordinates at (tx, ty, z), 2x3. Raster x is
	// fx*x/(-z), raster y is fy*y/z (screen y down flips the sign),
	// so the rows carry opposite signs and the cross term b comes out
	// in the y-down frame the compositor samples in.
	j00 := -fr.fx / z
	j02 := fr.fx * tx / (z * z)
	j11 := fr.fy / z
	j12 := -fr.fy * ty / (z * z)

	// view rotation W (upper 3x3 of the view matrix, column-major)
	w00, w10, w20 := fr.view[0], fr.view[1], fr.view[2]
	w01, w11, w21 := fr.view[4], fr.view[5], fr.view[6]
	w02, w12, w22 := fr.view[8], fr.view[9], fr.view[10]

	// T = J W, 2x3
	t00 := j00*w00 + j02*w20
	t01 := j00*w01 + j02*w21
	t02 := j00*w02 + j02*w22
	t10 := j11*w10 + j12*w20
	t11 := j11*w11 + j12*w21
	t12 := j11*w12 + j12*w22

	// Sigma2 = T Sigma3 T^T
	s := sig
	r0x := t00*s[0] + t01*s[1] + t02*s[2]
	r0y := t00*s[1] + t01*s[3] + t02*s[4]
	r0z := t00*s[2] + t01*s[4] + t02*s[5]
	r1x := t10*s[0] + t11*s[1] + t12*s[2]
	r1y := t10*s[1] + t11*s[3] + t12*s[4]
	r1z := t10*s[2] + t11*s[4] + t12*s[5]

	return sym2{
		a: r0x*t00 + r0y*t01 + r0z*t02 + covEpsilon,
		b: r0x*t10 + r0y*t11 + r0z*t12,
		d: r1x*t10 + r1y*t11 + r1z*t12 + covEpsilon,
	}
}

// eigen2 returns the eigenvalues l1 >= l2 and the unit eigenvector of
// l1 for a symmetric 2x2 matrix, via the closed-form quadratic formula
// on trace and determinant.
func eigen2(c sym2) (l1, l2 float32, v1 math32.Vector2) {
	mid := (c.a + c.d) / 2
	det := c.a*c.d - c.b*c.b
	delta := math32.Sqrt(math32.Max(mid*mid-det, 0))
	l1 = mid + delta
	l2 = mid - delta
	if c.b != 0 {
		v1 = math32.Vec2(c.b, l1-c.a).Normal()
	} else if c.a >= c.d {
		v1 = math32.Vec2(1, 0)
	} else {
		v1 = math32.Vec2(0, 1)
	}
	return
}

// invert returns the inverse of a symmetric 2x2 matrix and whether it
// is usable; determinants at or below epsilon are degenerate.
func (c sym2) invert() (sym2, bool) {
	det := c.a*c.d - c.b*c.b
	if det <= 1e-6 {
		return sym2{}, false
	}
	return sym2{a: c.d / det, b: -c.b / det, d: c.a / det}, true
}

// projectSplat projects a single splat under the given model matrix
// and frame state, evaluating its covariance, billboard extent and
// spherical-harmonics color. Splats outside the clip range or with
// degenerate projected covariance come back with ok == false.
func (fr *frame) projectSplat(sp *splat.Splat, model *math32.Matrix4, cf *Config) proj {
	worldPos := sp.Pos.MulMatrix4(model)
	pc := worldPos.MulMatrix4(&fr.view)
	depth := -pc.Z
	if depth <= fr.near || depth >= fr.far {
		return proj{}
	}

	alpha := sp.Opacity * cf.OpacityScale
	if alpha < cf.MinOpacity {
		return proj{}
	}

	cov := fr.projectCovariance(worldSigma(sp, model), pc)
	conic, ok := cov.invert()
	if !ok {
		return proj{}
	}

	ndc := math32.Vector4FromVector3(worldPos, 1).MulMatrix4(&fr.viewProj).PerspDiv()
	center := math32.Vec2((ndc.X*0.5+0.5)*fr.w, (0.5-ndc.Y*0.5)*fr.h)

	l1, l2, v1 := eigen2(cov)
	// 3 standard deviations cover 99.7% of the Gaussian
	e1 := 3 * math32.Sqrt(l1) * cf.SplatScale
	e2 := 3 * math32.Sqrt(l2) * cf.SplatScale
	axis1 := v1.MulScalar(e1)
	axis2 := math32.Vec2(-v1.Y, v1.X).MulScalar(e2)

	dir := worldPos.Sub(fr.camPos).Normal()
	return proj{
		ok:     true,
		center: center,
		axis1:  axis1,
		axis2:  axis2,
		conic:  conic,
		color:  sp.EvalColor(dir, cf.shDegree()),
		alpha:  alpha,
	}
}

// cullDepth returns the camera-space depth of a world position and
// whether it survives frustum culling. The xy test is against NDC
// with a margin of the splat's projected radius.
func (fr *frame) cullDepth(worldPos math32.Vector3, radius float32, cull bool) (float32, bool) {
	pc := worldPos.MulMatrix4(&fr.view)
	depth := -pc.Z
	if depth != depth { // NaN position
		return 0, false
	}
	if !cull {
		return depth, true
	}
	if depth <= fr.near || depth >= fr.far {
		return 0, false
	}
	// screen-extent margin in NDC: the angular radius divided by the
	// frustum slope of each axis
	mx := radius / (depth * fr.tanX)
	my := radius / (depth * fr.tanY)
	v := math32.Vector4FromVector3(worldPos, 1).MulMatrix4(&fr.viewProj)
	if v.W <= 0 {
		return 0, false
	}
	if math32.Abs(v.X/v.W) > 1+mx || math32.Abs(v.Y/v.W) > 1+my {
		return 0, false
	}
	return depth, true
}
