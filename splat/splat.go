// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package splat provides the 3D Gaussian splat primitive and the Cloud
// container used by the scene and renderer. A splat is an anisotropic
// 3D Gaussian with position, per-axis scale, orientation, opacity and
// spherical-harmonics color coefficients, following "3D Gaussian
// Splatting for Real-Time Radiance Field Rendering" (Kerbl et al.).
package splat

import "cogentcore.org/core/math32"

const (
	// MaxSHDegree is the maximum spherical harmonics degree (0-3).
	MaxSHDegree = 3

	// NumSHCoeffs is the total number of SH coefficients per channel:
	// (MaxSHDegree + 1)^2 = 1 (DC) + 3 + 5 + 7.
	NumSHCoeffs = 16

	// NumFloats is the number of float32 values in the packed
	// per-splat layout used for buffer uploads and memory accounting:
	// position 3 + scale 3 + rotation 4 + opacity 1 + SH 16*3.
	NumFloats = 3 + 3 + 4 + 1 + 3*NumSHCoeffs

	// NumBytes is the packed per-splat byte size.
	NumBytes = NumFloats * 4
)

// Splat is a single 3D Gaussian primitive.
type Splat struct {
	// Pos is the center position in object space.
	Pos math32.Vector3

	// Scale holds the per-axis standard deviations of the Gaussian,
	// along its local axes before rotation. All components must be > 0.
	Scale math32.Vector3

	// Rot is the orientation of the Gaussian ellipsoid, kept normalized.
	Rot math32.Quat

	// Opacity is the base alpha in [0, 1].
	Opacity float32

	// SHDC is the degree-0 (view-independent) color coefficient.
	SHDC math32.Vector3

	// SHRest holds the degree 1-3 coefficients, one RGB vector per
	// basis function, in standard band order. All-zero bands are
	// skipped by the evaluator.
	SHRest [NumSHCoeffs - 1]math32.Vector3
}

// NewSplat returns a splat with the given position, scale, rotation,
// opacity and DC color, with all higher SH bands zero.
func NewSplat(pos, scale math32.Vector3, rot math32.Quat, opacity float32, color math32.Vector3) Splat {
	return Splat{Pos: pos, Scale: scale, Rot: rot, Opacity: opacity, SHDC: color}
}

// Sym3 is a symmetric 3x3 matrix packed as xx, xy, xz, yy, yz, zz.
type Sym3 [6]float32

// Covariance returns the 3D covariance of the Gaussian in object space:
// (R S)(R S)^T for rotation matrix R from Rot and diagonal scale S.
func (sp *Splat) Covariance() Sym3 {
	x, y, z, w := sp.Rot.X, sp.Rot.Y, sp.Rot.Z, sp.Rot.W
	// rotation matrix rows from the unit quaternion
	r00 := 1 - 2*(y*y+z*z)
	r01 := 2 * (x*y - z*w)
	r02 := 2 * (x*z + y*w)
	r10 := 2 * (x*y + z*w)
	r11 := 1 - 2*(x*x+z*z)
	r12 := 2 * (y*z - x*w)
	r20 := 2 * (x*z - y*w)
	r21 := 2 * (y*z + x*w)
	r22 := 1 - 2*(x*x+y*y)

	// Sigma = R S^2 R^T
	sx := sp.Scale.X * sp.Scale.X
	sy := sp.Scale.Y * sp.Scale.Y
	sz := sp.Scale.Z * sp.Scale.Z
	return Sym3{
		r00*r00*sx + r01*r01*sy + r02*r02*sz,
		r00*r10*sx + r01*r11*sy + r02*r12*sz,
		r00*r20*sx + r01*r21*sy + r02*r22*sz,
		r10*r10*sx + r11*r11*sy + r12*r12*sz,
		r10*r20*sx + r11*r21*sy + r12*r22*sz,
		r20*r20*sx + r21*r21*sy + r22*r22*sz,
	}
}

// Radius returns the effective bounding radius of the Gaussian,
// 3 standard deviations along its largest axis (99.7% coverage).
func (sp *Splat) Radius() float32 {
	return 3 * max(sp.Scale.X, sp.Scale.Y, sp.Scale.Z)
}

// IsVisible reports whether the splat's opacity exceeds threshold.
func (sp *Splat) IsVisible(threshold float32) bool {
	return sp.Opacity > threshold
}

// spherical harmonics basis constants, degrees 0-3
const shC0 = 0.28209479177387814

const shC1 = 0.4886025119029199

var shC2 = [5]float32{
	1.0925484305920792,
	-1.0925484305920792,
	0.31539156525252005,
	-1.0925484305920792,
	0.5462742152960396,
}

var shC3 = [7]float32{
	-0.5900435899266435,
	2.890611442640554,
	-0.4570457994644658,
	0.3731763325901154,
	-0.4570457994644658,
	1.445305721320277,
	-0.5900435899266435,
}

// bandZero reports whether all coefficients in SHRest[lo:hi] are
// exactly zero, so the band can be skipped.
func (sp *Splat) bandZero(lo, hi int) bool {
	for i := lo; i < hi; i++ {
		c := sp.SHRest[i]
		if c.X != 0 || c.Y != 0 || c.Z != 0 {
			return false
		}
	}
	return true
}

// EvalColor evaluates the outgoing color along the given unit view
// direction, using SH bands up to maxDegree (clamped to [0, MaxSHDegree]).
// The DC term is always evaluated; higher bands whose coefficients are
// all zero are skipped. The result is clamped to [0, 1] per channel.
func (sp *Splat) EvalColor(dir math32.Vector3, maxDegree int) math32.Vector3 {
	c := sp.SHDC.MulScalar(shC0)
	if maxDegree > MaxSHDegree {
		maxDegree = MaxSHDegree
	}
	x, y, z := dir.X, dir.Y, dir.Z
	if maxDegree >= 1 && !sp.bandZero(0, 3) {
		c = c.Sub(sp.SHRest[0].MulScalar(shC1 * y))
		c = c.Add(sp.SHRest[1].MulScalar(shC1 * z))
		c = c.Sub(sp.SHRest[2].MulScalar(shC1 * x))
	}
	if maxDegree >= 2 && !sp.bandZero(3, 8) {
		xx, yy, zz := x*x, y*y, z*z
		xy, yz, xz := x*y, y*z, x*z
		c = c.Add(sp.SHRest[3].MulScalar(shC2[0] * xy))
		c = c.Add(sp.SHRest[4].MulScalar(shC2[1] * yz))
		c = c.Add(sp.SHRest[5].MulScalar(shC2[2] * (2*zz - xx - yy)))
		c = c.Add(sp.SHRest[6].MulScalar(shC2[3] * xz))
		c = c.Add(sp.SHRest[7].MulScalar(shC2[4] * (xx - yy)))
	}
	if maxDegree >= 3 && !sp.bandZero(8, 15) {
		xx, yy, zz := x*x, y*y, z*z
		c = c.Add(sp.SHRest[8].MulScalar(shC3[0] * y * (3*xx - yy)))
		c = c.Add(sp.SHRest[9].MulScalar(shC3[1] * x * y * z))
		c = c.Add(sp.SHRest[10].MulScalar(shC3[2] * y * (4*zz - xx - yy)))
		c = c.Add(sp.SHRest[11].MulScalar(shC3[3] * z * (2*zz - 3*xx - 3*yy)))
		c = c.Add(sp.SHRest[12].MulScalar(shC3[4] * x * (4*zz - xx - yy)))
		c = c.Add(sp.SHRest[13].MulScalar(shC3[5] * z * (xx - yy)))
		c = c.Add(sp.SHRest[14].MulScalar(shC3[6] * x * (xx - 3*yy)))
	}
	c.Clamp(math32.Vector3{}, math32.Vec3(1, 1, 1))
	return c
}

// isFinite reports whether v has no NaN or Inf components.
func isFinite(v math32.Vector3) bool {
	return !math32.IsNaN(v.X) && !math32.IsInf(v.X, 0) &&
		!math32.IsNaN(v.Y) && !math32.IsInf(v.Y, 0) &&
		!math32.IsNaN(v.Z) && !math32.IsInf(v.Z, 0)
}

// Validate checks the splat invariants: strictly positive finite scale,
// finite position and coefficients, and a normalizable rotation.
// It normalizes Rot and clamps Opacity to [0, 1] in place.
func (sp *Splat) Validate() error {
	if !isFinite(sp.Pos) || !isFinite(sp.Scale) || !isFinite(sp.SHDC) {
		return errNonFinite
	}
	if sp.Scale.X <= 0 || sp.Scale.Y <= 0 || sp.Scale.Z <= 0 {
		return errBadScale
	}
	l := sp.Rot.Length()
	if math32.IsNaN(l) || math32.IsInf(l, 0) || l == 0 {
		return errBadRotation
	}
	sp.Rot.Normalize()
	if math32.IsNaN(sp.Opacity) {
		return errNonFinite
	}
	sp.Opacity = math32.Clamp(sp.Opacity, 0, 1)
	for i := range sp.SHRest {
		if !isFinite(sp.SHRest[i]) {
			return errNonFinite
		}
	}
	return nil
}
