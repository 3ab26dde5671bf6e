// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"slices"

	"cogentcore.org/core/math32"
)

// InterpMode selects how a CameraPath interpolates between keyframes.
type InterpMode int32

const (
	// Linear interpolates position and target linearly.
	Linear InterpMode = iota

	// CatmullRom interpolates position and target along a Catmull-Rom
	// spline through the keyframes.
	CatmullRom
)

// Keyframe is one camera state on a path.
type Keyframe struct {
	// Time in seconds from path start.
	Time float32

	// Pos is the camera position.
	Pos math32.Vector3

	// Target is the look-at target.
	Target math32.Vector3

	// FOV is the vertical field of view in degrees.
	FOV float32
}

// CameraPath animates a camera through keyframes, for turntables and
// scripted fly-throughs. Keyframes are kept sorted by time.
type CameraPath struct {
	// Keys are the keyframes, sorted by [Keyframe.Time].
	Keys []Keyframe

	// Mode is the interpolation mode.
	Mode InterpMode

	// Loop wraps sample times past the end back to the start.
	Loop bool
}

// AddKeyframe inserts a keyframe, keeping keys sorted by time.
func (cp *CameraPath) AddKeyframe(kf Keyframe) {
	i, _ := slices.BinarySearchFunc(cp.Keys, kf, func(a, b Keyframe) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	cp.Keys = slices.Insert(cp.Keys, i, kf)
}

// Duration returns the time of the last keyframe.
func (cp *CameraPath) Duration() float32 {
	if len(cp.Keys) == 0 {
		return 0
	}
	return cp.Keys[len(cp.Keys)-1].Time
}

// NewOrbitPath returns a closed path orbiting center at the given
// radius and height offset over duration seconds, with steps keyframes
// per revolution. Use with Loop and CatmullRom for a smooth turntable.
func NewOrbitPath(center math32.Vector3, radius, height, duration float32, steps int) *CameraPath {
	if steps < 4 {
		steps = 4
	}
	cp := &CameraPath{Mode: CatmullRom, Loop: true}
	for i := 0; i <= steps; i++ {
		ang := 2 * math32.Pi * float32(i) / float32(steps)
		cp.AddKeyframe(Keyframe{
			Time:   duration * float32(i) / float32(steps),
			Pos:    center.Add(math32.Vec3(radius*math32.Cos(ang), height, radius*math32.Sin(ang))),
			Target: center,
			FOV:    45,
		})
	}
	return cp
}

// Sample returns the interpolated keyframe at time t. Before the first
// or after the last keyframe (without Loop) the nearest endpoint is
// returned.
func (cp *CameraPath) Sample(t float32) Keyframe {
	n := len(cp.Keys)
	if n == 0 {
		return Keyframe{FOV: 45}
	}
	if n == 1 {
		return cp.Keys[0]
	}
	dur := cp.Duration()
	if cp.Loop && dur > 0 {
		t = math32.Mod(t, dur)
		if t < 0 {
			t += dur
		}
	}
	if t <= cp.Keys[0].Time {
		return cp.Keys[0]
	}
	if t >= cp.Keys[n-1].Time {
		return cp.Keys[n-1]
	}
	hi := 1
	for cp.Keys[hi].Time < t {
		hi++
	}
	k0, k1 := cp.Keys[hi-1], cp.Keys[hi]
	span := k1.Time - k0.Time
	u := float32(0)
	if span > 0 {
		u = (t - k0.Time) / span
	}

	out := Keyframe{Time: t, FOV: math32.Lerp(k0.FOV, k1.FOV, u)}
	if cp.Mode == CatmullRom {
		p0, p3 := cp.neighbor(hi-2), cp.neighbor(hi+1)
		out.Pos = catmullRom(p0.Pos, k0.Pos, k1.Pos, p3.Pos, u)
		out.Target = catmullRom(p0.Target, k0.Target, k1.Target, p3.Target, u)
	} else {
		out.Pos = k0.Pos.Lerp(k1.Pos, u)
		out.Target = k0.Target.Lerp(k1.Target, u)
	}
	return out
}

// neighbor returns the keyframe at index i, clamped or wrapped
// depending on Loop, for spline end conditions.
func (cp *CameraPath) neighbor(i int) Keyframe {
	n := len(cp.Keys)
	if cp.Loop {
		// first and last keys of a closed path coincide; skip the
		// duplicate when wrapping
		m := n - 1
		return cp.Keys[((i%m)+m)%m]
	}
	return cp.Keys[math32.Clamp(i, 0, n-1)]
}

// Apply positions the camera at the path state for time t.
func (cp *CameraPath) Apply(cm *Camera, t float32) {
	kf := cp.Sample(t)
	cm.FOV = kf.FOV
	cm.LookAt(kf.Pos, kf.Target, math32.Vec3(0, 1, 0))
}

// catmullRom evaluates a centripetal-free (uniform) Catmull-Rom
// segment between p1 and p2 at parameter u in [0, 1].
func catmullRom(p0, p1, p2, p3 math32.Vector3, u float32) math32.Vector3 {
	u2 := u * u
	u3 := u2 * u
	c0 := p1.MulScalar(2)
	c1 := p2.Sub(p0).MulScalar(u)
	c2 := p0.MulScalar(2).Sub(p1.MulScalar(5)).Add(p2.MulScalar(4)).Sub(p3).MulScalar(u2)
	c3 := p1.MulScalar(3).Sub(p2.MulScalar(3)).Add(p3).Sub(p0).MulScalar(u3)
	return c0.Add(c1).Add(c2).Add(c3).MulScalar(0.5)
}
