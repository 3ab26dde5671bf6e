// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splat

import (
	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/math32"
	"github.com/sharp3d/sharp/kernel"
)

var (
	errEmpty       = errors.New("splat: cloud must contain at least one splat")
	errBadScale    = errors.New("splat: scale components must be strictly positive")
	errBadRotation = errors.New("splat: rotation quaternion is not normalizable")
	errNonFinite   = errors.New("splat: non-finite splat attribute")
)

// Cloud owns an ordered collection of splats plus a device buffer
// mirror of the packed splat data. Clouds are exclusively owned by one
// SceneObject at a time and are moved, not copied, between owners.
type Cloud struct {
	splats []Splat

	// lazily recomputed axis-aligned bounds over splat positions
	bounds      math32.Box3
	boundsValid bool

	// device mirror of the packed splat data; nil until uploaded
	buffer *kernel.Buffer

	// dirty is set whenever splat data changes after an upload
	dirty bool
}

// NewCloud constructs a cloud from a copy of the given splats,
// validating every splat (see [Splat.Validate]). It fails if splats is
// empty or any splat has a non-positive scale component or non-finite
// attribute, so no NaN/Inf can propagate downstream.
func NewCloud(splats []Splat) (*Cloud, error) {
	if len(splats) == 0 {
		return nil, errEmpty
	}
	cl := &Cloud{splats: make([]Splat, len(splats)), dirty: true}
	copy(cl.splats, splats)
	for i := range cl.splats {
		if err := cl.splats[i].Validate(); err != nil {
			return nil, err
		}
	}
	return cl, nil
}

// Len returns the number of splats in the cloud.
func (cl *Cloud) Len() int { return len(cl.splats) }

// IsEmpty reports whether the cloud has no splats.
func (cl *Cloud) IsEmpty() bool { return len(cl.splats) == 0 }

// Splat returns a pointer to the splat at index i.
func (cl *Cloud) Splat(i int) *Splat { return &cl.splats[i] }

// Splats returns the underlying splat slice. Callers that mutate it
// must call [Cloud.SetDirty].
func (cl *Cloud) Splats() []Splat { return cl.splats }

// Reserve grows the underlying storage to hold at least n splats.
func (cl *Cloud) Reserve(n int) {
	if cap(cl.splats) < n {
		ns := make([]Splat, len(cl.splats), n)
		copy(ns, cl.splats)
		cl.splats = ns
	}
}

// Add appends a single splat after validating it.
func (cl *Cloud) Add(sp Splat) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	cl.splats = append(cl.splats, sp)
	cl.SetDirty()
	return nil
}

// AddSplats appends the given splats after validating each.
func (cl *Cloud) AddSplats(splats []Splat) error {
	cl.Reserve(len(cl.splats) + len(splats))
	for _, sp := range splats {
		if err := cl.Add(sp); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes all splats.
func (cl *Cloud) Clear() {
	cl.splats = cl.splats[:0]
	cl.SetDirty()
}

// SetDirty invalidates the cached bounds and marks the device buffer
// as needing re-upload.
func (cl *Cloud) SetDirty() {
	cl.boundsValid = false
	cl.dirty = true
}

// MemoryUsage returns the total memory footprint in bytes: packed splat
// size times count for the host copy, plus the device buffer if uploaded.
func (cl *Cloud) MemoryUsage() int {
	return len(cl.splats)*NumBytes + cl.buffer.Size()
}

// Bounds returns the axis-aligned bounding box over splat positions,
// recomputing it lazily after mutations.
func (cl *Cloud) Bounds() math32.Box3 {
	if !cl.boundsValid {
		cl.bounds = math32.B3Empty()
		for i := range cl.splats {
			cl.bounds.ExpandByPoint(cl.splats[i].Pos)
		}
		cl.boundsValid = true
	}
	return cl.bounds
}

// Center returns the center of the bounding box.
func (cl *Cloud) Center() math32.Vector3 { return cl.Bounds().Center() }

// Size returns the size of the bounding box.
func (cl *Cloud) Size() math32.Vector3 { return cl.Bounds().Size() }

//////// Spatial transformations

// Translate offsets all splat positions.
func (cl *Cloud) Translate(offset math32.Vector3) {
	for i := range cl.splats {
		cl.splats[i].Pos.SetAdd(offset)
	}
	cl.SetDirty()
}

// Rotate rotates all splats around the cloud center.
func (cl *Cloud) Rotate(q math32.Quat) {
	cl.RotateAround(q, cl.Center())
}

// RotateAround rotates all splats around the given point: positions
// orbit the point and each splat's orientation is composed with q.
func (cl *Cloud) RotateAround(q math32.Quat, center math32.Vector3) {
	q.Normalize()
	for i := range cl.splats {
		sp := &cl.splats[i]
		sp.Pos = sp.Pos.Sub(center).MulQuat(q).Add(center)
		sp.Rot = q.Mul(sp.Rot)
		sp.Rot.Normalize()
	}
	cl.SetDirty()
}

// Scale scales all splat positions and extents uniformly about the
// origin. factor must be > 0.
func (cl *Cloud) Scale(factor float32) {
	cl.ScaleComponents(math32.Vector3Scalar(factor))
}

// ScaleComponents scales positions and extents per axis about the
// origin. All components must be > 0. Per-axis splat extents scale
// exactly only for axis-aligned splats; for rotated splats this is the
// usual componentwise approximation.
func (cl *Cloud) ScaleComponents(f math32.Vector3) {
	if f.X <= 0 || f.Y <= 0 || f.Z <= 0 {
		return
	}
	for i := range cl.splats {
		sp := &cl.splats[i]
		sp.Pos.SetMul(f)
		sp.Scale.SetMul(f)
	}
	cl.SetDirty()
}

// Transform applies a 4x4 affine transform to all splats: positions are
// transformed by the full matrix, orientations by its rotation and
// extents by its scale.
func (cl *Cloud) Transform(m *math32.Matrix4) {
	_, quat, scale := m.Decompose()
	for i := range cl.splats {
		sp := &cl.splats[i]
		sp.Pos = sp.Pos.MulMatrix4(m)
		sp.Rot = quat.Mul(sp.Rot)
		sp.Rot.Normalize()
		sp.Scale.SetMul(scale)
	}
	cl.SetDirty()
}

//////// Filtering

// filter keeps only splats for which keep returns true, in order.
func (cl *Cloud) filter(keep func(sp *Splat) bool) {
	out := cl.splats[:0]
	for i := range cl.splats {
		if keep(&cl.splats[i]) {
			out = append(out, cl.splats[i])
		}
	}
	cl.splats = out
	cl.SetDirty()
}

// FilterByOpacity removes splats with opacity below minOpacity.
func (cl *Cloud) FilterByOpacity(minOpacity float32) {
	cl.filter(func(sp *Splat) bool { return sp.Opacity >= minOpacity })
}

// FilterBySize removes splats whose maximum scale component is outside
// [minSize, maxSize].
func (cl *Cloud) FilterBySize(minSize, maxSize float32) {
	cl.filter(func(sp *Splat) bool {
		s := max(sp.Scale.X, sp.Scale.Y, sp.Scale.Z)
		return s >= minSize && s <= maxSize
	})
}

// FilterByBounds removes splats whose position lies outside the box.
func (cl *Cloud) FilterByBounds(box math32.Box3) {
	cl.filter(func(sp *Splat) bool { return box.ContainsPoint(sp.Pos) })
}

// RemoveInvisible removes splats with opacity at or below threshold.
func (cl *Cloud) RemoveInvisible(threshold float32) {
	cl.filter(func(sp *Splat) bool { return sp.IsVisible(threshold) })
}

//////// Statistics

// AverageOpacity returns the mean splat opacity, 0 for an empty cloud.
func (cl *Cloud) AverageOpacity() float32 {
	if len(cl.splats) == 0 {
		return 0
	}
	var sum float64
	for i := range cl.splats {
		sum += float64(cl.splats[i].Opacity)
	}
	return float32(sum / float64(len(cl.splats)))
}

// AverageScale returns the mean splat scale magnitude, 0 for an empty
// cloud.
func (cl *Cloud) AverageScale() float32 {
	if len(cl.splats) == 0 {
		return 0
	}
	var sum float64
	for i := range cl.splats {
		sum += float64(cl.splats[i].Scale.Length())
	}
	return float32(sum / float64(len(cl.splats)))
}

//////// Device buffer

// pack writes the packed layout of splat i into out, which must hold
// NumFloats values.
func (sp *Splat) pack(out []float32) {
	out[0], out[1], out[2] = sp.Pos.X, sp.Pos.Y, sp.Pos.Z
	out[3], out[4], out[5] = sp.Scale.X, sp.Scale.Y, sp.Scale.Z
	out[6], out[7], out[8], out[9] = sp.Rot.W, sp.Rot.X, sp.Rot.Y, sp.Rot.Z
	out[10] = sp.Opacity
	out[11], out[12], out[13] = sp.SHDC.X, sp.SHDC.Y, sp.SHDC.Z
	for i, c := range sp.SHRest {
		out[14+3*i], out[15+3*i], out[16+3*i] = c.X, c.Y, c.Z
	}
}

// Upload packs the splat data and uploads it to the device buffer,
// allocating the buffer on first use. It is a no-op when the buffer is
// current. Upload must be quiesced against any in-flight render using
// the old buffer; the scene render lock provides that.
func (cl *Cloud) Upload(ds *kernel.Dispatcher) error {
	if cl.buffer != nil && !cl.dirty {
		return nil
	}
	n := len(cl.splats) * NumFloats
	if cl.buffer == nil || cl.buffer.Size() < n*4 {
		nb, err := kernel.NewBuffer(n)
		if err != nil {
			return err
		}
		cl.buffer = nb
	}
	data := cl.buffer.Data()
	ds.Run(len(cl.splats), func(i int) {
		cl.splats[i].pack(data[i*NumFloats : (i+1)*NumFloats])
	})
	cl.dirty = false
	return nil
}

// Buffer returns the device buffer mirror, nil until uploaded.
func (cl *Cloud) Buffer() *kernel.Buffer { return cl.buffer }

// IsBufferDirty reports whether splat data changed since last upload.
func (cl *Cloud) IsBufferDirty() bool { return cl.buffer == nil || cl.dirty }
