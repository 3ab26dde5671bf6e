// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"time"

	"cogentcore.org/core/math32"
	"github.com/sharp3d/sharp/depthsort"
	"github.com/sharp3d/sharp/kernel"
	"github.com/sharp3d/sharp/splat"
)

// Item is one cloud to render, with its model (object-to-world)
// matrix. The scene builds one Item per visible object.
type Item struct {
	Cloud  *splat.Cloud
	Matrix math32.Matrix4
}

// Renderer rasterizes splat clouds into its framebuffer. A frame is
// two synchronous phases: a compute phase that culls and depth-sorts
// the combined candidate set, and a draw phase that projects splats in
// parallel and composites them in sorted order. The draw phase never
// starts before the sorted index buffer is fully materialized; the
// dispatcher barriers guarantee that.
type Renderer struct {
	// Config is the rendering configuration; mutate between frames.
	Config Config

	// Stats holds statistics for the last rendered frame.
	Stats Stats

	// Frame is the render target.
	Frame *Framebuffer

	ds *kernel.Dispatcher
	en *depthsort.Engine
}

// New returns a renderer with a framebuffer of the given size and
// default configuration, dispatching on all available CPUs.
func New(width, height int) *Renderer {
	return NewWithDispatcher(width, height, kernel.NewDispatcher(0))
}

// NewWithDispatcher is [New] on an explicit dispatcher.
func NewWithDispatcher(width, height int, ds *kernel.Dispatcher) *Renderer {
	rd := &Renderer{
		Frame: NewFramebuffer(width, height),
		ds:    ds,
		en:    depthsort.NewEngine(ds),
	}
	rd.Config.Defaults()
	return rd
}

// Dispatcher returns the compute dispatcher the renderer runs on.
func (rd *Renderer) Dispatcher() *kernel.Dispatcher { return rd.ds }

// ref addresses one splat within the submitted items.
type ref struct {
	item int
	idx  int
}

// Render composites the given items over the current framebuffer
// contents using the camera. Call [Framebuffer.Clear] first for a
// fresh frame. Items and camera must not be mutated for the duration
// of the call.
func (rd *Renderer) Render(items []Item, cm *Camera) {
	start := time.Now()
	rd.Stats = Stats{FrameIndex: rd.Stats.FrameIndex + 1}
	fr := newFrame(cm)

	total := 0
	for i := range items {
		total += items[i].Cloud.Len()
	}
	rd.Stats.TotalSplats = total
	if total == 0 {
		rd.Stats.TotalTime = time.Since(start)
		return
	}

	// compute phase: depth + cull kernel over all candidates, then
	// compaction and sort of the survivors
	refs := make([]ref, total)
	depths := make([]float32, total)
	keep := make([]bool, total)
	base := 0
	for i := range items {
		it := &items[i]
		_, _, msc := it.Matrix.Decompose()
		radiusScale := max(msc.X, msc.Y, msc.Z)
		lo := base
		rd.ds.Run(it.Cloud.Len(), func(j int) {
			sp := it.Cloud.Splat(j)
			refs[lo+j] = ref{item: i, idx: j}
			world := sp.Pos.MulMatrix4(&it.Matrix)
			d, ok := fr.cullDepth(world, sp.Radius()*radiusScale, rd.Config.EnableFrustumCulling)
			if ok && sp.Opacity*rd.Config.OpacityScale >= rd.Config.MinOpacity {
				depths[lo+j] = d
				keep[lo+j] = true
			}
		})
		base += it.Cloud.Len()
	}

	nv := 0
	for i := range keep {
		if keep[i] {
			refs[nv] = refs[i]
			depths[nv] = depths[i]
			nv++
		}
	}
	refs, depths = refs[:nv], depths[:nv]
	rd.Stats.VisibleSplats = nv
	rd.Stats.CulledSplats = total - nv

	sortStart := time.Now()
	var order []uint32
	if rd.Config.EnableDepthSort {
		order = rd.en.Sort(depths)
	} else {
		order = make([]uint32, nv)
		for i := range order {
			order[i] = uint32(i)
		}
	}
	rd.Stats.SortTime = time.Since(sortStart)

	// draw phase: data-parallel projection, then in-order compositing
	drawStart := time.Now()
	projs := make([]proj, nv)
	rd.ds.Run(nv, func(i int) {
		rf := refs[i]
		it := &items[rf.item]
		projs[i] = fr.projectSplat(it.Cloud.Splat(rf.idx), &it.Matrix, &rd.Config)
	})
	for _, oi := range order {
		rd.Frame.composite(&projs[oi])
	}
	rd.Stats.RenderTime = time.Since(drawStart)
	rd.Stats.TotalTime = time.Since(start)
}
