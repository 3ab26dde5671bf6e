// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"time"

	"github.com/sharp3d/sharp/splat"
)

// Config holds the rendering configuration.
type Config struct {
	// EnableDepthSort controls back-to-front depth sorting, required
	// for correct transparency. Disabling renders splats in input
	// order: faster, but blending artifacts are expected.
	EnableDepthSort bool

	// EnableSH enables view-dependent color from spherical harmonics.
	// When off, only the DC component is used.
	EnableSH bool

	// MaxSHDegree is the maximum spherical harmonics degree (0-3).
	MaxSHDegree int

	// SplatScale multiplies the projected billboard extents.
	SplatScale float32

	// OpacityScale multiplies every splat's opacity.
	OpacityScale float32

	// MinOpacity culls splats whose scaled opacity is below it.
	MinOpacity float32

	// EnableFrustumCulling drops splats outside the view frustum
	// before sorting and projection.
	EnableFrustumCulling bool
}

// Defaults sets the default configuration.
func (cf *Config) Defaults() {
	cf.EnableDepthSort = true
	cf.EnableSH = true
	cf.MaxSHDegree = splat.MaxSHDegree
	cf.SplatScale = 1
	cf.OpacityScale = 1
	cf.MinOpacity = 1.0 / 255
	cf.EnableFrustumCulling = true
}

// shDegree returns the SH degree to evaluate under the config.
func (cf *Config) shDegree() int {
	if !cf.EnableSH {
		return 0
	}
	return cf.MaxSHDegree
}

// Stats reports per-frame rendering statistics, reset at the start of
// each [Renderer.Render] call.
type Stats struct {
	// TotalSplats is the number of candidate splats submitted.
	TotalSplats int

	// VisibleSplats is the number of splats surviving culling.
	VisibleSplats int

	// CulledSplats is the number of splats dropped by frustum or
	// opacity culling.
	CulledSplats int

	// SortTime is the duration of the compute (sort) phase.
	SortTime time.Duration

	// RenderTime is the duration of the draw phase.
	RenderTime time.Duration

	// TotalTime is the full frame duration.
	TotalTime time.Duration

	// FrameIndex counts frames rendered since renderer creation.
	FrameIndex int
}
