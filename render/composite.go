// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image"
	"image/color"

	"cogentcore.org/core/math32"
)

// alphaCutoff discards fragments whose final alpha falls below one
// quantization step; they cannot change the 8-bit composite.
const alphaCutoff = 1.0 / 255

// Framebuffer is a float32 RGBA render target with premultiplied
// color, composited back-to-front with the standard over operator.
type Framebuffer struct {
	Width  int
	Height int

	// Pix holds premultiplied RGBA values, row-major, 4 per pixel.
	Pix []float32
}

// NewFramebuffer returns a framebuffer of the given pixel size.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{Width: width, Height: height, Pix: make([]float32, width*height*4)}
}

// Clear fills the framebuffer with the given premultiplied RGBA color.
func (fb *Framebuffer) Clear(r, g, b, a float32) {
	for i := 0; i < len(fb.Pix); i += 4 {
		fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2], fb.Pix[i+3] = r, g, b, a
	}
}

// At returns the premultiplied RGBA value at (x, y).
func (fb *Framebuffer) At(x, y int) math32.Vector4 {
	i := (y*fb.Width + x) * 4
	return math32.Vec4(fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2], fb.Pix[i+3])
}

// Image converts the framebuffer to an 8-bit RGBA image.
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := range fb.Height {
		for x := range fb.Width {
			v := fb.At(x, y)
			v.Clamp(math32.Vector4{}, math32.Vec4(1, 1, 1, 1))
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(v.X*255 + 0.5),
				G: uint8(v.Y*255 + 0.5),
				B: uint8(v.Z*255 + 0.5),
				A: uint8(v.W*255 + 0.5),
			})
		}
	}
	return img
}

// composite blends one projected splat over the framebuffer. For each
// pixel in the billboard's bounding extent it evaluates the 2D
// Gaussian falloff exp(-0.5 u^T conic u) in billboard-local pixel
// offsets u, scales the splat alpha by it, discards imperceptible
// fragments, and applies premultiplied over blending. Callers must
// composite in back-to-front depth order.
func (fb *Framebuffer) composite(pr *proj) {
	if !pr.ok {
		return
	}
	rx := math32.Abs(pr.axis1.X) + math32.Abs(pr.axis2.X)
	ry := math32.Abs(pr.axis1.Y) + math32.Abs(pr.axis2.Y)
	x0 := max(int(math32.Floor(pr.center.X-rx)), 0)
	x1 := min(int(math32.Ceil(pr.center.X+rx)), fb.Width-1)
	y0 := max(int(math32.Floor(pr.center.Y-ry)), 0)
	y1 := min(int(math32.Ceil(pr.center.Y+ry)), fb.Height-1)

	for y := y0; y <= y1; y++ {
		uy := float32(y) + 0.5 - pr.center.Y
		row := y * fb.Width * 4
		for x := x0; x <= x1; x++ {
			ux := float32(x) + 0.5 - pr.center.X
			q := pr.conic.a*ux*ux + 2*pr.conic.b*ux*uy + pr.conic.d*uy*uy
			if q > 9 { // beyond 3 standard deviations
				continue
			}
			a := pr.alpha * math32.FastExp(-0.5*q)
			if a < alphaCutoff {
				continue
			}
			i := row + x*4
			ia := 1 - a
			fb.Pix[i] = pr.color.X*a + fb.Pix[i]*ia
			fb.Pix[i+1] = pr.color.Y*a + fb.Pix[i+1]*ia
			fb.Pix[i+2] = pr.color.Z*a + fb.Pix[i+2]*ia
			fb.Pix[i+3] = a + fb.Pix[i+3]*ia
		}
	}
}
