// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package splat

import "cogentcore.org/core/math32"

// Procedural cloud generators, used by examples and tests. These are
// deterministic (no random source) so renders and round trips are
// reproducible.

// GenerateSphere returns a cloud of n splats distributed on a sphere
// shell via a Fibonacci lattice, colored by surface normal.
func GenerateSphere(n int, center math32.Vector3, radius float32) *Cloud {
	if n <= 0 {
		n = 1
	}
	splats := make([]Splat, n)
	ga := math32.Pi * (3 - math32.Sqrt(5)) // golden angle
	for i := range n {
		y := 1 - 2*(float32(i)+0.5)/float32(n)
		r := math32.Sqrt(1 - y*y)
		theta := ga * float32(i)
		dir := math32.Vec3(r*math32.Cos(theta), y, r*math32.Sin(theta))
		sc := radius * 2 / math32.Sqrt(float32(n))
		splats[i] = Splat{
			Pos:     center.Add(dir.MulScalar(radius)),
			Scale:   math32.Vector3Scalar(max(sc, 1e-4)),
			Rot:     math32.NewQuat(0, 0, 0, 1),
			Opacity: 0.8,
			SHDC:    dir.MulScalar(0.5).AddScalar(0.5).DivScalar(shC0).MulScalar(0.5),
		}
	}
	cl, _ := NewCloud(splats) // generated splats are always valid
	return cl
}

// GenerateGrid returns a cloud of nx*ny*nz axis-aligned splats on a
// regular grid with the given spacing, colored by grid coordinate.
func GenerateGrid(nx, ny, nz int, center math32.Vector3, spacing float32) *Cloud {
	nx, ny, nz = max(nx, 1), max(ny, 1), max(nz, 1)
	splats := make([]Splat, 0, nx*ny*nz)
	half := math32.Vec3(float32(nx-1), float32(ny-1), float32(nz-1)).MulScalar(spacing / 2)
	for ix := range nx {
		for iy := range ny {
			for iz := range nz {
				pos := math32.Vec3(float32(ix), float32(iy), float32(iz)).
					MulScalar(spacing).Sub(half).Add(center)
				col := math32.Vec3(
					float32(ix)/float32(nx),
					float32(iy)/float32(ny),
					float32(iz)/float32(nz))
				splats = append(splats, Splat{
					Pos:     pos,
					Scale:   math32.Vector3Scalar(max(spacing/3, 1e-4)),
					Rot:     math32.NewQuat(0, 0, 0, 1),
					Opacity: 0.9,
					SHDC:    col.DivScalar(shC0),
				})
			}
		}
	}
	cl, _ := NewCloud(splats)
	return cl
}
