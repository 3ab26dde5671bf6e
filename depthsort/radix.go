// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package depthsort

const (
	radixBits    = 8
	radixBuckets = 1 << radixBits
	radixPasses  = 32 / radixBits
)

// radixSort sorts perm by LSD radix on the depth reinterpreted as an
// order-preserving unsigned key (complemented for descending order),
// 8 bits per pass. Each pass runs a per-chunk histogram kernel, a
// host-side exclusive prefix over (digit, chunk), and a per-chunk
// stable scatter kernel, then swaps the ping-pong buffers. Histogram
// and scatter of one pass and consecutive passes are separated by
// dispatch barriers. Chunk-major prefix order within a digit preserves
// input order for equal digits, so the sort is stable.
func (en *Engine) radixSort(perm []uint32, depths []float32) {
	n := len(perm)

	keys := make([]uint32, n)
	en.ds.Run(n, func(i int) {
		// complement: ascending key order = descending depth order
		keys[i] = ^orderedKey(depths[i])
	})

	// fixed chunk grid for all passes
	nc := en.ds.NumChunks(n)
	csz := (n + nc - 1) / nc
	chunkOf := func(c int) (lo, hi int) {
		lo = c * csz
		return lo, min(lo+csz, n)
	}

	src := perm
	dst := make([]uint32, n)
	hist := make([][radixBuckets]uint32, nc)

	for pass := range radixPasses {
		shift := pass * radixBits

		for c := range hist {
			clear(hist[c][:])
		}
		en.ds.Run(nc, func(c int) {
			lo, hi := chunkOf(c)
			h := &hist[c]
			for i := lo; i < hi; i++ {
				d := (keys[src[i]] >> shift) & (radixBuckets - 1)
				h[d]++
			}
		})

		// exclusive prefix over (digit, chunk): all chunk-0 elements of
		// a digit land before chunk-1 elements of the same digit
		var sum uint32
		for d := range radixBuckets {
			for c := range hist {
				cnt := hist[c][d]
				hist[c][d] = sum
				sum += cnt
			}
		}

		en.ds.Run(nc, func(c int) {
			lo, hi := chunkOf(c)
			base := &hist[c]
			for i := lo; i < hi; i++ {
				d := (keys[src[i]] >> shift) & (radixBuckets - 1)
				dst[base[d]] = src[i]
				base[d]++
			}
		})

		src, dst = dst, src
	}
	// radixPasses is even, so the final result is back in perm
	if &src[0] != &perm[0] {
		copy(perm, src)
	}
}
