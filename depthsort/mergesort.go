// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package depthsort

// mergeSort sorts perm by repeated pairwise merges of sorted runs of
// doubling width: pass p merges runs of width 2^p into 2^(p+1),
// dispatching one invocation per run pair and ping-ponging between two
// index buffers. Each pass consumes the previous pass's runs, so there
// is one barrier per pass, log2(n) passes total. The merge takes the
// left element on equal keys, so the sort is stable; with the index
// tie-break in [before] the result is a full deterministic order.
func (en *Engine) mergeSort(perm []uint32, depths []float32) {
	n := len(perm)
	src := perm
	dst := make([]uint32, n)
	for width := 1; width < n; width <<= 1 {
		pairs := (n + 2*width - 1) / (2 * width)
		en.ds.Run(pairs, func(p int) {
			lo := p * 2 * width
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			i, j := lo, mid
			for k := lo; k < hi; k++ {
				if i < mid && (j >= hi || !before(depths, src[j], src[i])) {
					dst[k] = src[i]
					i++
				} else {
					dst[k] = src[j]
					j++
				}
			}
		})
		src, dst = dst, src
	}
	if &src[0] != &perm[0] {
		copy(perm, src)
	}
}
