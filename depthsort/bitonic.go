// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package depthsort

import "math/bits"

// padIndex marks padding slots in the bitonic working array. Padding
// compares after every real index, so it collects at the end and the
// leading n slots hold the result.
const padIndex = ^uint32(0)

// bitonicBefore is the network comparator: real indices order by
// [before], padding sinks to the end.
func bitonicBefore(depths []float32, a, b uint32) bool {
	if a == padIndex {
		return false
	}
	if b == padIndex {
		return true
	}
	return before(depths, a, b)
}

// bitonicSort runs the bitonic compare-exchange network over perm.
// The input is padded to a power of two; the network runs log2(m)
// stages, stage s consisting of s barrier-separated steps. Each step
// dispatches one invocation per element; the invocation owning the
// lower element of a comparator pair at the step's stride performs the
// conditional exchange, with the direction bit derived from the
// element's stage block. Every step depends on the previous step's
// exchanges, so each dispatch return is a required barrier.
func (en *Engine) bitonicSort(perm []uint32, depths []float32) {
	n := len(perm)
	m := 1 << bits.Len(uint(n-1)) // next power of two
	work := make([]uint32, m)
	copy(work, perm)
	for i := n; i < m; i++ {
		work[i] = padIndex
	}

	for k := 2; k <= m; k <<= 1 {
		for stride := k >> 1; stride > 0; stride >>= 1 {
			en.ds.Run(m, func(i int) {
				partner := i ^ stride
				if partner <= i {
					return
				}
				ascending := i&k == 0
				a, b := work[i], work[partner]
				if bitonicBefore(depths, b, a) == ascending {
					work[i], work[partner] = b, a
				}
			})
		}
	}
	copy(perm, work[:n])
}
