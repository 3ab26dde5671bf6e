// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package depthsort

// bubbleSort is the serial reference implementation, kept for
// degenerate counts and as the oracle the parallel strategies are
// tested against.
func bubbleSort(perm []uint32, depths []float32) {
	n := len(perm)
	for {
		swapped := false
		for i := 1; i < n; i++ {
			if before(depths, perm[i], perm[i-1]) {
				perm[i-1], perm[i] = perm[i], perm[i-1]
				swapped = true
			}
		}
		if !swapped {
			return
		}
	}
}
