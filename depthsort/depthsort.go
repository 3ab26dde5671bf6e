// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package depthsort orders splats by camera depth for back-to-front
// alpha compositing. It provides a family of internally data-parallel
// sorting strategies (bitonic network, merge passes, LSD radix, and a
// bubble reference) behind a single count-based dispatcher, all
// expressed as kernels on a [kernel.Dispatcher] with full barriers
// between dependent passes.
package depthsort

import (
	"math"

	"github.com/sharp3d/sharp/kernel"
)

// Strategy selects a sorting algorithm.
type Strategy int32

const (
	// Bubble is the O(n^2) reference implementation, used only for
	// very small inputs and as a correctness oracle in tests.
	Bubble Strategy = iota

	// Bitonic is a data-oblivious compare-exchange network with
	// log2(n) stages, each of stage-many barrier-separated steps.
	Bitonic

	// Merge repeatedly merges sorted runs of doubling width, one
	// barrier per pass; stable.
	Merge

	// Radix sorts order-preserving unsigned keys 8 bits at a time
	// with histogram/scatter passes and ping-pong buffers; stable.
	Radix
)

func (st Strategy) String() string {
	switch st {
	case Bubble:
		return "Bubble"
	case Bitonic:
		return "Bitonic"
	case Merge:
		return "Merge"
	case Radix:
		return "Radix"
	}
	return "Strategy(?)"
}

// strategy selection thresholds, by element count
const (
	bubbleMaxN  = 64
	bitonicMaxN = 4096
	mergeMaxN   = 131072
)

// ChooseStrategy returns the strategy used for n elements: bubble for
// degenerate counts, the bitonic network below a few thousand, merge
// passes at medium scale, and radix for 100K+ elements.
func ChooseStrategy(n int) Strategy {
	switch {
	case n <= bubbleMaxN:
		return Bubble
	case n <= bitonicMaxN:
		return Bitonic
	case n <= mergeMaxN:
		return Merge
	}
	return Radix
}

// Engine computes back-to-front permutations of splat depths.
type Engine struct {
	ds *kernel.Dispatcher
}

// NewEngine returns an Engine running on the given dispatcher.
func NewEngine(ds *kernel.Dispatcher) *Engine {
	return &Engine{ds: ds}
}

// Sort returns a permutation of [0, len(depths)) ordering depths
// back-to-front: depths[perm[i]] >= depths[perm[i+1]] for all i.
// Ties break by ascending index, so the result is deterministic for a
// given input regardless of strategy or worker count. Depths must be
// finite. The strategy is chosen by element count.
func (en *Engine) Sort(depths []float32) []uint32 {
	return en.SortWith(ChooseStrategy(len(depths)), depths)
}

// SortWith is [Engine.Sort] with an explicit strategy, for tests and
// diagnostics.
func (en *Engine) SortWith(st Strategy, depths []float32) []uint32 {
	n := len(depths)
	perm := make([]uint32, n)
	for i := range perm {
		perm[i] = uint32(i)
	}
	if n < 2 {
		return perm
	}
	switch st {
	case Bitonic:
		en.bitonicSort(perm, depths)
	case Merge:
		en.mergeSort(perm, depths)
	case Radix:
		en.radixSort(perm, depths)
	default:
		bubbleSort(perm, depths)
	}
	return perm
}

// before reports whether index a precedes index b in back-to-front
// order: strictly greater depth first, ascending index on ties.
func before(depths []float32, a, b uint32) bool {
	da, db := depths[a], depths[b]
	if da != db {
		return da > db
	}
	return a < b
}

// orderedKey maps a float32 to a uint32 whose unsigned order matches
// the float total order, including negative values: the sign bit is
// flipped for positives and the whole word complemented for negatives.
func orderedKey(f float32) uint32 {
	b := math.Float32bits(f)
	if b&0x80000000 != 0 {
		return ^b
	}
	return b | 0x80000000
}
