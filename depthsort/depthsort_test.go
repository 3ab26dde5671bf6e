// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package depthsort

import (
	"math/rand"
	"testing"

	"github.com/sharp3d/sharp/kernel"
	"github.com/stretchr/testify/assert"
)

var allStrategies = []Strategy{Bubble, Bitonic, Merge, Radix}

// checkBackToFront asserts perm is a permutation ordering depths
// non-increasingly, with ascending indices on ties.
func checkBackToFront(t *testing.T, depths []float32, perm []uint32) {
	t.Helper()
	assert.Equal(t, len(depths), len(perm))
	seen := make([]bool, len(depths))
	for _, p := range perm {
		assert.False(t, seen[p], "index %d repeated", p)
		seen[p] = true
	}
	for i := 1; i < len(perm); i++ {
		a, b := perm[i-1], perm[i]
		da, db := depths[a], depths[b]
		assert.GreaterOrEqual(t, da, db, "position %d", i)
		if da == db {
			assert.Less(t, a, b, "tie at position %d not index-ordered", i)
		}
	}
}

func randDepths(rng *rand.Rand, n int) []float32 {
	ds := make([]float32, n)
	for i := range ds {
		ds[i] = float32(rng.NormFloat64() * 100)
		if i%7 == 0 && i > 0 {
			ds[i] = ds[i-1] // inject ties
		}
	}
	return ds
}

func TestAllStrategiesAllSizes(t *testing.T) {
	en := NewEngine(kernel.NewDispatcher(0))
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 2, 3, 7, 63, 64, 65, 100, 1000, 4097} {
		depths := randDepths(rng, n)
		for _, st := range allStrategies {
			perm := en.SortWith(st, depths)
			checkBackToFront(t, depths, perm)
		}
	}
}

func TestStrategiesAgree(t *testing.T) {
	// with the index tie-break the comparator is a total order, so
	// every strategy must produce the identical permutation
	en := NewEngine(kernel.NewDispatcher(0))
	rng := rand.New(rand.NewSource(7))
	depths := randDepths(rng, 777)
	want := en.SortWith(Bubble, depths)
	for _, st := range []Strategy{Bitonic, Merge, Radix} {
		assert.Equal(t, want, en.SortWith(st, depths), st.String())
	}
}

func TestNegativeAndExtremeDepths(t *testing.T) {
	en := NewEngine(kernel.NewDispatcher(0))
	depths := []float32{-1.5, 3e38, 0, -3e38, 2.5, -1.5, 1e-38, -1e-38}
	for _, st := range allStrategies {
		checkBackToFront(t, depths, en.SortWith(st, depths))
	}
}

func TestSortedInputs(t *testing.T) {
	en := NewEngine(kernel.NewDispatcher(0))
	n := 500
	asc := make([]float32, n)
	desc := make([]float32, n)
	same := make([]float32, n)
	for i := range asc {
		asc[i] = float32(i)
		desc[i] = float32(n - i)
		same[i] = 1
	}
	for _, st := range allStrategies {
		checkBackToFront(t, asc, en.SortWith(st, asc))
		checkBackToFront(t, desc, en.SortWith(st, desc))
		perm := en.SortWith(st, same)
		for i, p := range perm {
			assert.Equal(t, uint32(i), p, "%v all-equal input must be identity", st)
		}
	}
}

func TestSortSelectsByCount(t *testing.T) {
	assert.Equal(t, Bubble, ChooseStrategy(0))
	assert.Equal(t, Bubble, ChooseStrategy(64))
	assert.Equal(t, Bitonic, ChooseStrategy(65))
	assert.Equal(t, Bitonic, ChooseStrategy(4096))
	assert.Equal(t, Merge, ChooseStrategy(4097))
	assert.Equal(t, Merge, ChooseStrategy(131072))
	assert.Equal(t, Radix, ChooseStrategy(131073))
}

func TestSortLargeRadix(t *testing.T) {
	if testing.Short() {
		t.Skip("large radix sort in -short mode")
	}
	en := NewEngine(kernel.NewDispatcher(0))
	rng := rand.New(rand.NewSource(3))
	depths := randDepths(rng, 200000)
	perm := en.Sort(depths)
	checkBackToFront(t, depths, perm)
}

func TestDeterministicAcrossWorkerCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	depths := randDepths(rng, 2048)
	var want []uint32
	for _, workers := range []int{1, 2, 3, 8} {
		en := NewEngine(kernel.NewDispatcher(workers))
		for _, st := range allStrategies {
			perm := en.SortWith(st, depths)
			if want == nil {
				want = perm
				continue
			}
			assert.Equal(t, want, perm, "workers=%d strategy=%v", workers, st)
		}
	}
}

func TestOrderedKeyMonotonic(t *testing.T) {
	vals := []float32{-3e38, -100, -1.5, -1e-38, 0, 1e-38, 1.5, 100, 3e38}
	for i := 1; i < len(vals); i++ {
		assert.Less(t, orderedKey(vals[i-1]), orderedKey(vals[i]),
			"%v vs %v", vals[i-1], vals[i])
	}
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "Bitonic", Bitonic.String())
	assert.Equal(t, "Radix", Radix.String())
	assert.Equal(t, "Strategy(?)", Strategy(99).String())
}

func BenchmarkSortStrategies(b *testing.B) {
	en := NewEngine(kernel.NewDispatcher(0))
	rng := rand.New(rand.NewSource(1))
	depths := randDepths(rng, 100000)
	for _, st := range []Strategy{Merge, Radix} {
		b.Run(st.String(), func(b *testing.B) {
			for range b.N {
				en.SortWith(st, depths)
			}
		})
	}
}
