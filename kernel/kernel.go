// Copyright (c) 2025, Sharp Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernel provides a data-parallel compute dispatch abstraction:
// run N invocations of a kernel function, with the return acting as a
// full synchronization barrier. The same algorithmic description used by
// GPU compute pipelines (grids of invocations separated by barriers)
// runs here on a CPU worker pool, so sorting and projection kernels can
// be tested without a device.
package kernel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Dispatcher runs kernels across a fixed pool of workers.
// The zero value is not usable; call [NewDispatcher].
type Dispatcher struct {
	// Workers is the number of parallel workers used per dispatch.
	Workers int
}

// NewDispatcher returns a Dispatcher sized to the number of available
// CPUs. Pass workers > 0 to override (workers = 1 runs kernels serially,
// useful for deterministic debugging).
func NewDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{Workers: workers}
}

// Run executes kf for every invocation index in [0, n).
// Invocations may run concurrently and in any order; kf must not assume
// anything about results of other invocations in the same dispatch.
// Run returns only when all invocations have completed: the return is
// the barrier between dependent passes.
func (ds *Dispatcher) Run(n int, kf func(i int)) {
	if n <= 0 {
		return
	}
	if ds.Workers == 1 || n == 1 {
		for i := range n {
			kf(i)
		}
		return
	}
	ds.RunChunks(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			kf(i)
		}
	})
}

// RunChunks partitions [0, n) into contiguous ranges, one per worker,
// and executes fn(lo, hi) for each. Kernels that accumulate per-worker
// state (histogram passes) use this instead of [Dispatcher.Run].
// Like Run, the return is a barrier.
func (ds *Dispatcher) RunChunks(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	nw := min(ds.Workers, n)
	if nw <= 1 {
		fn(0, n)
		return
	}
	var g errgroup.Group
	csz := (n + nw - 1) / nw
	for lo := 0; lo < n; lo += csz {
		hi := min(lo+csz, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	g.Wait()
}

// NumChunks returns the number of chunks RunChunks will use for n
// elements, for sizing per-chunk scratch space before a dispatch.
func (ds *Dispatcher) NumChunks(n int) int {
	if n <= 0 {
		return 0
	}
	nw := min(ds.Workers, n)
	if nw <= 1 {
		return 1
	}
	csz := (n + nw - 1) / nw
	return (n + csz - 1) / csz
}
