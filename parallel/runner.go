// SPDX-License-Identifier: MIT

// Package parallel - deterministic data-parallel fan-out over index ranges.
//
// Purpose:
//   - Split [0,n) into fixed chunks and run a body per chunk on a bounded
//     number of goroutines.
//   - Provide a reduction (Sum) whose result does not depend on scheduling.
//
// Determinism:
//   - Chunk boundaries are a pure function of (n, grain). The worker count only
//     decides how many chunks run at once, never where a chunk starts or ends.
//   - Sum stores one partial per chunk (see Partials) and folds them
//     sequentially in chunk order (0,1,2,...). Same inputs and grain ⇒
//     bit-identical output for any worker count.
//
// Ownership:
//   - Bodies must write only to slots inside their own [lo,hi) window; no
//     locking is performed.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultGrain is the number of elements per chunk when no grain is given.
// Below one chunk everything runs on the calling goroutine.
const DefaultGrain = 4096

// Runner executes chunked loops with at most workers goroutines in flight.
// The zero value is not usable; construct with New or Default.
type Runner struct {
	workers int // >= 1
	grain   int // >= 1
}

// New returns a Runner.
//   - workers <= 0 resolves to runtime.GOMAXPROCS(0).
//   - grain <= 0 resolves to DefaultGrain.
//
// Complexity: O(1).
func New(workers, grain int) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if grain <= 0 {
		grain = DefaultGrain
	}

	return &Runner{workers: workers, grain: grain}
}

// Default returns a Runner with GOMAXPROCS workers and DefaultGrain.
func Default() *Runner { return New(0, 0) }

// Sequential returns a single-worker Runner. Chunking is unchanged, so a
// Sequential Sum equals a parallel Sum with the same grain bit for bit.
func Sequential(grain int) *Runner { return New(1, grain) }

// Workers reports the concurrency limit.
func (r *Runner) Workers() int { return r.workers }

// Grain reports the chunk size in elements.
func (r *Runner) Grain() int { return r.grain }

// Chunks returns how many chunks [0,n) is split into at grain g.
// Complexity: O(1).
func Chunks(n, g int) int {
	if n <= 0 {
		return 0
	}
	if g <= 0 {
		g = DefaultGrain
	}

	return (n + g - 1) / g
}

// For runs body over [0,n) split at the runner's grain.
func (r *Runner) For(n int, body func(lo, hi int)) {
	r.ForGrain(n, r.grain, body)
}

// ForGrain runs body(lo,hi) for every chunk of [0,n) of size g (the last one
// may be shorter). Bodies of distinct chunks may run concurrently; ForGrain
// returns once all of them have finished.
//
// Complexity: O(n) total work in body; O(n/g) scheduling overhead.
func (r *Runner) ForGrain(n, g int, body func(lo, hi int)) {
	if g <= 0 {
		g = r.grain
	}
	chunks := Chunks(n, g)
	if chunks == 0 {
		return
	}

	// Single chunk or single worker: stay on the caller's goroutine.
	if chunks == 1 || r.workers == 1 {
		for c := 0; c < chunks; c++ {
			lo, hi := bounds(c, g, n)
			body(lo, hi)
		}
		return
	}

	var eg errgroup.Group
	eg.SetLimit(r.workers)
	for c := 0; c < chunks; c++ {
		lo, hi := bounds(c, g, n)
		eg.Go(func() error {
			body(lo, hi)
			return nil
		})
	}
	_ = eg.Wait() // bodies never fail; Wait is the barrier
}

// Sum evaluates part over every chunk of [0,n) and folds the partials in
// chunk order. part must be a pure function of its window.
//
// Complexity: O(n) in part; O(n/grain) extra space for partials.
func (r *Runner) Sum(n int, part func(lo, hi int) float64) float64 {
	var acc float64
	for _, p := range r.Partials(n, part) {
		acc += p
	}

	return acc
}

// Partials evaluates part over every chunk of [0,n) and returns the results
// indexed by chunk. Callers needing a fold other than addition combine them
// in slice order to keep the result independent of the worker count.
//
// Complexity: O(n) in part; O(n/grain) space.
func (r *Runner) Partials(n int, part func(lo, hi int) float64) []float64 {
	g := r.grain
	chunks := Chunks(n, g)
	switch chunks {
	case 0:
		return nil
	case 1:
		return []float64{part(0, n)}
	}

	partials := make([]float64, chunks)
	r.ForGrain(n, g, func(lo, hi int) {
		partials[lo/g] = part(lo, hi) // chunk index owns exactly one slot
	})

	return partials
}

// bounds returns the half-open window of chunk c.
func bounds(c, g, n int) (lo, hi int) {
	lo = c * g
	hi = min(lo+g, n)

	return lo, hi
}
