// SPDX-License-Identifier: MIT

// Package poweriter: functional configuration of Run.
//
// Design goals:
//   - Documented defaults in one place (constants below).
//   - Constructors panic only on nonsensical values (programmer error);
//     runtime inputs (matrix, vector, tolerance, budget) return errors from Run.
//   - Options fields are unexported; Run consumes ...Option.
package poweriter

import (
	"io"
	"log/slog"
	"math"

	"github.com/katalvlaran/powiter/parallel"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultStabilityThreshold is the minimum accepted dot product between the
	// primary and the shadow iterate. A fixed heuristic, not a derived bound.
	DefaultStabilityThreshold = 0.05

	// DefaultWorkers of 0 resolves to GOMAXPROCS.
	DefaultWorkers = 0

	// DefaultGrain is the number of elements per parallel chunk.
	DefaultGrain = parallel.DefaultGrain
)

// ---------- Internal panic messages ----------

const (
	panicThresholdInvalid = "poweriter: WithStabilityThreshold: threshold must be finite and in [-1, 1)"
	panicWorkersInvalid   = "poweriter: WithWorkers: workers must be >= 0"
	panicGrainInvalid     = "poweriter: WithGrain: grain must be >= 0"
)

// Option mutates internal options. Safe to apply repeatedly.
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
type Options struct {
	threshold float64
	workers   int
	grain     int
	logger    *slog.Logger
	observer  func(iteration int, s Step)
}

// WithStabilityThreshold overrides the shadow-iterate guard: a step aborts
// the run when dot(shadow, q) <= t.
//
// Panics when t is NaN/±Inf, below -1 or at least 1 (t >= 1 would reject
// every step; t < -1 can never fire, use -1 to disable the guard in practice).
func WithStabilityThreshold(t float64) Option {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < -1 || t >= 1 {
		panic(panicThresholdInvalid)
	}

	return func(o *Options) { o.threshold = t }
}

// WithWorkers bounds the goroutines used inside one iteration
// (0 ⇒ GOMAXPROCS, 1 ⇒ sequential). Results do not depend on this value.
func WithWorkers(n int) Option {
	if n < 0 {
		panic(panicWorkersInvalid)
	}

	return func(o *Options) { o.workers = n }
}

// WithGrain sets the elements per parallel chunk (0 ⇒ DefaultGrain).
// Changing the grain regroups floating-point sums; results agree up to rounding.
func WithGrain(n int) Option {
	if n < 0 {
		panic(panicGrainInvalid)
	}

	return func(o *Options) { o.grain = n }
}

// WithLogger routes Run diagnostics to l (nil restores the discarding default).
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithObserver registers fn, called synchronously after every accepted
// iteration with its 1-based index and trajectory entry.
func WithObserver(fn func(iteration int, s Step)) Option {
	return func(o *Options) { o.observer = fn }
}

// gatherOptions applies user setters on top of the defaults.
func gatherOptions(user ...Option) Options {
	o := Options{
		threshold: DefaultStabilityThreshold,
		workers:   DefaultWorkers,
		grain:     DefaultGrain,
	}
	for _, set := range user {
		set(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}

	return o
}
