// SPDX-License-Identifier: MIT

// Package vector provides the element-wise and reduction primitives used by
// the power iteration: Norm, Normalize, Dot, Scale and Sub.
//
// Purpose:
//   - Keep every loop behind a parallel.Runner so large vectors fan out while
//     small ones stay on the caller's goroutine.
//   - Reject length mismatches up front (never truncate, never pad).
//
// Determinism:
//   - Reductions (Norm, Dot) are folded chunk by chunk in a fixed order;
//     see package parallel. Results do not depend on the worker count.
//   - Norm scales its partial sums, so any finite non-zero vector has a
//     finite non-zero norm (no underflow to 0, no overflow to +Inf).
//   - Chunk kernels call github.com/viterin/vek, which picks one SIMD path per
//     machine; tests compare across machines with a tolerance, never bit-exact.
//
// Allocation:
//   - Normalize, Scale and Sub return fresh slices; the Into variants write to
//     a caller-owned dst (dst may alias an input).
package vector

import (
	"fmt"
	"math"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/powiter/parallel"
)

// Operation tags for error wrapping.
const (
	opNorm      = "Norm"
	opNormalize = "Normalize"
	opDot       = "Dot"
	opScale     = "Scale"
	opSub       = "Sub"
)

// vectorErrorf wraps err with an operation tag, preserving it for errors.Is.
func vectorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Ops binds the primitives to a Runner. The zero value uses parallel.Default().
type Ops struct {
	run *parallel.Runner
}

// New returns Ops backed by run (nil ⇒ parallel.Default()).
func New(run *parallel.Runner) Ops {
	return Ops{run: run}
}

// std serves the package-level functions.
var std = Ops{}

func (o Ops) runner() *parallel.Runner {
	if o.run == nil {
		return parallel.Default()
	}

	return o.run
}

// Norm returns the Euclidean norm of v.
//
// Errors: ErrEmpty for len(v)==0.
// Complexity: O(n).
func Norm(v []float64) (float64, error) { return std.Norm(v) }

// Norm returns sqrt(Σ v[i]²) with a chunked, order-fixed reduction.
func (o Ops) Norm(v []float64) (float64, error) {
	if len(v) == 0 {
		return 0, vectorErrorf(opNorm, ErrEmpty)
	}

	return o.norm(v), nil
}

// safeSumSquares bounds the plain Σ w² path: below it squares may have
// flushed to zero, above it (or at +Inf) they may have overflowed.
const (
	safeSumSquaresMin = 0x1p-900
	safeSumSquaresMax = 0x1p+900
)

// norm returns the Euclidean norm of v without spurious underflow or overflow.
//
// Each chunk takes vek.Dot(w, w) when the sum lies in the safe range and the
// scaled floats.Norm otherwise; the chunk norms are then folded in chunk
// order with the dnrm2 (scale, ssq) recurrence.
func (o Ops) norm(v []float64) float64 {
	parts := o.runner().Partials(len(v), func(lo, hi int) float64 {
		w := v[lo:hi]
		if ss := vek.Dot(w, w); ss >= safeSumSquaresMin && ss <= safeSumSquaresMax {
			return math.Sqrt(ss)
		}
		return floats.Norm(w, 2)
	})
	if len(parts) == 1 {
		return parts[0]
	}

	var scale, ssq float64 = 0, 1
	for _, p := range parts {
		switch {
		case math.IsNaN(p):
			return math.NaN()
		case p == 0:
			continue
		case scale < p:
			ssq = 1 + ssq*(scale/p)*(scale/p)
			scale = p
		default:
			ssq += (p / scale) * (p / scale)
		}
	}
	if math.IsInf(scale, 1) {
		return scale
	}

	return scale * math.Sqrt(ssq)
}

// Normalize returns v/|v| as a new slice together with |v|.
//
// Errors:
//   - ErrEmpty for len(v)==0.
//   - ErrZeroNorm when |v| == 0; no division is attempted.
//   - ErrNaNInf when |v| is not finite (NaN input or overflow).
//
// Complexity: O(n) time, O(n) space.
func Normalize(v []float64) ([]float64, float64, error) { return std.Normalize(v) }

// Normalize is the Ops-bound form of Normalize.
func (o Ops) Normalize(v []float64) ([]float64, float64, error) {
	out := make([]float64, len(v))
	n, err := o.NormalizeInto(out, v)
	if err != nil {
		return nil, 0, err
	}

	return out, n, nil
}

// NormalizeInto writes v/|v| into dst and returns |v|. dst may alias v.
// On error dst is left untouched.
func NormalizeInto(dst, v []float64) (float64, error) { return std.NormalizeInto(dst, v) }

// NormalizeInto is the Ops-bound form of NormalizeInto.
func (o Ops) NormalizeInto(dst, v []float64) (float64, error) {
	if len(v) == 0 {
		return 0, vectorErrorf(opNormalize, ErrEmpty)
	}
	if len(dst) != len(v) {
		return 0, vectorErrorf(opNormalize, ErrDimensionMismatch)
	}
	n := o.norm(v)
	switch {
	case n == 0:
		return 0, vectorErrorf(opNormalize, ErrZeroNorm)
	case math.IsNaN(n) || math.IsInf(n, 0):
		return 0, vectorErrorf(opNormalize, ErrNaNInf)
	}
	o.runner().For(len(v), func(lo, hi int) {
		vek.DivNumber_Into(dst[lo:hi], v[lo:hi], n)
	})

	return n, nil
}

// Dot returns Σ a[i]·b[i].
//
// Errors: ErrLengthMismatch when len(a) != len(b).
// Complexity: O(n).
func Dot(a, b []float64) (float64, error) { return std.Dot(a, b) }

// Dot is the Ops-bound form of Dot.
func (o Ops) Dot(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, vectorErrorf(opDot, ErrLengthMismatch)
	}

	return o.runner().Sum(len(a), func(lo, hi int) float64 {
		return vek.Dot(a[lo:hi], b[lo:hi])
	}), nil
}

// Scale returns c·v as a new slice of the same length.
func Scale(v []float64, c float64) []float64 { return std.Scale(v, c) }

// Scale is the Ops-bound form of Scale.
func (o Ops) Scale(v []float64, c float64) []float64 {
	out := make([]float64, len(v))
	_ = o.ScaleInto(out, v, c) // lengths equal by construction

	return out
}

// ScaleInto writes c·v into dst. dst may alias v.
//
// Errors: ErrDimensionMismatch when len(dst) != len(v).
func ScaleInto(dst, v []float64, c float64) error { return std.ScaleInto(dst, v, c) }

// ScaleInto is the Ops-bound form of ScaleInto.
func (o Ops) ScaleInto(dst, v []float64, c float64) error {
	if len(dst) != len(v) {
		return vectorErrorf(opScale, ErrDimensionMismatch)
	}
	o.runner().For(len(v), func(lo, hi int) {
		vek.MulNumber_Into(dst[lo:hi], v[lo:hi], c)
	})

	return nil
}

// Sub returns a−b as a new slice.
//
// Errors: ErrLengthMismatch when len(a) != len(b).
func Sub(a, b []float64) ([]float64, error) { return std.Sub(a, b) }

// Sub is the Ops-bound form of Sub.
func (o Ops) Sub(a, b []float64) ([]float64, error) {
	out := make([]float64, len(a))
	if err := o.SubInto(out, a, b); err != nil {
		return nil, err
	}

	return out, nil
}

// SubInto writes a−b into dst. dst may alias a or b.
func SubInto(dst, a, b []float64) error { return std.SubInto(dst, a, b) }

// SubInto is the Ops-bound form of SubInto.
func (o Ops) SubInto(dst, a, b []float64) error {
	if len(a) != len(b) || len(dst) != len(a) {
		return vectorErrorf(opSub, ErrLengthMismatch)
	}
	o.runner().For(len(a), func(lo, hi int) {
		vek.Sub_Into(dst[lo:hi], a[lo:hi], b[lo:hi])
	})

	return nil
}

// AllFinite reports whether every element of v is neither NaN nor ±Inf.
func AllFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}
