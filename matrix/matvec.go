// SPDX-License-Identifier: MIT
// Package matrix: the matrix-vector product.
//
// Purpose:
//   - y = A·x for any R×C matrix and a vector of length C.
//   - Fan rows out over a parallel.Runner; each chunk owns y[lo:hi] exclusively.
//
// Determinism:
//   - Every y[i] is one full-row dot product computed by a single goroutine, so
//     the output never depends on the worker count or the grain.

package matrix

import (
	"fmt"

	"github.com/viterin/vek"

	"github.com/katalvlaran/powiter/parallel"
)

// Operation name constants for unified error wrapping.
const (
	opMatVec     = "MatVec"
	opMatVecInto = "MatVecInto"
)

// ZeroSum is the initial accumulator for the fallback dot products.
const ZeroSum = 0.0

// matrixErrorf wraps err with an operation tag, preserving it via %w.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// MatVec computes y = m * x for a column vector x on the default runner.
//
// Contract: m non-nil; len(x) == m.Cols().
// Errors: ErrNilMatrix, ErrInvalidDimensions (empty shape), ErrDimensionMismatch.
// Complexity: Time O(r*c), Space O(r) for y.
func MatVec(m Matrix, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	if err := validateShape(m.Rows(), m.Cols()); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	y := make([]float64, m.Rows())
	if err := matVec(y, m, x, parallel.Default()); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}

	return y, nil
}

// MatVecInto writes m * x into dst using run (nil ⇒ parallel.Default()).
//
// Contract: len(dst) == m.Rows(); len(x) == m.Cols(); dst must not alias x.
// On error dst is left untouched.
//
// Implementation:
//   - Stage 1: validate nil/shape/lengths.
//   - Stage 2: *Dense fast path: one vek.Dot per row over the flat buffer.
//     Other implementations fall back to At reads.
//
// Complexity: Time O(r*c), Space O(1) beyond dst.
func MatVecInto(dst []float64, m Matrix, x []float64, run *parallel.Runner) error {
	if err := ValidateNotNil(m); err != nil {
		return matrixErrorf(opMatVecInto, err)
	}
	if run == nil {
		run = parallel.Default()
	}
	if err := matVec(dst, m, x, run); err != nil {
		return matrixErrorf(opMatVecInto, err)
	}

	return nil
}

// validateShape rejects empty or negative shapes reported by a Matrix.
func validateShape(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%dx%d: %w", rows, cols, ErrInvalidDimensions)
	}

	return nil
}

// matVec validates lengths and dispatches to the fast path or the fallback.
func matVec(dst []float64, m Matrix, x []float64, run *parallel.Runner) error {
	rows, cols := m.Rows(), m.Cols()
	if err := validateShape(rows, cols); err != nil {
		return err
	}
	if err := ValidateVecLen(x, cols); err != nil {
		return err
	}
	if err := ValidateVecLen(dst, rows); err != nil {
		return err
	}

	// Aim for roughly grain multiply-adds per chunk.
	rowGrain := max(1, run.Grain()/cols)

	// Fast-path: *Dense rows are contiguous.
	if d, ok := m.(*Dense); ok {
		run.ForGrain(rows, rowGrain, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				dst[i] = vek.Dot(d.rowView(i), x)
			}
		})
		return nil
	}

	// Fallback: read through the interface into a scratch buffer first so a
	// failing At leaves dst untouched.
	y := make([]float64, rows)
	errs := make([]error, parallel.Chunks(rows, rowGrain))
	run.ForGrain(rows, rowGrain, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			acc := ZeroSum
			for j := 0; j < cols; j++ {
				mv, err := m.At(i, j)
				if err != nil {
					errs[lo/rowGrain] = fmt.Errorf("At(%d,%d): %w", i, j, err)
					return
				}
				acc += mv * x[j]
			}
			y[i] = acc
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	copy(dst, y)

	return nil
}
