// SPDX-License-Identifier: MIT
// Package vector: sentinel error set.
// All operations return these sentinels (optionally wrapped with an operation
// tag via %w); callers match them with errors.Is.

package vector

import "errors"

var (
	// ErrDimensionMismatch indicates operands of different lengths. It is the
	// single dimension sentinel of the module: matrix and poweriter re-export it.
	ErrDimensionMismatch = errors.New("vector: dimension mismatch")

	// ErrEmpty indicates a zero-length vector where at least one element is required.
	ErrEmpty = errors.New("vector: empty vector")

	// ErrZeroNorm indicates normalization of a vector whose Euclidean norm is 0.
	ErrZeroNorm = errors.New("vector: zero norm")

	// ErrNaNInf indicates a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("vector: NaN or Inf encountered")
)

// ErrLengthMismatch names the same condition from the vector point of view.
// It aliases ErrDimensionMismatch so errors.Is matches either name.
var ErrLengthMismatch = ErrDimensionMismatch
