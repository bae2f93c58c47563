// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set (unified, consistent).
// This file defines ONLY package-level sentinel errors used across the matrix
// package. All operations MUST return these sentinels and tests MUST check them
// via errors.Is. No operation panics on user-triggered error conditions.

package matrix

import (
	"errors"

	"github.com/katalvlaran/powiter/vector"
)

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "matrix: ..." for easy grepping across logs.
// Context is attached with fmt.Errorf("ctx: %w", ErrX) at the nearest call
// site; callers still match with errors.Is.
//
// ERROR PRIORITY (enforced in tests):
// nil -> shape -> dimension mismatch -> numeric policy.

var (
	// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	// Public indexers (At/Set/Row) MUST return this, not panic.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrRaggedRows signals rows of unequal length in a row-literal constructor.
	ErrRaggedRows = errors.New("matrix: rows have unequal length")

	// ErrNilMatrix indicates that a nil Matrix (receiver or argument) was used.
	ErrNilMatrix = errors.New("matrix: nil matrix")
)

// Shared sentinels. A length error raised by a vector kernel and a shape
// error raised here are the same condition and match the same errors.Is target.
var (
	// ErrDimensionMismatch indicates incompatible operand dimensions,
	// e.g., MatVec where len(x) != Cols().
	ErrDimensionMismatch = vector.ErrDimensionMismatch

	// ErrNaNInf signals a NaN or ±Inf value where the numeric policy requires
	// finite values (Set, row-literal constructors).
	ErrNaNInf = vector.ErrNaNInf
)

// ErrIndexOutOfBounds historically named the same condition as ErrOutOfRange.
var ErrIndexOutOfBounds = ErrOutOfRange // Deprecated: use ErrOutOfRange.
