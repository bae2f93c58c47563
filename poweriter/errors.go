// SPDX-License-Identifier: MIT

package poweriter

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/powiter/matrix"
	"github.com/katalvlaran/powiter/vector"
)

var (
	// ErrInvalidTolerance indicates a tolerance that is not a positive finite number.
	ErrInvalidTolerance = errors.New("poweriter: tolerance must be positive and finite")

	// ErrInvalidMaxIterations indicates a non-positive iteration budget.
	ErrInvalidMaxIterations = errors.New("poweriter: max iterations must be > 0")

	// ErrDivergence is reported by Result.Err when the stability guard fired.
	ErrDivergence = errors.New("poweriter: iterates diverged in direction")
)

// Re-exported sentinels so callers of Run need only this package.
var (
	ErrDimensionMismatch = matrix.ErrDimensionMismatch
	ErrNilMatrix         = matrix.ErrNilMatrix
	ErrNonSquare         = matrix.ErrNonSquare
	ErrZeroNorm          = vector.ErrZeroNorm
	ErrNaNInf            = vector.ErrNaNInf
)

// Operation tags.
const (
	opRun     = "Run"
	opStep    = "step"
	opInitial = "initial vector"
)

// runErrorf wraps err with the Run tag.
func runErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %s: %w", opRun, tag, err)
}
