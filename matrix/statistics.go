// SPDX-License-Identifier: MIT
// Package matrix: sample statistics over an observation matrix.
//
// Purpose:
//   - Turn an r×c data matrix (rows = observations, columns = variables) into
//     the c×c symmetric matrix whose dominant eigenvector is the first
//     principal direction of the data.
//   - Compare matrices element-wise within tolerances (AllClose).
//
// Exposed API:
//   - CenterColumns(X) -> (Xc, means)       // subtract per-column mean
//   - Covariance(X)    -> (Cov, means)      // sample covariance of columns: (Xcᵀ Xc)/(r-1)
//   - Correlation(X)   -> (Corr, means, sd) // Pearson correlation; sd == 0 ⇒ zeroed row/column
//   - AllClose(a, b, rtol, atol)            // |a-b| ≤ atol + rtol*|b| everywhere
//
// Determinism:
//   - Fixed i→j traversal; every Gram entry is one vek.Dot over a column pair.

package matrix

import (
	"fmt"
	"math"

	"github.com/viterin/vek"
)

// Operation name constants for unified error wrapping.
const (
	opCenterColumns = "CenterColumns"
	opCovariance    = "Covariance"
	opCorrelation   = "Correlation"
	opAllClose      = "AllClose"
)

// CenterColumns returns a copy of X with each column mean subtracted, and the means.
//
// Errors: ErrNilMatrix; wrapped At errors from non-Dense inputs.
// Complexity: Time O(r*c), Space O(r*c).
func CenterColumns(X Matrix) (*Dense, []float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}
	xc, err := toDense(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}
	r, c := xc.r, xc.c

	// Stage 1: column sums in row order.
	means := make([]float64, c)
	for i := 0; i < r; i++ {
		vek.Add_Inplace(means, xc.rowView(i))
	}
	vek.DivNumber_Inplace(means, float64(r))

	// Stage 2: subtract the means row by row.
	for i := 0; i < r; i++ {
		vek.Sub_Inplace(xc.rowView(i), means)
	}

	return xc, means, nil
}

// Covariance returns the c×c sample covariance of the columns of X
// (denominator r-1) and the column means.
//
// Errors:
//   - ErrNilMatrix.
//   - ErrDimensionMismatch when X has fewer than two rows.
//
// Complexity: Time O(r*c²), Space O(r*c + c²).
func Covariance(X Matrix) (*Dense, []float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, nil, matrixErrorf(opCovariance, err)
	}
	if X.Rows() < 2 {
		return nil, nil, matrixErrorf(opCovariance,
			fmt.Errorf("%d observation(s), need at least 2: %w", X.Rows(), ErrDimensionMismatch))
	}
	xc, means, err := CenterColumns(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCovariance, err)
	}

	return gram(xc, 1/float64(xc.r-1)), means, nil
}

// Correlation returns the c×c Pearson correlation of the columns of X, the
// column means and the sample standard deviations. A constant column has
// sd 0 and contributes a zero row and column (including its diagonal).
//
// Errors: as Covariance.
// Complexity: Time O(r*c²), Space O(r*c + c²).
func Correlation(X Matrix) (*Dense, []float64, []float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	if X.Rows() < 2 {
		return nil, nil, nil, matrixErrorf(opCorrelation,
			fmt.Errorf("%d observation(s), need at least 2: %w", X.Rows(), ErrDimensionMismatch))
	}
	xc, means, err := CenterColumns(X)
	if err != nil {
		return nil, nil, nil, matrixErrorf(opCorrelation, err)
	}
	r, c := xc.r, xc.c

	// Stage 1: sd[j] = sqrt(Σ_i Xc[i,j]² / (r-1)).
	sd := make([]float64, c)
	for i := 0; i < r; i++ {
		for j, v := range xc.rowView(i) {
			sd[j] += v * v
		}
	}
	inv := make([]float64, c)
	for j := range sd {
		sd[j] = math.Sqrt(sd[j] / float64(r-1))
		if sd[j] > 0 {
			inv[j] = 1 / sd[j]
		}
	}

	// Stage 2: z-score in place, then Zᵀ Z / (r-1).
	for i := 0; i < r; i++ {
		vek.Mul_Inplace(xc.rowView(i), inv)
	}

	return gram(xc, 1/float64(r-1)), means, sd, nil
}

// AllClose reports whether |a-b| ≤ atol + rtol*|b| holds for every element.
// Negative tolerances are taken by absolute value.
//
// Errors: ErrNilMatrix; ErrDimensionMismatch on shape mismatch; ErrNaNInf
// for a non-finite tolerance.
// Complexity: Time O(r*c), Space O(1).
func AllClose(a, b Matrix, rtol, atol float64) (bool, error) {
	if isNonFinite(rtol) || isNonFinite(atol) {
		return false, matrixErrorf(opAllClose, ErrNaNInf)
	}
	rtol, atol = math.Abs(rtol), math.Abs(atol)
	if err := ValidateNotNil(a); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false, matrixErrorf(opAllClose,
			fmt.Errorf("%dx%d vs %dx%d: %w", a.Rows(), a.Cols(), b.Rows(), b.Cols(), ErrDimensionMismatch))
	}

	for i := 0; i < a.Rows(); i++ {
		for j := 0; j < a.Cols(); j++ {
			av, err := a.At(i, j)
			if err != nil {
				return false, matrixErrorf(opAllClose, err)
			}
			bv, err := b.At(i, j)
			if err != nil {
				return false, matrixErrorf(opAllClose, err)
			}
			if !(math.Abs(av-bv) <= atol+rtol*math.Abs(bv)) {
				return false, nil
			}
		}
	}

	return true, nil
}

// gram returns scale * Xᵀ X for a row-major X, filling both triangles from
// one dot product per pair.
func gram(x *Dense, scale float64) *Dense {
	r, c := x.r, x.c

	// Column-major copy so every column is contiguous for vek.Dot.
	cols := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j, v := range x.rowView(i) {
			cols[j*r+i] = v
		}
	}

	out := &Dense{r: c, c: c, data: make([]float64, c*c), validateNaNInf: x.validateNaNInf}
	for j := 0; j < c; j++ {
		cj := cols[j*r : (j+1)*r]
		for k := j; k < c; k++ {
			v := vek.Dot(cj, cols[k*r:(k+1)*r]) * scale
			out.data[j*c+k] = v
			out.data[k*c+j] = v
		}
	}

	return out
}

// toDense returns a private *Dense copy of X.
func toDense(X Matrix) (*Dense, error) {
	if d, ok := X.(*Dense); ok {
		return d.Clone().(*Dense), nil
	}
	r, c := X.Rows(), X.Cols()
	out, err := NewDense(r, c, WithNoValidateNaNInf())
	if err != nil {
		return nil, err
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v, err := X.At(i, j)
			if err != nil {
				return nil, fmt.Errorf("At(%d,%d): %w", i, j, err)
			}
			out.data[i*c+j] = v
		}
	}

	return out, nil
}
