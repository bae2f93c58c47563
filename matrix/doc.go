// Package matrix provides the dense matrix type and the matrix-vector product
// driving the power iteration.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with bounds-checked At/Set and an
//     optional finite-only numeric policy.
//   - MatVec / MatVecInto, y = A·x for any R×C matrix and a vector of length C,
//     fanned out over rows with package parallel.
//   - Central validators (nil, square, vector length, finiteness) shared by
//     every entry point, returning the sentinels of errors.go.
//
// Dense storage is O(R·C); the product is O(R·C) per call.
package matrix
