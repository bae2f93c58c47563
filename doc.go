// Package powiter finds the dominant eigenpair of a square matrix by power
// iteration, guarded by a shadow iterate that stops the run when successive
// iterates stop pointing the same way.
//
// 🚀 What is powiter?
//
//	A small numerical toolkit and CLI that brings together:
//		• Vector kernels: norm, dot, scale, subtract (SIMD via vek, fanned out per chunk)
//		• Dense matrices: row-major storage, validators, matrix-vector product
//		• Sample statistics: covariance / correlation as problem matrices
//		• The engine: Rayleigh estimate, residual, convergence and divergence detection
//		• Reports, convergence charts and a SQLite run history
//
// ✨ Why powiter?
//
//   - Deterministic: the same inputs give the same trajectory for any worker count
//   - Honest outcomes: converged, budget exhausted or diverged, never guessed
//   - Observable: slog diagnostics and a per-iteration observer hook
//
// Under the hood, everything is organized in leaf-first subpackages:
//
//	parallel/   deterministic chunked fan-out over index ranges
//	vector/     vector operations on []float64
//	matrix/     Dense, validators, MatVec, Covariance/Correlation
//	poweriter/  Run, options, Result and the termination states
//	report/     text and JSON rendering of a Result
//	config/     YAML problem files and POWITER_* environment overrides
//	store/      SQLite history of runs
//	chart/      residual / eigenvalue trajectory plots
//
// Quick example:
//
//	a, _ := matrix.NewDenseFrom([][]float64{{2, 0}, {0, 1}})
//	res, err := poweriter.Run(a, []float64{1, 1}, 1e-6, 100)
//	// res.Reason == poweriter.StateConverged, eigenvalue ≈ 2 after 21 iterations
//
// The powiter binary (cmd/powiter) wraps the same engine:
//
//	go install github.com/katalvlaran/powiter/cmd/powiter@latest
//	powiter run --matrix "2,0;0,1" --vector "1,1" --tolerance 1e-6
package powiter
