// Package poweriter computes the dominant eigenpair of a real square matrix
// with the power method, guarded by a shadow iterate.
//
// What & Why:
//
//	The classical power method repeats q ← A·q/|A·q| and reads the eigenvalue
//	off the Rayleigh quotient. When the two largest eigenvalues share a
//	magnitude (±λ pairs, complex pairs) or the dominant eigenvalue is negative,
//	the iterate oscillates or flips sign and the residual can settle on a
//	meaningless value. A second, independently advanced iterate (the shadow)
//	runs one power step ahead of the primary one; while the dot product of the
//	two stays above a threshold (0.05 by default) their directions agree and
//	the step is accepted. Otherwise the run stops with StateDivergenceAborted.
//
//	The threshold is a heuristic, not a derived bound. Override it with
//	WithStabilityThreshold.
//
// Lifecycle:
//
//	Run validates the inputs, allocates the iteration buffers for this call
//	only, iterates until the residual |A·q − λ·q| drops to the tolerance, the
//	iteration budget is spent, or the guard fires, and returns a Result.
//
// Concurrency:
//
//	Iterations are sequential. Inside one iteration the products and
//	reductions fan out over package parallel with a fixed chunking, so a Run
//	is reproducible for a given grain regardless of the worker count.
//	Concurrent Runs share nothing but the read-only matrix and initial vector.
//
// Complexity:
//
//	Time O(k·n²) for k accepted iterations on an n×n dense matrix
//	(two products per iteration). Space O(n).
package poweriter
