// SPDX-License-Identifier: MIT

package poweriter

// Step is one accepted iteration: the Rayleigh estimate and the residual norm.
type Step struct {
	Eigenvalue float64 `json:"eigenvalue"`
	Residual   float64 `json:"residual"`
}

// Result is the outcome of Run.
//
//   - Eigenvector is the last primary iterate q (unit length).
//   - Trajectory holds one Step per accepted iteration, in order.
//   - Iterations == len(Trajectory).
//   - Reason is a terminal State.
type Result struct {
	Eigenvector []float64 `json:"eigenvector"`
	Trajectory  []Step    `json:"trajectory"`
	Iterations  int       `json:"iterations"`
	Reason      State     `json:"reason"`
}

// Eigenvalue returns the last accepted estimate; false when no iteration was accepted.
func (r *Result) Eigenvalue() (float64, bool) {
	if r == nil || len(r.Trajectory) == 0 {
		return 0, false
	}

	return r.Trajectory[len(r.Trajectory)-1].Eigenvalue, true
}

// Residual returns the last accepted residual; false when no iteration was accepted.
func (r *Result) Residual() (float64, bool) {
	if r == nil || len(r.Trajectory) == 0 {
		return 0, false
	}

	return r.Trajectory[len(r.Trajectory)-1].Residual, true
}

// Converged reports Reason == StateConverged.
func (r *Result) Converged() bool {
	return r != nil && r.Reason == StateConverged
}

// Err maps the termination reason to an error: ErrDivergence for
// StateDivergenceAborted, nil otherwise. Exhausting the budget is not a failure.
func (r *Result) Err() error {
	if r != nil && r.Reason == StateDivergenceAborted {
		return ErrDivergence
	}

	return nil
}

// Eigenvalues returns the eigenvalue column of the trajectory (empty for a nil Result).
func (r *Result) Eigenvalues() []float64 {
	if r == nil {
		return []float64{}
	}
	out := make([]float64, len(r.Trajectory))
	for i, s := range r.Trajectory {
		out[i] = s.Eigenvalue
	}

	return out
}

// Residuals returns the residual column of the trajectory (empty for a nil Result).
func (r *Result) Residuals() []float64 {
	if r == nil {
		return []float64{}
	}
	out := make([]float64, len(r.Trajectory))
	for i, s := range r.Trajectory {
		out[i] = s.Residual
	}

	return out
}
