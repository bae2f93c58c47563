// SPDX-License-Identifier: MIT

// Package poweriter: the iteration loop.
//
// Implementation:
//   - Stage 1: validate the inputs (nil → shape → length → tolerance → budget
//     → finite matrix → finite v0 → non-zero v0). Failures return a nil Result.
//   - Stage 2: seed q = q2 = z = v0/|v0|.
//   - Stage 3: loop while res > tolerance and the budget is not spent:
//     normalize z into q, z = A·q, lam = z·q, advance the shadow q2 by one
//     normalized product, compare c = q2·q with the threshold, then
//     res = |z − lam·q|.
//   - Stage 4: classify the terminal state.
//
// Mid-run faults (zero image, non-finite estimate) return the partial Result
// with StateDivergenceAborted and a wrapped error.
package poweriter

import (
	"log/slog"
	"math"

	"github.com/katalvlaran/powiter/matrix"
	"github.com/katalvlaran/powiter/parallel"
	"github.com/katalvlaran/powiter/vector"
)

// state owns the buffers of one Run. Never shared across calls.
type state struct {
	a   matrix.Matrix
	ops vector.Ops
	run *parallel.Runner

	q, q2 []float64 // primary and shadow iterates (unit length)
	z, z2 []float64 // images A·q and A·q2
	r     []float64 // residual scratch

	lam, res  float64
	traj      []Step
	threshold float64
	phase     State
}

// Run computes the dominant eigenpair of the square matrix a starting from v0.
//
// Contract:
//   - a non-nil and square; len(v0) == a.Cols(); v0 finite and non-zero.
//   - tolerance > 0 and finite; maxIterations > 0.
//
// Returns:
//   - (*Result, nil) for Converged, MaxIterationsReached and a guard abort;
//     use Result.Err to treat the abort as an error.
//   - (nil, err) when validation fails before the first iteration.
//   - (*Result, err) with Reason StateDivergenceAborted on a mid-run numeric
//     fault (ErrZeroNorm, ErrNaNInf).
//
// Complexity: Time O(k·n²), Space O(n).
func Run(a matrix.Matrix, v0 []float64, tolerance float64, maxIterations int, opts ...Option) (*Result, error) {
	if err := validate(a, v0, tolerance, maxIterations); err != nil {
		return nil, err
	}

	o := gatherOptions(opts...)
	log := o.logger.With(slog.Int("n", a.Rows()))

	s, err := newState(a, v0, o)
	if err != nil {
		return nil, err
	}
	s.res = tolerance + 1
	s.phase = StateIterating
	log.Debug("power iteration started",
		slog.Float64("tolerance", tolerance),
		slog.Int("max_iterations", maxIterations),
		slog.Float64("stability_threshold", o.threshold),
		slog.Int("workers", s.run.Workers()),
		slog.Int("grain", s.run.Grain()))

	for s.res > tolerance && len(s.traj) < maxIterations {
		c, err := s.step()
		if err != nil {
			s.phase = StateDivergenceAborted
			log.Warn("numeric fault, run aborted",
				slog.Int("iteration", len(s.traj)+1),
				slog.Any("error", err))
			return s.result(), err
		}
		if c <= s.threshold {
			s.phase = StateDivergenceAborted
			log.Warn("shadow iterate diverged, run aborted",
				slog.Int("iteration", len(s.traj)+1),
				slog.Float64("stability", c),
				slog.Float64("threshold", s.threshold))
			return s.result(), nil
		}

		st := s.accept()
		log.Debug("iteration accepted",
			slog.Int("iteration", len(s.traj)),
			slog.Float64("eigenvalue", st.Eigenvalue),
			slog.Float64("residual", st.Residual),
			slog.Float64("stability", c))
		if o.observer != nil {
			o.observer(len(s.traj), st)
		}
	}

	if s.res <= tolerance {
		s.phase = StateConverged
	} else {
		s.phase = StateMaxIterationsReached
	}
	log.Info("power iteration finished",
		slog.String("reason", s.phase.String()),
		slog.Int("iterations", len(s.traj)),
		slog.Float64("eigenvalue", s.lam),
		slog.Float64("residual", s.res))

	return s.result(), nil
}

// validate runs the pre-iteration checks in contract order.
func validate(a matrix.Matrix, v0 []float64, tolerance float64, maxIterations int) error {
	if err := matrix.ValidateSquareNonNil(a); err != nil {
		return runErrorf("matrix", err)
	}
	if err := matrix.ValidateVecLen(v0, a.Cols()); err != nil {
		return runErrorf(opInitial, err)
	}
	if !(tolerance > 0) || math.IsInf(tolerance, 1) {
		return runErrorf("tolerance", ErrInvalidTolerance)
	}
	if maxIterations <= 0 {
		return runErrorf("max iterations", ErrInvalidMaxIterations)
	}
	if err := matrix.ValidateFinite(a); err != nil {
		return runErrorf("matrix", err)
	}
	if !vector.AllFinite(v0) {
		return runErrorf(opInitial, ErrNaNInf)
	}

	return nil
}

// newState allocates the buffers and seeds every iterate with v0/|v0|.
func newState(a matrix.Matrix, v0 []float64, o Options) (*state, error) {
	run := parallel.New(o.workers, o.grain)
	n := a.Rows()
	s := &state{
		a:         a,
		ops:       vector.New(run),
		run:       run,
		q:         make([]float64, n),
		q2:        make([]float64, n),
		z:         make([]float64, n),
		z2:        make([]float64, n),
		r:         make([]float64, n),
		traj:      make([]Step, 0),
		threshold: o.threshold,
		phase:     StateInitializing,
	}
	if _, err := s.ops.NormalizeInto(s.q, v0); err != nil {
		return nil, runErrorf(opInitial, err)
	}
	copy(s.q2, s.q)
	copy(s.z, s.q)

	return s, nil
}

// step performs one iteration up to the stability comparison and returns c.
// On success s.lam and s.res hold the candidate values; they become part of
// the trajectory only through accept.
func (s *state) step() (float64, error) {
	if _, err := s.ops.NormalizeInto(s.q, s.z); err != nil {
		return 0, runErrorf(opStep, err)
	}
	if err := matrix.MatVecInto(s.z, s.a, s.q, s.run); err != nil {
		return 0, runErrorf(opStep, err)
	}
	lam, err := s.ops.Dot(s.z, s.q)
	if err != nil {
		return 0, runErrorf(opStep, err)
	}

	// Shadow: one normalized product ahead of q.
	if err = matrix.MatVecInto(s.z2, s.a, s.q2, s.run); err != nil {
		return 0, runErrorf(opStep, err)
	}
	if _, err = s.ops.NormalizeInto(s.q2, s.z2); err != nil {
		return 0, runErrorf("shadow", err)
	}
	c, err := s.ops.Dot(s.q2, s.q)
	if err != nil {
		return 0, runErrorf(opStep, err)
	}
	if c <= s.threshold {
		return c, nil
	}

	if err = s.ops.ScaleInto(s.r, s.q, lam); err != nil {
		return 0, runErrorf(opStep, err)
	}
	if err = s.ops.SubInto(s.r, s.z, s.r); err != nil {
		return 0, runErrorf(opStep, err)
	}
	res, err := s.ops.Norm(s.r)
	if err != nil {
		return 0, runErrorf(opStep, err)
	}
	if isNonFinite(lam) || isNonFinite(res) || isNonFinite(c) {
		return 0, runErrorf(opStep, ErrNaNInf)
	}
	s.lam, s.res = lam, res

	return c, nil
}

// accept appends the current (lam, res) to the trajectory.
func (s *state) accept() Step {
	st := Step{Eigenvalue: s.lam, Residual: s.res}
	s.traj = append(s.traj, st)

	return st
}

// result snapshots the state into a caller-owned Result.
func (s *state) result() *Result {
	vec := make([]float64, len(s.q))
	copy(vec, s.q)

	return &Result{
		Eigenvector: vec,
		Trajectory:  s.traj,
		Iterations:  len(s.traj),
		Reason:      s.phase,
	}
}

func isNonFinite(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }
