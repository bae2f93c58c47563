package poweriter_test

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/powiter/matrix"
	"github.com/katalvlaran/powiter/poweriter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDense(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(rows)
	require.NoError(t, err)

	return m
}

// randPositiveSym builds a symmetric n×n matrix with entries in (0,1].
// Perron–Frobenius: the dominant eigenvalue is simple and positive with a
// positive eigenvector, so the guard never fires from a positive start.
func randPositiveSym(t *testing.T, rng *rand.Rand, n int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDense(n, n)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 1 - rng.Float64()
			require.NoError(t, m.Set(i, j, v))
			require.NoError(t, m.Set(j, i, v))
		}
	}

	return m
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}

	return v
}

// TestRun_Diagonal: diag(2,1) from [1,1] halves the off-axis component every
// step; the residual t/(1+t²) with t = 2^-(k-1) first drops below 1e-6 at k = 21.
func TestRun_Diagonal(t *testing.T) {
	a := mustDense(t, [][]float64{{2, 0}, {0, 1}})
	res, err := poweriter.Run(a, []float64{1, 1}, 1e-6, 50)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, poweriter.StateConverged, res.Reason)
	assert.True(t, res.Converged())
	assert.NoError(t, res.Err())
	assert.Equal(t, 21, res.Iterations)
	require.Len(t, res.Trajectory, 21)

	// First two steps by hand.
	assert.InDelta(t, 1.5, res.Trajectory[0].Eigenvalue, 1e-15)
	assert.InDelta(t, 0.5, res.Trajectory[0].Residual, 1e-15)
	assert.InDelta(t, 1.8, res.Trajectory[1].Eigenvalue, 1e-14)
	assert.InDelta(t, 0.4, res.Trajectory[1].Residual, 1e-14)

	for k, st := range res.Trajectory {
		tk := math.Ldexp(1, -k)
		assert.InDelta(t, tk/(1+tk*tk), st.Residual, 1e-14, "k=%d", k+1)
		if k > 0 {
			assert.Less(t, st.Residual, res.Trajectory[k-1].Residual)
			assert.Greater(t, st.Eigenvalue, res.Trajectory[k-1].Eigenvalue)
		}
	}

	lam, ok := res.Eigenvalue()
	require.True(t, ok)
	assert.InDelta(t, 2.0, lam, 1e-11)
	r, ok := res.Residual()
	require.True(t, ok)
	assert.LessOrEqual(t, r, 1e-6)
	assert.Greater(t, r, 9e-7)

	assert.InDelta(t, 1.0, res.Eigenvector[0], 1e-12)
	assert.InDelta(t, 0.0, res.Eigenvector[1], 1e-6)
}

// TestRun_AlreadyEigenvector: an exact eigenvector converges in one step.
func TestRun_AlreadyEigenvector(t *testing.T) {
	a := mustDense(t, [][]float64{{3, 0}, {0, 1}})
	res, err := poweriter.Run(a, []float64{5, 0}, 1e-12, 10)
	require.NoError(t, err)
	assert.Equal(t, poweriter.StateConverged, res.Reason)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, []float64{1, 0}, res.Eigenvector)
	assert.Equal(t, []poweriter.Step{{Eigenvalue: 3, Residual: 0}}, res.Trajectory)
}

// TestRun_ZeroInitialVector fails before any iteration.
func TestRun_ZeroInitialVector(t *testing.T) {
	a := mustDense(t, [][]float64{{2, 0}, {0, 1}})
	res, err := poweriter.Run(a, []float64{0, 0}, 1e-6, 100)
	require.ErrorIs(t, err, poweriter.ErrZeroNorm)
	assert.Nil(t, res)
}

// TestRun_Swap: the permutation [[0,1],[1,0]] maps e1 to e2, orthogonal to
// e1, so the first comparison yields 0 and the run aborts with nothing accepted.
func TestRun_Swap(t *testing.T) {
	a := mustDense(t, [][]float64{{0, 1}, {1, 0}})
	res, err := poweriter.Run(a, []float64{1, 0}, 1e-6, 100)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, poweriter.StateDivergenceAborted, res.Reason)
	assert.ErrorIs(t, res.Err(), poweriter.ErrDivergence)
	assert.False(t, res.Converged())
	assert.Empty(t, res.Trajectory)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, []float64{1, 0}, res.Eigenvector)

	_, ok := res.Eigenvalue()
	assert.False(t, ok)
	_, ok = res.Residual()
	assert.False(t, ok)
}

// TestRun_NegativeDominant: a negative dominant eigenvalue flips the sign of
// consecutive iterates, which the guard reports as divergence.
func TestRun_NegativeDominant(t *testing.T) {
	a := mustDense(t, [][]float64{{-2, 0}, {0, 1}})
	for _, v0 := range [][]float64{{1, 0}, {1, 1}, {3, -1}} {
		res, err := poweriter.Run(a, v0, 1e-8, 100)
		require.NoError(t, err)
		assert.Equal(t, poweriter.StateDivergenceAborted, res.Reason, "v0=%v", v0)
	}
}

// TestRun_NegativeSubdominantStart: diag(1,-0.9) has a positive, strictly
// dominant eigenvalue, but a start weighted toward the negative eigenvector
// makes the shadow (one product ahead) point away from q on the first step:
// c ∝ 0.01 - 0.9 < 0. The guard aborts; with the guard disabled the run
// converges to 1.
func TestRun_NegativeSubdominantStart(t *testing.T) {
	a := mustDense(t, [][]float64{{1, 0}, {0, -0.9}})
	v0 := []float64{0.1, 1}

	res, err := poweriter.Run(a, v0, 1e-6, 1000)
	require.NoError(t, err)
	assert.Equal(t, poweriter.StateDivergenceAborted, res.Reason)
	assert.Equal(t, 0, res.Iterations)
	assert.ErrorIs(t, res.Err(), poweriter.ErrDivergence)

	res, err = poweriter.Run(a, v0, 1e-6, 1000, poweriter.WithStabilityThreshold(-1))
	require.NoError(t, err)
	require.Equal(t, poweriter.StateConverged, res.Reason)
	lam, _ := res.Eigenvalue()
	assert.InDelta(t, 1.0, lam, 1e-8)
	assert.InDelta(t, 1.0, math.Abs(res.Eigenvector[0]), 1e-6)
}

// TestRun_ExtremeScales: starts and matrices whose squared entries leave the
// float64 range still run; only direction matters for the iterate.
func TestRun_ExtremeScales(t *testing.T) {
	a := mustDense(t, [][]float64{{2, 0}, {0, 1}})
	ref, err := poweriter.Run(a, []float64{3, 4}, 1e-6, 50)
	require.NoError(t, err)
	require.True(t, ref.Converged())

	for _, v0 := range [][]float64{{3e-170, 4e-170}, {3e200, 4e200}} {
		res, err := poweriter.Run(a, v0, 1e-6, 50)
		require.NoError(t, err, "v0=%v", v0)
		require.True(t, res.Converged(), "v0=%v", v0)
		assert.InDelta(t, ref.Trajectory[0].Eigenvalue, res.Trajectory[0].Eigenvalue, 1e-14)
		assert.InDelta(t, ref.Trajectory[0].Residual, res.Trajectory[0].Residual, 1e-14)
		lam, _ := res.Eigenvalue()
		assert.InDelta(t, 2.0, lam, 1e-10)
	}

	// Residual and image norms near 1e155 square past MaxFloat64.
	big := mustDense(t, [][]float64{{1e155, 0}, {0, 1}})
	res, err := poweriter.Run(big, []float64{1, 1}, 1e-6, 50)
	require.NoError(t, err)
	assert.NotEqual(t, poweriter.StateDivergenceAborted, res.Reason)
	require.GreaterOrEqual(t, res.Iterations, 2)
	lam, _ := res.Eigenvalue()
	assert.InEpsilon(t, 1e155, lam, 1e-12)
	assert.InDelta(t, 1.0, res.Eigenvector[0], 1e-12)
}

// TestRun_GuardDisabled: with the threshold at -1 the same sign-flipping
// matrix is iterated until the budget is spent.
func TestRun_GuardDisabled(t *testing.T) {
	a := mustDense(t, [][]float64{{-2, 0}, {0, 1}})
	res, err := poweriter.Run(a, []float64{1, 1}, 1e-8, 12, poweriter.WithStabilityThreshold(-1))
	require.NoError(t, err)
	assert.Equal(t, 12, res.Iterations)
	assert.NotEqual(t, poweriter.StateDivergenceAborted, res.Reason)
}

// TestRun_Nilpotent: A·e1 = 0, the shadow image vanishes in the first
// iteration and the partial result comes back with ErrZeroNorm.
func TestRun_Nilpotent(t *testing.T) {
	a := mustDense(t, [][]float64{{0, 1}, {0, 0}})
	res, err := poweriter.Run(a, []float64{1, 0}, 1e-6, 100)
	require.ErrorIs(t, err, poweriter.ErrZeroNorm)
	require.NotNil(t, res)
	assert.Equal(t, poweriter.StateDivergenceAborted, res.Reason)
	assert.Empty(t, res.Trajectory)
}

// TestRun_MaxIterations: the budget bounds the trajectory and is not an error.
func TestRun_MaxIterations(t *testing.T) {
	a := mustDense(t, [][]float64{{2, 0}, {0, 1}})
	res, err := poweriter.Run(a, []float64{1, 1}, 1e-12, 5)
	require.NoError(t, err)
	assert.Equal(t, poweriter.StateMaxIterationsReached, res.Reason)
	assert.Equal(t, 5, res.Iterations)
	assert.Len(t, res.Trajectory, 5)
	assert.NoError(t, res.Err())
	assert.False(t, res.Converged())
}

// TestRun_Validation covers every pre-iteration failure.
func TestRun_Validation(t *testing.T) {
	sq := mustDense(t, [][]float64{{2, 0}, {0, 1}})
	rect := mustDense(t, [][]float64{{1, 2, 3}, {4, 5, 6}})
	nan, err := matrix.NewDense(2, 2, matrix.WithNoValidateNaNInf())
	require.NoError(t, err)
	require.NoError(t, nan.Set(1, 1, math.NaN()))
	var typedNil *matrix.Dense

	cases := []struct {
		name string
		a    matrix.Matrix
		v0   []float64
		tol  float64
		max  int
		want error
	}{
		{"nil matrix", nil, []float64{1, 1}, 1e-6, 10, poweriter.ErrNilMatrix},
		{"typed nil", typedNil, []float64{1, 1}, 1e-6, 10, poweriter.ErrNilMatrix},
		{"non-square", rect, []float64{1, 1, 1}, 1e-6, 10, poweriter.ErrNonSquare},
		{"short v0", sq, []float64{1}, 1e-6, 10, poweriter.ErrDimensionMismatch},
		{"long v0", sq, []float64{1, 1, 1}, 1e-6, 10, poweriter.ErrDimensionMismatch},
		{"zero tol", sq, []float64{1, 1}, 0, 10, poweriter.ErrInvalidTolerance},
		{"negative tol", sq, []float64{1, 1}, -1e-6, 10, poweriter.ErrInvalidTolerance},
		{"NaN tol", sq, []float64{1, 1}, math.NaN(), 10, poweriter.ErrInvalidTolerance},
		{"Inf tol", sq, []float64{1, 1}, math.Inf(1), 10, poweriter.ErrInvalidTolerance},
		{"zero budget", sq, []float64{1, 1}, 1e-6, 0, poweriter.ErrInvalidMaxIterations},
		{"negative budget", sq, []float64{1, 1}, 1e-6, -3, poweriter.ErrInvalidMaxIterations},
		{"NaN matrix", nan, []float64{1, 1}, 1e-6, 10, poweriter.ErrNaNInf},
		{"Inf v0", sq, []float64{math.Inf(-1), 1}, 1e-6, 10, poweriter.ErrNaNInf},
		{"zero v0", sq, []float64{0, 0}, 1e-6, 10, poweriter.ErrZeroNorm},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := poweriter.Run(tc.a, tc.v0, tc.tol, tc.max)
			require.ErrorIs(t, err, tc.want)
			assert.Nil(t, res)
		})
	}
}

// TestRun_DoesNotMutateInputs: the matrix and v0 are read-only.
func TestRun_DoesNotMutateInputs(t *testing.T) {
	a := mustDense(t, [][]float64{{4, 1}, {1, 3}})
	before := a.String()
	v0 := []float64{1, 2}
	_, err := poweriter.Run(a, v0, 1e-10, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v0)
	assert.Equal(t, before, a.String())
}

// TestRun_WorkerIndependence: for a fixed grain every worker count yields the
// same bits.
func TestRun_WorkerIndependence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := randPositiveSym(t, rng, 300)
	v0 := ones(300)

	base, err := poweriter.Run(a, v0, 1e-10, 200, poweriter.WithWorkers(1), poweriter.WithGrain(64))
	require.NoError(t, err)
	require.True(t, base.Converged())
	for _, w := range []int{2, 3, 8, 0} {
		got, err := poweriter.Run(a, v0, 1e-10, 200, poweriter.WithWorkers(w), poweriter.WithGrain(64))
		require.NoError(t, err)
		assert.Equal(t, base.Trajectory, got.Trajectory, "workers=%d", w)
		assert.Equal(t, base.Eigenvector, got.Eigenvector, "workers=%d", w)
	}
}

// TestRun_Observer sees every accepted step in order.
func TestRun_Observer(t *testing.T) {
	a := mustDense(t, [][]float64{{2, 0}, {0, 1}})
	var seen []int
	var steps []poweriter.Step
	res, err := poweriter.Run(a, []float64{1, 1}, 1e-6, 100, poweriter.WithObserver(func(i int, s poweriter.Step) {
		seen = append(seen, i)
		steps = append(steps, s)
	}))
	require.NoError(t, err)
	require.Len(t, seen, res.Iterations)
	for i, k := range seen {
		assert.Equal(t, i+1, k)
	}
	assert.Equal(t, res.Trajectory, steps)
}

// TestRun_Logging: Debug per step, Info at the end, Warn on divergence.
func TestRun_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a := mustDense(t, [][]float64{{2, 0}, {0, 1}})
	_, err := poweriter.Run(a, []float64{1, 1}, 1e-6, 100, poweriter.WithLogger(logger))
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "iteration accepted")
	assert.Contains(t, out, "iteration=21")
	assert.Contains(t, out, "reason=converged")

	buf.Reset()
	swap := mustDense(t, [][]float64{{0, 1}, {1, 0}})
	_, err = poweriter.Run(swap, []float64{1, 0}, 1e-6, 100, poweriter.WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "stability=0")
}

// TestOptions_Panics: nonsensical option values are programmer errors.
func TestOptions_Panics(t *testing.T) {
	for _, bad := range []float64{1, 1.5, -1.0001, math.NaN(), math.Inf(1)} {
		assert.Panics(t, func() { poweriter.WithStabilityThreshold(bad) }, "t=%v", bad)
	}
	assert.NotPanics(t, func() { poweriter.WithStabilityThreshold(-1) })
	assert.NotPanics(t, func() { poweriter.WithStabilityThreshold(0.999) })
	assert.Panics(t, func() { poweriter.WithWorkers(-1) })
	assert.Panics(t, func() { poweriter.WithGrain(-1) })
	assert.NotPanics(t, func() { poweriter.WithLogger(nil) })
}

// TestRun_StricterThreshold: a threshold close to 1 rejects a slowly turning
// iterate that the default accepts.
func TestRun_StricterThreshold(t *testing.T) {
	a := mustDense(t, [][]float64{{2, 0}, {0, 1}})
	// First comparison: dot([1,1]/√2, [2,1]/√5) = 3/√10 ≈ 0.9487.
	res, err := poweriter.Run(a, []float64{1, 1}, 1e-6, 100, poweriter.WithStabilityThreshold(0.95))
	require.NoError(t, err)
	assert.Equal(t, poweriter.StateDivergenceAborted, res.Reason)
	assert.Equal(t, 0, res.Iterations)
}

func BenchmarkRun_200(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	n := 200
	a, _ := matrix.NewDense(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			_ = a.Set(i, j, rng.Float64())
		}
	}
	v0 := ones(n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = poweriter.Run(a, v0, 1e-10, 500)
	}
}
