// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katalvlaran/powiter/poweriter"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("store: run not found")

// timeLayout is fixed-width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Problem is the input of a recorded run.
type Problem struct {
	Matrix             [][]float64
	InitialVector      []float64
	Tolerance          float64
	MaxIterations      int
	StabilityThreshold float64
}

// Run is one recorded execution of poweriter.Run.
type Run struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Problem   Problem
	Result    *poweriter.Result
	// Error is the text of a mid-run fault, empty otherwise.
	Error string
}

// Summary is the listing view of a run.
type Summary struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	N          int
	Reason     poweriter.State
	Iterations int
	Eigenvalue *float64
	Residual   *float64
}

// SaveRun inserts run and its trajectory in one transaction. An empty ID is
// replaced by a fresh UUIDv7 and a zero CreatedAt by the current time; both
// are written back into run. Returns the ID.
func (s *Store) SaveRun(ctx context.Context, run *Run) (string, error) {
	if run == nil || run.Result == nil {
		return "", errors.New("store: save run: nil run or result")
	}
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("store: save run: new id: %w", err)
		}
		run.ID = id.String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}

	matrixJSON, err := json.Marshal(run.Problem.Matrix)
	if err != nil {
		return "", fmt.Errorf("store: save run: %w", err)
	}
	v0JSON, err := json.Marshal(run.Problem.InitialVector)
	if err != nil {
		return "", fmt.Errorf("store: save run: %w", err)
	}
	vecJSON, err := json.Marshal(run.Result.Eigenvector)
	if err != nil {
		return "", fmt.Errorf("store: save run: %w", err)
	}
	var lam, res sql.NullFloat64
	if v, ok := run.Result.Eigenvalue(); ok {
		lam = sql.NullFloat64{Float64: v, Valid: true}
	}
	if v, ok := run.Result.Residual(); ok {
		res = sql.NullFloat64{Float64: v, Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: save run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, name, created_at, n, matrix, initial_vector, tolerance, max_iterations,
		 stability_threshold, reason, iterations, eigenvalue, residual, eigenvector, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Name,
		run.CreatedAt.UTC().Format(timeLayout),
		len(run.Problem.Matrix),
		string(matrixJSON),
		string(v0JSON),
		run.Problem.Tolerance,
		run.Problem.MaxIterations,
		run.Problem.StabilityThreshold,
		run.Result.Reason.String(),
		run.Result.Iterations,
		lam,
		res,
		string(vecJSON),
		run.Error,
	)
	if err != nil {
		return "", fmt.Errorf("store: save run: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps (run_id, iteration, eigenvalue, residual) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("store: save run: prepare steps: %w", err)
	}
	defer stmt.Close()
	for i, st := range run.Result.Trajectory {
		if _, err = stmt.ExecContext(ctx, run.ID, i+1, st.Eigenvalue, st.Residual); err != nil {
			return "", fmt.Errorf("store: save run: insert step %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("store: save run: commit: %w", err)
	}

	return run.ID, nil
}

// GetRun loads a run and its trajectory. Unknown IDs yield ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		run                         Run
		created, reason             string
		matrixJSON, v0JSON, vecJSON string
		n                           int
		lam, res                    sql.NullFloat64
		result                      poweriter.Result
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, n, matrix, initial_vector, tolerance, max_iterations,
		       stability_threshold, reason, iterations, eigenvalue, residual, eigenvector, error
		FROM runs WHERE id = ?
	`, id).Scan(
		&run.ID, &run.Name, &created, &n, &matrixJSON, &v0JSON,
		&run.Problem.Tolerance, &run.Problem.MaxIterations, &run.Problem.StabilityThreshold,
		&reason, &result.Iterations, &lam, &res, &vecJSON, &run.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run: %w", err)
	}

	if run.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("store: get run: created_at: %w", err)
	}
	if err = result.Reason.UnmarshalText([]byte(reason)); err != nil {
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	if err = json.Unmarshal([]byte(matrixJSON), &run.Problem.Matrix); err != nil {
		return nil, fmt.Errorf("store: get run: matrix: %w", err)
	}
	if err = json.Unmarshal([]byte(v0JSON), &run.Problem.InitialVector); err != nil {
		return nil, fmt.Errorf("store: get run: initial vector: %w", err)
	}
	if err = json.Unmarshal([]byte(vecJSON), &result.Eigenvector); err != nil {
		return nil, fmt.Errorf("store: get run: eigenvector: %w", err)
	}
	if result.Trajectory, err = s.readSteps(ctx, run.ID); err != nil {
		return nil, err
	}
	run.Result = &result

	return &run, nil
}

// readSteps returns the trajectory of a run in iteration order.
func (s *Store) readSteps(ctx context.Context, id string) ([]poweriter.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT eigenvalue, residual FROM steps WHERE run_id = ? ORDER BY iteration ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("store: query steps: %w", err)
	}
	defer rows.Close()

	steps := []poweriter.Step{}
	for rows.Next() {
		var st poweriter.Step
		if err := rows.Scan(&st.Eigenvalue, &st.Residual); err != nil {
			return nil, fmt.Errorf("store: scan step: %w", err)
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate steps: %w", err)
	}

	return steps, nil
}

// ListRuns returns up to limit runs, newest first (limit <= 0 ⇒ all).
// Returns an empty slice, not nil, for an empty store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, n, reason, iterations, eigenvalue, residual
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum             Summary
			created, reason string
			lam, res        sql.NullFloat64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &created, &sum.N, &reason, &sum.Iterations, &lam, &res); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("store: scan run: created_at: %w", err)
		}
		if err := sum.Reason.UnmarshalText([]byte(reason)); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		sum.Eigenvalue = nullable(lam)
		sum.Residual = nullable(res)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate runs: %w", err)
	}

	return out, nil
}

// DeleteRun removes a run and its steps. Unknown IDs yield ErrRunNotFound.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	r, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete run: %w", err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64

	return &f
}
