// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/powiter/config"
	"github.com/katalvlaran/powiter/poweriter"
	"github.com/katalvlaran/powiter/report"
	"github.com/katalvlaran/powiter/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Problem ProblemOptions
	Record  string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [problem.yaml]",
		Short: "Solve a problem and print the report",
		Long: `Solve a power-iteration problem and print the eigenvector, the successive
eigenvalue approximations, the iteration count and the successive residuals.

The problem comes from a YAML file, from flags, or both (flags win).

Exit status: 0 converged, 1 not converged, 2 invalid input.

Example:
  powiter run problem.yaml
  powiter run --matrix "2,0;0,1" --vector "1,1" --tolerance 1e-6
  powiter run problem.yaml --record runs.db --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, args, opts)
		},
	}

	addProblemFlags(cmd, &opts.Problem)
	cmd.Flags().StringVar(&opts.Record, "record", "", "SQLite file to record the run in")

	return cmd
}

func runSolve(cmd *cobra.Command, args []string, opts *RunOptions) error {
	cfg, err := loadProblem(cmd, args, &opts.Problem)
	if err != nil {
		return err
	}
	logger, err := commandLogger(cmd, opts.RootOptions, cfg)
	if err != nil {
		return err
	}

	res, runErr := solve(cfg, logger)
	if res == nil {
		return WrapExitError(ExitCommandError, "failed to solve", runErr)
	}

	rep := report.FromResult(res)
	rep.Name = cfg.Name
	if runErr != nil {
		rep.Error = runErr.Error()
	}

	dbPath := cfg.HistoryDB
	if cmd.Flags().Changed("record") {
		dbPath = opts.Record
	}
	if dbPath != "" {
		id, err := record(cmd.Context(), dbPath, cfg, res, rep.Error)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		rep.RunID = id
		logger.Info("run recorded", slog.String("id", id), slog.String("db", dbPath))
	}

	if err = report.Write(cmd.OutOrStdout(), rep, report.Format(opts.Format)); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	return outcome(res, runErr)
}

// outcome maps a finished run to the process exit status.
func outcome(res *poweriter.Result, runErr error) error {
	switch {
	case runErr != nil:
		return WrapExitError(ExitFailure, "run aborted", runErr)
	case res.Reason == poweriter.StateDivergenceAborted:
		return WrapExitError(ExitFailure, "convergence problem", res.Err())
	case res.Reason == poweriter.StateMaxIterationsReached:
		return NewExitError(ExitFailure, "did not converge within the iteration budget")
	default:
		return nil
	}
}

// record saves the run and returns its ID.
func record(ctx context.Context, path string, cfg *config.Config, res *poweriter.Result, errText string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer st.Close()

	return st.SaveRun(ctx, &store.Run{
		Name: cfg.Name,
		Problem: store.Problem{
			Matrix:             cfg.Matrix,
			InitialVector:      cfg.InitialVector,
			Tolerance:          cfg.Tolerance,
			MaxIterations:      cfg.MaxIterations,
			StabilityThreshold: cfg.StabilityThreshold,
		},
		Result: res,
		Error:  errText,
	})
}
