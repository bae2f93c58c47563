// SPDX-License-Identifier: MIT

package cli

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/powiter/config"
	"github.com/katalvlaran/powiter/poweriter"
)

// ProblemOptions holds the flags shared by commands that solve a problem.
// Each flag overrides the file and the environment only when set.
type ProblemOptions struct {
	Name               string
	Matrix             string
	Vector             string
	Data               string
	Derive             string
	Tolerance          float64
	MaxIterations      int
	StabilityThreshold float64
	Workers            int
	Grain              int
}

func addProblemFlags(cmd *cobra.Command, p *ProblemOptions) {
	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "problem name")
	f.StringVar(&p.Matrix, "matrix", "", `matrix rows separated by ';', e.g. "2,0;0,1"`)
	f.StringVar(&p.Vector, "vector", "", `initial vector, e.g. "1,1"`)
	f.StringVar(&p.Data, "data", "", `observations, one row per ';', whose covariance is the problem matrix`)
	f.StringVar(&p.Derive, "derive", "", "matrix derived from --data: covariance or correlation")
	f.Float64Var(&p.Tolerance, "tolerance", config.DefaultTolerance, "residual tolerance")
	f.IntVar(&p.MaxIterations, "max-iterations", config.DefaultMaxIterations, "iteration budget")
	f.Float64Var(&p.StabilityThreshold, "stability-threshold", poweriter.DefaultStabilityThreshold, "minimum dot product between primary and shadow iterates")
	f.IntVar(&p.Workers, "workers", poweriter.DefaultWorkers, "goroutines per iteration (0 = GOMAXPROCS)")
	f.IntVar(&p.Grain, "grain", poweriter.DefaultGrain, "elements per parallel chunk")
}

// loadProblem resolves defaults < file < environment < flags and validates
// the result. Every failure is an ExitCommandError.
func loadProblem(cmd *cobra.Command, args []string, p *ProblemOptions) (*config.Config, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load problem", err)
	}

	f := cmd.Flags()
	if f.Changed("name") {
		cfg.Name = p.Name
	}
	if f.Changed("matrix") {
		if cfg.Matrix, err = config.ParseMatrix(p.Matrix); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --matrix", err)
		}
		cfg.Data, cfg.Derive = nil, ""
	}
	if f.Changed("data") {
		if cfg.Data, err = config.ParseMatrix(p.Data); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --data", err)
		}
		cfg.Matrix = nil
	}
	if f.Changed("derive") {
		cfg.Derive = strings.ToLower(p.Derive)
	}
	if f.Changed("vector") {
		if cfg.InitialVector, err = config.ParseVector(p.Vector); err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --vector", err)
		}
	}
	if f.Changed("tolerance") {
		cfg.Tolerance = p.Tolerance
	}
	if f.Changed("max-iterations") {
		cfg.MaxIterations = p.MaxIterations
	}
	if f.Changed("stability-threshold") {
		cfg.StabilityThreshold = p.StabilityThreshold
	}
	if f.Changed("workers") {
		cfg.Workers = p.Workers
	}
	if f.Changed("grain") {
		cfg.Grain = p.Grain
	}

	if err = cfg.DeriveMatrix(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid problem", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid problem", err)
	}

	return cfg, nil
}

// commandLogger builds the logger from the resolved config and global flags.
func commandLogger(cmd *cobra.Command, root *RootOptions, cfg *config.Config) (*slog.Logger, error) {
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if root.LogLevel != "" {
		level = root.LogLevel
	}
	if root.LogFormat != "" {
		format = root.LogFormat
	}
	logger, err := newLogger(cmd.ErrOrStderr(), level, format, root.Verbose)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid logging flags", err)
	}

	return logger, nil
}

// solve runs the engine on a validated config.
func solve(cfg *config.Config, logger *slog.Logger) (*poweriter.Result, error) {
	a, err := cfg.BuildMatrix()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid matrix", err)
	}
	logger.Debug("solving", slog.String("config", cfg.String()))

	opts := append(cfg.EngineOptions(), poweriter.WithLogger(logger))

	return poweriter.Run(a, cfg.InitialVector, cfg.Tolerance, cfg.MaxIterations, opts...)
}
