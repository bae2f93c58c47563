// SPDX-License-Identifier: MIT

package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/powiter/chart"
)

// ChartOptions holds flags for the chart command.
type ChartOptions struct {
	*RootOptions
	Problem ProblemOptions
	Output  string
	Series  string
}

// NewChartCommand creates the chart command.
func NewChartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chart [problem.yaml]",
		Short: "Solve a problem and plot its convergence",
		Long: `Solve a power-iteration problem and write a chart of the residual
(log scale, with the tolerance as a dashed line) or of the eigenvalue
approximations. The image format follows the output file extension
(png, svg, pdf, ...).

Example:
  powiter chart problem.yaml -o residual.png
  powiter chart problem.yaml -o eigen.svg --series eigenvalue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd, args, opts)
		},
	}

	addProblemFlags(cmd, &opts.Problem)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "image file to write (required)")
	cmd.Flags().StringVar(&opts.Series, "series", string(chart.SeriesResidual), "series to plot (residual|eigenvalue)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runChart(cmd *cobra.Command, args []string, opts *ChartOptions) error {
	series, err := chart.ParseSeries(opts.Series)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --series", err)
	}
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

	title := cfg.Name
	if title == "" {
		title = "power iteration"
	}
	f, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	werr := chart.Write(f, res, series, chart.Options{
		Title:     title + " (" + res.Reason.String() + ")",
		Format:    chart.FormatFromPath(opts.Output),
		Tolerance: cfg.Tolerance,
	})
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(opts.Output)
		return WrapExitError(ExitCommandError, "failed to write chart", werr)
	}
	logger.Info("chart written", slog.String("path", opts.Output), slog.String("series", string(series)))

	return outcome(res, runErr)
}
