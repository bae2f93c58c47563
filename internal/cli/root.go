// SPDX-License-Identifier: MIT

// Package cli implements the powiter command line: solving a problem file,
// charting its convergence and browsing recorded runs.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/powiter/report"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "text" | "json"
	LogLevel  string // empty ⇒ config / environment
	LogFormat string // empty ⇒ config / environment
}

// NewRootCommand creates the root command for the powiter CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "powiter",
		Short: "Dominant eigenpair by guarded power iteration",
		Long: `powiter computes the dominant eigenvalue and eigenvector of a real square
matrix with the power method. A shadow iterate one step ahead of the primary
one stops the run when successive iterates stop agreeing in direction
(oscillation, sign flip, no dominant eigenvalue).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := report.ParseFormat(opts.Format); err != nil {
				return WrapExitError(ExitCommandError, "invalid --format", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewChartCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand prints the build information.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "powiter v%s (%s) built %s\n", Version, Commit, BuildTime)
			return err
		},
	}
}
