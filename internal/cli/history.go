// SPDX-License-Identifier: MIT

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/powiter/config"
	"github.com/katalvlaran/powiter/report"
	"github.com/katalvlaran/powiter/store"
)

// HistoryOptions holds flags for the history and show commands.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Long: `List runs recorded with "powiter run --record".

The database defaults to $POWITER_HISTORY_DB.

Example:
  powiter history --db runs.db --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs (0 = all)")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the report of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

// openHistory resolves the database path (flag, then environment) and opens it.
func openHistory(opts *HistoryOptions) (*store.Store, error) {
	path := opts.Database
	if path == "" {
		cfg, err := config.Load("")
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load environment", err)
		}
		path = cfg.HistoryDB
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no database: pass --db or set "+config.EnvHistoryDB)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return st, nil
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	st, err := openHistory(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if report.Format(opts.Format) == report.FormatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summariesJSON(runs))
	}

	return writeHistoryText(cmd.OutOrStdout(), runs)
}

func runShow(cmd *cobra.Command, opts *HistoryOptions, id string) error {
	st, err := openHistory(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.GetRun(cmd.Context(), id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}
	rep := report.FromResult(run.Result)
	rep.Name = run.Name
	rep.RunID = run.ID
	rep.Error = run.Error

	return report.Write(cmd.OutOrStdout(), rep, report.Format(opts.Format))
}

type summaryJSON struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	CreatedAt  string   `json:"created_at"`
	N          int      `json:"n"`
	Reason     string   `json:"reason"`
	Iterations int      `json:"iterations"`
	Eigenvalue *float64 `json:"eigenvalue,omitempty"`
	Residual   *float64 `json:"residual,omitempty"`
}

func summariesJSON(runs []store.Summary) []summaryJSON {
	out := make([]summaryJSON, len(runs))
	for i, r := range runs {
		out[i] = summaryJSON{
			ID:         r.ID,
			Name:       r.Name,
			CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
			N:          r.N,
			Reason:     r.Reason.String(),
			Iterations: r.Iterations,
			Eigenvalue: r.Eigenvalue,
			Residual:   r.Residual,
		}
	}

	return out
}

func writeHistoryText(w io.Writer, runs []store.Summary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tN\tREASON\tITERATIONS\tEIGENVALUE")
	for _, r := range runs {
		lam := "-"
		if r.Eigenvalue != nil {
			lam = strconv.FormatFloat(*r.Eigenvalue, 'f', 6, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			r.ID, r.Name, r.CreatedAt.UTC().Format(time.RFC3339), r.N, r.Reason, r.Iterations, lam)
	}

	return tw.Flush()
}
