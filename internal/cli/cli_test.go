package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/powiter/config"
	"github.com/katalvlaran/powiter/poweriter"
	"github.com/katalvlaran/powiter/report"
)

// execute runs the root command with args and returns stdout, stderr and the
// exit code main would use.
func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), errOut.String(), GetExitCode(err)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"run", "chart", "history", "show", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-format"))
}

func TestRun_Flags(t *testing.T) {
	out, _, code := execute(t, "run", "--matrix", "2,0;0,1", "--vector", "1,1", "--tolerance", "1e-6")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "iterations needed for convergence:\n21\n")
	assert.Contains(t, out, "reason: converged\n")
	assert.Contains(t, out, "successive residuals:\n0.500000\n")
}

func TestRun_File(t *testing.T) {
	out, _, code := execute(t, "run", filepath.Join("testdata", "diag.yaml"), "--format", "json")
	require.Equal(t, ExitSuccess, code)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "diag", rep.Name)
	assert.Equal(t, poweriter.StateConverged, rep.Reason)
	assert.Equal(t, 21, rep.Iterations)
	require.NotNil(t, rep.Eigenvalue)
	assert.InDelta(t, 2, *rep.Eigenvalue, 1e-9)
}

// TestRun_Precedence: env beats the file, flags beat env.
func TestRun_Precedence(t *testing.T) {
	t.Setenv(config.EnvMaxIterations, "3")
	file := filepath.Join("testdata", "diag.yaml")

	out, _, code := execute(t, "run", file)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "iterations performed:\n3\n")
	assert.Contains(t, out, "reason: max_iterations_reached")

	out, _, code = execute(t, "run", file, "--max-iterations", "100")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "reason: converged")
}

func TestRun_Divergence(t *testing.T) {
	out, errOut, code := execute(t, "run", "--matrix", "0,1;1,0", "--vector", "1,0", "--log-level", "warn")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "reason: divergence_aborted")
	assert.Contains(t, out, "convergence problem")
	assert.Contains(t, errOut, "shadow iterate diverged")
}

// TestRun_MidRunFault: the nilpotent matrix annihilates the start vector; the
// partial report is printed with the error.
func TestRun_MidRunFault(t *testing.T) {
	out, _, code := execute(t, "run", "--matrix", "0,1;0,0", "--vector", "1,0")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "reason: divergence_aborted")
	assert.Contains(t, out, "error: ")
}

func TestRun_InvalidInput(t *testing.T) {
	cases := map[string][]string{
		"ragged":        {"run", "--matrix", "1,2;3", "--vector", "1,1"},
		"length":        {"run", "--matrix", "2,0;0,1", "--vector", "1,1,1"},
		"zero vector":   {"run", "--matrix", "2,0;0,1", "--vector", "0,0"},
		"bad number":    {"run", "--matrix", "2,x;0,1", "--vector", "1,1"},
		"no problem":    {"run"},
		"missing file":  {"run", filepath.Join("testdata", "missing.yaml")},
		"bad tolerance": {"run", "--matrix", "1", "--vector", "1", "--tolerance", "-1"},
		"bad format":    {"run", "--matrix", "1", "--vector", "1", "--format", "xml"},
		"bad log level": {"run", "--matrix", "1", "--vector", "1", "--log-level", "loud"},
		"unknown flag":  {"run", "--frobnicate"},
		"one sample":    {"run", "--data", "1,2", "--vector", "1,1"},
		"bad derive":    {"run", "--data", "1,2;2,4", "--derive", "mode", "--vector", "1,1"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, code := execute(t, args...)
			assert.Equal(t, ExitCommandError, code)
		})
	}
}

// TestRun_Data: the covariance of points on y = 2x has dominant eigenvalue 5;
// --data replaces the file's matrix.
func TestRun_Data(t *testing.T) {
	out, _, code := execute(t, "run", filepath.Join("testdata", "diag.yaml"),
		"--data", "1,2;2,4;3,6", "--format", "json")
	require.Equal(t, ExitSuccess, code)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.NotNil(t, rep.Eigenvalue)
	assert.InDelta(t, 5, *rep.Eigenvalue, 1e-9)
	assert.Equal(t, 2, rep.Iterations)

	_, _, code = execute(t, "run", "--data", "1,10;2,30;3,20", "--derive", "Correlation", "--vector", "1,0")
	assert.Equal(t, ExitSuccess, code)
}

// TestRun_VerboseLogs: -v turns on per-iteration debug records.
func TestRun_VerboseLogs(t *testing.T) {
	_, errOut, code := execute(t, "run", "--matrix", "2,0;0,1", "--vector", "1,1", "--tolerance", "1e-6", "-v", "--log-format", "json")
	require.Equal(t, ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(errOut), "\n")
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Contains(t, errOut, `"msg":"iteration accepted"`)
}

func TestRecordHistoryShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, _, code := execute(t, "run", filepath.Join("testdata", "diag.yaml"), "--record", db, "--format", "json")
	require.Equal(t, ExitSuccess, code)
	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.NotEmpty(t, rep.RunID)

	_, _, code = execute(t, "run", "--matrix", "0,1;1,0", "--vector", "1,0", "--name", "swap", "--record", db)
	require.Equal(t, ExitFailure, code)

	out, _, code = execute(t, "history", "--db", db)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "REASON")
	assert.Contains(t, out, rep.RunID)
	assert.Contains(t, out, "divergence_aborted")
	assert.Less(t, strings.Index(out, "swap"), strings.Index(out, rep.RunID), "newest first")

	out, _, code = execute(t, "history", "--db", db, "--limit", "1", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	var sums []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &sums))
	require.Len(t, sums, 1)
	assert.Equal(t, "swap", sums[0]["name"])

	out, _, code = execute(t, "show", rep.RunID, "--db", db)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "problem: diag\n")
	assert.Contains(t, out, "run: "+rep.RunID+"\n")
	assert.Contains(t, out, "iterations needed for convergence:\n21\n")

	_, _, code = execute(t, "show", "nope", "--db", db)
	assert.Equal(t, ExitCommandError, code)
}

// TestRecord_FromEnv: POWITER_HISTORY_DB enables recording without flags.
func TestRecord_FromEnv(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env.db")
	t.Setenv(config.EnvHistoryDB, db)

	_, _, code := execute(t, "run", filepath.Join("testdata", "diag.yaml"))
	require.Equal(t, ExitSuccess, code)

	out, _, code := execute(t, "history")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "converged")
}

func TestHistory_NoDatabase(t *testing.T) {
	t.Setenv(config.EnvHistoryDB, "")
	_, _, code := execute(t, "history")
	assert.Equal(t, ExitCommandError, code)

	out, _, code := execute(t, "history", "--db", filepath.Join(t.TempDir(), "empty.db"))
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "no runs recorded")
}

func TestChart(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "residual.png")
	_, _, code := execute(t, "chart", filepath.Join("testdata", "diag.yaml"), "-o", png)
	require.Equal(t, ExitSuccess, code)
	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}))

	svg := filepath.Join(dir, "eigen.svg")
	_, _, code = execute(t, "chart", filepath.Join("testdata", "diag.yaml"), "-o", svg, "--series", "eigenvalue")
	require.Equal(t, ExitSuccess, code)
	data, err = os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestChart_Errors(t *testing.T) {
	dir := t.TempDir()
	_, _, code := execute(t, "chart", filepath.Join("testdata", "diag.yaml"))
	assert.Equal(t, ExitCommandError, code, "missing -o")

	_, _, code = execute(t, "chart", filepath.Join("testdata", "diag.yaml"), "-o", filepath.Join(dir, "x.png"), "--series", "phase")
	assert.Equal(t, ExitCommandError, code)

	// Nothing accepted: no chart, no file left behind.
	out := filepath.Join(dir, "swap.png")
	_, _, code = execute(t, "chart", "--matrix", "0,1;1,0", "--vector", "1,0", "-o", out)
	assert.Equal(t, ExitCommandError, code)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestVersion(t *testing.T) {
	out, _, code := execute(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "powiter v"+Version+" ("+Commit+") built "+BuildTime+"\n", out)
}

func TestExitError(t *testing.T) {
	base := os.ErrNotExist
	err := WrapExitError(ExitCommandError, "open", base)
	assert.Equal(t, "open: "+base.Error(), err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())

	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "x")))
	assert.Equal(t, ExitCommandError, GetExitCode(os.ErrClosed))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger(&buf, "info", "json", false)
	require.NoError(t, err)
	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	l, err = newLogger(&buf, "error", "text", true)
	require.NoError(t, err)
	l.Debug("forced")
	assert.Contains(t, buf.String(), "msg=forced")

	_, err = newLogger(&buf, "loud", "text", false)
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml", false)
	assert.Error(t, err)
}
