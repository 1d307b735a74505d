package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeTrace(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// recordRun simplifies expr with --db and returns the run id.
func recordRun(t *testing.T, dbPath, rules, expr string) string {
	t.Helper()
	out, err := executeSimplify(t, &RootOptions{Format: "json"}, "--rules", rules, "--db", dbPath, expr)
	require.NoError(t, err)
	resp, _ := decodeResponse(t, out.Stdout)
	require.NotEmpty(t, resp.TraceID)
	return resp.TraceID
}

func TestTraceCommand_RequiresDB(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceCommand_OpenFailure(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", "/nonexistent/dir/runs.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceCommand_EmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	output, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "No runs recorded.")
}

func TestTraceCommand_ListsRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, dbPath, "testdata/rules/arith.cue", "(+ x 0)")
	recordRun(t, dbPath, "testdata/rules/arith.cue", "(* y 1)")

	output, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "[1] ")
	assert.Contains(t, output, "(+ x 0) → x  cost=1 saturated")
	assert.Contains(t, output, "[2] ")
	assert.Contains(t, output, "(* y 1) → y  cost=1 saturated")
}

func TestTraceCommand_ListJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	id := recordRun(t, dbPath, "testdata/rules/arith.cue", "(+ x 0)")

	output, err := executeTrace(t, &RootOptions{Format: "json"}, "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string  `json:"status"`
		Data   RunList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Runs, 1)

	run := resp.Data.Runs[0]
	assert.Equal(t, id, run.ID)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, "x", run.BestExpr)
	assert.Equal(t, "ast-size", run.CostModel)
	assert.Empty(t, run.Iterations, "listings carry headers only")
}

func TestTraceCommand_FilterAndLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, dbPath, "testdata/rules/arith.cue", "(+ x 0)")
	recordRun(t, dbPath, "testdata/rules/weighted.yaml", "(/ y y)")
	recordRun(t, dbPath, "testdata/rules/arith.cue", "(* z 1)")

	list := func(args ...string) RunList {
		t.Helper()
		output, err := executeTrace(t, &RootOptions{Format: "json"}, append([]string{"--db", dbPath}, args...)...)
		require.NoError(t, err)
		var resp struct {
			Data RunList `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(output), &resp))
		return resp.Data
	}

	all := list()
	require.Len(t, all.Runs, 3)

	latest := list("--limit", "2")
	require.Len(t, latest.Runs, 2)
	assert.Equal(t, int64(2), latest.Runs[0].Seq)
	assert.Equal(t, int64(3), latest.Runs[1].Seq)

	weighted := list("--ruleset", all.Runs[1].RuleSetHash)
	require.Len(t, weighted.Runs, 1)
	assert.Equal(t, "(/ y y)", weighted.Runs[0].Input)
}

func TestTraceCommand_ShowRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	id := recordRun(t, dbPath, "testdata/rules/arith.cue", "(+ x 0)")

	output, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--run", id)
	require.NoError(t, err)
	assert.Contains(t, output, "Run: "+id)
	assert.Contains(t, output, "Input:       (+ x 0)")
	assert.Contains(t, output, "Best:        x")
	assert.Contains(t, output, "Cost:        1 (ast-size)")
	assert.Contains(t, output, "Stop reason: saturated")
	assert.Contains(t, output, "=== Iterations ===")
	assert.Contains(t, output, "  [1] matches=")
	assert.Contains(t, output, "  [2] matches=")
	assert.Contains(t, output, "=== Diagnostics ===")
	assert.Contains(t, output, "  (none)")
	assert.NotContains(t, output, "Rule set:")
}

func TestTraceCommand_ShowRunJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	id := recordRun(t, dbPath, "testdata/rules/arith.cue", "(+ x 0)")

	output, err := executeTrace(t, &RootOptions{Format: "json"}, "--db", dbPath, "--run", id)
	require.NoError(t, err)

	var resp struct {
		Status  string    `json:"status"`
		Data    RunDetail `json:"data"`
		TraceID string    `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, id, resp.TraceID)
	assert.Equal(t, "saturated", resp.Data.Run.StopReason)
	require.Len(t, resp.Data.Run.Iterations, 2)
	assert.Equal(t, 1, resp.Data.Run.Iterations[0].Index)
	assert.Zero(t, resp.Data.Run.Iterations[1].Unions, "the last pass of a saturated run adds nothing")
}

func TestTraceCommand_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	output, err := executeTrace(t, &RootOptions{Format: "text"}, "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, output, "run not found: missing")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "0192a7c4...9abcdef0", truncateID("0192a7c4-1111-7222-8333-44449abcdef0"))
}
