package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // show one run in full
	RuleSet  string // filter the listing by rule-set hash
	Limit    int    // list at most this many recent runs
}

// RunList is the trace output when no run is selected.
type RunList struct {
	Runs []ir.RunRecord `json:"runs"`
}

// RunDetail is the trace output for one run.
type RunDetail struct {
	Run ir.RunRecord `json:"run"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded simplify runs",
		Long: `Inspect the run log written by "eqsat simplify --db".

Without --run, lists recorded runs oldest first. With --run, prints the
run's per-iteration trace and its diagnostics.

Examples:
  eqsat trace --db ./runs.db
  eqsat trace --db ./runs.db --limit 10
  eqsat trace --db ./runs.db --run 0192a7c4-...
  eqsat trace --db ./runs.db --run 0192a7c4-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show")
	cmd.Flags().StringVar(&opts.RuleSet, "ruleset", "", "only list runs of this rule-set hash")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "list at most this many recent runs (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx, store.ListOptions{RuleSetHash: opts.RuleSet, Limit: opts.Limit})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return formatter.Success(&RunList{Runs: runs})
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, sql.ErrNoRows) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	return formatter.SuccessWithTrace(&RunDetail{Run: run}, run.ID)
}

// RenderText implements TextRenderer.
func (l *RunList) RenderText(w io.Writer, verbose bool) error {
	if len(l.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, run := range l.Runs {
		fmt.Fprintf(w, "[%d] %s  %s → %s  cost=%s %s\n",
			run.Seq, truncateID(run.ID), run.Input, run.BestExpr,
			extract.Cost(run.BestCost), run.StopReason)
		if verbose {
			fmt.Fprintf(w, "       ruleset=%s model=%s nodes=%d classes=%d\n",
				truncateID(run.RuleSetHash), run.CostModel, run.Nodes, run.Classes)
		}
	}
	return nil
}

// RenderText implements TextRenderer.
func (d *RunDetail) RenderText(w io.Writer, verbose bool) error {
	run := d.Run

	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "Input:       %s\n", run.Input)
	fmt.Fprintf(w, "Best:        %s\n", run.BestExpr)
	fmt.Fprintf(w, "Cost:        %s (%s)\n", extract.Cost(run.BestCost), run.CostModel)
	fmt.Fprintf(w, "Stop reason: %s\n", run.StopReason)
	fmt.Fprintf(w, "Graph:       %d node(s), %d class(es)\n", run.Nodes, run.Classes)
	if verbose {
		fmt.Fprintf(w, "Rule set:    %s\n", run.RuleSetHash)
		fmt.Fprintf(w, "Elapsed:     %s\n", time.Duration(run.ElapsedMicros)*time.Microsecond)
		fmt.Fprintf(w, "Engine:      %s\n", run.EngineVersion)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Iterations ===")
	if len(run.Iterations) == 0 {
		fmt.Fprintln(w, "  (no iterations)")
	}
	for _, it := range run.Iterations {
		fmt.Fprintf(w, "  [%d] matches=%d applied=%d unions=%d rejected=%d guard_errors=%d nodes=%d classes=%d\n",
			it.Index, it.Matches, it.Applied, it.Unions, it.Rejected, it.GuardErrors, it.Nodes, it.Classes)
		if len(it.Truncated) > 0 {
			fmt.Fprintf(w, "       truncated: %v\n", it.Truncated)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Diagnostics ===")
	if len(run.Diagnostics) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, diag := range run.Diagnostics {
		fmt.Fprintf(w, "  [%d] %s c%d: %s\n", diag.Iteration, diag.Rule, diag.ClassID, diag.Message)
	}
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
