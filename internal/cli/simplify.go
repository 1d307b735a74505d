package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eqsat/internal/compiler"
	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/metrics"
	"github.com/roach88/eqsat/internal/store"
)

// SimplifyOptions holds flags for the simplify command.
type SimplifyOptions struct {
	*RootOptions
	Rules      string        // rule-set file or directory
	CostModel  string        // ast-size | ast-depth | op-weight
	IterLimit  int           // overrides limits.iterations
	NodeLimit  int           // overrides limits.nodes
	TimeLimit  time.Duration // overrides limits.time
	MatchLimit int           // overrides limits.matches; 0 = unbounded
	Strict     bool          // fail on a truncated search
	Database   string        // run log path
	MetricsOut string        // Prometheus textfile path
	Dump       bool          // print the saturated graph to stderr
}

// SimplifyResult is the outcome of one simplify run.
type SimplifyResult struct {
	RunID       string                   `json:"run_id"`
	Input       string                   `json:"input"`
	CostModel   string                   `json:"cost_model"`
	Best        string                   `json:"best"`
	Cost        float64                  `json:"cost"`
	StopReason  string                   `json:"stop_reason"`
	Iterations  int                      `json:"iterations"`
	Nodes       int                      `json:"nodes"`
	Classes     int                      `json:"classes"`
	Equivalents []string                 `json:"equivalents"`
	Diagnostics []ir.DiagnosticRecord    `json:"diagnostics,omitempty"`
	Warnings    []compiler.GrowthWarning `json:"warnings,omitempty"`
}

// NewSimplifyCommand creates the simplify command.
func NewSimplifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimplifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simplify <expr>",
		Short: "Simplify an expression under a rule set",
		Long: `Saturate an e-graph seeded with <expr> using the rules in --rules,
then extract the cheapest equivalent expression.

Limits declared in the rule set apply unless overridden by flags. A run
that stops on a limit still reports a valid best expression.

Exit codes:
  0 - Simplified
  1 - The expression could not be simplified (parse error, arity conflict,
      strict match limit)
  2 - Command error (bad rule set, unknown cost model, database error)

Examples:
  eqsat simplify --rules ./rules/arith.cue "(+ x 0)"
  eqsat simplify --rules ./rules --cost ast-depth "(* (+ a b) 1)"
  eqsat simplify --rules ./rules --db ./runs.db --metrics-out ./eqsat.prom "(+ x 0)"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimplify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rule-set file (.cue, .yaml) or CUE package directory (required)")
	_ = cmd.MarkFlagRequired("rules")
	cmd.Flags().StringVar(&opts.CostModel, "cost", extract.AstSizeName, "cost model (ast-size|ast-depth|op-weight)")
	cmd.Flags().IntVar(&opts.IterLimit, "iter-limit", engine.DefaultIterationLimit, "maximum saturation passes")
	cmd.Flags().IntVar(&opts.NodeLimit, "node-limit", engine.DefaultNodeLimit, "maximum e-nodes")
	cmd.Flags().DurationVar(&opts.TimeLimit, "time-limit", engine.DefaultTimeLimit, "maximum wall time")
	cmd.Flags().IntVar(&opts.MatchLimit, "match-limit", engine.DefaultMatchLimit, "maximum matches per rule per pass (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when a search hits the match limit")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.MetricsOut, "metrics-out", "", "write run metrics to this Prometheus textfile")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "print the saturated e-graph to stderr")

	return cmd
}

func runSimplify(opts *SimplifyOptions, expr string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	loaded, loadErrors := LoadRules(opts.Rules, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return formatter.fail(ExitCommandError, code, message, nil)
	}
	prog := loaded.Program
	formatter.VerboseLog("Loaded %d rule(s) from %s", prog.Rules.Len(), opts.Rules)

	// The model is resolved before the input is parsed, so an unknown
	// model never reaches the graph.
	model, err := prog.ResolveCostModel(opts.CostModel)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeCostModel, err.Error(), map[string]any{"known": append(extract.NewRegistry().Names(), extract.OpWeightName)})
	}

	input, err := ir.ParseTerm(expr)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeParse, err.Error(), nil)
	}

	hash, err := prog.Rules.Hash()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("hash rule set: %v", err), nil)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err), nil)
		}
		defer st.Close()
	}

	runOpts := append(prog.RunnerOptions(), limitOverrides(opts, cmd)...)
	runOpts = append(runOpts, engine.WithLogger(slog.Default()))
	var collector *metrics.Collector
	if opts.MetricsOut != "" {
		collector = metrics.NewCollector()
		runOpts = append(runOpts, engine.WithObserver(collector))
	}

	outcome, err := engine.Simplify(prog.Rules, []ir.Term{input}, model, runOpts...)
	if err != nil {
		return formatter.fail(ExitFailure, runErrorCode(err), err.Error(), nil)
	}
	report := outcome.Report
	slog.Debug("simplify finished",
		"run_id", report.RunID,
		"stop_reason", report.StopReason,
		"iterations", len(report.Iterations),
		"nodes", report.Nodes,
	)

	rec := outcome.Record(hash)
	if st != nil {
		seq, _, err := st.WriteRun(ctx, rec)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to record run: %v", err), nil)
		}
		formatter.VerboseLog("Recorded run %s (seq %d) in %s", rec.ID, seq, opts.Database)
	}
	if collector != nil {
		if err := collector.WriteTextfile(opts.MetricsOut); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing metrics: %v", err), nil)
		}
	}
	if opts.Dump {
		if err := dumpGraph(formatter.GetErrWriter(), outcome.Graph); err != nil {
			return err
		}
	}

	root := outcome.Roots[0]
	result := &SimplifyResult{
		RunID:       report.RunID,
		Input:       rec.Input,
		CostModel:   outcome.Model,
		Best:        rec.BestExpr,
		Cost:        float64(root.Cost),
		StopReason:  string(report.StopReason),
		Iterations:  len(report.Iterations),
		Nodes:       report.Nodes,
		Classes:     report.Classes,
		Equivalents: make([]string, len(root.Equivalents)),
		Diagnostics: rec.Diagnostics,
		Warnings:    prog.Warnings,
	}
	for i, t := range root.Equivalents {
		result.Equivalents[i] = t.String()
	}
	return formatter.SuccessWithTrace(result, report.RunID)
}

// limitOverrides turns explicitly set limit flags into runner options.
// They come after the rule set's own limits, so they win.
func limitOverrides(opts *SimplifyOptions, cmd *cobra.Command) []engine.RunnerOption {
	flags := cmd.Flags()
	var out []engine.RunnerOption
	if flags.Changed("iter-limit") {
		out = append(out, engine.WithIterationLimit(opts.IterLimit))
	}
	if flags.Changed("node-limit") {
		out = append(out, engine.WithNodeLimit(opts.NodeLimit))
	}
	if flags.Changed("time-limit") {
		out = append(out, engine.WithTimeLimit(opts.TimeLimit))
	}
	if flags.Changed("match-limit") {
		out = append(out, engine.WithMatchLimit(opts.MatchLimit))
	}
	if opts.Strict {
		out = append(out, engine.WithStrictMatchLimit())
	}
	return out
}

// runErrorCode maps an engine failure to an error code.
func runErrorCode(err error) string {
	switch {
	case engine.IsMatchLimitError(err):
		return ErrCodeMatchLimit
	case egraph.IsArityError(err):
		return ErrCodeArity
	case ir.IsParseError(err):
		return ErrCodeParse
	case extract.IsUnknownCostModelError(err):
		return ErrCodeCostModel
	default:
		return ErrCodeGeneric
	}
}

func dumpGraph(w io.Writer, g *egraph.EGraph) error {
	if err := g.Dump(w); err != nil {
		return WrapExitError(ExitCommandError, "failed to dump graph", err)
	}
	return nil
}

// RenderText implements TextRenderer.
func (r *SimplifyResult) RenderText(w io.Writer, verbose bool) error {
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}

	fmt.Fprintf(w, "✓ %s\n", r.Best)
	fmt.Fprintf(w, "  input:       %s\n", r.Input)
	fmt.Fprintf(w, "  cost:        %s (%s)\n", extract.Cost(r.Cost), r.CostModel)
	fmt.Fprintf(w, "  stop reason: %s after %d iteration(s)\n", r.StopReason, r.Iterations)
	fmt.Fprintf(w, "  graph:       %d node(s), %d class(es)\n", r.Nodes, r.Classes)

	if len(r.Diagnostics) > 0 {
		fmt.Fprintf(w, "  diagnostics: %d\n", len(r.Diagnostics))
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "    [%d] %s c%d: %s\n", d.Iteration, d.Rule, d.ClassID, d.Message)
		}
	}

	if verbose {
		fmt.Fprintf(w, "  run id:      %s\n", r.RunID)
		fmt.Fprintln(w, "  equivalents:")
		for _, e := range r.Equivalents {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	return nil
}

// parseCompileError extracts error code and message from a load error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var ve *compiler.ValidationError
	if errors.As(err, &ve) {
		return ve.Code, fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
