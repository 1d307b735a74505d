package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/eqsat/internal/compiler"
	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/rewrite"
	"github.com/roach88/eqsat/internal/store"
	"github.com/roach88/eqsat/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a manual clock and a fixed run id, and persists
// every run to an in-memory run log so results are read back exactly as
// the CLI would store them.
type Harness struct {
	store  *store.Store
	clock  *testutil.ManualClock
	ids    *testutil.FixedRunIDGenerator
	logger *slog.Logger
}

// plan is a scenario resolved into things the engine can run.
type plan struct {
	program *compiler.Program
	model   extract.CostModel
	input   ir.Term
	hash    string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load and compile the rule set, resolve the cost model, parse the input
// 3. Saturate and extract
// 4. Persist the run and read it back as the trace
// 5. Check expectations, assertions and properties
//
// A failure of a kind the scenario can expect (parse, arity, rule, unknown
// cost model, match limit) is reported in the result; any other failure is
// returned as an error.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for the run log.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	var step time.Duration
	if scenario.ClockStep != "" {
		step, err = time.ParseDuration(scenario.ClockStep)
		if err != nil {
			return nil, fmt.Errorf("clock_step: %w", err)
		}
	}

	h := &Harness{
		store:  st,
		clock:  testutil.NewSteppingClock(step),
		ids:    testutil.NewFixedRunIDGenerator(scenario.RunID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(ctx, scenario)
}

func (h *Harness) run(ctx context.Context, s *Scenario) (*Result, error) {
	result := NewResult()

	p, err := h.prepare(s)
	var outcome *engine.Outcome
	if err == nil {
		outcome, err = engine.Simplify(p.program.Rules, []ir.Term{p.input}, p.model, h.options(p.program)...)
	}
	if err != nil {
		kind := classifyError(err)
		if kind == "" {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		result.ErrorKind = kind
		switch {
		case s.Expect.Error == "":
			result.AddError(fmt.Sprintf("unexpected %s error: %v", kind, err))
		case s.Expect.Error != kind:
			result.AddError(fmt.Sprintf("error: expected %s, got %s: %v", s.Expect.Error, kind, err))
		}
		return result, nil
	}
	if s.Expect.Error != "" {
		result.AddError(fmt.Sprintf("error: expected %s, run succeeded", s.Expect.Error))
	}

	result.outcome = outcome
	if err := h.record(ctx, outcome, p.hash, result); err != nil {
		return nil, err
	}
	root := outcome.Roots[0]
	for _, t := range root.Equivalents {
		result.Equivalents = append(result.Equivalents, t.String())
	}

	if s.Expect.Error == "" {
		checkExpect(result, s.Expect, outcome)
	}
	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	for _, prop := range s.Properties {
		if err := h.checkProperty(prop, p, root); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

// prepare compiles the rule set, then resolves the cost model, then parses
// the input, so an unknown model is reported before any expression work.
func (h *Harness) prepare(s *Scenario) (*plan, error) {
	doc, err := buildDocument(s)
	if err != nil {
		return nil, err
	}
	prog, err := doc.Compile()
	if err != nil {
		return nil, err
	}
	model, err := prog.ResolveCostModel(s.CostModel)
	if err != nil {
		return nil, err
	}
	input, err := ir.ParseTerm(s.Input)
	if err != nil {
		return nil, err
	}
	hash, err := prog.Rules.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash rule set: %w", err)
	}
	return &plan{program: prog, model: model, input: input, hash: hash}, nil
}

// buildDocument merges rules_file with the inline declarations.
func buildDocument(s *Scenario) (*compiler.Document, error) {
	doc := &compiler.Document{}
	if s.RulesFile != "" {
		loaded, err := compiler.Load(s.RulesFile)
		if err != nil {
			return nil, err
		}
		doc = loaded
	}
	doc.Rules = append(doc.Rules, s.Rules...)
	if len(s.Costs) > 0 {
		merged := make(map[string]float64, len(doc.Costs)+len(s.Costs))
		for op, w := range doc.Costs {
			merged[op] = w
		}
		for op, w := range s.Costs {
			merged[op] = w
		}
		doc.Costs = merged
	}
	if s.Limits != nil {
		doc.Limits = s.Limits
	}
	return doc, nil
}

func (h *Harness) options(p *compiler.Program) []engine.RunnerOption {
	opts := p.RunnerOptions()
	return append(opts,
		engine.WithClock(h.clock),
		engine.WithRunIDGenerator(h.ids),
		engine.WithLogger(h.logger),
	)
}

// record writes the run to the log and fills the trace from what was
// read back.
func (h *Harness) record(ctx context.Context, o *engine.Outcome, hash string, result *Result) error {
	rec := o.Record(hash)
	if _, _, err := h.store.WriteRun(ctx, rec); err != nil {
		return fmt.Errorf("failed to write run: %w", err)
	}
	stored, err := h.store.ReadRun(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to read run back: %w", err)
	}
	result.Record = stored
	for _, it := range stored.Iterations {
		result.AddIterationTrace(it)
	}
	return nil
}

// classifyError maps a failure to an Expect.Error kind, or "" when the
// failure is not one a scenario can expect.
func classifyError(err error) string {
	var ve *compiler.ValidationError
	switch {
	case engine.IsMatchLimitError(err):
		return ErrorMatchLimit
	case rewrite.IsRuleError(err), compiler.IsCompileError(err), errors.As(err, &ve):
		return ErrorRule
	case egraph.IsArityError(err):
		return ErrorArity
	case ir.IsParseError(err):
		return ErrorParse
	case extract.IsUnknownCostModelError(err):
		return ErrorUnknownCostModel
	}
	return ""
}

// checkExpect compares the first root against the expect clause.
func checkExpect(result *Result, e Expect, o *engine.Outcome) {
	root := o.Roots[0]

	if e.Expr != "" {
		want, err := ir.ParseTerm(e.Expr)
		switch {
		case err != nil:
			result.AddError(fmt.Sprintf("expect.expr: %v", err))
		case !root.Best.Equal(want):
			result.AddError(fmt.Sprintf("expr: expected %s, got %s", want, root.Best))
		}
	}
	if e.Cost != nil && float64(root.Cost) != *e.Cost {
		result.AddError(fmt.Sprintf("cost: expected %s, got %s", extract.Cost(*e.Cost), root.Cost))
	}
	if e.MaxCost != nil && float64(root.Cost) > *e.MaxCost {
		result.AddError(fmt.Sprintf("cost: expected at most %s, got %s", extract.Cost(*e.MaxCost), root.Cost))
	}
	if e.StopReason != "" && string(o.Report.StopReason) != e.StopReason {
		result.AddError(fmt.Sprintf("stop_reason: expected %s, got %s", e.StopReason, o.Report.StopReason))
	}
	for _, text := range e.Equivalent {
		t, err := ir.ParseTerm(text)
		if err != nil {
			result.AddError(fmt.Sprintf("expect.equivalent: %v", err))
			continue
		}
		id, ok := o.Graph.LookupTerm(t)
		if !ok || !o.Graph.Equivalent(id, root.Class) {
			result.AddError(fmt.Sprintf("equivalent: %s is not equivalent to %s", t, root.Input))
		}
	}
}

// checkProperty verifies one algebraic property of the result.
func (h *Harness) checkProperty(name string, p *plan, root engine.Root) error {
	switch name {
	case PropertyMonotone:
		if in := extract.TermCost(p.model, p.input); root.Cost > in {
			return fmt.Errorf("monotone: extracted cost %s exceeds input cost %s", root.Cost, in)
		}
	case PropertyIdempotent:
		again, err := engine.Simplify(p.program.Rules, []ir.Term{root.Best}, p.model, h.options(p.program)...)
		if err != nil {
			return fmt.Errorf("idempotent: re-simplify %s: %w", root.Best, err)
		}
		if got := again.Roots[0].Cost; got != root.Cost {
			return fmt.Errorf("idempotent: re-simplifying %s gave cost %s, want %s", root.Best, got, root.Cost)
		}
	default:
		return fmt.Errorf("unknown property %q", name)
	}
	return nil
}
