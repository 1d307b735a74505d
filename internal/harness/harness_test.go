package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/compiler"
)

func arithRules() []compiler.RuleDecl {
	return []compiler.RuleDecl{
		{Name: "comm-add", Searcher: "(+ ?a ?b)", Applier: "(+ ?b ?a)"},
		{Name: "comm-mul", Searcher: "(* ?a ?b)", Applier: "(* ?b ?a)"},
		{Name: "add-zero", Searcher: "(+ ?a 0)", Applier: "?a"},
		{Name: "mul-one", Searcher: "(* ?a 1)", Applier: "?a"},
		{Name: "mul-zero", Searcher: "(* ?a 0)", Applier: "0"},
	}
}

func growRules() []compiler.RuleDecl {
	return []compiler.RuleDecl{
		{Name: "grow", Searcher: "(f ?a)", Applier: "(f (g ?a))"},
	}
}

func addZeroScenario() *Scenario {
	return &Scenario{
		Name:        "add_zero",
		Description: "x + 0 is x",
		Input:       "(+ x 0)",
		Rules:       []compiler.RuleDecl{{Name: "add-zero", Searcher: "(+ ?a 0)", Applier: "?a"}},
		RunID:       "test-run-add-zero",
		Expect:      Expect{Expr: "x", StopReason: "saturated"},
	}
}

func cost(c float64) *float64 {
	return &c
}

// ============================================================================
// Successful runs
// ============================================================================

func TestRun_SimplifiesToCheapest(t *testing.T) {
	scenario := &Scenario{
		Name:        "identities",
		Description: "Identities vanish under commutativity",
		Input:       "(+ 0 (* 1 (+ y 0)))",
		Rules:       arithRules(),
		Expect: Expect{
			Expr:       "y",
			Cost:       cost(1),
			StopReason: "saturated",
			Equivalent: []string{"(+ y 0)", "(* 1 (+ y 0))"},
		},
		Properties: []string{PropertyMonotone, PropertyIdempotent},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.ErrorKind)
	assert.NotEmpty(t, result.Trace)
	assert.Equal(t, "y", result.Record.BestExpr)
	assert.Equal(t, "saturated", result.Record.StopReason)
	require.NotNil(t, result.Outcome())
}

func TestRun_TraceMatchesPasses(t *testing.T) {
	result, err := Run(addZeroScenario())
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, TraceEvent{Iteration: 1, Matches: 1, Applied: 1, Unions: 1, Nodes: 3, Classes: 2}, result.Trace[0])
	assert.Equal(t, TraceEvent{Iteration: 2, Matches: 1, Applied: 1, Unions: 0, Nodes: 3, Classes: 2}, result.Trace[1])
	assert.Equal(t, []string{"x", "(+ x 0)"}, result.Equivalents)
}

func TestRun_RecordsRunWithFixedID(t *testing.T) {
	result, err := Run(addZeroScenario())
	require.NoError(t, err)

	assert.Equal(t, "test-run-add-zero", result.Record.ID)
	assert.Equal(t, int64(1), result.Record.Seq)
	assert.Equal(t, "(+ x 0)", result.Record.Input)
	assert.Equal(t, "ast-size", result.Record.CostModel)
	assert.Equal(t, 1.0, result.Record.BestCost)
	assert.NotEmpty(t, result.Record.RuleSetHash)
	assert.Zero(t, result.Record.ElapsedMicros, "frozen clock")
}

func TestRun_DefaultRunID(t *testing.T) {
	scenario := addZeroScenario()
	scenario.RunID = ""

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, "test-run-default", result.Record.ID)
}

func TestRun_Deterministic(t *testing.T) {
	first, err := Run(addZeroScenario())
	require.NoError(t, err)
	second, err := Run(addZeroScenario())
	require.NoError(t, err)

	a, err := MarshalSnapshot("add_zero", first)
	require.NoError(t, err)
	b, err := MarshalSnapshot("add_zero", second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

// ============================================================================
// Expectation failures
// ============================================================================

func TestRun_WrongExpectationsFail(t *testing.T) {
	tests := []struct {
		name   string
		expect Expect
		want   string
	}{
		{"expr", Expect{Expr: "(+ x 0)"}, "expr: expected (+ x 0), got x"},
		{"cost", Expect{Cost: cost(5)}, "cost: expected 5, got 1"},
		{"max cost", Expect{MaxCost: cost(0.5)}, "cost: expected at most 0.5, got 1"},
		{"stop reason", Expect{StopReason: "iteration_limit"}, "stop_reason: expected iteration_limit, got saturated"},
		{"equivalent", Expect{Equivalent: []string{"0"}}, "equivalent: 0 is not equivalent to (+ x 0)"},
		{"absent equivalent", Expect{Equivalent: []string{"(* x 1)"}}, "equivalent: (* x 1) is not equivalent to (+ x 0)"},
		{"expected error", Expect{Error: ErrorParse}, "error: expected parse, run succeeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := addZeroScenario()
			scenario.Expect = tt.expect

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.False(t, result.Pass)
			assert.Contains(t, result.Errors, tt.want)
		})
	}
}

// ============================================================================
// Expected errors
// ============================================================================

func TestRun_ExpectedErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *Scenario)
		wantKind string
	}{
		{
			name:     "malformed input",
			mutate:   func(s *Scenario) { s.Input = "(+ x" },
			wantKind: ErrorParse,
		},
		{
			name:     "unknown cost model",
			mutate:   func(s *Scenario) { s.CostModel = "nope" },
			wantKind: ErrorUnknownCostModel,
		},
		{
			name:     "unknown cost model wins over malformed input",
			mutate:   func(s *Scenario) { s.CostModel = "nope"; s.Input = "(+ x" },
			wantKind: ErrorUnknownCostModel,
		},
		{
			name:     "inconsistent arity",
			mutate:   func(s *Scenario) { s.Input = "(+ (+ a) b)" },
			wantKind: ErrorArity,
		},
		{
			name: "unbound applier variable",
			mutate: func(s *Scenario) {
				s.Rules = []compiler.RuleDecl{{Name: "bad", Searcher: "(+ ?a 0)", Applier: "?b"}}
			},
			wantKind: ErrorRule,
		},
		{
			name: "strict match limit",
			mutate: func(s *Scenario) {
				s.Input = "(+ (+ a b) c)"
				s.Rules = []compiler.RuleDecl{{Name: "comm-add", Searcher: "(+ ?a ?b)", Applier: "(+ ?b ?a)"}}
				s.Limits = &compiler.LimitsDecl{Matches: 1, Strict: true}
			},
			wantKind: ErrorMatchLimit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := addZeroScenario()
			tt.mutate(scenario)
			scenario.Expect = Expect{Error: tt.wantKind}

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, tt.wantKind, result.ErrorKind)
			assert.Nil(t, result.Outcome())
			assert.Empty(t, result.Trace)
		})
	}
}

func TestRun_UnexpectedError(t *testing.T) {
	scenario := addZeroScenario()
	scenario.Input = "(+ x"

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected parse error")
}

func TestRun_WrongErrorKind(t *testing.T) {
	scenario := addZeroScenario()
	scenario.Input = "(+ x"
	scenario.Expect = Expect{Error: ErrorArity}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "error: expected arity, got parse")
}

func TestRun_MissingRulesFileIsAnError(t *testing.T) {
	scenario := addZeroScenario()
	scenario.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario add_zero")
}

// ============================================================================
// Limits
// ============================================================================

func TestRun_TimeLimitWithSteppingClock(t *testing.T) {
	scenario := &Scenario{
		Name:        "time_limit",
		Description: "A growing rule set is stopped by the clock",
		Input:       "(f x)",
		Rules:       growRules(),
		Limits:      &compiler.LimitsDecl{Time: "10ms"},
		ClockStep:   "1s",
		Expect:      Expect{Expr: "(f x)", StopReason: "time_limit"},
		Assertions:  []Assertion{{Type: AssertIterationCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Positive(t, result.Record.ElapsedMicros)
}

func TestRun_NodeLimit(t *testing.T) {
	scenario := &Scenario{
		Name:        "node_limit",
		Description: "A growing rule set is stopped by the node cap",
		Input:       "(f x)",
		Rules:       growRules(),
		Limits:      &compiler.LimitsDecl{Nodes: 5},
		Expect:      Expect{Expr: "(f x)", StopReason: "node_limit"},
		Assertions:  []Assertion{{Type: AssertIterationCount, Count: 2}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 6, result.Record.Nodes)
}

func TestRun_IterationLimit(t *testing.T) {
	scenario := &Scenario{
		Name:        "iteration_limit",
		Description: "A growing rule set is stopped by the pass cap",
		Input:       "(f x)",
		Rules:       growRules(),
		Limits:      &compiler.LimitsDecl{Iterations: 3},
		Expect:      Expect{Expr: "(f x)", Cost: cost(2), StopReason: "iteration_limit"},
		Assertions:  []Assertion{{Type: AssertIterationCount, Count: 3}},
		Properties:  []string{PropertyMonotone},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_TruncatedSearchContinues(t *testing.T) {
	scenario := &Scenario{
		Name:        "truncated",
		Description: "A capped search is recorded and the run continues",
		Input:       "(+ (+ a b) c)",
		Rules:       []compiler.RuleDecl{{Name: "comm-add", Searcher: "(+ ?a ?b)", Applier: "(+ ?b ?a)"}},
		Limits:      &compiler.LimitsDecl{Matches: 1},
		Expect:      Expect{Equivalent: []string{"(+ c (+ b a))"}},
		Assertions:  []Assertion{{Type: AssertTruncated, Rule: "comm-add"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"comm-add"}, result.Trace[0].Truncated)
}

// ============================================================================
// Guards and rule sources
// ============================================================================

func TestRun_DeclarativeGuard(t *testing.T) {
	rules := []compiler.RuleDecl{{
		Name:     "div-self",
		Searcher: "(/ ?a ?a)",
		Applier:  "1",
		When:     []compiler.Condition{{Var: "a", Not: "0"}},
	}}

	t.Run("guard holds", func(t *testing.T) {
		result, err := Run(&Scenario{
			Name:        "div_self",
			Description: "y / y is 1",
			Input:       "(/ y y)",
			Rules:       rules,
			Expect:      Expect{Expr: "1", Equivalent: []string{"1"}},
			Assertions:  []Assertion{{Type: AssertDiagnosticCount, Count: 0}},
		})
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
	})

	t.Run("guard rejects", func(t *testing.T) {
		result, err := Run(&Scenario{
			Name:        "div_zero",
			Description: "0 / 0 is left alone",
			Input:       "(/ 0 0)",
			Rules:       rules,
			Expect:      Expect{Expr: "(/ 0 0)", StopReason: "saturated"},
			Assertions:  []Assertion{{Type: AssertNotEquivalent, Terms: []string{"(/ 0 0)", "1"}}},
		})
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
		require.Len(t, result.Trace, 1)
		assert.Equal(t, 1, result.Trace[0].Rejected)
	})
}

func TestRun_RulesFileWithInlineRulesAndWeights(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`rules:
  - name: mul-two
    searcher: "(* ?a 2)"
    applier: "(+ ?a ?a)"
costs:
  "*": 10
`), 0644))

	scenario := &Scenario{
		Name:        "weights",
		Description: "Weighted multiplication is rewritten to addition",
		Input:       "(* z 2)",
		RulesFile:   rulesPath,
		Rules:       []compiler.RuleDecl{{Name: "add-self", Searcher: "(+ ?a ?a)", Applier: "(* 2 ?a)"}},
		Costs:       map[string]float64{"+": 2},
		CostModel:   "op-weight",
		Expect:      Expect{Expr: "(+ z z)", Cost: cost(4), Equivalent: []string{"(* 2 z)"}},
		Properties:  []string{PropertyMonotone},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "op-weight", result.Record.CostModel)
}

func TestRun_OpWeightWithoutCosts(t *testing.T) {
	scenario := addZeroScenario()
	scenario.CostModel = "op-weight"
	scenario.Expect = Expect{Expr: "x", Cost: cost(1)}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AstDepth(t *testing.T) {
	scenario := &Scenario{
		Name:        "depth",
		Description: "ast-depth prices height",
		Input:       "(* (+ a 0) 1)",
		Rules:       arithRules(),
		CostModel:   "ast-depth",
		Expect:      Expect{Expr: "a", Cost: cost(1)},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunContext_CancelledSuite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := RunSuite(ctx, []string{"never-read.yaml"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.TotalScenarios)
}
