package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content to dir/name and returns the path.
func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validScenario = `
name: add_zero
description: "x + 0 is x"
input: "(+ x 0)"
rules:
  - name: add-zero
    searcher: "(+ ?a 0)"
    applier: "?a"
expect:
  expr: "x"
  cost: 1
  stop_reason: saturated
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "test.yaml", validScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "add_zero", scenario.Name)
	assert.Equal(t, "x + 0 is x", scenario.Description)
	assert.Equal(t, "(+ x 0)", scenario.Input)
	require.Len(t, scenario.Rules, 1)
	assert.Equal(t, "add-zero", scenario.Rules[0].Name)
	assert.Equal(t, "(+ ?a 0)", scenario.Rules[0].Searcher)
	assert.Equal(t, "x", scenario.Expect.Expr)
	require.NotNil(t, scenario.Expect.Cost)
	assert.Equal(t, 1.0, *scenario.Expect.Cost)
	assert.Equal(t, "saturated", scenario.Expect.StopReason)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "test.yaml", "name: [unclosed\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "test.yaml", validScenario+"assertion: []\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field assertion not found")
}

func TestLoadScenario_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\ninput: x\nrules: [{name: r, searcher: x, applier: x}]\nexpect: {expr: x}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\ninput: x\nrules: [{name: r, searcher: x, applier: x}]\nexpect: {expr: x}\n",
			wantErr: "description is required",
		},
		{
			name:    "missing input",
			content: "name: n\ndescription: d\nrules: [{name: r, searcher: x, applier: x}]\nexpect: {expr: x}\n",
			wantErr: "input is required",
		},
		{
			name:    "missing rules",
			content: "name: n\ndescription: d\ninput: x\nexpect: {expr: x}\n",
			wantErr: "rules or rules_file is required",
		},
		{
			name:    "empty expect",
			content: "name: n\ndescription: d\ninput: x\nrules: [{name: r, searcher: x, applier: x}]\n",
			wantErr: "expect must set at least one of",
		},
		{
			name:    "unknown error kind",
			content: "name: n\ndescription: d\ninput: x\nrules: [{name: r, searcher: x, applier: x}]\nexpect: {error: boom}\n",
			wantErr: `unknown error kind "boom"`,
		},
		{
			name:    "unknown stop reason",
			content: "name: n\ndescription: d\ninput: x\nrules: [{name: r, searcher: x, applier: x}]\nexpect: {stop_reason: bored}\n",
			wantErr: `unknown stop reason "bored"`,
		},
		{
			name:    "bad clock step",
			content: "name: n\ndescription: d\ninput: x\nrules: [{name: r, searcher: x, applier: x}]\nclock_step: soon\nexpect: {expr: x}\n",
			wantErr: "clock_step",
		},
		{
			name:    "unknown property",
			content: "name: n\ndescription: d\ninput: x\nrules: [{name: r, searcher: x, applier: x}]\nexpect: {expr: x}\nproperties: [confluent]\n",
			wantErr: `unknown property "confluent"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), "test.yaml", tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ExpectErrorNeedsNothingElse(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "test.yaml", `
name: bad_input
description: "Unbalanced input fails to parse"
input: "(+ x"
rules:
  - name: add-zero
    searcher: "(+ ?a 0)"
    applier: "?a"
expect:
  error: parse
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, ErrorParse, scenario.Expect.Error)
}

func TestLoadScenario_AssertionTypes(t *testing.T) {
	tests := []struct {
		name      string
		assertion string
		wantErr   string
	}{
		{"equivalent", "{type: equivalent, terms: [x, \"(+ x 0)\"]}", ""},
		{"equivalent needs two terms", "{type: equivalent, terms: [x]}", "at least two terms are required for equivalent"},
		{"not_equivalent", "{type: not_equivalent, terms: [x, \"0\"]}", ""},
		{"iteration_count", "{type: iteration_count, count: 2}", ""},
		{"iteration_count zero allowed", "{type: iteration_count, count: 0}", ""},
		{"iteration_count negative", "{type: iteration_count, count: -1}", "count must be non-negative"},
		{"diagnostic_count", "{type: diagnostic_count, count: 1, rule: r}", ""},
		{"truncated", "{type: truncated, rule: add-zero}", ""},
		{"truncated needs rule", "{type: truncated}", "rule is required for truncated"},
		{"missing type", "{count: 1}", "type is required"},
		{"unknown type", "{type: final_state}", `unknown assertion type "final_state"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), "test.yaml", validScenario+"assertions:\n  - "+tt.assertion+"\n")
			scenario, err := LoadScenario(path)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Len(t, scenario.Assertions, 1)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_LimitsAndCosts(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "test.yaml", validScenario+`
cost_model: op-weight
costs:
  "+": 3
limits:
  iterations: 4
  matches: 10
  strict: true
clock_step: 5ms
run_id: test-run-limits
properties: [monotone, idempotent]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "op-weight", scenario.CostModel)
	assert.Equal(t, map[string]float64{"+": 3}, scenario.Costs)
	require.NotNil(t, scenario.Limits)
	assert.Equal(t, 4, scenario.Limits.Iterations)
	assert.Equal(t, 10, scenario.Limits.Matches)
	assert.True(t, scenario.Limits.Strict)
	assert.Equal(t, "5ms", scenario.ClockStep)
	assert.Equal(t, "test-run-limits", scenario.RunID)
	assert.Equal(t, []string{PropertyMonotone, PropertyIdempotent}, scenario.Properties)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rules"), 0755))
	writeScenario(t, filepath.Join(dir, "rules"), "arith.yaml", "rules:\n  - {name: add-zero, searcher: \"(+ ?a 0)\", applier: \"?a\"}\n")
	path := writeScenario(t, dir, "test.yaml", `
name: from_file
description: "Rules come from a file"
input: "(+ x 0)"
rules_file: rules/arith.yaml
expect:
  expr: x
`)

	scenario, err := LoadScenarioWithBasePath(path, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rules", "arith.yaml"), scenario.RulesFile)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestLoadScenarioWithBasePath_MissingRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "test.yaml", `
name: from_file
description: "Rules come from a file"
input: "(+ x 0)"
rules_file: rules/missing.yaml
expect:
  expr: x
`)

	_, err := LoadScenarioWithBasePath(path, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules file not found")
}

func TestAssertionConstants(t *testing.T) {
	assert.Equal(t, "equivalent", AssertEquivalent)
	assert.Equal(t, "not_equivalent", AssertNotEquivalent)
	assert.Equal(t, "iteration_count", AssertIterationCount)
	assert.Equal(t, "diagnostic_count", AssertDiagnosticCount)
	assert.Equal(t, "truncated", AssertTruncated)
}

func TestLoadExampleScenarios(t *testing.T) {
	paths, err := FindScenarios([]string{"testdata/scenarios"})
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
