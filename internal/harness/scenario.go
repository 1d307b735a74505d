package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eqsat/internal/compiler"
	"github.com/roach88/eqsat/internal/engine"
)

// Scenario defines one simplification test case: an input expression, the
// rules to saturate it with, and what the run must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the expression to simplify, in s-expression form.
	Input string `yaml:"input"`

	// Rules are declared inline, in the same shape as a YAML rule-set file.
	Rules []compiler.RuleDecl `yaml:"rules,omitempty"`

	// RulesFile is a CUE or YAML rule-set file, relative to the scenario.
	// Inline rules are appended to the rules it declares.
	RulesFile string `yaml:"rules_file,omitempty"`

	// Costs are op-weight overrides, merged over those of RulesFile.
	Costs map[string]float64 `yaml:"costs,omitempty"`

	// CostModel names the extraction model. Default: ast-size.
	CostModel string `yaml:"cost_model,omitempty"`

	// Limits override those of RulesFile.
	Limits *compiler.LimitsDecl `yaml:"limits,omitempty"`

	// ClockStep advances the run's clock by this much on every reading, so
	// time limits trigger without real waiting. Empty freezes the clock.
	ClockStep string `yaml:"clock_step,omitempty"`

	// RunID is a fixed run id for golden comparison.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Expect describes the run's outcome.
	Expect Expect `yaml:"expect"`

	// Assertions validate the iteration trace and the saturated graph.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Properties lists algebraic checks run on top of the expectations.
	// Supported: monotone, idempotent.
	Properties []string `yaml:"properties,omitempty"`
}

// Expect specifies the expected result. Unset fields are not checked.
type Expect struct {
	// Expr is the extracted expression, compared structurally.
	Expr string `yaml:"expr,omitempty"`

	// Cost is the exact extraction cost.
	Cost *float64 `yaml:"cost,omitempty"`

	// MaxCost bounds the extraction cost from above.
	MaxCost *float64 `yaml:"max_cost,omitempty"`

	// Equivalent lists expressions that must end in the input's class.
	Equivalent []string `yaml:"equivalent,omitempty"`

	// StopReason is one of saturated, iteration_limit, node_limit, time_limit.
	StopReason string `yaml:"stop_reason,omitempty"`

	// Error is the expected failure kind. When set the run must fail with
	// it and the other fields are ignored.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the iteration trace or the saturated graph.
type Assertion struct {
	// Type specifies the assertion type:
	// - "equivalent": Terms all share one class
	// - "not_equivalent": Terms are not all in one class
	// - "iteration_count": exactly Count passes ran
	// - "diagnostic_count": exactly Count diagnostics, optionally for Rule
	// - "truncated": Rule's search hit the match cap in some pass
	Type string `yaml:"type"`

	// Terms are expressions (used by equivalent, not_equivalent).
	Terms []string `yaml:"terms,omitempty"`

	// Count is the expected number (used by iteration_count, diagnostic_count).
	Count int `yaml:"count,omitempty"`

	// Rule is a rule name (used by diagnostic_count, truncated).
	Rule string `yaml:"rule,omitempty"`
}

// Assertion type constants.
const (
	AssertEquivalent      = "equivalent"
	AssertNotEquivalent   = "not_equivalent"
	AssertIterationCount  = "iteration_count"
	AssertDiagnosticCount = "diagnostic_count"
	AssertTruncated       = "truncated"
)

// Property names.
const (
	PropertyMonotone   = "monotone"
	PropertyIdempotent = "idempotent"
)

// Error kinds accepted by Expect.Error.
const (
	ErrorParse            = "parse"
	ErrorArity            = "arity"
	ErrorUnknownCostModel = "unknown_cost_model"
	ErrorRule             = "rule"
	ErrorMatchLimit       = "match_limit"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, "")
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving rules_file relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.RulesFile != "" && !filepath.IsAbs(scenario.RulesFile) && basePath != "" {
		scenario.RulesFile = filepath.Join(basePath, scenario.RulesFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Input == "" {
		return fmt.Errorf("input is required")
	}
	if len(s.Rules) == 0 && s.RulesFile == "" {
		return fmt.Errorf("rules or rules_file is required")
	}
	if s.RulesFile != "" {
		if _, err := os.Stat(s.RulesFile); os.IsNotExist(err) {
			return fmt.Errorf("rules file not found: %s", s.RulesFile)
		}
	}
	if s.ClockStep != "" {
		if _, err := time.ParseDuration(s.ClockStep); err != nil {
			return fmt.Errorf("clock_step: %w", err)
		}
	}

	if err := validateExpect(&s.Expect); err != nil {
		return err
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	for i, p := range s.Properties {
		if p != PropertyMonotone && p != PropertyIdempotent {
			return fmt.Errorf("properties[%d]: unknown property %q", i, p)
		}
	}
	return nil
}

func validateExpect(e *Expect) error {
	if e.Error != "" {
		switch e.Error {
		case ErrorParse, ErrorArity, ErrorUnknownCostModel, ErrorRule, ErrorMatchLimit:
		default:
			return fmt.Errorf("expect.error: unknown error kind %q", e.Error)
		}
		return nil
	}
	if e.StopReason != "" {
		if _, err := engine.ParseStopReason(e.StopReason); err != nil {
			return fmt.Errorf("expect.stop_reason: %w", err)
		}
	}
	if e.Expr == "" && e.Cost == nil && e.MaxCost == nil && len(e.Equivalent) == 0 && e.StopReason == "" {
		return fmt.Errorf("expect must set at least one of expr, cost, max_cost, equivalent, stop_reason, error")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEquivalent, AssertNotEquivalent:
		if len(a.Terms) < 2 {
			return fmt.Errorf("assertions[%d]: at least two terms are required for %s", index, a.Type)
		}
	case AssertIterationCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for iteration_count", index)
		}
	case AssertDiagnosticCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for diagnostic_count", index)
		}
	case AssertTruncated:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for truncated", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
