package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/eqsat/internal/extract"
	"github.com/roach88/eqsat/internal/ir"
)

// Snapshot captures a scenario's run for golden comparison.
// Costs are rendered as strings since canonical JSON forbids floats.
// Elapsed times are left out.
type Snapshot struct {
	ScenarioName string  `json:"scenario_name"`
	Result       *Result `json:"result"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	r := s.Result
	trace := make([]any, len(r.Trace))
	for i, ev := range r.Trace {
		event := map[string]any{
			"iteration":    ev.Iteration,
			"matches":      ev.Matches,
			"applied":      ev.Applied,
			"unions":       ev.Unions,
			"rejected":     ev.Rejected,
			"guard_errors": ev.GuardErrors,
			"nodes":        ev.Nodes,
			"classes":      ev.Classes,
		}
		if len(ev.Truncated) > 0 {
			event["truncated"] = ev.Truncated
		}
		trace[i] = event
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
	if r.ErrorKind != "" {
		out["error_kind"] = r.ErrorKind
		return out
	}

	rec := r.Record
	out["run_id"] = rec.ID
	out["input"] = rec.Input
	out["cost_model"] = rec.CostModel
	out["best_expr"] = rec.BestExpr
	out["best_cost"] = extract.Cost(rec.BestCost).String()
	out["stop_reason"] = rec.StopReason
	out["nodes"] = rec.Nodes
	out["classes"] = rec.Classes
	if len(r.Equivalents) > 0 {
		out["equivalents"] = r.Equivalents
	}
	if len(rec.Diagnostics) > 0 {
		diags := make([]any, len(rec.Diagnostics))
		for i, d := range rec.Diagnostics {
			diags[i] = map[string]any{
				"iteration": d.Iteration,
				"rule":      d.Rule,
				"message":   d.Message,
			}
		}
		out["diagnostics"] = diags
	}
	return out
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: name, Result: result}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
