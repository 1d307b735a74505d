package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
	Graph    string       // Class dump, set for graph assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] matches=%d applied=%d unions=%d nodes=%d classes=%d",
			ev.Iteration, ev.Matches, ev.Applied, ev.Unions, ev.Nodes, ev.Classes)
		if len(ev.Truncated) > 0 {
			fmt.Fprintf(&buf, " truncated=%v", ev.Truncated)
		}
		buf.WriteByte('\n')
	}
	if e.Graph != "" {
		fmt.Fprintf(&buf, "\nGraph:\n%s", e.Graph)
	}
	return buf.String()
}

// lookupClasses resolves each term to its class. Missing terms are
// reported by text.
func lookupClasses(g *egraph.EGraph, terms []string) ([]egraph.ClassID, []string, error) {
	var ids []egraph.ClassID
	var missing []string
	for _, text := range terms {
		t, err := ir.ParseTerm(text)
		if err != nil {
			return nil, nil, err
		}
		id, ok := g.LookupTerm(t)
		if !ok {
			missing = append(missing, text)
			continue
		}
		ids = append(ids, g.Find(id))
	}
	return ids, missing, nil
}

// assertEquivalent checks that every term is in the graph and all of them
// share one class.
func assertEquivalent(result *Result, assertion Assertion) error {
	g := result.outcome.Graph
	ids, missing, err := lookupClasses(g, assertion.Terms)
	if err != nil {
		return fmt.Errorf("equivalent: %w", err)
	}
	if len(missing) > 0 {
		return &AssertionError{
			Type:     AssertEquivalent,
			Expected: fmt.Sprintf("terms %v in one class", assertion.Terms),
			Actual:   fmt.Sprintf("not in graph: %v", missing),
			Trace:    result.Trace,
			Graph:    g.DebugString(),
		}
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[0] {
			return &AssertionError{
				Type:     AssertEquivalent,
				Expected: fmt.Sprintf("terms %v in one class", assertion.Terms),
				Actual: fmt.Sprintf("%s is in c%d, %s is in c%d",
					assertion.Terms[0], ids[0], assertion.Terms[i], ids[i]),
				Trace: result.Trace,
				Graph: g.DebugString(),
			}
		}
	}
	return nil
}

// assertNotEquivalent checks that the terms do not all share one class.
// A term absent from the graph is equivalent to nothing.
func assertNotEquivalent(result *Result, assertion Assertion) error {
	ids, missing, err := lookupClasses(result.outcome.Graph, assertion.Terms)
	if err != nil {
		return fmt.Errorf("not_equivalent: %w", err)
	}
	if len(missing) > 0 {
		return nil
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[0] {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertNotEquivalent,
		Expected: fmt.Sprintf("terms %v in different classes", assertion.Terms),
		Actual:   fmt.Sprintf("all in c%d", ids[0]),
		Trace:    result.Trace,
		Graph:    result.outcome.Graph.DebugString(),
	}
}

// assertIterationCount checks the number of scheduler passes.
func assertIterationCount(result *Result, assertion Assertion) error {
	if len(result.Trace) != assertion.Count {
		return &AssertionError{
			Type:     AssertIterationCount,
			Expected: fmt.Sprintf("%d iterations", assertion.Count),
			Actual:   fmt.Sprintf("%d iterations", len(result.Trace)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertDiagnosticCount checks the number of diagnostics, optionally
// restricted to one rule.
func assertDiagnosticCount(result *Result, assertion Assertion) error {
	count := 0
	for _, d := range result.Record.Diagnostics {
		if assertion.Rule == "" || d.Rule == assertion.Rule {
			count++
		}
	}
	if count != assertion.Count {
		expected := fmt.Sprintf("%d diagnostics", assertion.Count)
		if assertion.Rule != "" {
			expected += " for " + assertion.Rule
		}
		return &AssertionError{
			Type:     AssertDiagnosticCount,
			Expected: expected,
			Actual:   fmt.Sprintf("%d diagnostics", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertTruncated checks that the rule's search hit the match cap in at
// least one pass.
func assertTruncated(result *Result, assertion Assertion) error {
	for _, ev := range result.Trace {
		for _, rule := range ev.Truncated {
			if rule == assertion.Rule {
				return nil
			}
		}
	}
	return &AssertionError{
		Type:     AssertTruncated,
		Expected: fmt.Sprintf("search of %s truncated", assertion.Rule),
		Actual:   "never truncated",
		Trace:    result.Trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// Graph assertions need a successful run.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEquivalent, AssertNotEquivalent:
			if result.outcome == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a saturated graph", i, assertion.Type)
			} else if assertion.Type == AssertEquivalent {
				err = assertEquivalent(result, assertion)
			} else {
				err = assertNotEquivalent(result, assertion)
			}
		case AssertIterationCount:
			err = assertIterationCount(result, assertion)
		case AssertDiagnosticCount:
			err = assertDiagnosticCount(result, assertion)
		case AssertTruncated:
			err = assertTruncated(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
