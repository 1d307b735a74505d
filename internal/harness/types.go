package harness

import (
	"github.com/roach88/eqsat/internal/engine"
	"github.com/roach88/eqsat/internal/ir"
)

// TraceEvent is one scheduler pass as read back from the run log.
type TraceEvent struct {
	Iteration   int      `json:"iteration"`
	Matches     int      `json:"matches"`
	Applied     int      `json:"applied"`
	Unions      int      `json:"unions"`
	Rejected    int      `json:"rejected"`
	GuardErrors int      `json:"guard_errors"`
	Truncated   []string `json:"truncated,omitempty"`
	Nodes       int      `json:"nodes"`
	Classes     int      `json:"classes"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation, every assertion and every property hold.
	Pass bool `json:"pass"`

	// Trace contains one event per scheduler pass, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Record is the run as persisted to the run log. Zero when the run failed.
	Record ir.RunRecord `json:"record"`

	// ErrorKind classifies the run failure, if any.
	ErrorKind string `json:"error_kind,omitempty"`

	// Equivalents lists the members of the input's class, projected.
	Equivalents []string `json:"equivalents,omitempty"`

	outcome *engine.Outcome
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddIterationTrace adds a scheduler pass to the trace.
func (r *Result) AddIterationTrace(it ir.IterationRecord) {
	r.Trace = append(r.Trace, TraceEvent{
		Iteration:   it.Index,
		Matches:     it.Matches,
		Applied:     it.Applied,
		Unions:      it.Unions,
		Rejected:    it.Rejected,
		GuardErrors: it.GuardErrors,
		Truncated:   it.Truncated,
		Nodes:       it.Nodes,
		Classes:     it.Classes,
	})
}

// Outcome returns the engine outcome, or nil when the run failed.
func (r *Result) Outcome() *engine.Outcome {
	return r.outcome
}
