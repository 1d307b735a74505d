package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while saturating a graph.
//
// Runtime errors include:
//   - Arity mismatch: an applier instantiated an operator with the wrong arity
//   - Match limit: a rule's search was truncated under a strict match limit
//   - Guard failure: a predicate errored (recorded as a diagnostic, never returned)
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Rule identifies the rule involved, if any.
	Rule string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeArityMismatch indicates an applier produced an arity conflict.
	ErrCodeArityMismatch RuntimeErrorCode = "ARITY_MISMATCH"

	// ErrCodeMatchLimit indicates a search was truncated in strict mode.
	ErrCodeMatchLimit RuntimeErrorCode = "MATCH_LIMIT"

	// ErrCodeGuardFailed indicates a guard predicate returned an error.
	ErrCodeGuardFailed RuntimeErrorCode = "GUARD_FAILED"

	// ErrCodeApplyFailed indicates an applier could not be instantiated.
	ErrCodeApplyFailed RuntimeErrorCode = "APPLY_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RunID != "" && e.Rule != "" {
		return fmt.Sprintf("%s: %s (run=%s, rule=%s)", e.Code, e.Message, e.RunID, e.Rule)
	}
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.Rule)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsMatchLimitError returns true if the error is a strict match limit error.
// Uses errors.As to handle wrapped errors.
func IsMatchLimitError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMatchLimit
	}
	return false
}

// NewMatchLimitError creates a RuntimeError for a truncated search.
func NewMatchLimitError(runID, rule string, limit int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMatchLimit,
		Message: fmt.Sprintf("search exceeded match limit %d", limit),
		RunID:   runID,
		Rule:    rule,
		Details: map[string]string{
			"match_limit": fmt.Sprintf("%d", limit),
		},
	}
}

// newApplyError wraps a failure from instantiating a rule's applier.
func newApplyError(runID, rule string, code RuntimeErrorCode, err error) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: err.Error(),
		RunID:   runID,
		Rule:    rule,
		Err:     err,
	}
}
