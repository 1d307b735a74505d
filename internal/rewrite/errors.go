package rewrite

import (
	"errors"
	"fmt"

	"github.com/roach88/eqsat/internal/egraph"
)

// RuleError reports an invalid rule or rule set at construction time.
type RuleError struct {
	Rule    string
	Field   string // "name", "searcher", "applier", "rules"
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("rule %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("rule %q: %s: %s", e.Rule, e.Field, e.Message)
}

// Unwrap returns the underlying parse error, if any.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// IsRuleError returns true if the error is a RuleError.
// Uses errors.As to handle wrapped errors.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// GuardError records a predicate that failed while checking one match.
// It is a diagnostic: the match is treated as rejected and the run goes on.
type GuardError struct {
	Rule  string
	Class egraph.ClassID
	Err   error
}

// Error implements the error interface.
func (e *GuardError) Error() string {
	return fmt.Sprintf("guard of rule %q on class %d: %v", e.Rule, e.Class, e.Err)
}

// Unwrap returns the predicate's error.
func (e *GuardError) Unwrap() error {
	return e.Err
}
