package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/eqsat/internal/pattern"
	"github.com/roach88/eqsat/internal/rewrite"
)

// Validation error codes (E100-E199)
const (
	// Document errors (E100-E109)
	ErrNoRules       = "E100" // document declares no rules
	ErrInvalidLimits = "E101" // negative limit or bad duration
	ErrInvalidCost   = "E102" // negative or empty-named op weight
	ErrDuplicateName = "E103" // rule name (or derived name) declared twice
	ErrEmptyRuleName = "E104" // rule name is empty

	// Rule errors (E110-E119)
	ErrInvalidSearcher  = "E110" // searcher does not parse
	ErrInvalidApplier   = "E111" // applier does not parse
	ErrUnboundVariable  = "E112" // applier or condition variable not bound by searcher
	ErrInvalidCondition = "E113" // malformed when-condition
)

// ValidationError represents a rule-set validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a document without building anything.
// Returns all errors found (does not fail-fast).
func Validate(d *Document) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if len(d.Rules) == 0 {
		add("rules", ErrNoRules, "at least one rule is required")
	}

	names := make(map[string]int)
	for i, r := range d.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if strings.TrimSpace(r.Name) == "" {
			add(field+".name", ErrEmptyRuleName, "rule name is required")
		} else {
			field = "rule." + r.Name
			for _, n := range derivedNames(r) {
				names[n]++
				if names[n] == 2 {
					add(field+".name", ErrDuplicateName, "rule %q declared more than once", n)
				}
			}
		}
		errs = append(errs, validateRule(field, r)...)
	}

	for op, w := range d.Costs {
		if op == "" {
			add("costs", ErrInvalidCost, "operator name must not be empty")
		}
		if w < 0 {
			add("costs."+op, ErrInvalidCost, "weight must be non-negative, got %g", w)
		}
	}
	if d.DefaultCost != nil && *d.DefaultCost < 0 {
		add("default_cost", ErrInvalidCost, "weight must be non-negative, got %g", *d.DefaultCost)
	}

	if l := d.Limits; l != nil {
		if l.Iterations < 0 {
			add("limits.iterations", ErrInvalidLimits, "must be non-negative, got %d", l.Iterations)
		}
		if l.Nodes < 0 {
			add("limits.nodes", ErrInvalidLimits, "must be non-negative, got %d", l.Nodes)
		}
		if l.Matches < 0 {
			add("limits.matches", ErrInvalidLimits, "must be non-negative, got %d", l.Matches)
		}
		if l.Time != "" {
			dur, err := time.ParseDuration(l.Time)
			if err != nil {
				add("limits.time", ErrInvalidLimits, "%v", err)
			} else if dur <= 0 {
				add("limits.time", ErrInvalidLimits, "must be positive, got %s", l.Time)
			}
		}
	}

	return errs
}

func validateRule(field string, r RuleDecl) []ValidationError {
	var errs []ValidationError

	s, err := pattern.Parse(r.Searcher)
	if err != nil {
		errs = append(errs, ValidationError{Field: field + ".searcher", Code: ErrInvalidSearcher, Message: err.Error()})
	}
	a, err := pattern.Parse(r.Applier)
	if err != nil {
		errs = append(errs, ValidationError{Field: field + ".applier", Code: ErrInvalidApplier, Message: err.Error()})
	}
	if s == nil || a == nil {
		return errs
	}

	sv, av := varSet(s), varSet(a)
	for v := range av {
		if !sv[v] {
			errs = append(errs, ValidationError{Field: field + ".applier", Code: ErrUnboundVariable,
				Message: fmt.Sprintf("variable %s is not bound by searcher %s", v, s)})
		}
	}
	if r.Symmetric {
		for v := range sv {
			if !av[v] {
				errs = append(errs, ValidationError{Field: field + ".searcher", Code: ErrUnboundVariable,
					Message: fmt.Sprintf("symmetric rule: variable %s is not bound by applier %s", v, a)})
			}
		}
	}

	for i, c := range r.When {
		cf := fmt.Sprintf("%s.when[%d]", field, i)
		if err := c.check(); err != nil {
			errs = append(errs, ValidationError{Field: cf, Code: ErrInvalidCondition, Message: err.Error()})
			continue
		}
		for _, v := range conditionVars([]Condition{c}) {
			if !sv[v] {
				errs = append(errs, ValidationError{Field: cf, Code: ErrUnboundVariable,
					Message: fmt.Sprintf("variable %s is not bound by searcher %s", v, s)})
			}
		}
	}
	return errs
}

// derivedNames returns the names of the directed rules r compiles to.
func derivedNames(r RuleDecl) []string {
	names := []string{r.Name}
	if r.Symmetric {
		names = append(names, r.Name+rewrite.ReverseSuffix)
	}
	if len(r.When) > 0 {
		for i := range names {
			names[i] += rewrite.GuardSuffix
		}
	}
	return names
}

func varSet(p *pattern.Pattern) map[string]bool {
	out := make(map[string]bool)
	for _, v := range p.Vars() {
		out[v] = true
	}
	return out
}
