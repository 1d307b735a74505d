package eqsat

import (
	"fmt"
	"strings"

	"github.com/roach88/eqsat/internal/compiler"
	"github.com/roach88/eqsat/internal/rewrite"
)

// Rule is a declared rewrite: one directed rule, or two for a symmetric
// declaration.
type Rule struct {
	variants []*rewrite.Rule
}

// NewRule parses searcher and applier. A symmetric rule also rewrites
// applier to searcher under the name name+"-rev"; it then requires both
// patterns to bind the same variables.
func NewRule(name, searcher, applier string, symmetric bool) (*Rule, error) {
	variants, err := rewrite.Compile(name, searcher, applier, symmetric)
	if err != nil {
		return nil, err
	}
	return &Rule{variants: variants}, nil
}

// MustRule is like NewRule but panics on error.
func MustRule(name, searcher, applier string, symmetric bool) *Rule {
	r, err := NewRule(name, searcher, applier, symmetric)
	if err != nil {
		panic(err)
	}
	return r
}

// OnlyWhen returns a copy of r that fires only when p holds for the match.
// Every direction is guarded by the same predicate, and calls to p are
// serialized. A guarded rule is named name+"-cond". If p returns an error
// the match is skipped and the error is recorded as a diagnostic.
func (r *Rule) OnlyWhen(p Predicate) *Rule {
	shared := rewrite.Serialize(p)
	out := &Rule{variants: make([]*rewrite.Rule, len(r.variants))}
	for i, v := range r.variants {
		out.variants[i] = rewrite.OnlyWhen(v, shared)
	}
	return out
}

// Names returns the names of r's directed variants.
func (r *Rule) Names() []string {
	out := make([]string, len(r.variants))
	for i, v := range r.variants {
		out[i] = v.Name()
	}
	return out
}

// String prints each variant as "name: searcher => applier".
func (r *Rule) String() string {
	parts := make([]string, len(r.variants))
	for i, v := range r.variants {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// RuleSet is an immutable, ordered set of uniquely named rules.
type RuleSet struct {
	set *rewrite.RuleSet
}

// NewRuleSet flattens every variant of rules into one set. Duplicate names
// are an error and nothing is built.
func NewRuleSet(rules ...*Rule) (*RuleSet, error) {
	var flat []*rewrite.Rule
	for i, r := range rules {
		if r == nil {
			return nil, &rewrite.RuleError{Field: "rules", Message: fmt.Sprintf("rule %d is nil", i)}
		}
		flat = append(flat, r.variants...)
	}
	set, err := rewrite.NewRuleSet(flat...)
	if err != nil {
		return nil, err
	}
	return &RuleSet{set: set}, nil
}

// LoadRuleSet reads a rule-set file (.cue, .yaml, .yml) or a CUE package
// directory. Cost weights and limits in the file are ignored here.
func LoadRuleSet(path string) (*RuleSet, error) {
	prog, err := compiler.LoadProgram(path)
	if err != nil {
		return nil, err
	}
	return &RuleSet{set: prog.Rules}, nil
}

// Names returns the directed rule names in order.
func (rs *RuleSet) Names() []string {
	return rs.set.Names()
}

// Len returns the number of directed rules.
func (rs *RuleSet) Len() int {
	return rs.set.Len()
}

// Hash returns a content hash of the rule set.
func (rs *RuleSet) Hash() (string, error) {
	return rs.set.Hash()
}
