package rewrite

import (
	"fmt"

	"github.com/roach88/eqsat/internal/ir"
)

// RuleSet is an ordered, immutable collection of uniquely named rules.
type RuleSet struct {
	rules  []*Rule
	byName map[string]*Rule
}

// NewRuleSet validates and aggregates rules. Rule order is preserved.
func NewRuleSet(rules ...*Rule) (*RuleSet, error) {
	rs := &RuleSet{
		rules:  make([]*Rule, 0, len(rules)),
		byName: make(map[string]*Rule, len(rules)),
	}
	for i, r := range rules {
		if r == nil {
			return nil, &RuleError{Field: "rules", Message: fmt.Sprintf("rule %d is nil", i)}
		}
		if _, dup := rs.byName[r.name]; dup {
			return nil, &RuleError{Rule: r.name, Field: "name", Message: "duplicate rule name"}
		}
		rs.byName[r.name] = r
		rs.rules = append(rs.rules, r)
	}
	return rs, nil
}

// Rules returns the rules in declaration order.
func (rs *RuleSet) Rules() []*Rule {
	out := make([]*Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Names returns rule names in declaration order.
func (rs *RuleSet) Names() []string {
	out := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.name
	}
	return out
}

// Lookup returns the rule with the given name.
func (rs *RuleSet) Lookup(name string) (*Rule, bool) {
	r, ok := rs.byName[name]
	return r, ok
}

// Hash returns a content hash over all rules in order.
func (rs *RuleSet) Hash() (string, error) {
	hashes := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		h, err := r.Hash()
		if err != nil {
			return "", fmt.Errorf("hash rule %q: %w", r.name, err)
		}
		hashes[i] = h
	}
	return ir.RuleSetHash(hashes)
}
