package rewrite

import (
	"fmt"
	"strings"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/pattern"
)

const (
	// ReverseSuffix names the reverse direction of a symmetric rule.
	ReverseSuffix = "-rev"

	// GuardSuffix names a rule wrapped by OnlyWhen.
	GuardSuffix = "-cond"
)

// Rule rewrites matches of a searcher pattern into an applier pattern.
type Rule struct {
	name     string
	searcher *pattern.Pattern
	applier  *pattern.Pattern
	guards   []Predicate
}

// NewRule compiles one directed rule. Every variable in the applier must
// also appear in the searcher.
func NewRule(name, searcher, applier string) (*Rule, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &RuleError{Field: "name", Message: "must not be empty"}
	}
	s, err := pattern.Parse(searcher)
	if err != nil {
		return nil, &RuleError{Rule: name, Field: "searcher", Message: err.Error(), Err: err}
	}
	a, err := pattern.Parse(applier)
	if err != nil {
		return nil, &RuleError{Rule: name, Field: "applier", Message: err.Error(), Err: err}
	}

	bound := make(map[string]bool)
	for _, v := range s.Vars() {
		bound[v] = true
	}
	for _, v := range a.Vars() {
		if !bound[v] {
			return nil, &RuleError{Rule: name, Field: "applier",
				Message: fmt.Sprintf("variable %s is not bound by searcher %s", v, s)}
		}
	}
	return &Rule{name: name, searcher: s, applier: a}, nil
}

// Compile builds a rule and, when symmetric, its reverse named name+"-rev".
// No rule is returned unless both directions are valid.
func Compile(name, searcher, applier string, symmetric bool) ([]*Rule, error) {
	fwd, err := NewRule(name, searcher, applier)
	if err != nil {
		return nil, err
	}
	if !symmetric {
		return []*Rule{fwd}, nil
	}
	rev, err := NewRule(name+ReverseSuffix, applier, searcher)
	if err != nil {
		return nil, err
	}
	return []*Rule{fwd, rev}, nil
}

// OnlyWhen returns a copy of r that fires only when p holds. The first guard
// renames the rule to name+"-cond"; further guards are conjoined.
func OnlyWhen(r *Rule, p Predicate) *Rule {
	guarded := *r
	if len(r.guards) == 0 {
		guarded.name = r.name + GuardSuffix
	}
	guarded.guards = append(append([]Predicate(nil), r.guards...), Serialize(p))
	return &guarded
}

// Name returns the rule's name.
func (r *Rule) Name() string {
	return r.name
}

// Searcher returns the searcher pattern.
func (r *Rule) Searcher() *pattern.Pattern {
	return r.searcher
}

// Applier returns the applier pattern.
func (r *Rule) Applier() *pattern.Pattern {
	return r.applier
}

// Guarded reports whether the rule carries any predicate.
func (r *Rule) Guarded() bool {
	return len(r.guards) > 0
}

// String prints the rule as "name: searcher => applier".
func (r *Rule) String() string {
	s := fmt.Sprintf("%s: %s => %s", r.name, r.searcher, r.applier)
	if r.Guarded() {
		s += fmt.Sprintf(" if <%d guards>", len(r.guards))
	}
	return s
}

// Hash returns a content hash of the rule.
func (r *Rule) Hash() (string, error) {
	return ir.RuleHash(r.name, r.searcher.String(), r.applier.String(), len(r.guards))
}

// Bindings projects each searcher variable of s to a concrete term.
// Names are reported without the "?" sigil.
func (r *Rule) Bindings(g *egraph.EGraph, s pattern.Subst) (Bindings, error) {
	b := Bindings{}
	for _, v := range r.searcher.Vars() {
		id, ok := s.Get(v)
		if !ok {
			return Bindings{}, fmt.Errorf("rule %q: variable %s unbound", r.name, v)
		}
		t, ok := g.Project(id)
		if !ok {
			return Bindings{}, fmt.Errorf("rule %q: class %d of %s has no finite term", r.name, id, v)
		}
		b = b.With(pattern.StripSigil(v), t)
	}
	return b, nil
}

// Check evaluates every guard against the match (class, s). Unguarded rules
// always pass. A failing predicate yields false and a *GuardError.
func (r *Rule) Check(g *egraph.EGraph, class egraph.ClassID, s pattern.Subst) (bool, error) {
	if len(r.guards) == 0 {
		return true, nil
	}
	b, err := r.Bindings(g, s)
	if err != nil {
		return false, &GuardError{Rule: r.name, Class: class, Err: err}
	}
	for _, p := range r.guards {
		ok, err := p.Eval(b)
		if err != nil {
			return false, &GuardError{Rule: r.name, Class: class, Err: err}
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ApplyOne instantiates the applier under s and unions it with class.
// It returns the touched classes and whether a union happened. Guards are
// not consulted; call Check first.
func (r *Rule) ApplyOne(g *egraph.EGraph, class egraph.ClassID, s pattern.Subst) ([]egraph.ClassID, bool, error) {
	id, err := r.applier.Instantiate(g, s)
	if err != nil {
		return nil, false, fmt.Errorf("apply rule %q: %w", r.name, err)
	}
	root, merged := g.Union(class, id)
	if !merged {
		return []egraph.ClassID{root}, false, nil
	}
	return []egraph.ClassID{root, id}, true, nil
}
