package pattern

import (
	"fmt"
	"strings"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/ir"
)

// VarSigil prefixes pattern variables.
const VarSigil = "?"

// Pattern is a term over operators and variables.
// Exactly one of Var or Op is set.
type Pattern struct {
	Var      string // includes the sigil, e.g. "?x"
	Op       ir.Symbol
	Children []*Pattern
}

// IsVar reports whether the pattern is a single variable.
func (p *Pattern) IsVar() bool {
	return p.Var != ""
}

// Parse reads a textual pattern such as "(+ ?a (* ?b 0))".
func Parse(text string) (*Pattern, error) {
	s, err := ir.ReadSexp(text)
	if err != nil {
		return nil, err
	}
	return fromSexp(text, s)
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

func fromSexp(input string, s *ir.Sexp) (*Pattern, error) {
	if s.IsAtom() {
		if strings.HasPrefix(s.Atom, VarSigil) {
			if len(s.Atom) == len(VarSigil) {
				return nil, &ir.ParseError{Input: input, Pos: s.Pos, Message: "bare \"?\" is not a variable"}
			}
			return &Pattern{Var: s.Atom}, nil
		}
		return &Pattern{Op: ir.Intern(s.Atom)}, nil
	}

	head := s.Head()
	if strings.HasPrefix(head, VarSigil) {
		return nil, &ir.ParseError{Input: input, Pos: s.Pos, Message: fmt.Sprintf("variable %q cannot be an operator", head)}
	}
	p := &Pattern{Op: ir.Intern(head)}
	for _, a := range s.Args() {
		c, err := fromSexp(input, a)
		if err != nil {
			return nil, err
		}
		p.Children = append(p.Children, c)
	}
	return p, nil
}

// Vars returns the distinct variables of p in first-occurrence order.
func (p *Pattern) Vars() []string {
	var out []string
	seen := make(map[string]bool)
	p.walk(func(q *Pattern) {
		if q.IsVar() && !seen[q.Var] {
			seen[q.Var] = true
			out = append(out, q.Var)
		}
	})
	return out
}

// Ops returns the set of operators mentioned by p, with their arities.
func (p *Pattern) Ops() map[string]int {
	out := make(map[string]int)
	p.walk(func(q *Pattern) {
		if !q.IsVar() {
			out[string(q.Op)] = len(q.Children)
		}
	})
	return out
}

func (p *Pattern) walk(fn func(*Pattern)) {
	fn(p)
	for _, c := range p.Children {
		c.walk(fn)
	}
}

// String prints the pattern in textual form.
func (p *Pattern) String() string {
	if p.IsVar() {
		return p.Var
	}
	if len(p.Children) == 0 {
		return string(p.Op)
	}
	parts := make([]string, 0, len(p.Children)+1)
	parts = append(parts, string(p.Op))
	for _, c := range p.Children {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Instantiate adds the pattern to g under s and returns the resulting class.
// Every variable of p must be bound in s.
func (p *Pattern) Instantiate(g *egraph.EGraph, s Subst) (egraph.ClassID, error) {
	if p.IsVar() {
		id, ok := s.Get(p.Var)
		if !ok {
			return 0, fmt.Errorf("instantiate %s: variable %s unbound", p, p.Var)
		}
		return id, nil
	}
	children := make([]egraph.ClassID, len(p.Children))
	for i, c := range p.Children {
		id, err := c.Instantiate(g, s)
		if err != nil {
			return 0, err
		}
		children[i] = id
	}
	return g.Add(string(p.Op), children)
}

// StripSigil returns a variable name without its leading "?".
func StripSigil(v string) string {
	return strings.TrimPrefix(v, VarSigil)
}
