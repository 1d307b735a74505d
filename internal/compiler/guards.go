package compiler

import (
	"fmt"
	"strconv"

	"github.com/roach88/eqsat/internal/ir"
	"github.com/roach88/eqsat/internal/pattern"
	"github.com/roach88/eqsat/internal/rewrite"
)

// Kinds accepted by Condition.Is.
const (
	KindNumber   = "number"
	KindSymbol   = "symbol"
	KindLeaf     = "leaf"
	KindCompound = "compound"
)

// Condition is one declarative guard. Exactly one of Is, Not, Equals or
// Distinct is set. Variable names may be written with or without "?".
type Condition struct {
	Var      string   `yaml:"var,omitempty" json:"var,omitempty"`
	Is       string   `yaml:"is,omitempty" json:"is,omitempty"`
	Not      string   `yaml:"not,omitempty" json:"not,omitempty"`
	Equals   string   `yaml:"equals,omitempty" json:"equals,omitempty"`
	Vars     []string `yaml:"vars,omitempty" json:"vars,omitempty"`
	Distinct bool     `yaml:"distinct,omitempty" json:"distinct,omitempty"`
}

// String renders the condition for messages.
func (c Condition) String() string {
	switch {
	case c.Is != "":
		return fmt.Sprintf("%s is %s", c.Var, c.Is)
	case c.Not != "":
		return fmt.Sprintf("%s != %s", c.Var, c.Not)
	case c.Equals != "":
		return fmt.Sprintf("%s == %s", c.Var, c.Equals)
	case c.Distinct:
		return fmt.Sprintf("distinct %v", c.Vars)
	}
	return "empty condition"
}

func (c Condition) kinds() int {
	n := 0
	for _, set := range []bool{c.Is != "", c.Not != "", c.Equals != "", c.Distinct} {
		if set {
			n++
		}
	}
	return n
}

// check reports the first structural problem with c.
func (c Condition) check() error {
	switch c.kinds() {
	case 0:
		return fmt.Errorf("condition must set one of is, not, equals, distinct")
	case 1:
	default:
		return fmt.Errorf("condition %q sets more than one of is, not, equals, distinct", c)
	}

	if c.Distinct {
		if c.Var != "" {
			return fmt.Errorf("distinct takes vars, not var")
		}
		if len(c.Vars) < 2 {
			return fmt.Errorf("distinct needs at least two vars, got %d", len(c.Vars))
		}
		return nil
	}

	if c.Var == "" || pattern.StripSigil(c.Var) == "" {
		return fmt.Errorf("condition %q needs var", c)
	}
	if len(c.Vars) > 0 {
		return fmt.Errorf("condition %q takes var, not vars", c)
	}
	switch {
	case c.Is != "":
		switch c.Is {
		case KindNumber, KindSymbol, KindLeaf, KindCompound:
		default:
			return fmt.Errorf("unknown kind %q (want number, symbol, leaf or compound)", c.Is)
		}
	case c.Not != "":
		if _, err := ir.ParseTerm(c.Not); err != nil {
			return err
		}
	case c.Equals != "":
		if _, err := ir.ParseTerm(c.Equals); err != nil {
			return err
		}
	}
	return nil
}

// conditionVars returns every variable the conditions mention, with sigil.
func conditionVars(conds []Condition) []string {
	var out []string
	add := func(v string) {
		out = append(out, pattern.VarSigil+pattern.StripSigil(v))
	}
	for _, c := range conds {
		if c.Var != "" {
			add(c.Var)
		}
		for _, v := range c.Vars {
			add(v)
		}
	}
	return out
}

// compileConditions conjoins conds into one predicate, evaluated in order.
func compileConditions(conds []Condition) (rewrite.Predicate, error) {
	tests := make([]func(rewrite.Bindings) (bool, error), 0, len(conds))
	for _, c := range conds {
		if err := c.check(); err != nil {
			return nil, err
		}
		tests = append(tests, compileCondition(c))
	}
	return rewrite.PredicateFunc(func(b rewrite.Bindings) (bool, error) {
		for _, test := range tests {
			ok, err := test(b)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}), nil
}

func compileCondition(c Condition) func(rewrite.Bindings) (bool, error) {
	if c.Distinct {
		names := make([]string, len(c.Vars))
		for i, v := range c.Vars {
			names[i] = pattern.StripSigil(v)
		}
		return func(b rewrite.Bindings) (bool, error) {
			terms := make([]ir.Term, len(names))
			for i, name := range names {
				t, err := lookup(b, name)
				if err != nil {
					return false, err
				}
				terms[i] = t
			}
			for i := range terms {
				for j := i + 1; j < len(terms); j++ {
					if terms[i].Equal(terms[j]) {
						return false, nil
					}
				}
			}
			return true, nil
		}
	}

	name := pattern.StripSigil(c.Var)
	switch {
	case c.Is != "":
		kind := c.Is
		return func(b rewrite.Bindings) (bool, error) {
			t, err := lookup(b, name)
			if err != nil {
				return false, err
			}
			return hasKind(t, kind), nil
		}
	case c.Not != "":
		want := ir.MustParseTerm(c.Not)
		return func(b rewrite.Bindings) (bool, error) {
			t, err := lookup(b, name)
			if err != nil {
				return false, err
			}
			return !t.Equal(want), nil
		}
	default:
		want := ir.MustParseTerm(c.Equals)
		return func(b rewrite.Bindings) (bool, error) {
			t, err := lookup(b, name)
			if err != nil {
				return false, err
			}
			return t.Equal(want), nil
		}
	}
}

func lookup(b rewrite.Bindings, name string) (ir.Term, error) {
	t, ok := b.Get(name)
	if !ok {
		return ir.Term{}, fmt.Errorf("variable %s not bound (have %v)", name, b.Names())
	}
	return t, nil
}

func hasKind(t ir.Term, kind string) bool {
	switch kind {
	case KindLeaf:
		return t.IsLeaf()
	case KindCompound:
		return !t.IsLeaf()
	case KindNumber:
		return t.IsLeaf() && isNumber(t.Op)
	case KindSymbol:
		return t.IsLeaf() && !isNumber(t.Op)
	}
	return false
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
