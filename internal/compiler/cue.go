package compiler

import (
	"strconv"
	"strings"

	"cuelang.org/go/cue"
)

// CompileCUE reads a rule-set document from a CUE value of the form:
//
//	rule: "add-comm": {
//		searcher:  "(+ ?a ?b)"
//		applier:   "(+ ?b ?a)"
//		symmetric: false
//		when: [{var: "a", is: "number"}]
//	}
//	costs: {"*": 4, "+": 1}
//	default_cost: 1
//	limits: {iterations: 10, time: "2s"}
//
// Rules keep their declaration order.
func CompileCUE(v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{}

	rulesVal := v.LookupPath(cue.ParsePath("rule"))
	if rulesVal.Exists() {
		iter, err := rulesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			decl, err := CompileRuleValue(iter.Value())
			if err != nil {
				return nil, err
			}
			doc.Rules = append(doc.Rules, *decl)
		}
	}

	costsVal := v.LookupPath(cue.ParsePath("costs"))
	if costsVal.Exists() {
		iter, err := costsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		doc.Costs = make(map[string]float64)
		for iter.Next() {
			op := unquoteLabel(iter.Label())
			w, err := iter.Value().Float64()
			if err != nil {
				return nil, &CompileError{
					Field:   "costs." + op,
					Message: "weight must be a number",
					Pos:     iter.Value().Pos(),
				}
			}
			doc.Costs[op] = w
		}
	}

	defaultVal := v.LookupPath(cue.ParsePath("default_cost"))
	if defaultVal.Exists() {
		w, err := defaultVal.Float64()
		if err != nil {
			return nil, &CompileError{
				Field:   "default_cost",
				Message: "weight must be a number",
				Pos:     defaultVal.Pos(),
			}
		}
		doc.DefaultCost = &w
	}

	limitsVal := v.LookupPath(cue.ParsePath("limits"))
	if limitsVal.Exists() {
		var limits LimitsDecl
		if err := limitsVal.Decode(&limits); err != nil {
			return nil, formatCUEError(err)
		}
		doc.Limits = &limits
	}

	return doc, nil
}

// CompileRuleValue parses one rule struct. The rule name is the last
// selector of the value's path.
func CompileRuleValue(v cue.Value) (*RuleDecl, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &RuleDecl{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		decl.Name = unquoteLabel(labels[len(labels)-1].String())
	}
	field := "rule." + decl.Name

	var err error
	if decl.Searcher, err = requiredString(v, field, "searcher"); err != nil {
		return nil, err
	}
	if decl.Applier, err = requiredString(v, field, "applier"); err != nil {
		return nil, err
	}

	symVal := v.LookupPath(cue.ParsePath("symmetric"))
	if symVal.Exists() {
		decl.Symmetric, err = symVal.Bool()
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".symmetric",
				Message: "symmetric must be a boolean",
				Pos:     symVal.Pos(),
			}
		}
	}

	whenVal := v.LookupPath(cue.ParsePath("when"))
	if whenVal.Exists() {
		if err := whenVal.Decode(&decl.When); err != nil {
			return nil, formatCUEError(err)
		}
		for i, c := range decl.When {
			if err := c.check(); err != nil {
				return nil, &CompileError{
					Field:   field + ".when[" + strconv.Itoa(i) + "]",
					Message: err.Error(),
					Pos:     whenVal.Pos(),
				}
			}
		}
	}

	return decl, nil
}

func requiredString(v cue.Value, field, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field + "." + name,
			Message: name + " must be a string pattern",
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// unquoteLabel strips CUE quoting from labels such as "add-comm" or "*".
func unquoteLabel(label string) string {
	if strings.HasPrefix(label, `"`) {
		if s, err := strconv.Unquote(label); err == nil {
			return s
		}
	}
	return strings.Trim(label, `"`)
}
