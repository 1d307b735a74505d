package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Document Validation Tests
// =============================================================================

func validDoc() *Document {
	return &Document{Rules: []RuleDecl{
		{Name: "mul-one", Searcher: "(* ?a 1)", Applier: "?a"},
		{Name: "add-comm", Searcher: "(+ ?a ?b)", Applier: "(+ ?b ?a)", Symmetric: true},
	}}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validDoc()))
}

func TestValidateNoRules(t *testing.T) {
	errs := Validate(&Document{})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNoRules, errs[0].Code)
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  RuleDecl
		code  string
		field string
	}{
		{"empty name", RuleDecl{Searcher: "(f ?a)", Applier: "?a"}, ErrEmptyRuleName, "rules[2].name"},
		{"bad searcher", RuleDecl{Name: "r", Searcher: "(f ?a", Applier: "?a"}, ErrInvalidSearcher, "rule.r.searcher"},
		{"bad applier", RuleDecl{Name: "r", Searcher: "(f ?a)", Applier: "()"}, ErrInvalidApplier, "rule.r.applier"},
		{"unbound applier var", RuleDecl{Name: "r", Searcher: "(f ?a)", Applier: "(g ?b)"}, ErrUnboundVariable, "rule.r.applier"},
		{"symmetric drops var", RuleDecl{Name: "r", Searcher: "(* ?a 0)", Applier: "0", Symmetric: true}, ErrUnboundVariable, "rule.r.searcher"},
		{"bad condition", RuleDecl{Name: "r", Searcher: "(f ?a)", Applier: "?a", When: []Condition{{Var: "a"}}}, ErrInvalidCondition, "rule.r.when[0]"},
		{"unbound condition var", RuleDecl{Name: "r", Searcher: "(f ?a)", Applier: "?a", When: []Condition{{Var: "z", Is: KindLeaf}}}, ErrUnboundVariable, "rule.r.when[0]"},
		{"duplicate name", RuleDecl{Name: "mul-one", Searcher: "(* 1 ?a)", Applier: "?a"}, ErrDuplicateName, "rule.mul-one.name"},
		{"duplicate derived name", RuleDecl{Name: "add-comm-rev", Searcher: "(+ ?a ?b)", Applier: "?a"}, ErrDuplicateName, "rule.add-comm-rev.name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			doc.Rules = append(doc.Rules, tt.rule)

			errs := Validate(doc)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateGuardedNamesDoNotCollide(t *testing.T) {
	doc := &Document{Rules: []RuleDecl{
		{Name: "r", Searcher: "(f ?a)", Applier: "?a"},
		{Name: "r", Searcher: "(g ?a)", Applier: "?a", When: []Condition{{Var: "a", Is: KindLeaf}}},
	}}
	assert.Empty(t, Validate(doc))
}

func TestValidateCostsAndLimits(t *testing.T) {
	neg := -1.0
	doc := validDoc()
	doc.Costs = map[string]float64{"*": -2}
	doc.DefaultCost = &neg
	doc.Limits = &LimitsDecl{Iterations: -1, Nodes: -1, Matches: -1, Time: "soon"}

	errs := Validate(doc)
	assert.ElementsMatch(t, []string{
		ErrInvalidCost, ErrInvalidCost,
		ErrInvalidLimits, ErrInvalidLimits, ErrInvalidLimits, ErrInvalidLimits,
	}, codes(errs))
}

func TestValidateNonPositiveTime(t *testing.T) {
	doc := validDoc()
	doc.Limits = &LimitsDecl{Time: "0s"}
	errs := Validate(doc)
	require.Len(t, errs, 1)
	assert.Equal(t, "limits.time", errs[0].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	e := &ValidationError{Field: "rule.r.applier", Message: "bad", Code: ErrInvalidApplier}
	assert.Equal(t, "[E111] rule.r.applier: bad", e.Error())

	e.Line = 4
	assert.Equal(t, "[E111] line 4: rule.r.applier: bad", e.Error())
}

func TestValidateCollectsAll(t *testing.T) {
	doc := &Document{Rules: []RuleDecl{
		{Name: "a", Searcher: "(f ?x", Applier: "?x"},
		{Name: "b", Searcher: "(f ?x)", Applier: "?y"},
	}}
	assert.Equal(t, []string{ErrInvalidSearcher, ErrUnboundVariable}, codes(Validate(doc)))
}
