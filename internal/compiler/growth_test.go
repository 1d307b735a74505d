package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/rewrite"
)

func mustRules(t *testing.T, decls ...RuleDecl) []*rewrite.Rule {
	t.Helper()
	var out []*rewrite.Rule
	for _, d := range decls {
		rs, err := CompileRule(d)
		require.NoError(t, err)
		out = append(out, rs...)
	}
	return out
}

// TestAnalyzeGrowth_Empty tests that no rules produce no warnings.
func TestAnalyzeGrowth_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeGrowth(nil))
}

// TestAnalyzeGrowth_Commutativity tests that a size-preserving self loop is not flagged.
func TestAnalyzeGrowth_Commutativity(t *testing.T) {
	rules := mustRules(t, RuleDecl{Name: "add-comm", Searcher: "(+ ?a ?b)", Applier: "(+ ?b ?a)"})
	assert.Empty(t, AnalyzeGrowth(rules))
}

// TestAnalyzeGrowth_ShrinkingChain tests that rules with no cycle are not flagged.
func TestAnalyzeGrowth_ShrinkingChain(t *testing.T) {
	rules := mustRules(t,
		RuleDecl{Name: "mul-one", Searcher: "(* ?a 1)", Applier: "?a"},
		RuleDecl{Name: "add-zero", Searcher: "(+ ?a 0)", Applier: "?a"},
	)
	assert.Empty(t, AnalyzeGrowth(rules))
}

// TestAnalyzeGrowth_SelfLoop tests detection of a rule that re-triggers itself while growing.
func TestAnalyzeGrowth_SelfLoop(t *testing.T) {
	rules := mustRules(t, RuleDecl{Name: "wrap", Searcher: "(f ?a)", Applier: "(f (g ?a))"})

	warnings := AnalyzeGrowth(rules)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"wrap", "wrap"}, warnings[0].Path)
	assert.Equal(t, []string{"wrap"}, warnings[0].Growing)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "wrap -> wrap")
}

// TestAnalyzeGrowth_TwoRuleCycle tests a cycle through two rules where only one grows.
func TestAnalyzeGrowth_TwoRuleCycle(t *testing.T) {
	rules := mustRules(t,
		RuleDecl{Name: "expand", Searcher: "(f ?a)", Applier: "(h (g ?a))"},
		RuleDecl{Name: "back", Searcher: "(h ?a)", Applier: "(f ?a)"},
	)

	warnings := AnalyzeGrowth(rules)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"expand", "back", "expand"}, warnings[0].Path)
	assert.Equal(t, []string{"expand"}, warnings[0].Growing)
}

// TestAnalyzeGrowth_WildcardSearcher tests that a bare-variable searcher is triggered by any applier.
func TestAnalyzeGrowth_WildcardSearcher(t *testing.T) {
	rules := mustRules(t, RuleDecl{Name: "mul-one-intro", Searcher: "?a", Applier: "(* ?a 1)"})

	warnings := AnalyzeGrowth(rules)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"mul-one-intro"}, warnings[0].Growing)
}

// TestAnalyzeGrowth_Deterministic tests that repeated analysis yields the same warnings.
func TestAnalyzeGrowth_Deterministic(t *testing.T) {
	rules := mustRules(t,
		RuleDecl{Name: "a", Searcher: "(f ?x)", Applier: "(g (f ?x))"},
		RuleDecl{Name: "b", Searcher: "(g ?x)", Applier: "(f (g ?x))"},
		RuleDecl{Name: "c", Searcher: "(k ?x)", Applier: "(k (k ?x))"},
	)

	first := AnalyzeGrowth(rules)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AnalyzeGrowth(rules))
	}
	require.Len(t, first, 2)
}
