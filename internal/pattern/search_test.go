package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eqsat/internal/egraph"
	"github.com/roach88/eqsat/internal/ir"
)

func graphOf(t *testing.T, terms ...string) (*egraph.EGraph, []egraph.ClassID) {
	t.Helper()
	g := egraph.New()
	ids := make([]egraph.ClassID, len(terms))
	for i, text := range terms {
		id, err := g.AddTerm(ir.MustParseTerm(text))
		require.NoError(t, err)
		ids[i] = id
	}
	g.Rebuild()
	return g, ids
}

func bound(t *testing.T, g *egraph.EGraph, s Subst, v string) string {
	t.Helper()
	id, ok := s.Get(v)
	require.True(t, ok, "variable %s unbound", v)
	term, ok := g.Project(id)
	require.True(t, ok)
	return term.String()
}

func TestSearch_Simple(t *testing.T) {
	g, ids := graphOf(t, "(+ (* a 2) 0)")

	res := Search(g, MustParse("(+ ?x 0)"), 0)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, ids[0], res.Matches[0].Class)
	assert.Equal(t, 1, res.Total)
	assert.False(t, res.Truncated)
	assert.Equal(t, "(* a 2)", bound(t, g, res.Matches[0].Substs[0], "?x"))
}

func TestSearch_GroundPattern(t *testing.T) {
	g, _ := graphOf(t, "(+ 0 0)", "(+ 1 0)")
	res := Search(g, MustParse("(+ 0 0)"), 0)
	require.Len(t, res.Matches, 1)
	assert.Empty(t, res.Matches[0].Substs[0].Vars())
}

func TestSearch_RepeatedVariableRequiresSameClass(t *testing.T) {
	g, ids := graphOf(t, "(- a a)", "(- a b)")

	res := Search(g, MustParse("(- ?x ?x)"), 0)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, ids[0], res.Matches[0].Class)

	// After a = b, (- a b) matches too.
	a, _ := g.LookupTerm(ir.Leaf("a"))
	b, _ := g.LookupTerm(ir.Leaf("b"))
	g.Union(a, b)
	g.Rebuild()

	res = Search(g, MustParse("(- ?x ?x)"), 0)
	assert.Equal(t, 1, res.Total, "(- a a) and (- a b) are now one class with one distinct substitution")
}

func TestSearch_MultipleNodesInClass(t *testing.T) {
	g, ids := graphOf(t, "(* x 2)", "(<< x 1)", "(+ (* x 2) 1)")
	g.Union(ids[0], ids[1])
	g.Rebuild()

	// Either node of the merged class satisfies (+ ?y 1) through the same child.
	res := Search(g, MustParse("(+ ?y 1)"), 0)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Total)

	// A pattern looking inside the child sees both nodes.
	inner := Search(g, MustParse("(+ (* ?a 2) 1)"), 0)
	assert.Equal(t, 1, inner.Total)
	shift := Search(g, MustParse("(+ (<< ?a ?b) 1)"), 0)
	require.Equal(t, 1, shift.Total)
	assert.Equal(t, "1", bound(t, g, shift.Matches[0].Substs[0], "?b"))
}

func TestSearch_DistinctSubstitutionsInOneClass(t *testing.T) {
	g, ids := graphOf(t, "(+ a b)", "(+ b a)")
	g.Union(ids[0], ids[1])
	g.Rebuild()

	res := Search(g, MustParse("(+ ?x ?y)"), 0)
	require.Len(t, res.Matches, 1)
	require.Len(t, res.Matches[0].Substs, 2)
	assert.Equal(t, "a", bound(t, g, res.Matches[0].Substs[0], "?x"))
	assert.Equal(t, "b", bound(t, g, res.Matches[0].Substs[1], "?x"))
}

func TestSearch_VariableMatchesEveryClass(t *testing.T) {
	g, _ := graphOf(t, "(f a)")
	res := Search(g, MustParse("?v"), 0)
	assert.Equal(t, 2, res.Total)
}

func TestSearch_LimitTruncates(t *testing.T) {
	g, _ := graphOf(t, "(f a)", "(f b)", "(f c)")
	p := MustParse("(f ?x)")

	res := Search(g, p, 2)
	assert.Equal(t, 2, res.Total)
	assert.True(t, res.Truncated)

	res = Search(g, p, 3)
	assert.Equal(t, 3, res.Total)
	assert.False(t, res.Truncated, "exactly limit matches is not truncation")
}

func TestSearch_ArityMustMatch(t *testing.T) {
	g, _ := graphOf(t, "(f a)")
	res := Search(g, MustParse("(f ?x ?y)"), 0)
	assert.Empty(t, res.Matches)
}

func TestSearchClass(t *testing.T) {
	g, ids := graphOf(t, "(+ a 0)", "(+ b 0)")
	substs := SearchClass(g, MustParse("(+ ?x 0)"), ids[1])
	require.Len(t, substs, 1)
	assert.Equal(t, "b", bound(t, g, substs[0], "?x"))
}
