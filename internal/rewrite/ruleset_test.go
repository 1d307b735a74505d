package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleSet(t *testing.T) {
	comm, err := Compile("comm-mul", "(* ?a ?b)", "(* ?b ?a)", true)
	require.NoError(t, err)
	one, err := NewRule("mul-1", "(* ?a 1)", "?a")
	require.NoError(t, err)

	rs, err := NewRuleSet(append(comm, one)...)
	require.NoError(t, err)
	assert.Equal(t, 3, rs.Len())
	assert.Equal(t, []string{"comm-mul", "comm-mul-rev", "mul-1"}, rs.Names())

	r, ok := rs.Lookup("mul-1")
	require.True(t, ok)
	assert.Same(t, one, r)

	rules := rs.Rules()
	rules[0] = nil
	assert.NotNil(t, rs.Rules()[0], "Rules returns a copy")
}

func TestNewRuleSet_Errors(t *testing.T) {
	a, err := NewRule("dup", "(f ?x)", "?x")
	require.NoError(t, err)
	b, err := NewRule("dup", "(g ?x)", "?x")
	require.NoError(t, err)

	rs, err := NewRuleSet(a, b)
	require.Error(t, err)
	assert.Nil(t, rs)
	assert.Contains(t, err.Error(), "duplicate rule name")

	rs, err = NewRuleSet(a, nil)
	require.Error(t, err)
	assert.Nil(t, rs)
	assert.True(t, IsRuleError(err))
}

func TestRuleSet_Hash(t *testing.T) {
	a, _ := NewRule("a", "(f ?x)", "?x")
	b, _ := NewRule("b", "(g ?x)", "?x")

	ab, err := NewRuleSet(a, b)
	require.NoError(t, err)
	ba, err := NewRuleSet(b, a)
	require.NoError(t, err)
	ab2, err := NewRuleSet(a, b)
	require.NoError(t, err)

	h1, err := ab.Hash()
	require.NoError(t, err)
	h2, _ := ba.Hash()
	h3, _ := ab2.Hash()

	assert.Len(t, h1, 64)
	assert.Equal(t, h1, h3)
	assert.NotEqual(t, h1, h2, "order is part of identity")

	guarded, err := NewRuleSet(OnlyWhen(a, PredicateFunc(alwaysTrue)), b)
	require.NoError(t, err)
	h4, _ := guarded.Hash()
	assert.NotEqual(t, h1, h4)
}
