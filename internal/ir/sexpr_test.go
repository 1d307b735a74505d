package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSexpAtom(t *testing.T) {
	s, err := ReadSexp("  x ")
	require.NoError(t, err)
	assert.True(t, s.IsAtom())
	assert.Equal(t, "x", s.Atom)
	assert.Equal(t, 2, s.Pos)
}

func TestReadSexpNested(t *testing.T) {
	s, err := ReadSexp("(+ 1 (* x 2))")
	require.NoError(t, err)
	require.False(t, s.IsAtom())
	assert.Equal(t, "+", s.Head())
	require.Len(t, s.Args(), 2)
	assert.Equal(t, "1", s.Args()[0].Atom)
	assert.Equal(t, "*", s.Args()[1].Head())
	assert.Equal(t, "(+ 1 (* x 2))", s.String())
}

func TestReadSexpErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		msg   string
	}{
		{"empty", "", "empty expression"},
		{"whitespace", "   ", "empty expression"},
		{"unclosed", "(+ 1 2", "unclosed"},
		{"stray close", ")", "unexpected \")\""},
		{"empty list", "()", "empty list"},
		{"list head", "((f x) y)", "operator must be an atom"},
		{"trailing", "(f x) y", "unexpected trailing"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadSexp(tc.input)
			require.Error(t, err)
			assert.True(t, IsParseError(err))
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
