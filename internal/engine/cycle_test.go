package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiringSet_NewFiringSet(t *testing.T) {
	f := NewFiringSet()
	require.NotNil(t, f)
	assert.Equal(t, 0, f.Size())
}

func TestFiringSet_WouldRepeat_FirstOccurrence(t *testing.T) {
	f := NewFiringSet()
	f.Begin(1)
	assert.False(t, f.WouldRepeat("add-0", "3|?a=1"), "first occurrence should not repeat")
}

func TestFiringSet_WouldRepeat_AfterRecord(t *testing.T) {
	f := NewFiringSet()
	f.Begin(1)
	f.Record("add-0", "3|?a=1")
	assert.True(t, f.WouldRepeat("add-0", "3|?a=1"))
	assert.Equal(t, 1, f.Size())
}

func TestFiringSet_DifferentRulesAndMatches(t *testing.T) {
	f := NewFiringSet()
	f.Begin(1)
	f.Record("add-0", "3|?a=1")

	assert.False(t, f.WouldRepeat("mul-1", "3|?a=1"), "same match under another rule is distinct")
	assert.False(t, f.WouldRepeat("add-0", "3|?a=2"), "another substitution is distinct")
}

func TestFiringSet_BeginForgetsPreviousPass(t *testing.T) {
	f := NewFiringSet()
	f.Begin(1)
	f.Record("add-0", "3|?a=1")

	f.Begin(2)
	assert.Equal(t, 2, f.Pass())
	assert.Equal(t, 0, f.Size())
	assert.False(t, f.WouldRepeat("add-0", "3|?a=1"))
}
