package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCUEFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "arith.cue", `
rule: "mul-one": {searcher: "(* ?a 1)", applier: "?a"}
rule: "add-zero": {searcher: "(+ ?a 0)", applier: "?a"}
`)

	prog, err := LoadProgram(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"mul-one", "add-zero"}, prog.Rules.Names())
}

func TestLoadYAMLFile(t *testing.T) {
	for _, ext := range []string{".yaml", ".yml"} {
		t.Run(ext, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "arith"+ext, `
rules:
  - name: mul-one
    searcher: "(* ?a 1)"
    applier: "?a"
`)
			doc, err := Load(path)
			require.NoError(t, err)
			require.Len(t, doc.Rules, 1)
			assert.Equal(t, "mul-one", doc.Rules[0].Name)
		})
	}
}

func TestLoadDirMergesPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", `package rules

rule: "mul-one": {searcher: "(* ?a 1)", applier: "?a"}
`)
	writeFile(t, dir, "b.cue", `package rules

costs: {"*": 3}
limits: {iterations: 4}
`)
	writeFile(t, dir, "notes.txt", "not a cue file")

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	prog, err := LoadProgram(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"mul-one"}, prog.Rules.Names())
	assert.Equal(t, map[string]float64{"*": 3}, prog.Costs)
	assert.Equal(t, 4, prog.Limits.Iterations)
}

func TestLoadDirWithoutCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rules.yaml", "rules: []\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.cue"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeFile(t, dir, "rules.json", "{}")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestLoadProgramReportsValidation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", `
rules:
  - name: r
    searcher: "(f ?a)"
    applier: "(g ?b)"
`)
	_, err := LoadProgram(path)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrUnboundVariable, ve.Code)
}
