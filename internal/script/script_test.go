package script_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/serroba/line-docs/internal/document"
	"github.com/serroba/line-docs/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const staleMergeScript = `
name: stale merge
documents:
  - version: 3
    lines: [line zero, line one, line two]
steps:
  - update: {id: 1, base: 1, line: 0, old: line zero, text: line 0}
    expect: outcome == "merged" && doc.Version == 4 && doc.Lines[0] == "line 0"
  - update: {id: 1, base: 1, line: 1, old: something else, text: inserted}
    expect: outcome == "relocated" && len(doc.Lines) == 4
  - update: {id: 1, base: 1, line: 0, old: stale, erase: true}
    expect: outcome == "rejected" && doc.Version == 5
  - changes: {id: 1, since: 3}
    expect: len(changes) == 2 && changes[1].Edit.Text == "inserted"
  - fetch: 1
  - delete: 1
  - fetch: 1
    expect: err contains "not found"
`

func TestParse(t *testing.T) {
	t.Parallel()

	s, err := script.Parse("stale.yaml", []byte(staleMergeScript))
	require.NoError(t, err)

	assert.Equal(t, "stale merge", s.Name)
	require.Len(t, s.Documents, 1)
	assert.Equal(t, document.Document{Version: 3, Lines: []string{"line zero", "line one", "line two"}}, s.Documents[0].Document())
	require.Len(t, s.Steps, 7)

	kinds := make([]string, 0, len(s.Steps))
	for _, step := range s.Steps {
		kinds = append(kinds, step.Kind())
	}

	assert.Equal(t, []string{"update", "update", "update", "changes", "fetch", "delete", "fetch"}, kinds)

	u, err := s.Steps[2].Update.Update()
	require.NoError(t, err)
	assert.Equal(t, document.Update{ID: 1, BaseVersion: 1, Line: 0, OldLine: "stale", Edit: document.EraseLine()}, u)
}

func TestParse_DefaultsNameToFile(t *testing.T) {
	t.Parallel()

	s, err := script.Parse("unnamed.yaml", []byte("steps:\n  - fetch: 1\n"))
	require.NoError(t, err)

	assert.Equal(t, "unnamed.yaml", s.Name)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown field", yaml: "steps:\n  - fetch: 1\n    bogus: true\n"},
		{name: "no action", yaml: "steps:\n  - expect: 'true'\n"},
		{name: "two actions", yaml: "steps:\n  - fetch: 1\n    delete: 1\n"},
		{name: "erase and insert", yaml: "steps:\n  - update: {id: 1, erase: true, insert: true}\n"},
		{name: "not yaml", yaml: "steps: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := script.Parse("bad.yaml", []byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.yaml")
		})
	}
}

func TestParse_InvalidStepSentinel(t *testing.T) {
	t.Parallel()

	_, err := script.Parse("bad.yaml", []byte("steps:\n  - fetch: 1\n    delete: 1\n"))
	require.ErrorIs(t, err, script.ErrInvalidStep)
}

func TestUpdateStep_EditKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		step script.UpdateStep
		want document.Edit
	}{
		{step: script.UpdateStep{Text: "x"}, want: document.OverwriteWith("x")},
		{step: script.UpdateStep{}, want: document.OverwriteWith("")},
		{step: script.UpdateStep{Erase: true}, want: document.EraseLine()},
		{step: script.UpdateStep{Insert: true, Text: "y"}, want: document.InsertText("y")},
	}

	for _, tt := range tests {
		u, err := tt.step.Update()
		require.NoError(t, err)
		assert.Equal(t, tt.want, u.Edit)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(path, []byte(staleMergeScript), 0o600))

	s, err := script.Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Steps, 7)

	_, err = script.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
