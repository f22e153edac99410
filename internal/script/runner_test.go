package script_test

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/serroba/line-docs/internal/collab"
	"github.com/serroba/line-docs/internal/script"
	"github.com/serroba/line-docs/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(out io.Writer, diff bool) *script.Runner {
	svc := collab.NewService(collab.ServiceConfig{
		Store:  storage.NewMemoryStore(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	var report *script.Reporter
	if out != nil {
		report = script.NewReporter(script.ReporterConfig{Out: out, Diff: diff})
	}

	return script.NewRunner(svc, report)
}

func TestRunner_StaleMergeScriptPasses(t *testing.T) {
	t.Parallel()

	s, err := script.Parse("stale.yaml", []byte(staleMergeScript))
	require.NoError(t, err)

	summary, err := newRunner(nil, false).Run(s)
	require.NoError(t, err)

	for _, step := range summary.Steps {
		assert.True(t, step.Passed, "step %d failed: err=%v expectErr=%v", step.Index, step.Err, step.ExpectErr)
	}

	assert.True(t, summary.OK())
	assert.Equal(t, "stale merge", summary.Name)
}

func TestRunner_FailedExpectation(t *testing.T) {
	t.Parallel()

	s, err := script.Parse("fail.yaml", []byte(`
documents:
  - lines: [a]
steps:
  - update: {id: 1, base: 0, line: 0, text: b}
    expect: doc.Version == 42
  - fetch: 1
    expect: doc.Lines[0] == "b"
`))
	require.NoError(t, err)

	summary, err := newRunner(nil, false).Run(s)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Steps[0].Passed)
	assert.True(t, summary.Steps[1].Passed)
}

func TestRunner_ErrorsFailUnlessExpected(t *testing.T) {
	t.Parallel()

	s, err := script.Parse("errors.yaml", []byte(`
steps:
  - fetch: 1
  - delete: 1
    expect: err != ""
  - update: {id: 1, insert: true, text: x}
    expect: err contains "not found"
`))
	require.NoError(t, err)

	summary, err := newRunner(nil, false).Run(s)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Steps[0].Passed)
	require.Error(t, summary.Steps[0].Err)
	assert.True(t, summary.Steps[1].Passed)
	assert.True(t, summary.Steps[2].Passed)
}

func TestRunner_BadExpectation(t *testing.T) {
	t.Parallel()

	s, err := script.Parse("bad-expect.yaml", []byte(`
steps:
  - create: {lines: [a]}
    expect: doc.Nope > 1
  - create: {lines: [a]}
    expect: doc.Version + 1
`))
	require.NoError(t, err)

	summary, err := newRunner(nil, false).Run(s)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	require.Error(t, summary.Steps[0].ExpectErr)
	require.Error(t, summary.Steps[1].ExpectErr)
}

func TestRunner_SeedError(t *testing.T) {
	t.Parallel()

	s, err := script.Parse("seed.yaml", []byte("documents:\n  - version: -1\n"))
	require.NoError(t, err)

	_, err = newRunner(nil, false).Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed document 1")
}

func TestRunner_WritesReport(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	s, err := script.Parse("stale.yaml", []byte(staleMergeScript))
	require.NoError(t, err)

	_, err = newRunner(&out, true).Run(s)
	require.NoError(t, err)

	report := out.String()

	assert.Contains(t, report, "#1 update doc 1 overwrite line 0 from v1 -> v4 (merged)")
	assert.Contains(t, report, "- line zero")
	assert.Contains(t, report, "+ line 0")
	assert.Contains(t, report, "+ inserted")
	assert.Contains(t, report, "-> v5 (rejected)")
	assert.Contains(t, report, "v5 insert line 1 \"inserted\"")
	assert.Contains(t, report, "stale merge: 7 steps passed")
	assert.NotContains(t, report, "\x1b[", "expected no ANSI colors")
}

func TestRunner_CatchUp(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	s, err := script.Parse("catchup.yaml", []byte(`
documents:
  - lines: [a, b]
steps:
  - update: {id: 1, line: 0, insert: true, text: top}
  - update: {id: 1, base: 1, line: 2, text: B}
  - catchup: {id: 1, version: 0, lines: [a, b]}
    expect: doc.Version == 2 && join(doc.Lines, ",") == "top,a,B"
  - catchup: {id: 1, version: 5}
    expect: err contains "future"
`))
	require.NoError(t, err)

	summary, err := newRunner(&out, true).Run(s)
	require.NoError(t, err)

	assert.True(t, summary.OK(), out.String())
	assert.Contains(t, out.String(), "#3 catchup doc 1 from v0 -> v2")
	assert.Contains(t, out.String(), "+ top")
	assert.Contains(t, out.String(), "- b")
}

func TestRunner_ChangesStepCarriesDocument(t *testing.T) {
	t.Parallel()

	s, err := script.Parse("changes.yaml", []byte(`
documents:
  - lines: [a]
steps:
  - update: {id: 1, line: 1, insert: true, text: b}
  - changes: {id: 1, since: 0}
    expect: err == "" && doc.Version == 1 && join(doc.Lines, ",") == "a,b" && len(changes) == 1
  - changes: {id: 2, since: 0}
    expect: err contains "not found" && doc.Version == 0
`))
	require.NoError(t, err)

	summary, err := newRunner(nil, false).Run(s)
	require.NoError(t, err)

	for _, step := range summary.Steps {
		assert.True(t, step.Passed, "step %d failed: err=%v expectErr=%v", step.Index, step.Err, step.ExpectErr)
	}
}
