package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/scott-cotton/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLevel(t *testing.T) {
	t.Setenv("DEBUG", "")
	assert.Equal(t, slog.LevelWarn, slogLevel())

	t.Setenv("DEBUG", "1")
	assert.Equal(t, slog.LevelDebug, slogLevel())
}

func TestIsTerminal_NotAFile(t *testing.T) {
	t.Parallel()

	assert.False(t, isTerminal(&bytes.Buffer{}))
}

func TestMainCommand_FindsReplay(t *testing.T) {
	t.Parallel()

	cmd := MainCommand()
	cc := cli.DefaultContext()

	replay := cmd.FindSub(cc, "replay")
	require.NotNil(t, replay)
	assert.Same(t, replay, cmd.FindSub(cc, "r"))
	assert.Nil(t, cmd.FindSub(cc, "nope"))
}
