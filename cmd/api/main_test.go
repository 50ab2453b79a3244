package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	ctx := context.Background()

	assert.True(t, newLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, newLogger("warn").Enabled(ctx, slog.LevelInfo))
	assert.False(t, newLogger("loud").Enabled(ctx, slog.LevelDebug), "unknown levels fall back to info")
	assert.True(t, newLogger("").Enabled(ctx, slog.LevelInfo))
}

func TestMigrateCmd_RejectsUnknownAction(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"migrate", "sideways"})

	err := root.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}

func TestServeCmd_FailsFastOnMissingConfig(t *testing.T) {
	t.Setenv("SHEET_CSV_URL", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LLM_PROVIDER", "none")
	root := newRootCmd()
	root.SetArgs([]string{"serve"})

	err := root.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHEET_CSV_URL")
}
