package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("whatever"))
}

func TestInitLoggerWritesFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, InitLogger(dir, "INFO"))

	Logger.Info("hello")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, "healthgenie.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestLogDurationIncludesSessionID(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	core, logs := observer.New(zap.DebugLevel)
	Logger = zap.New(core)

	ctx := WithSessionID(context.Background(), "sess-1")
	LogDuration(ctx, "generate")()

	entries := logs.FilterMessage("Function timed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "generate", fields["func"])
	assert.Equal(t, "sess-1", fields["session_id"])
}
