package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerCarriesRunIDAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New("info", "json", &buf), "imputer")

	ctx := WithRunID(context.Background(), "run-123")
	logger.InfoContext(ctx, "dropped columns", "count", 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-123", entry["run_id"])
	assert.Equal(t, "imputer", entry["component"])
	assert.Equal(t, "dropped columns", entry["msg"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "text", &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestRunIDMissing(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
}
