package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LevelDebug, FormatJSON, &buf)

	logger.WithField(FieldUser, "demo@example.com").
		WithError(errors.New("connection refused")).
		Warn("backend read failed")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry.Level)
	assert.Equal(t, "backend read failed", entry.Message)
	assert.Equal(t, "demo@example.com", entry.Fields[FieldUser])
	assert.Equal(t, "connection refused", entry.Error)
	assert.Empty(t, entry.Caller)
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LevelWarn, FormatText, &buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown too")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WARN: shown")
	assert.Contains(t, lines[1], "ERROR: shown too")
	assert.Contains(t, lines[1], "caller=")
}

func TestLogger_ChildDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithOutput(LevelInfo, FormatText, &buf)
	_ = parent.WithField("widget", "watchlist")

	parent.Info("plain")
	assert.NotContains(t, buf.String(), "widget=")
}

func TestLogger_TextFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LevelInfo, FormatText, &buf)

	logger.WithFields(map[string]interface{}{"b": 2, "a": 1}).Info("x")
	assert.Contains(t, buf.String(), " a=1 b=2")
}

func TestWithErrorNil(t *testing.T) {
	logger := NewLoggerWithOutput(LevelInfo, FormatJSON, &bytes.Buffer{})
	assert.Same(t, logger, logger.WithError(nil))
}

func TestFromContext(t *testing.T) {
	logger := NewLoggerWithOutput(LevelInfo, FormatJSON, &bytes.Buffer{})
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, GetGlobalLogger(), FromContext(context.Background()))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   LogLevel
		wantOK bool
	}{
		{"debug", LevelDebug, true},
		{"WARNING", LevelWarn, true},
		{" error ", LevelError, true},
		{"verbose", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLogLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}

	format, ok := ParseLogFormat("xml")
	assert.Equal(t, FormatJSON, format)
	assert.False(t, ok)
}
