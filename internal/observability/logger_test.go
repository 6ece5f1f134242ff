package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("cycle complete", "temperature", 21.5)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cycle complete", entry["msg"])
	assert.Equal(t, "env-monitor", entry["service"])
	assert.Equal(t, 21.5, entry["temperature"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "debug", "text").Debug("tick")

	assert.Contains(t, buf.String(), "msg=tick")
	assert.Contains(t, buf.String(), "service=env-monitor")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}
