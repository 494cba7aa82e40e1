package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestComponentTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "info").Component("scheduler")

	log.Info("cycle done", "alerts", 2)
	log.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "component=scheduler")
	assert.Contains(t, out, "alerts=2")
	assert.NotContains(t, out, "hidden")
}
