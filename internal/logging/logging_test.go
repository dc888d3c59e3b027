package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "json")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)
}

func TestCore_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := zap.New(newCore(zapcore.InfoLevel, "json", zapcore.AddSync(&buf)))

	l.Debug("hidden")
	l.Info("link issued", zap.String("id", "abc"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "link issued", entry["msg"])
	assert.Equal(t, "abc", entry["id"])
	assert.Equal(t, "info", entry["level"])
}

func TestCore_Console(t *testing.T) {
	var buf bytes.Buffer
	l := zap.New(newCore(zapcore.WarnLevel, "console", zapcore.AddSync(&buf)))

	l.Info("hidden")
	l.Warn("generated secret")

	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "generated secret")
	assert.NotContains(t, buf.String(), "hidden")
}
