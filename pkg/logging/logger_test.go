package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLogger_WithCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug").With("processor", "stripe")
	logger.Info("hello", "op", "create_refund")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stripe", entry["processor"])
	assert.Equal(t, "create_refund", entry["op"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestLogger_LevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "error")
	logger.Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask("  "))
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "****cdef", Mask("sk_test_abcdef"))
}
