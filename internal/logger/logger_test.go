package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Format: "json"})
	l.Info().Str("component", "test").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "test", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestNew_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Format: "pretty"})
	l.Warn().Msg("careful")

	assert.Contains(t, buf.String(), "careful")
	assert.False(t, json.Valid(buf.Bytes()), "pretty output is not JSON")
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	assert.Same(t, &Logger, Ctx(context.Background()))

	var buf bytes.Buffer
	l := New(&buf, Config{})
	ctx := l.WithContext(context.Background())
	Ctx(ctx).Info().Msg("from ctx")
	assert.Contains(t, buf.String(), "from ctx")
}
