package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo}).With(Component("query"))

	log.Info("batch built", ClassName("VII A"), Mode("week"), Int("pages", 3), Err(errors.New("boom")))

	line := decode(t, &buf)
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "batch built", line["message"])
	assert.Equal(t, "query", line["component"])
	assert.Equal(t, "VII A", line["class_name"])
	assert.Equal(t, "week", line["mode"])
	assert.EqualValues(t, 3, line["pages"])
	assert.Equal(t, "boom", line["error"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Equal(t, "warn", decode(t, &buf)["level"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, "ERROR", LevelError.String())
}

func TestContextPropagation(t *testing.T) {
	l := Nop()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
