package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level string) (*ZerologLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return New(Options{Level: level, Output: &buf}), &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t, "debug")
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", "4")

	got := lines(t, buf)
	require.Len(t, got, 4)

	tests := []struct {
		level string
		msg   string
		key   string
		val   any
	}{
		{"debug", "dbg", "a", float64(1)},
		{"info", "inf", "b", float64(2)},
		{"warn", "wrn", "c", float64(3)},
		{"error", "err", "d", "4"},
	}
	for i, tc := range tests {
		assert.Equal(t, tc.level, got[i][zerolog.LevelFieldName])
		assert.Equal(t, tc.msg, got[i][zerolog.MessageFieldName])
		assert.Equal(t, tc.val, got[i][tc.key])
	}
}

func TestZerologLogger_LevelFilters(t *testing.T) {
	log, buf := newTestLogger(t, "warn")
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "wrn", got[0][zerolog.MessageFieldName])
}

func TestZerologLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t, "info")

	log.With("req_id", "123", "user", "alice").Info(context.TODO(), "hello", "k", "v")

	got := lines(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "123", got[0]["req_id"])
	assert.Equal(t, "alice", got[0]["user"])
	assert.Equal(t, "v", got[0]["k"])
}

func TestNewNop_DiscardsAndDoesNotPanic(t *testing.T) {
	log := NewNop()
	ctx := context.TODO()
	log.Debug(ctx, "x")
	log.Info(ctx, "x", "k", 1)
	log.With("a", "b").Error(ctx, "x")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("TRACE"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" debug "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}
