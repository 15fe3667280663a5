package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}

	return out
}

func TestSlog_TraceFiltered(t *testing.T) {
	t.Setenv("ENV", "")

	var buf bytes.Buffer
	l := NewSlogWriter(&buf, DebugLevel, false)

	l.Trace("> 47")
	l.Debug("exchange")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "exchange", recs[0]["msg"])
	assert.False(t, l.Enabled(TraceLevel))
	assert.True(t, l.Enabled(DebugLevel))
}

func TestSlog_TraceLevelName(t *testing.T) {
	t.Setenv("ENV", "")

	var buf bytes.Buffer
	l := NewSlogWriter(&buf, TraceLevel, false)

	l.Trace("< 0b", "cmd", "home")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "TRACE", recs[0]["level"])
	assert.Equal(t, "home", recs[0]["cmd"])
	assert.Contains(t, recs[0], "ts")
}

func TestSlog_WithSharesLevel(t *testing.T) {
	t.Setenv("ENV", "")

	var buf bytes.Buffer
	parent := NewSlogWriter(&buf, InfoLevel, false)
	child := parent.With("nozzle", "N1")

	parent.SetLevel(DebugLevel)
	child.Debug("move suppressed")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "N1", recs[0]["nozzle"])
	assert.Equal(t, DebugLevel, child.Level())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want Level
		ok   bool
	}{
		{"trace", TraceLevel, true},
		{"debug", DebugLevel, true},
		{"", InfoLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"loud", InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLevel(tt.name)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "trace", TraceLevel.String())
	assert.Equal(t, "fatal", FatalLevel.String())
	assert.Equal(t, "unknown", Level(42).String())
}
