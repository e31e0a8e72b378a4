package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Debug.Print("d")
	l.Info.Print("i")
	l.Warn.Print("w")
	l.Error.Print("e")

	out := buf.String()
	assert.NotContains(t, out, "DEBUG: ")
	assert.NotContains(t, out, "INFO: ")
	assert.Contains(t, out, "WARN: ")
	assert.Contains(t, out, "ERROR: ")
	assert.Equal(t, "warn", l.Level().String())
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.NotPanics(t, func() { l.Error.Print("x") })
}
