package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
		ok   bool
	}{
		{"", log.InfoLevel, true},
		{"info", log.InfoLevel, true},
		{"DEBUG", log.DebugLevel, true},
		{"warn", log.WarnLevel, true},
		{"warning", log.WarnLevel, true},
		{"error", log.ErrorLevel, true},
		{"loud", log.InfoLevel, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidLevel)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "warn"})

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "info", JSON: true})

	logger.Info("event", "key", "value")

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(line, "{"), "expected JSON line, got %q", line)
	assert.Contains(t, line, `"key":"value"`)
}

func TestNop_Discards(t *testing.T) {
	logger := Nop()
	logger.Error("nothing observable should happen")
}
