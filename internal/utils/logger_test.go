package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerMasksSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("calling provider", map[string]interface{}{
		"provider":      "openai",
		"api_key":       "sk-live-123",
		"Authorization": "Bearer abc",
	})

	out := buf.String()
	assert.Contains(t, out, "calling provider")
	assert.Contains(t, out, "openai")
	assert.NotContains(t, out, "sk-live-123")
	assert.NotContains(t, out, "Bearer abc")
	assert.Contains(t, out, maskedValue)
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.SetLogLevel(WARNING)

	logger.Info("quiet", nil)
	logger.Debugf("quieter %d", 1)
	assert.Empty(t, buf.String())

	logger.Warnf("loud %s", "enough")
	assert.Contains(t, buf.String(), "loud enough")
}

func TestLoggerDisable(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Enable(false)

	logger.Error("dropped", nil)
	assert.Empty(t, buf.String())
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warn":    WARNING,
		"warning": WARNING,
		" error ": ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
		"":        INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestMaskFieldsLeavesInputUntouched(t *testing.T) {
	in := map[string]interface{}{"token": "t", "url": "https://example.com"}
	out := MaskFields(in)

	assert.Equal(t, "t", in["token"])
	assert.Equal(t, maskedValue, out["token"])
	assert.Equal(t, "https://example.com", out["url"])
}
