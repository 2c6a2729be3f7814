package util

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LevelDebug, Format: FormatJSON, Output: &buf})

	logger.Debug("decoded", "nodes", 12)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "decoded", rec["msg"])
	assert.Equal(t, float64(12), rec["nodes"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LevelWarn, Format: FormatText, Output: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"", LevelInfo, false},
		{"error", LevelError, false},
		{"loud", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLogFormat(t *testing.T) {
	f, err := ParseLogFormat("Text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseLogFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseLogFormat("xml")
	assert.Error(t, err)
}

func TestGetOptimalPoolSize(t *testing.T) {
	size := GetOptimalPoolSize()
	assert.GreaterOrEqual(t, size, 2)
	assert.LessOrEqual(t, size, 16)

	assert.Equal(t, 3, GetOptimalPoolSizeWithOverride(3))
	assert.Equal(t, size, GetOptimalPoolSizeWithOverride(0))
}
