package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"WARN", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run("level "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("json logger writes to a file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "connector.log")
		log, err := New(&Config{
			Level:      "info",
			Format:     "json",
			Output:     logFile,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		require.NoError(t, err)

		log.Info("report pass finished")
		require.NoError(t, Sync(log))

		payload, err := os.ReadFile(logFile)
		require.NoError(t, err)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(payload, &entry))
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "report pass finished", entry["msg"])
		assert.NotEmpty(t, entry["time"])
		assert.NotEmpty(t, entry["caller"])
	})

	t.Run("level filters lower entries", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "connector.log")
		log, err := New(&Config{Level: "error", Format: "json", Output: logFile})
		require.NoError(t, err)

		log.Info("dropped")
		log.Error("kept")
		require.NoError(t, Sync(log))

		payload, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.NotContains(t, string(payload), "dropped")
		assert.Contains(t, string(payload), "kept")
	})

	t.Run("console format", func(t *testing.T) {
		log, err := New(&Config{Level: "debug", Format: "console", Output: "stdout"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("empty output defaults to stdout", func(t *testing.T) {
		log, err := New(&Config{Level: "info", Format: "json"})
		require.NoError(t, err)
		require.NotNil(t, log)
	})

	t.Run("unwritable file output does not fail", func(t *testing.T) {
		log, err := New(&Config{Level: "info", Format: "json", Output: "/nonexistent-dir/out.log"})
		require.NoError(t, err)
		require.NotNil(t, log)
		log.Info("still logs")
	})
}
