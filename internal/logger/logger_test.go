package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		output      string
		shouldError bool
	}{
		{"debug text stderr", "debug", "text", "stderr", false},
		{"info json stdout", "info", "json", "stdout", false},
		{"warning text default output", "warning", "text", "", false},
		{"error json stderr", "error", "json", "stderr", false},
		{"invalid level", "invalid", "text", "stderr", true},
		{"unwritable file", "info", "text", filepath.Join(t.TempDir(), "missing", "x.log"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.format, tt.output)
			if tt.shouldError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
			_ = log.Sync()
		})
	}
}

func TestLoggerToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "analysis.log")

	log, err := New("info", "text", logFile)
	require.NoError(t, err)
	log.Named("api").With("analysis_id", "abc").Info("statement analyzed", "kind", "QUERY")
	log.Debug("filtered out")
	_ = log.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "statement analyzed")
	assert.Contains(t, string(content), "abc")
	assert.NotContains(t, string(content), "filtered out")
}

func TestLoggerJSON(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "analysis.json.log")

	log, err := New("debug", "json", logFile)
	require.NoError(t, err)
	log.Warn("json test", "number", 42)
	_ = log.Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"json test"`)
	assert.Contains(t, string(content), `"number":42`)
	assert.Contains(t, string(content), `"timestamp"`)
}

func TestLoggerNop(t *testing.T) {
	log := NewNop()
	require.NotNil(t, log)

	log.Info("test")
	log.Debug("test")
	log.Warn("test")
	log.Error("test")
	log.With("component", "test").Named("sub").Info("test")
	assert.NoError(t, log.Sync())
}
