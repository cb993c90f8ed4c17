package logging

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput records every entry written to it.
type captureOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (o *captureOutput) Write(e LogEntry) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, e)
	return nil
}

func (o *captureOutput) Sync() error  { return nil }
func (o *captureOutput) Close() error { return nil }

func (o *captureOutput) all() []LogEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]LogEntry, len(o.entries))
	copy(out, o.entries)
	return out
}

func TestSeverityFiltering(t *testing.T) {
	capture := &captureOutput{}
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{capture}})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	entries := capture.all()
	require.Len(t, entries, 2)
	assert.Equal(t, WARN, entries[0].Severity)
	assert.Equal(t, "warn message", entries[0].Message)
	assert.Equal(t, ERROR, entries[1].Severity)
}

func TestLogEntryCarriesCallerAndModelID(t *testing.T) {
	capture := &captureOutput{}
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{capture}})

	ctx := WithModelID(context.Background(), "claude-sonnet-4-5")
	logger.Info(ctx, "scored %d candidates", 3)

	entries := capture.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "scored 3 candidates", entries[0].Message)
	assert.Equal(t, "claude-sonnet-4-5", entries[0].ModelID)
	assert.Equal(t, "logger_test.go", entries[0].File)
	assert.Positive(t, entries[0].Line)
}

func TestDefaultFieldsAttached(t *testing.T) {
	capture := &captureOutput{}
	logger := NewLogger(Config{
		Severity:      INFO,
		Outputs:       []Output{capture},
		DefaultFields: map[string]interface{}{"run_id": "abc"},
	})

	logger.Info(context.Background(), "hello")

	entries := capture.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].Fields["run_id"])
}

func TestGetModelID(t *testing.T) {
	_, ok := GetModelID(context.Background())
	assert.False(t, ok)

	id, ok := GetModelID(WithModelID(context.Background(), "model-x"))
	assert.True(t, ok)
	assert.Equal(t, "model-x", id)
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, DEBUG, ParseSeverity("DEBUG"))
	assert.Equal(t, ERROR, ParseSeverity("ERROR"))
	assert.Equal(t, INFO, ParseSeverity("nonsense"))
	assert.Equal(t, "WARN", WARN.String())
}

func TestSetLoggerReplacesGlobal(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	capture := &captureOutput{}
	replacement := NewLogger(Config{Severity: DEBUG, Outputs: []Output{capture}})
	SetLogger(replacement)

	assert.Same(t, replacement, GetLogger())
	GetLogger().Debug(context.Background(), "through the global")
	require.Len(t, capture.all(), 1)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	output, err := NewFileOutput(path)
	require.NoError(t, err)

	logger := NewLogger(Config{Severity: INFO, Outputs: []Output{output}})
	logger.Info(context.Background(), "persisted line")
	require.NoError(t, output.Sync())
	require.NoError(t, output.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "persisted line")
	assert.Contains(t, string(data), "INFO")
}
