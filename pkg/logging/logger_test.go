package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput collects log entries for inspection.
type captureOutput struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (c *captureOutput) Write(e LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureOutput) Sync() error  { return nil }
func (c *captureOutput) Close() error { return nil }

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected Severity
	}{
		{"DEBUG", DEBUG},
		{"INFO", INFO},
		{"WARN", WARN},
		{"ERROR", ERROR},
		{"FATAL", FATAL},
		{"bogus", INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSeverity(tt.input))
		})
	}
}

func TestLoggerSeverityFiltering(t *testing.T) {
	capture := &captureOutput{}
	logger := NewLogger(Config{
		Severity: WARN,
		Outputs:  []Output{capture},
	})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	require.Len(t, capture.entries, 2)
	assert.Equal(t, "warn message", capture.entries[0].Message)
	assert.Equal(t, ERROR, capture.entries[1].Severity)
}

func TestLoggerContextFields(t *testing.T) {
	capture := &captureOutput{}
	logger := NewLogger(Config{
		Severity:      DEBUG,
		Outputs:       []Output{capture},
		DefaultFields: map[string]interface{}{"app": "tekstfix"},
	})

	ctx := WithModelID(context.Background(), "claude-3-5-sonnet-20241022")
	ctx = WithTokenInfo(ctx, &TokenInfo{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})

	logger.Info(ctx, "analyzed %s", "letter.txt")

	require.Len(t, capture.entries, 1)
	entry := capture.entries[0]
	assert.Equal(t, "analyzed letter.txt", entry.Message)
	assert.Equal(t, "claude-3-5-sonnet-20241022", entry.ModelID)
	require.NotNil(t, entry.TokenInfo)
	assert.Equal(t, 15, entry.TokenInfo.TotalTokens)
	assert.Equal(t, "tekstfix", entry.Fields["app"])
}

func TestConsoleOutputFormat(t *testing.T) {
	var buf bytes.Buffer
	out := &ConsoleOutput{writer: &buf, color: false}

	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{out}})
	logger.Info(context.Background(), "hello")

	line := buf.String()
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "hello")
	assert.NotContains(t, line, "\033[")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tekstfix.log")
	out, err := NewFileOutput(path)
	require.NoError(t, err)

	logger := NewLogger(Config{Severity: INFO, Outputs: []Output{out}})
	logger.Info(WithModelID(context.Background(), "gpt-4o"), "batch complete")
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "INFO", record["severity"])
	assert.Equal(t, "batch complete", record["message"])
	assert.Equal(t, "gpt-4o", record["model_id"])
}

func TestGlobalLogger(t *testing.T) {
	capture := &captureOutput{}
	custom := NewLogger(Config{Severity: DEBUG, Outputs: []Output{capture}})
	SetLogger(custom)
	defer SetLogger(nil)

	assert.Same(t, custom, GetLogger())
}
