package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelError, ParseLogLevel("error"))
	assert.Equal(t, LevelInfo, ParseLogLevel("bogus"))
}

func TestLoggerTextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{level: LevelInfo, fields: map[string]interface{}{}}
	l.AddOutput(NewConsoleOutput(&buf, FormatText))

	l.Debug("hidden")
	l.With(F("folder", "opc_1.4")).Info("parsed report", F("rows", 12))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] parsed report")
	assert.Contains(t, out, "folder=opc_1.4 rows=12")
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{level: LevelDebug, fields: map[string]interface{}{}}
	l.AddOutput(NewConsoleOutput(&buf, FormatJSON))

	l.Warnf("missing %s", "4-filtered_events_statistics.txt")

	var entry LogEntry
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "missing 4-filtered_events_statistics.txt", entry.Message)
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l, err := NewLogger(LoggerOptions{Level: "debug", File: path})
	require.NoError(t, err)

	l.Debug("scan started")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[DEBUG] scan started"))
}

func TestGlobalHelpersWithoutLogger(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		LogInfo("no logger")
		LogDebugf("no %s", "logger")
		LogWarn("no logger")
		LogErrorf("no %s", "logger")
		LogInfof("no %s", "logger")
		LogWith(F("md", "1A_opc_1")).Info("no logger")
	})
}

func TestGlobalHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{level: LevelInfo, fields: map[string]interface{}{}}
	l.AddOutput(NewConsoleOutput(&buf, FormatText))
	SetLogger(l)
	t.Cleanup(func() { SetLogger(nil) })

	LogInfof("read %d hbond outputs", 3)
	LogWith(F("md", "1A_opc_1")).Infof("finished %s", "hydrogen bonds")
	LogInfo("parent keeps its fields")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "[INFO] read 3 hbond outputs")
	assert.Contains(t, lines[1], "[INFO] finished hydrogen bonds")
	assert.Contains(t, lines[1], "md=1A_opc_1")
	assert.NotContains(t, lines[2], "md=")
}
