package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLogger_FormatsCategoryAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Info("store", "reservation created")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "[STORE")
	assert.Contains(t, out, "reservation created")
	assert.Contains(t, out, "logger_test.go")
}

func TestWriterLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.SetLevel(WARN)

	l.Debug("X", "debug line")
	l.Info("X", "info line")
	l.Warn("X", "warn line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.NotContains(t, buf.String(), "info line")
	assert.Contains(t, buf.String(), "warn line")
}

func TestFatal_CallsExit(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("APP", "boom")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "FATAL")
}

func TestNewLogger_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger("tryon-test", dir)
	require.NoError(t, err)
	l.out = &bytes.Buffer{}

	l.LogReservation("CREATE", "rsv_1", "ok")
	l.Close()

	files, err := filepath.Glob(filepath.Join(dir, "tryon-test-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()

	var found bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		if entry.Category == "RESERVATION" {
			found = true
			assert.Equal(t, "INFO", entry.Level)
			assert.Equal(t, "[CREATE] rsv_1 - ok", entry.Message)
		}
	}
	assert.True(t, found)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("X", "y") })
}
