package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(&Config{Level: level, Format: "json", Output: buf}), buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log line: %s", buf.String())
	return entry
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	assert.NotNil(t, New(nil))
	assert.Equal(t, "console", DefaultConfig().Format)
	assert.Equal(t, "info", DefaultConfig().Level)
}

func TestLogger_JSON(t *testing.T) {
	log, buf := jsonLogger("info")

	log.Infof("serving reports on %s", ":8080")

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "serving reports on :8080", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_ConsoleHasNoColorOutsideStderr(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "console", Output: buf})

	log.Info("fetching metadata")

	assert.Contains(t, buf.String(), "INF")
	assert.Contains(t, buf.String(), "fetching metadata")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestLogger_ConsoleHasNoColorWhenRedirectedToFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, isTerminal(f))

	New(&Config{Level: "info", Format: "console", Output: f}).Info("fetching metadata")

	written, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Contains(t, string(written), "fetching metadata")
	assert.NotContains(t, string(written), "\x1b[")
}

func TestIsTerminal_NonFileWriter(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
	assert.False(t, isTerminal(io.Discard))
}

func TestLogger_ChildFields(t *testing.T) {
	log, buf := jsonLogger("debug")

	log.With().Str("table", "matters").Int("columns", 2).Logger().Debug("table metadata fetched")

	entry := decode(t, buf)
	assert.Equal(t, "matters", entry["table"])
	assert.Equal(t, float64(2), entry["columns"])
	assert.Equal(t, "debug", entry["level"])
}

func TestLogger_ErrorWith(t *testing.T) {
	log, buf := jsonLogger("error")

	log.ErrorWith("report failed", errors.New("connection refused"), map[string]interface{}{"table": "matters"})

	entry := decode(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "report failed", entry["message"])
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "matters", entry["table"])
}

func TestLogger_RequestEvent(t *testing.T) {
	log, buf := jsonLogger("info")

	log.RequestEvent().Str("path", "/healthz").Int("status", 200).Msg("request served")

	entry := decode(t, buf)
	assert.Equal(t, "/healthz", entry["path"])
	assert.Equal(t, float64(200), entry["status"])
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*Logger)
		want  bool
	}{
		{"debug", func(l *Logger) { l.Debugf("dialing %s", "db") }, true},
		{"info", func(l *Logger) { l.Debug("dialing") }, false},
		{"error", func(l *Logger) { l.ErrorWith("failed", errors.New("x"), nil) }, true},
		{"error", func(l *Logger) { l.Info("served") }, false},
		{"chatty", func(l *Logger) { l.Info("served") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, buf := jsonLogger(tt.level)
			tt.log(log)
			assert.Equal(t, tt.want, strings.TrimSpace(buf.String()) != "")
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().ErrorWith("dropped", errors.New("x"), nil)
	})
}

func BenchmarkLogger_Info(b *testing.B) {
	log := New(&Config{Level: "info", Format: "json", Output: io.Discard})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.Info("benchmark message")
	}
}
