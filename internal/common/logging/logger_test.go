package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewZapLogger(LogConfig{Level: level, Output: &buf})
	require.NoError(t, err)
	return logger, &buf
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
}

func TestLogger_LogLevels(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	tests := []struct {
		name     string
		logFunc  func()
		contains []string
	}{
		{
			name:     "debug",
			logFunc:  func() { logger.Debug("fetching token", Field{"endpoint", "games"}) },
			contains: []string{"DEBUG", "fetching token", "games"},
		},
		{
			name:     "info",
			logFunc:  func() { logger.Info("fetched games", Int("count", 42)) },
			contains: []string{"INFO", "fetched games", "42"},
		},
		{
			name:     "warn",
			logFunc:  func() { logger.Warn("skipping entity", Bool("malformed", true)) },
			contains: []string{"WARN", "skipping entity", "true"},
		},
		{
			name: "error",
			logFunc: func() {
				logger.Error("query failed", errors.New("status 500"), Int("status", 500))
			},
			contains: []string{"ERROR", "query failed", "status 500", "500"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", nil)

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLogger_WithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	enriched := logger.WithFields(Field{"component", "igdb"})
	enriched.Info("request sent", Duration("elapsed", 250*time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "igdb")
	assert.Contains(t, out, "request sent")
	assert.Same(t, logger, logger.WithFields())
}

func TestLogger_WithContext(t *testing.T) {
	logger, buf := newBufferLogger(t, DebugLevel)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	ctx = ContextWithJobID(ctx, "job-456")
	logger.WithContext(ctx).Info("context message")

	out := buf.String()
	assert.Contains(t, out, "req-123")
	assert.Contains(t, out, "job-456")

	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Empty(t, JobIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "r1")
	assert.Equal(t, "r1", RequestIDFromContext(ctx))
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	logger, buf := newBufferLogger(t, DebugLevel)
	SetGlobalLogger(logger)

	Info("global info", String("k", "v"))
	Warn("global warn")
	Error("global error", errors.New("boom"))
	Debug("global debug")
	WithFields(Field{"scope", "test"}).Info("scoped")

	out := buf.String()
	for _, s := range []string{"global info", "global warn", "boom", "global debug", "scoped"} {
		assert.Contains(t, out, s)
	}
}

func TestNewRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.log")
	w := NewRotatingFile(FileConfig{Path: path})
	defer w.Close()

	logger, err := NewZapLogger(LogConfig{Level: InfoLevel, Output: w})
	require.NoError(t, err)
	logger.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

func TestConvertFields_Typed(t *testing.T) {
	fields := convertFields([]Field{
		String("s", "x"),
		Int64("i64", 7),
		Float64("f", 3.5),
		Time("t", time.Unix(0, 0)),
		Err(errors.New("e")),
		Ints("ids", []int{6, 48}),
	})
	require.Len(t, fields, 6)
	assert.Equal(t, "s", fields[0].Key)
	assert.Equal(t, "error", fields[4].Key)
}
