package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileLogger(t *testing.T, level Level, maxSize int64) (*DefaultLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	l, err := NewDefaultLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: maxSize,
		MaxBackups:  3,
		Level:       level,
	})
	require.NoError(t, err)
	return l, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestLevelsAndFields(t *testing.T) {
	l, logPath := newFileLogger(t, LevelDebug, 1<<20)

	l.Debug("debug message", String("key", "value"))
	l.Info("info message", Int("count", 42))
	l.Warn("warn message", Bool("flag", true))
	l.Error("error message", errors.New("boom"),
		Float64("rate", 3.14),
		Int64("big", 9223372036854775807),
		Duration("took", 1500*time.Millisecond),
		Err(errors.New("wrapped")),
		Any("any", map[string]int{"a": 1}),
	)
	require.NoError(t, l.Close())

	content := readLog(t, logPath)
	for _, want := range []string{
		"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]",
		"debug message", "info message", "warn message", "error message",
		"key=value", "count=42", "flag=true", "rate=3.14",
		"big=9223372036854775807", "took=1.5s", "error=wrapped",
		`error="boom"`,
	} {
		assert.Contains(t, content, want)
	}
}

func TestLevelFiltering(t *testing.T) {
	l, logPath := newFileLogger(t, LevelWarn, 1<<20)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", nil)
	require.NoError(t, l.Close())

	content := readLog(t, logPath)
	assert.NotContains(t, content, "[DEBUG]")
	assert.NotContains(t, content, "[INFO]")
	assert.Contains(t, content, "[WARN]")
	assert.Contains(t, content, "[ERROR]")
}

func TestSetLevelTakesEffectImmediately(t *testing.T) {
	l, logPath := newFileLogger(t, LevelDebug, 1<<20)

	l.Debug("before")
	l.SetLevel(LevelError)
	l.Debug("after")
	l.Error("still logged", nil)
	require.NoError(t, l.Close())

	content := readLog(t, logPath)
	assert.Contains(t, content, "before")
	assert.NotContains(t, content, "after")
	assert.Contains(t, content, "still logged")
}

func TestRotationKeepsBackups(t *testing.T) {
	l, logPath := newFileLogger(t, LevelDebug, 100)

	for i := 0; i < 20; i++ {
		l.Info("a message long enough to push the file past its size cap")
	}
	require.NoError(t, l.Close())

	_, err := os.Stat(logPath + ".1")
	assert.NoError(t, err, "rotation must leave a .1 backup")
}

func TestCreatesNestedLogDirectory(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "dir", "test.log")
	l, err := NewDefaultLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: 1 << 20,
		MaxBackups:  3,
		Level:       LevelDebug,
	})
	require.NoError(t, err)
	defer l.Close()

	_, err = os.Stat(logPath)
	assert.NoError(t, err)
}

func TestGlobalLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "global.log")
	require.NoError(t, Init(&Config{
		LogFilePath: logPath,
		MaxFileSize: 1 << 20,
		MaxBackups:  3,
		Level:       LevelDebug,
	}))

	Debug("global debug")
	Info("global info")
	Warn("global warn")
	Error("global error", errors.New("global boom"))
	require.NoError(t, Close())

	content := readLog(t, logPath)
	assert.Contains(t, content, "global debug")
	assert.Contains(t, content, "global error")
}

func TestGlobalFallsBackToNoop(t *testing.T) {
	SetGlobalLogger(nil)

	// Must not panic without an initialized global logger.
	Debug("x")
	Info("x")
	Warn("x")
	Error("x", nil)

	assert.NotNil(t, GetLogger())
}

func TestErrFieldWithNil(t *testing.T) {
	field := Err(nil)
	assert.Equal(t, "error", field.Key)
	assert.Nil(t, field.Value)
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(99):  "UNKNOWN",
	}
	for level, want := range cases {
		assert.Equal(t, want, level.String())
	}
}
