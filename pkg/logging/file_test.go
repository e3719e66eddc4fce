package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, format Format, level Level) (*ZeroLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "dirlink.log")
	logger, err := NewFileLogger(FileLoggerConfig{
		Path:       logPath,
		Format:     format,
		Level:      level,
		MaxSize:    1024 * 1024,
		MaxBackups: 3,
	})
	require.NoError(t, err)
	return logger, logPath
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestNewFileLogger(t *testing.T) {
	t.Run("CreatesFile", func(t *testing.T) {
		logger, logPath := newTestLogger(t, FormatText, InfoLevel)
		defer logger.Close()

		_, err := os.Stat(logPath)
		assert.NoError(t, err)
	})

	t.Run("CreatesDirectory", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "dir", "dirlink.log")
		logger, err := NewFileLogger(FileLoggerConfig{Path: logPath})
		require.NoError(t, err)
		defer logger.Close()

		_, err = os.Stat(filepath.Dir(logPath))
		assert.NoError(t, err)
	})
}

func TestFileLoggerLevels(t *testing.T) {
	logger, logPath := newTestLogger(t, FormatText, WarnLevel)
	ctx := context.Background()

	logger.Debug(ctx, "debug message", nil)
	logger.Info(ctx, "info message", nil)
	logger.Warn(ctx, "warn message", nil)
	logger.Error(ctx, "error message", nil, nil)
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "debug message")
	assert.NotContains(t, string(content), "info message")
	assert.Contains(t, string(content), "warn message")
	assert.Contains(t, string(content), "error message")
}

func TestFileLoggerTextFormat(t *testing.T) {
	logger, logPath := newTestLogger(t, FormatText, DebugLevel)
	logger.Info(context.Background(), "Linked", Fields{"link": "/d/y.bin"})
	require.NoError(t, logger.Close())

	lines := readLines(t, logPath)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "INF")
	assert.Contains(t, lines[0], "Linked")
	assert.Contains(t, lines[0], "link=/d/y.bin")
}

func TestFileLoggerJSONFormat(t *testing.T) {
	logger, logPath := newTestLogger(t, FormatJSON, DebugLevel)
	ctx := context.Background()

	logger.Info(ctx, "Catalog built", Fields{"side": "target", "files": 3})
	logger.Error(ctx, "Comparison failed", fmt.Errorf("vanished"), Fields{"link": "/d/y.bin"})
	require.NoError(t, logger.Close())

	lines := readLines(t, logPath)
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Catalog built", entry["message"])
	assert.Equal(t, "target", entry["side"])
	assert.Equal(t, float64(3), entry["files"])
	assert.Contains(t, entry, "time")

	entry = nil
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "vanished", entry["error"])
	assert.Equal(t, "/d/y.bin", entry["link"])
}

func TestFileLoggerWithFields(t *testing.T) {
	logger, logPath := newTestLogger(t, FormatJSON, InfoLevel)

	child := logger.WithFields(Fields{"operation_id": "run-1"})
	child.Info(context.Background(), "Starting dedup run", Fields{"dry_run": true})
	logger.Info(context.Background(), "Parent entry", nil)
	require.NoError(t, child.Close())

	lines := readLines(t, logPath)
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "run-1", entry["operation_id"])
	assert.Equal(t, true, entry["dry_run"])

	entry = nil
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.NotContains(t, entry, "operation_id")
}

func TestFileLoggerRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dirlink.log")
	logger, err := NewFileLogger(FileLoggerConfig{
		Path:       logPath,
		Format:     FormatJSON,
		Level:      InfoLevel,
		MaxSize:    200,
		MaxBackups: 2,
	})
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		logger.Info(context.Background(), "rotation test entry", Fields{"i": i})
	}
	require.NoError(t, logger.Close())

	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err)
	_, err = os.Stat(logPath + ".2")
	assert.NoError(t, err)
	_, err = os.Stat(logPath + ".3")
	assert.True(t, os.IsNotExist(err), "only MaxBackups backups are kept")
}

func TestFileLoggerConcurrentWrites(t *testing.T) {
	logger, logPath := newTestLogger(t, FormatJSON, InfoLevel)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				logger.Info(context.Background(), "concurrent", Fields{"worker": worker, "i": i})
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	lines := readLines(t, logPath)
	assert.Len(t, lines, 200)
	for _, line := range lines {
		var entry map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(line), &entry), line)
	}
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, InfoLevel, false)

	logger.Debug(context.Background(), "hidden", nil)
	logger.Warn(context.Background(), "Skipping unreadable entry", Fields{"path": "/t/locked"})
	require.NoError(t, logger.Close())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "path=/t/locked")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", Fields{"k": "v"})
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", fmt.Errorf("boom"), nil)

	assert.Same(t, logger, logger.WithFields(Fields{"k": "v"}))
	assert.NoError(t, logger.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", DebugLevel.String())
	assert.Equal(t, "info", InfoLevel.String())
	assert.Equal(t, "warn", WarnLevel.String())
	assert.Equal(t, "error", ErrorLevel.String())
	assert.Equal(t, "unknown", Level(42).String())
}
