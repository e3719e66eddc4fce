package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// consoleTimeFormat is used by text output
const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FileLoggerConfig holds configuration for file logging
type FileLoggerConfig struct {
	// Path is the log file path
	Path string
	// Format is the output format (json or text)
	Format Format
	// Level is the minimum log level
	Level Level
	// MaxSize is the maximum size in bytes before rotation (0 = no rotation)
	MaxSize int64
	// MaxBackups is the maximum number of backup files to keep
	MaxBackups int
}

// ZeroLogger implements Logger on top of zerolog
type ZeroLogger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// NewFileLogger creates a logger writing to a size-rotated file
func NewFileLogger(config FileLoggerConfig) (*ZeroLogger, error) {
	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w, err := newRotatingWriter(config.Path, config.MaxSize, config.MaxBackups)
	if err != nil {
		return nil, err
	}

	var out io.Writer = w
	if config.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: consoleTimeFormat}
	}

	return &ZeroLogger{
		zl:     zerolog.New(out).Level(config.Level.zerologLevel()).With().Timestamp().Logger(),
		closer: w,
	}, nil
}

// NewConsoleLogger creates a human-readable logger, typically on stderr
func NewConsoleLogger(w io.Writer, level Level, color bool) *ZeroLogger {
	out := zerolog.ConsoleWriter{Out: w, NoColor: !color, TimeFormat: "15:04:05"}
	return &ZeroLogger{
		zl: zerolog.New(out).Level(level.zerologLevel()).With().Timestamp().Logger(),
	}
}

// Debug logs a debug message
func (l *ZeroLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.zl.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Info logs an info message
func (l *ZeroLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.zl.Info().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Warn logs a warning message
func (l *ZeroLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.zl.Warn().Fields(map[string]interface{}(fields)).Msg(msg)
}

// Error logs an error message
func (l *ZeroLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.zl.Error().Err(err).Fields(map[string]interface{}(fields)).Msg(msg)
}

// WithFields returns a logger with additional fields. The returned logger
// shares the underlying writer; closing either closes both.
func (l *ZeroLogger) WithFields(fields Fields) Logger {
	return &ZeroLogger{
		zl:     l.zl.With().Fields(map[string]interface{}(fields)).Logger(),
		closer: l.closer,
	}
}

// Close flushes and closes the log file, if any
func (l *ZeroLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
