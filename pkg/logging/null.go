package logging

import "context"

// NullLogger drops every record. The CLI uses it when neither --log-file
// nor --verbose is given, and components fall back to it when constructed
// with a nil Logger.
type NullLogger struct{}

// NewNullLogger returns a logger that records nothing
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(ctx context.Context, msg string, fields Fields) {}

func (l *NullLogger) Info(ctx context.Context, msg string, fields Fields) {}

func (l *NullLogger) Warn(ctx context.Context, msg string, fields Fields) {}

func (l *NullLogger) Error(ctx context.Context, msg string, err error, fields Fields) {}

// WithFields ignores the fields; there is nothing to attach them to
func (l *NullLogger) WithFields(fields Fields) Logger {
	return l
}

// Close has no file to release
func (l *NullLogger) Close() error {
	return nil
}
