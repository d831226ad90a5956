package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger writes leveled lines with key=value fields. A nil Logger drops
// everything.
type Logger struct {
	out  *slog.Logger
	file *os.File
}

// Field is a key=value pair appended to a log line.
type Field = slog.Attr

// F creates a Field.
func F(key string, value any) Field {
	return slog.Any(key, value)
}

// New logs text lines to w.
func New(w io.Writer) *Logger {
	return &Logger{out: slog.New(slog.NewTextHandler(w, nil))}
}

// Discard drops everything.
func Discard() *Logger {
	return New(io.Discard)
}

// OpenFile appends to the log file at path, creating its directory.
func OpenFile(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger := New(file)
	logger.file = file
	return logger, nil
}

// Close releases the underlying file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.log(slog.LevelInfo, msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(slog.LevelWarn, msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.log(slog.LevelError, msg, fields)
}

func (l *Logger) log(level slog.Level, msg string, fields []Field) {
	if l == nil || l.out == nil {
		return
	}
	l.out.LogAttrs(context.Background(), level, msg, fields...)
}
