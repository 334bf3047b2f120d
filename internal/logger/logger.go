// Package logger provides structured logging built on slog.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level aliases slog.Level for callers that configure verbosity.
type Level = slog.Level

const (
	LevelDebug Level = slog.LevelDebug
	LevelInfo  Level = slog.LevelInfo
	LevelWarn  Level = slog.LevelWarn
	LevelError Level = slog.LevelError
)

// LoggerInterface is the logging contract used across the application.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

// Logger wraps slog.Logger implementing LoggerInterface.
type Logger struct {
	l *slog.Logger
}

// New creates a JSON logger writing to w at the given level.
// The service name is attached to every record.
func New(w io.Writer, level Level, service string, attrs []slog.Attr) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	l := slog.New(handler)
	if service != "" {
		l = l.With("service", service)
	}
	for _, a := range attrs {
		l = l.With(a)
	}

	return &Logger{l: l}
}

func (lg *Logger) Debug(ctx context.Context, msg string, args ...any) {
	lg.l.DebugContext(ctx, msg, args...)
}

func (lg *Logger) Info(ctx context.Context, msg string, args ...any) {
	lg.l.InfoContext(ctx, msg, args...)
}

func (lg *Logger) Warn(ctx context.Context, msg string, args ...any) {
	lg.l.WarnContext(ctx, msg, args...)
}

func (lg *Logger) Error(ctx context.Context, msg string, args ...any) {
	lg.l.ErrorContext(ctx, msg, args...)
}

// With returns a logger with the given attributes attached.
func (lg *Logger) With(args ...any) LoggerInterface {
	return &Logger{l: lg.l.With(args...)}
}
