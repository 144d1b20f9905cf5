// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Diagnostics always go to stderr so they never mix with printed results
// on stdout. The package-level default logger is reconfigured with
// [Config], typically as command-line flags are parsed.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Logger provides a concurrency-safe simplified logging interface.
type Logger struct {
	*slog.Logger
	config
}

// Make creates a new [Logger] that writes to the specified writer.
// Optional configuration can be applied using functional options like
// [WithFormat], [WithLevel], and [WithPretty].
func Make(w io.Writer, opts ...Option) Logger {
	cfg := makeConfig(w, opts...)

	return Logger{
		config: cfg,
		Logger: slog.New(cfg.handler()),
	}
}

// Wrap returns a new [Logger] that wraps the current logger with the
// provided configuration options applied over the existing configuration.
func (l Logger) Wrap(opts ...Option) Logger {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	cfg := l.clone(opts...)

	return Logger{
		config: cfg,
		Logger: slog.New(cfg.handler()),
	}
}

// With returns a new [Logger] that includes the given attributes in each
// log message.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return l
	}

	l.mutex.RLock()
	cfg := l.clone()
	l.mutex.RUnlock()

	return Logger{
		config: cfg,
		Logger: slog.New(l.Logger.Handler().WithAttrs(attrs)),
	}
}

// Level returns the current minimum log level.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.level
}

func (l Logger) logContext(
	ctx context.Context,
	level Level,
	msg string,
	attrs ...slog.Attr,
) {
	if l.Logger == nil {
		return
	}

	l.Logger.LogAttrs(ctx, slog.Level(level), msg, attrs...)
}

// TraceContext logs a message at Trace level with the provided context.
func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelTrace, msg, attrs...)
}

// Trace logs a message at Trace level.
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.logContext(context.TODO(), LevelTrace, msg, attrs...)
}

// DebugContext logs a message at Debug level with the provided context.
func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelDebug, msg, attrs...)
}

// Debug logs a message at Debug level.
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.logContext(context.TODO(), LevelDebug, msg, attrs...)
}

// InfoContext logs a message at Info level with the provided context.
func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelInfo, msg, attrs...)
}

// Info logs a message at Info level.
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.logContext(context.TODO(), LevelInfo, msg, attrs...)
}

// WarnContext logs a message at Warn level with the provided context.
func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelWarn, msg, attrs...)
}

// Warn logs a message at Warn level.
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.logContext(context.TODO(), LevelWarn, msg, attrs...)
}

// ErrorContext logs a message at Error level with the provided context.
func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.logContext(ctx, LevelError, msg, attrs...)
}

// Error logs a message at Error level.
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.logContext(context.TODO(), LevelError, msg, attrs...)
}

//nolint:gochecknoglobals
var (
	defaultLogger   = Make(os.Stderr)
	defaultLoggerMu sync.RWMutex
)

// Default returns the package-level default logger.
func Default() Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()

	return defaultLogger
}

// Config reconfigures the package-level default logger.
func Config(opts ...Option) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()

	defaultLogger = defaultLogger.Wrap(opts...)
}

// Trace logs a message at Trace level using the default logger.
func Trace(msg string, attrs ...slog.Attr) { Default().Trace(msg, attrs...) }

// Debug logs a message at Debug level using the default logger.
func Debug(msg string, attrs ...slog.Attr) { Default().Debug(msg, attrs...) }

// Info logs a message at Info level using the default logger.
func Info(msg string, attrs ...slog.Attr) { Default().Info(msg, attrs...) }

// Warn logs a message at Warn level using the default logger.
func Warn(msg string, attrs ...slog.Attr) { Default().Warn(msg, attrs...) }

// Error logs a message at Error level using the default logger.
func Error(msg string, attrs ...slog.Attr) { Default().Error(msg, attrs...) }

// DebugContext logs a message at Debug level using the default logger.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().DebugContext(ctx, msg, attrs...)
}

// ErrorContext logs a message at Error level using the default logger.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().ErrorContext(ctx, msg, attrs...)
}
