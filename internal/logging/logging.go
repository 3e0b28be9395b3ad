// Package logging provides the structured logger used by textio readers,
// writers and the textconv command.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents different logging levels
type LogLevel int

// Supported logging levels.
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// slogLevel maps a LogLevel onto slog.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger provides structured logging for text streams.
// The zero value and a nil *Logger discard everything.
type Logger struct {
	logger *slog.Logger
}

// LogConfig holds configuration for NewLogger.
type LogConfig struct {
	// Level sets the minimum log level (debug, info, warn, error)
	Level LogLevel
	// EnableCallerInfo includes file and line number in logs
	EnableCallerInfo bool
	// JSON selects the JSON handler instead of the text handler
	JSON bool
	// Output receives log records; defaults to os.Stderr
	Output io.Writer
}

// DefaultLogConfig returns a default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: LogLevelInfo}
}

// NewLogger creates a new structured logger with the given configuration.
func NewLogger(config LogConfig) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.EnableCallerInfo,
	}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &Logger{logger: slog.New(handler)}
}

// NewNopLogger creates a no-op logger that discards all log messages.
func NewNopLogger() *Logger {
	return &Logger{}
}

// FromSlog wraps an existing slog.Logger. A nil logger yields a no-op Logger.
func FromSlog(l *slog.Logger) *Logger {
	return &Logger{logger: l}
}

// Slog returns the underlying slog.Logger, or nil for a no-op Logger.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return nil
	}
	return l.logger
}

// Enabled reports whether a record at level would be emitted.
func (l *Logger) Enabled(ctx context.Context, level LogLevel) bool {
	return l != nil && l.logger != nil && l.logger.Enabled(ctx, level.slogLevel())
}

// Debug logs debug-level messages
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.DebugContext(ctx, msg, args...)
	}
}

// Info logs info-level messages
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.InfoContext(ctx, msg, args...)
	}
}

// Warn logs warning-level messages
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.WarnContext(ctx, msg, args...)
	}
}

// Error logs error-level messages
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l != nil && l.logger != nil {
		l.logger.ErrorContext(ctx, msg, args...)
	}
}

// With returns a logger with additional context fields.
// A no-op logger returns itself.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.logger == nil {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithOperation returns a logger with operation context
func (l *Logger) WithOperation(operation string) *Logger {
	return l.With("operation", operation)
}

// Source identifies how a stream's encoding was chosen.
type Source string

// Encoding sources.
const (
	SourcePreamble Source = "preamble"
	SourceBOM      Source = "bom"
	SourceSniffed  Source = "sniffed"
)

// LogEncodingDetected logs the encoding a reader settled on.
func LogEncodingDetected(ctx context.Context, logger *Logger, encoding string, source Source, bomSize int) {
	if logger == nil {
		return
	}

	logger.Debug(ctx, "text encoding detected",
		"encoding", encoding,
		"source", string(source),
		"bom_size", bomSize)
}

// LogFlush logs a writer flush. Failed flushes are logged at warn level.
func LogFlush(ctx context.Context, logger *Logger, final bool, bytes int, err error) {
	if logger == nil {
		return
	}

	fields := []any{
		"final", final,
		"bytes", bytes,
	}
	if err != nil {
		fields = append(fields, "error", err.Error())
		logger.Warn(ctx, "text flush failed", fields...)
		return
	}
	logger.Debug(ctx, "text flushed", fields...)
}

// ParseLogLevel parses a string log level into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}
