package gisdb

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with gisdb-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(1000), // Unreachable level
		})),
	}
}

// WithSource tags the logger with the name of a backing store or import file.
func (l *Logger) WithSource(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", name),
	}
}

// WithOffset adds a backing-store offset field to the logger.
func (l *Logger) WithOffset(off int64) *Logger {
	return &Logger{
		Logger: l.Logger.With("offset", off),
	}
}

// LogImport logs the outcome of an import pass.
func (l *Logger) LogImport(ctx context.Context, source string, imported, longestProbe int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "import failed",
			"source", source,
			"imported", imported,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "import completed",
		"source", source,
		"imported", imported,
		"longest_probe", longestProbe,
	)
}

// LogQuery logs a query against one of the indexes.
func (l *Logger) LogQuery(ctx context.Context, kind QueryKind, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"kind", kind.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"kind", kind.String(),
		"results", results,
	)
}

// LogCacheMiss logs a read-through from the backing store.
func (l *Logger) LogCacheMiss(ctx context.Context, off int64, err error) {
	if err != nil {
		l.WarnContext(ctx, "record unavailable",
			"offset", off,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "cache miss", "offset", off)
}

// LogMalformed logs a skipped input line.
func (l *Logger) LogMalformed(ctx context.Context, line int, reason error) {
	l.WarnContext(ctx, "skipping malformed line",
		"line", line,
		"reason", reason,
	)
}
