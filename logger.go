package lexgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with lexgo-specific context.
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
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))}
}

// WithSegment adds a segment name field to the logger.
func (l *Logger) WithSegment(name string) *Logger {
	return &Logger{Logger: l.Logger.With("segment", name)}
}

// WithTerm adds a term field to the logger.
func (l *Logger) WithTerm(term string) *Logger {
	return &Logger{Logger: l.Logger.With("term", term)}
}

// LogIndexColumn logs a column indexing operation.
func (l *Logger) LogIndexColumn(ctx context.Context, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index column failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index column completed",
			"rows", rows,
		)
	}
}

// LogFlush logs a segment flush.
func (l *Logger) LogFlush(ctx context.Context, name string, docs uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"segment", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "segment flushed",
			"segment", name,
			"docs", docs,
		)
	}
}

// LogDelete logs a row deletion.
func (l *Logger) LogDelete(ctx context.Context, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"rows", rows,
		)
	}
}

// LogOpen logs index recovery from a blob store.
func (l *Logger) LogOpen(ctx context.Context, segments int, docs uint32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index opened",
			"segments", segments,
			"docs", docs,
		)
	}
}
