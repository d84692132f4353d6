package periq

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with periq-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogBuild logs tree construction.
func (l *Logger) LogBuild(ctx context.Context, numPoints, numNodes int) {
	l.DebugContext(ctx, "tree built",
		"points", numPoints,
		"nodes", numNodes,
	)
}

// LogQuery logs query creation.
func (l *Logger) LogQuery(ctx context.Context, mode QueryMode, numQueryPoints int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"mode", mode.String(),
			"query_points", numQueryPoints,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query created",
			"mode", mode.String(),
			"query_points", numQueryPoints,
		)
	}
}

// LogMaterialize logs bond-list materialization.
func (l *Logger) LogMaterialize(ctx context.Context, numBonds int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "materialization failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "neighbor list materialized",
			"bonds", numBonds,
		)
	}
}
