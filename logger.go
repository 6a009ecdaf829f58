package combine

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with combiner-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithBinding adds a binding field to the logger.
func (l *Logger) WithBinding(binding uint32) *Logger {
	return &Logger{
		Logger: l.Logger.With("binding", binding),
	}
}

// LogSpill logs a sorted run written to the spill file.
func (l *Logger) LogSpill(ctx context.Context, segment, docs int, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "spill failed",
			"segment", segment,
			"docs", docs,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "spill completed",
			"segment", segment,
			"docs", docs,
			"bytes", bytes,
		)
	}
}

// LogDrain logs one DrainWhile call.
func (l *Logger) LogDrain(ctx context.Context, emitted, reduced int, more bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "drain failed",
			"emitted", emitted,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "drain paused or completed",
			"emitted", emitted,
			"reduced", reduced,
			"more", more,
		)
	}
}
