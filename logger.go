package root

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with consistent field names for this module.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. If handler is nil, a
// text handler to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all output. It is the default
// in library paths.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	}))}
}

// WithColumn adds a column-id field to the logger.
func (l *Logger) WithColumn(id uint64) *Logger {
	return &Logger{Logger: l.Logger.With("column", id)}
}

// WithCluster adds a cluster-id field to the logger.
func (l *Logger) WithCluster(id uint64) *Logger {
	return &Logger{Logger: l.Logger.With("cluster", id)}
}
