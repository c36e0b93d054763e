package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the application logger. It keeps the Info/Warn/Error/Debug
// call style used across the service and writes structured records.
type Logger struct {
	*slog.Logger
}

// Options controls how NewLoggerWithOptions builds the handler.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// NewLogger creates a new Logger writing text records to stdout at info level.
func NewLogger() *Logger {
	return NewLoggerWithOptions(Options{})
}

// NewLoggerWithOptions creates a Logger from the log section of the config.
func NewLoggerWithOptions(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a Logger that drops everything. Handy in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// With returns a Logger that adds the given attributes to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
