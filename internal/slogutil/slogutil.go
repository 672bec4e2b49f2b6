package slogutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"blemap/internal/config"
	"blemap/internal/paths"
)

// silent is above every standard level.
const silent = slog.Level(100)

// NewLogger creates a logger using the line handler.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a logger emitting one JSON object per record.
func NewJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewFileLogger creates a logger that appends to path, creating its
// directory when needed.
func NewFileLogger(path string, level slog.Level) (*slog.Logger, *os.File, error) {
	if err := paths.EnsureParentDir(path); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(f, level), f, nil
}

// NewDiscardLogger creates a logger that discards all output.
func NewDiscardLogger() *slog.Logger {
	return slog.New(NewHandler(io.Discard, &slog.HandlerOptions{Level: silent}))
}

// nopCloser is returned when no log file was opened.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewRunLogger builds the logger for a single run from the logging section.
// Records go to console, as JSON when cfg.Format is "json"; when cfg.File is
// set they are also appended to that file in line format. cliLevel overrides
// cfg.Level when non-empty.
func NewRunLogger(cfg config.LoggingConfig, console io.Writer, cliLevel string) (*slog.Logger, io.Closer, error) {
	if console == nil {
		console = os.Stderr
	}
	levelName := cfg.Level
	if cliLevel != "" {
		levelName = cliLevel
	}
	level := LevelFromString(levelName)

	logger := NewLogger(console, level)
	if cfg.Format == "json" {
		logger = NewJSONLogger(console, level)
	}
	if cfg.File == "" {
		return logger, nopCloser{}, nil
	}

	fileLogger, f, err := NewFileLogger(cfg.File, level)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(NewTeeHandler(logger.Handler(), fileLogger.Handler())), f, nil
}

// LevelFromString converts a string to a slog.Level.
// Supports: debug, info, warn, error (case-insensitive).
// Returns slog.LevelInfo for unrecognized strings.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TeeHandler writes logs to multiple handlers.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler creates a handler that writes to all provided handlers.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

// Enabled returns true if any handler is enabled for the level.
func (t *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to all handlers.
func (t *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// WithAttrs returns a new TeeHandler with attributes added to all handlers.
func (t *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: next}
}

// WithGroup returns a new TeeHandler with the group added to all handlers.
func (t *TeeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &TeeHandler{handlers: next}
}
