// Package slogutil provides the slog handler and logger construction used by blemap.
package slogutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Handler writes one line per record:
//
//	TIMESTAMP [level] Message | key=value key="quoted value"
//
// Group attributes are flattened to dotted keys and string lists are
// written comma-separated, so report records stay on a single line.
type Handler struct {
	w      io.Writer
	level  slog.Leveler
	prefix string
	attrs  []byte
	mu     *sync.Mutex
}

// NewHandler creates a line handler writing to w.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &Handler{w: w, level: level, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		buf.WriteString(r.Time.UTC().Format(time.RFC3339))
		buf.WriteByte(' ')
	}
	buf.WriteByte('[')
	buf.WriteString(levelString(r.Level))
	buf.WriteString("] ")
	buf.WriteString(r.Message)

	var attrs bytes.Buffer
	attrs.Write(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&attrs, h.prefix, a)
		return true
	})
	if attrs.Len() > 0 {
		buf.WriteString(" |")
		buf.Write(attrs.Bytes())
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a handler that writes attrs on every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var buf bytes.Buffer
	buf.Write(h.attrs)
	for _, a := range attrs {
		appendAttr(&buf, h.prefix, a)
	}
	next := *h
	next.attrs = buf.Bytes()
	return &next
}

// WithGroup returns a handler whose subsequent keys are prefixed with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendAttr writes " key=value" for a, flattening groups.
func appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		// Inline groups (empty key) keep the current prefix.
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(buf, prefix, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(quote(formatValue(a.Value)))
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case []string:
			return strings.Join(x, ",")
		case fmt.Stringer:
			return x.String()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

// quote quotes values that would otherwise not read back as one token.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"=|") {
		return strconv.Quote(s)
	}
	return s
}
