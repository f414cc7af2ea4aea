// Package logging builds the session logger. Records go to the on-screen
// log pane and, optionally, to a JSON file.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sink receives formatted log lines. The trace log pane implements it.
type Sink interface {
	Add(kind, msg string)
}

// Kind names used for log entries.
const (
	KindError = "error"
	KindWarn  = "warn"
	KindInfo  = "info"
	KindDebug = "debug"
	KindTrace = "trace"
)

// KindForLevel maps a slog level onto a log entry kind.
func KindForLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return KindError
	case level >= slog.LevelWarn:
		return KindWarn
	case level >= slog.LevelInfo:
		return KindInfo
	default:
		return KindDebug
	}
}

// SinkHandler is a slog.Handler that writes each record to a Sink as one
// line, "message (key=value, ...)". Records below the level are dropped.
type SinkHandler struct {
	level  slog.Leveler
	sink   Sink
	attrs  []slog.Attr
	prefix string
}

// NewSinkHandler creates a handler for sink at level.
func NewSinkHandler(sink Sink, level slog.Leveler) *SinkHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &SinkHandler{level: level, sink: sink}
}

func (h *SinkHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *SinkHandler) Handle(_ context.Context, record slog.Record) error {
	h.sink.Add(KindForLevel(record.Level), h.summary(record))
	return nil
}

func (h *SinkHandler) summary(record slog.Record) string {
	var parts []string
	for _, attr := range h.attrs {
		parts = appendAttr(parts, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = appendAttr(parts, h.prefix, attr)
		return true
	})
	if len(parts) == 0 {
		return record.Message
	}
	return fmt.Sprintf("%s (%s)", record.Message, strings.Join(parts, ", "))
}

func appendAttr(parts []string, prefix string, attr slog.Attr) []string {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return parts
	}
	if attr.Value.Kind() == slog.KindGroup {
		group := prefix
		if attr.Key != "" {
			group += attr.Key + "."
		}
		for _, a := range attr.Value.Group() {
			parts = appendAttr(parts, group, a)
		}
		return parts
	}
	return append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
}

func (h *SinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := h.clone()
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		out.attrs = append(out.attrs, a)
	}
	return out
}

func (h *SinkHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	out := h.clone()
	out.prefix += name + "."
	return out
}

func (h *SinkHandler) clone() *SinkHandler {
	return &SinkHandler{
		level:  h.level,
		sink:   h.sink,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		prefix: h.prefix,
	}
}
