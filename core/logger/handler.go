package logger

import (
	"context"
	"io"
	"log/slog"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

// contextHandler decorates a stock slog handler with the correlation fields
// carried in context (rid, update/user/chat ids, handler name).
type contextHandler struct {
	inner        slog.Handler
	hasComponent bool
}

func newContextHandler(format logFormat, w io.Writer, level slog.Leveler) *contextHandler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}
	var inner slog.Handler
	if format == formatKV {
		inner = slog.NewTextHandler(w, opts)
	} else {
		inner = slog.NewJSONHandler(w, opts)
	}
	return &contextHandler{inner: inner}
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("ts", a.Value.Time().UTC().Format(timeFormatMillis))
	case slog.MessageKey:
		if a.Value.String() == "" {
			return slog.Attr{}
		}
	case "duration":
		if a.Value.Kind() == slog.KindDuration {
			return slog.Int64("duration_ms", RoundMS(a.Value.Duration()).Milliseconds())
		}
	}
	return a
}

// Enabled reports whether the handler allows processing the provided level.
func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enriches the record with context metadata and forwards it.
func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	seen := make(map[string]bool, 8)
	r.Attrs(func(a slog.Attr) bool {
		seen[a.Key] = true
		return true
	})

	extra := make([]slog.Attr, 0, 6)
	if !seen["component"] && !h.hasComponent {
		extra = append(extra, slog.String("component", "app"))
	}
	if !seen["event"] && r.Message != "" {
		extra = append(extra, slog.String("event", r.Message))
	}
	if rid := RIDFrom(ctx); rid != "" && !seen["rid"] {
		extra = append(extra, slog.String("rid", CompactRID(rid)))
	}
	if id := UpdateIDFrom(ctx); id != 0 && !seen["update_id"] {
		extra = append(extra, slog.Int("update_id", id))
	}
	if id := UserIDFrom(ctx); id != 0 && !seen["user_id"] {
		extra = append(extra, slog.Int64("user_id", id))
	}
	if id := ChatIDFrom(ctx); id != 0 && !seen["chat_id"] {
		extra = append(extra, slog.Int64("chat_id", id))
	}
	if hn := HandlerFrom(ctx); hn != "" && !seen["handler"] {
		extra = append(extra, slog.String("handler", hn))
	}
	if len(extra) > 0 {
		r = r.Clone()
		r.AddAttrs(extra...)
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a copy of the handler enriched with attrs.
func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &contextHandler{inner: h.inner.WithAttrs(attrs), hasComponent: h.hasComponent}
	for _, a := range attrs {
		if a.Key == "component" {
			clone.hasComponent = true
		}
	}
	return clone
}

// WithGroup returns a copy of the handler with an additional group prefix.
func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{inner: h.inner.WithGroup(name), hasComponent: h.hasComponent}
}
