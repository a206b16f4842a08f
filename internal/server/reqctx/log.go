package reqctx

import (
	"context"
	"log/slog"
)

// NewLogHandler returns a slog.Handler that adds the request ID and client IP
// found in the context to every record before passing it to h.
func NewLogHandler(h slog.Handler) slog.Handler {
	return &logHandler{Handler: h}
}

type logHandler struct {
	slog.Handler
}

func (h *logHandler) Handle(ctx context.Context, r slog.Record) error {
	id := RequestID(ctx)
	ip := ClientIP(ctx)
	if !id.IsZero() || ip != "" {
		r = r.Clone()
		if !id.IsZero() {
			r.AddAttrs(slog.String("id", id.String()))
		}
		if ip != "" {
			r.AddAttrs(slog.String("ip", ip))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &logHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	return &logHandler{Handler: h.Handler.WithGroup(name)}
}
