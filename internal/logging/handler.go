package logging

import (
	"context"
	"log/slog"
)

// FieldRunID identifies a single CLI invocation across console and file output.
const FieldRunID = "run_id"

// teeHandler writes each record to every sink that accepts its level and
// stamps the invocation's run id.
type teeHandler struct {
	sinks []slog.Handler
	runID string
}

func newTeeHandler(runID string, sinks ...slog.Handler) slog.Handler {
	var kept []slog.Handler
	for _, h := range sinks {
		if h != nil {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return nopHandler{}
	}
	return &teeHandler{sinks: kept, runID: runID}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range h.sinks {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.runID != "" {
		record.AddAttrs(slog.String(FieldRunID, h.runID))
	}
	var firstErr error
	for _, sink := range h.sinks {
		if !sink.Enabled(ctx, record.Level) {
			continue
		}
		if err := sink.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(sink slog.Handler) slog.Handler { return sink.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(sink slog.Handler) slog.Handler { return sink.WithGroup(name) })
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.sinks))
	for i, sink := range h.sinks {
		next[i] = fn(sink)
	}
	return &teeHandler{sinks: next, runID: h.runID}
}
