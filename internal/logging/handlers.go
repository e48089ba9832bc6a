package logging

import (
	"context"
	"log/slog"
)

// MultiHandler fans records out to several handlers
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler creates a handler writing to every handler given
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Enabled reports whether any handler takes records at level
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes r to each enabled handler and stops at the first error
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}

// LevelFilter drops records below a minimum level
type LevelFilter struct {
	handler slog.Handler
	min     slog.Level
}

// NewLevelFilter wraps handler so it only sees records at min or above
func NewLevelFilter(handler slog.Handler, min slog.Level) *LevelFilter {
	return &LevelFilter{handler: handler, min: min}
}

func (f *LevelFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= f.min && f.handler.Enabled(ctx, level)
}

func (f *LevelFilter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < f.min {
		return nil
	}
	return f.handler.Handle(ctx, r)
}

func (f *LevelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelFilter{handler: f.handler.WithAttrs(attrs), min: f.min}
}

func (f *LevelFilter) WithGroup(name string) slog.Handler {
	return &LevelFilter{handler: f.handler.WithGroup(name), min: f.min}
}
