package logger

import (
	"context"
	"log/slog"
	"os"
)

// ContextExtractor extracts a slog attribute from context.
// Returning false omits the attribute for this record.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// New creates a JSON-formatted logger with optional context extractors.
func New(extractors ...ContextExtractor) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(NewExtractorHandler(h, extractors...))
}

// NewNope creates a no-op logger that discards all output.
// Use this as a default when logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ExtractorHandler wraps a slog.Handler and injects context-extracted
// attributes during logging. Extraction runs per log call so fresh
// request-scoped values are captured.
type ExtractorHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

// NewExtractorHandler creates a handler that decorates next with context
// extractors. Nil extractors are filtered out so misconfigured options
// cannot panic at log time.
func NewExtractorHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	clean := make([]ContextExtractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	return &ExtractorHandler{next: next, extractors: clean}
}

func (h *ExtractorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle extracts context attributes and delegates to the wrapped handler.
func (h *ExtractorHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *ExtractorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ExtractorHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *ExtractorHandler) WithGroup(name string) slog.Handler {
	return &ExtractorHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
