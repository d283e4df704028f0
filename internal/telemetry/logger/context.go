package logger

import (
	"context"
	"log/slog"
)

type (
	requestIDKey  struct{}
	editOriginKey struct{}
)

// Edit origins recorded on override edits and rebuilds.
const (
	OriginHTTP          = "http"
	OriginRegistryWatch = "registry_watch"
)

// WithRequestID tags ctx with the API request that caused the work.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithEditOrigin tags ctx with what started an edit or rebuild.
func WithEditOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, editOriginKey{}, origin)
}

// EditOriginFromContext returns the edit origin, or "".
func EditOriginFromContext(ctx context.Context) string {
	origin, _ := ctx.Value(editOriginKey{}).(string)
	return origin
}

// ContextAttrs returns the request_id and origin attributes set on ctx.
func ContextAttrs(ctx context.Context) []any {
	var attrs []any
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if origin := EditOriginFromContext(ctx); origin != "" {
		attrs = append(attrs, "origin", origin)
	}
	return attrs
}

// FromContext returns log carrying the attributes from ctx.
func FromContext(ctx context.Context, log *slog.Logger) *slog.Logger {
	attrs := ContextAttrs(ctx)
	if len(attrs) == 0 {
		return log
	}
	return log.With(attrs...)
}
