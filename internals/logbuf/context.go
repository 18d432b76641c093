package logbuf

import "context"

type contextKey struct{}

// WithContext threads the request-scope logger through the request context so
// handlers can append breadcrumbs without plumbing the logger explicitly.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request-scope logger, or nil outside a request.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return nil
	}
	return logger
}
