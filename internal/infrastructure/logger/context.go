package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey keeps this package's context values from colliding with others
type contextKey string

const (
	// LoggerKey carries the request-scoped logger
	LoggerKey contextKey = "logger"
	// RequestIDKey carries the correlation id assigned by the HTTP layer
	RequestIDKey contextKey = "request_id"
	// BackendKey is the context key for the marketplace backend name
	BackendKey contextKey = "backend"
)

// WithContext attaches the logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if
// not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the correlation id and returns a logger that tags
// every entry with it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enrichedLogger := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// WithBackend adds the marketplace backend name to context and returns an
// enriched logger; sync pipeline logs carry the backend on every line.
func WithBackend(ctx context.Context, logger *zap.Logger, backend string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, BackendKey, backend)
	enrichedLogger := logger.With(zap.String("backend", backend))
	return WithContext(ctx, enrichedLogger), enrichedLogger
}

// GetRequestID returns the correlation id, or empty when none was set
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetBackend retrieves the backend name from context
func GetBackend(ctx context.Context) string {
	if backend, ok := ctx.Value(BackendKey).(string); ok {
		return backend
	}
	return ""
}
