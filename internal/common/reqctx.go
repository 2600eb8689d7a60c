package common

import (
	"context"
)

type contextKey int

const (
	loggerKey contextKey = iota
	correlationKey
)

// WithRequestLogger stores a request-scoped logger and its correlation id in the context.
func WithRequestLogger(ctx context.Context, logger *Logger, correlationID string) context.Context {
	ctx = context.WithValue(ctx, loggerKey, logger)
	return context.WithValue(ctx, correlationKey, correlationID)
}

// LoggerFromContext returns the request-scoped logger, or fallback when none was attached.
func LoggerFromContext(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
		return l
	}
	return fallback
}

// CorrelationID returns the request correlation id, or "" outside a request.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}
