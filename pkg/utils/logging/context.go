package logging

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/octoexec/pkg/domain/types"
)

type ctxLoggerKey struct{}

// With returns a new context with logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns logger from context. If logger is not set, return default logger
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

type ctxRequestIDKey struct{}

// WithRequestID returns a new context carrying the ID of the inbound request.
func WithRequestID(ctx context.Context, id types.RequestID) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey{}, id)
}

// RequestID returns the request ID of ctx, or an empty ID outside a request.
func RequestID(ctx context.Context) types.RequestID {
	if id, ok := ctx.Value(ctxRequestIDKey{}).(types.RequestID); ok {
		return id
	}
	return ""
}

// DetachContext returns a context that is not canceled with ctx but keeps its logger and
// request ID. Background work started from an HTTP handler runs on it.
func DetachContext(ctx context.Context) context.Context {
	bgCtx := With(context.Background(), From(ctx))
	if id := RequestID(ctx); id != "" {
		bgCtx = WithRequestID(bgCtx, id)
	}
	return bgCtx
}
