package context

import (
	"context"
)

// TraceContext carries the request correlation ids the HTTP layer
// resolves from inbound headers. Every ledger mutation logs them, so a
// posted entry or a period transition can be traced back to the request
// that caused it.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace attaches the trace context for downstream logging.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the trace context, or nil outside a traced request
// (migrations, tests).
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}
