// Package ctxutil carries per-request identifiers through a context.
package ctxutil

import "context"

type requestInfoKey struct{}

type RequestInfo struct {
	TraceID   string
	RequestID string
}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}

// LogFields returns the identifiers as logger key/values; empty when ctx has none.
func LogFields(ctx context.Context) []any {
	info, ok := RequestInfoFrom(ctx)
	if !ok {
		return nil
	}
	var kv []any
	if info.TraceID != "" {
		kv = append(kv, "trace_id", info.TraceID)
	}
	if info.RequestID != "" {
		kv = append(kv, "request_id", info.RequestID)
	}
	return kv
}
