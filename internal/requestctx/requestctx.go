// Package requestctx threads the request id through context so services
// and stores can stamp audit entries without depending on net/http.
package requestctx

import "context"

type contextKey int

const requestIDKey contextKey = iota

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request id, or "" when none was attached.
func GetRequestID(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}
