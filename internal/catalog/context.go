// internal/catalog/context.go
package catalog

import "context"

type contextKey int

const requestIDKey contextKey = iota

const metadataRequestID = "request_id"

// WithRequestID returns a context carrying the id of the request that caused
// a mutation. Journaled events store it in their metadata.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}
