package core

import "context"

// Context keys for run options
type contextKey string

const suppressHeaderKey contextKey = "suppressHeader"

// withSuppressHeader sets whether headers should be suppressed in the context
func withSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}
