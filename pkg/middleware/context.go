// Package middleware implements the uniform request-handling envelope for
// the diagnostic endpoints: correlation-id assignment, start/completion
// logging, timing, and error containment. Every diagnostic request passes
// through exactly one envelope.
package middleware

import (
	"context"
	"time"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// Context keys for values stored in the request context.
const (
	// RequestIDKey stores the request correlation id.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey stores the request start time.
	StartTimeKey contextKey = "start_time"
)

// GetRequestID extracts the correlation id from the context. Returns empty
// string if not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetStartTime extracts the request start time from the context. Returns
// zero time if not found.
func GetStartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return t
	}
	return time.Time{}
}
