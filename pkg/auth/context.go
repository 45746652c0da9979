// Package auth provides cookie sessions, shared-secret checks and the
// context helpers that carry the logged-in user to handlers.
package auth

import (
	"context"
)

type contextKey int

const userIDKey contextKey = iota

// WithUserID returns a context carrying the logged-in user's id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext returns the logged-in user's id, or nil for an
// anonymous request.
func GetUserIDFromContext(ctx context.Context) *int64 {
	id, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return nil
	}
	return &id
}
