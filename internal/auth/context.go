package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// UserFromContext returns the authenticated user id placed by the gate.
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userContextKey).(uuid.UUID)
	return userID, ok
}
