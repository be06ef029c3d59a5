package auth

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// WithUser returns a context carrying the authenticated user id.
func WithUser(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID extracts the authenticated user id from ctx. ok is false for
// anonymous requests.
func UserID(ctx context.Context) (id uuid.UUID, ok bool) {
	id, ok = ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok
}
