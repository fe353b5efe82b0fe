package middleware

import (
	"context"

	"devicetrail/internal/scope"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the caller identity.
// Handlers and the scope provider read it via GetIdentity.
func WithIdentity(ctx context.Context, id scope.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the caller identity from context and true if set.
func GetIdentity(ctx context.Context) (scope.Identity, bool) {
	v, ok := ctx.Value(identityKey).(scope.Identity)
	return v, ok
}
