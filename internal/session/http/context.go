// Package http provides HTTP middleware and handlers for session operations.
package http

import (
	"context"

	identityDomain "github.com/allisson/sessions/internal/identity/domain"
)

// identityKey is a context key type for storing authenticated identities.
type identityKey struct{}

// WithIdentity stores an authenticated identity in the context.
// This is called by the session middleware after successful token resolution.
func WithIdentity(ctx context.Context, identity *identityDomain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentity retrieves an authenticated identity from the context.
// Returns (identity, true) if present, or (nil, false) if no identity was set.
func GetIdentity(ctx context.Context) (*identityDomain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*identityDomain.Identity)
	return identity, ok
}
