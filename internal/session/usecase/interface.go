// Package usecase defines business logic interfaces for session operations.
package usecase

import (
	"context"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/sessions/internal/identity/domain"
	sessionDomain "github.com/allisson/sessions/internal/session/domain"
)

// CredentialVerifier checks an email/password pair against the identity store.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*identityDomain.Identity, error)
}

// IdentityFinder loads identities by ID during session resolution.
type IdentityFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.Identity, error)
}

// StoreHealth exposes the identity store availability as seen by the
// background supervisor. Resolution consults it instead of probing the store.
type StoreHealth interface {
	Available() bool
}

// LoginInput carries the credentials for a login request.
type LoginInput struct {
	Email    string
	Password string
}

// UseCase defines business logic operations for session management.
type UseCase interface {
	// Login verifies credentials and issues a session for the identity.
	// Returns ErrInvalidCredentials (wrapping ErrUnauthenticated) on mismatch.
	Login(ctx context.Context, input LoginInput) (*sessionDomain.Session, *identityDomain.Identity, error)

	// Issue creates a session for an already-authenticated subject.
	Issue(subjectID string) (*sessionDomain.Session, error)

	// Resolve verifies a raw token and loads the identity it names.
	// Token failures surface as ErrTokenExpired, ErrTokenMalformed or
	// ErrSignatureInvalid. A valid token with no backing identity returns
	// ErrUnauthenticated. Store unavailability returns ErrStoreUnavailable
	// without touching the store, and a lookup that exceeds its deadline
	// returns ErrLookupTimeout.
	Resolve(ctx context.Context, rawToken string) (*identityDomain.Identity, error)
}
