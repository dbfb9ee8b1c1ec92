// Package usecase defines business logic interfaces for identity operations.
package usecase

import (
	"context"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/sessions/internal/identity/domain"
)

// IdentityRepository defines persistence operations for identity records.
// Implementations must support transaction-aware operations via context propagation.
type IdentityRepository interface {
	// Create stores a new identity in the repository.
	Create(ctx context.Context, identity *identityDomain.Identity) error

	// FindByID retrieves an identity by ID. Returns ErrIdentityNotFound if not found.
	FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.Identity, error)

	// FindByEmail retrieves an identity by email. Returns ErrIdentityNotFound if not found.
	FindByEmail(ctx context.Context, email string) (*identityDomain.Identity, error)

	// Save updates an existing identity in the repository.
	Save(ctx context.Context, identity *identityDomain.Identity) error
}

// RegisterIdentityInput carries the fields needed to register a new identity.
type RegisterIdentityInput struct {
	Name     string
	Email    string
	Password string
}

// UseCase defines business logic operations for identity management and
// credential verification.
type UseCase interface {
	// Register creates a new identity with a hashed password.
	// Returns ErrIdentityAlreadyExists when the email is already taken.
	Register(ctx context.Context, input RegisterIdentityInput) (*identityDomain.Identity, error)

	// Get retrieves an identity by ID.
	Get(ctx context.Context, id uuid.UUID) (*identityDomain.Identity, error)

	// VerifyCredentials checks an email/password pair and returns the matching
	// identity. Returns ErrInvalidCredentials on any mismatch; callers cannot
	// tell a wrong password from an unknown email.
	VerifyCredentials(ctx context.Context, email, password string) (*identityDomain.Identity, error)
}
