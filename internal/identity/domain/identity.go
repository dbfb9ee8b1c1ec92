// Package domain defines the core identity domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/sessions/internal/errors"
)

// Identity represents a user identity in the system. It is the minimal
// record needed to verify who a session token belongs to.
type Identity struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for identity operations.
var (
	// ErrIdentityNotFound indicates the requested identity does not exist.
	ErrIdentityNotFound = errors.Wrap(errors.ErrNotFound, "identity not found")

	// ErrIdentityAlreadyExists indicates an identity with the same email already exists.
	ErrIdentityAlreadyExists = errors.Wrap(errors.ErrConflict, "identity already exists")

	// ErrInvalidCredentials indicates the email/password pair did not verify.
	// Deliberately mapped to the unauthenticated sentinel so callers cannot
	// distinguish a wrong password from an unknown email.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthenticated, "invalid credentials")
)
