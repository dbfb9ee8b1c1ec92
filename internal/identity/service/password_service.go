// Package service provides identity-related services.
package service

import (
	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/sessions/internal/errors"
)

// PasswordService handles password hashing and verification.
type PasswordService interface {
	// HashPassword hashes a plain text password for storage.
	HashPassword(plainPassword string) (string, error)

	// ComparePassword checks a plain text password against a stored hash.
	ComparePassword(plainPassword string, hashedPassword string) bool
}

// passwordService implements PasswordService using Argon2id hashing.
type passwordService struct {
	hasher *pwdhash.PasswordHasher
}

// HashPassword hashes a plain text password using Argon2id.
func (s *passwordService) HashPassword(plainPassword string) (string, error) {
	hashed, err := s.hasher.Hash([]byte(plainPassword))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return hashed, nil
}

// ComparePassword checks a plain text password against a stored hash.
func (s *passwordService) ComparePassword(plainPassword string, hashedPassword string) bool {
	ok, err := s.hasher.Verify([]byte(plainPassword), hashedPassword)
	if err != nil {
		return false
	}
	return ok
}

// NewPasswordService creates a new PasswordService instance using Argon2id hashing.
// Uses the interactive policy, sized for login-path latency.
func NewPasswordService() PasswordService {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &passwordService{hasher: hasher}
}
