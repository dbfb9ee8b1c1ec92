// Package dto provides data transfer objects for the identity HTTP layer.
package dto

import (
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/sessions/internal/identity/domain"
	sessionDomain "github.com/allisson/sessions/internal/session/domain"
)

// IdentityResponse represents the API response for an identity.
// It excludes the password hash.
type IdentityResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterResponse represents the API response for a successful registration.
// It includes the first session token so signup doubles as a login.
type RegisterResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  IdentityResponse `json:"identity"`
}

// ToIdentityResponse converts a domain Identity to an IdentityResponse DTO.
func ToIdentityResponse(identity *identityDomain.Identity) IdentityResponse {
	return IdentityResponse{
		ID:        identity.ID,
		Name:      identity.Name,
		Email:     identity.Email,
		CreatedAt: identity.CreatedAt,
		UpdatedAt: identity.UpdatedAt,
	}
}

// ToRegisterResponse converts a new session and its identity to a RegisterResponse DTO.
func ToRegisterResponse(session *sessionDomain.Session, identity *identityDomain.Identity) RegisterResponse {
	return RegisterResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Identity:  ToIdentityResponse(identity),
	}
}
