// Package dto provides data transfer objects for the session HTTP layer.
package dto

import (
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/sessions/internal/identity/domain"
	sessionDomain "github.com/allisson/sessions/internal/session/domain"
)

// SessionResponse represents the API response for an issued session.
// The token is returned in the body as well as in the session cookie so
// non-browser clients can persist it themselves.
type SessionResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  IdentityResponse `json:"identity"`
}

// IdentityResponse represents the API response for an identity.
// It excludes the password hash and any other credential material.
type IdentityResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToSessionResponse converts a session and its identity to a SessionResponse DTO.
func ToSessionResponse(session *sessionDomain.Session, identity *identityDomain.Identity) SessionResponse {
	return SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Identity:  ToIdentityResponse(identity),
	}
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
