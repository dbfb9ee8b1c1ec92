// Package service provides session token services.
package service

import (
	"time"

	sessionDomain "github.com/allisson/sessions/internal/session/domain"
)

// TokenCodec creates and verifies signed, expiring session tokens.
//
// Issuance and verification share a single clock source; verification applies
// no leeway window, matching the configured deployment assumption of
// synchronized clocks.
type TokenCodec interface {
	// Issue creates a signed session token for the subject with the given TTL.
	Issue(subjectID string, ttl time.Duration) (*sessionDomain.SessionToken, error)

	// Verify checks a raw token and returns its subject identifier.
	// Returns ErrTokenExpired once the current time passes the expiry,
	// ErrTokenMalformed when structural decoding fails, and
	// ErrSignatureInvalid when the signature does not verify.
	Verify(rawToken string) (string, error)
}
