// Package domain defines the core session domain entities and types.
package domain

import (
	"time"
)

// SessionToken is an opaque, signed, time-bounded credential carrying a
// subject identifier. Tokens are immutable once issued; a new token is a new
// value, never mutated. Expiry is the only enforced termination: there is no
// server-side revocation list.
type SessionToken struct {
	// Value is the signed wire representation (header/claims/signature).
	Value     string
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is the caller-facing result of issuing a session.
type Session struct {
	Token     string
	ExpiresAt time.Time
}
