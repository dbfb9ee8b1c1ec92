// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated indicates the request carries no usable session credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTokenExpired indicates the session token expired; the caller should
	// authenticate again.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed indicates the session token failed structural decoding.
	// Treated as a potential forgery and logged at a higher severity than expiry.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrSignatureInvalid indicates the session token signature did not verify
	// against the configured signing key. Treated as a potential forgery.
	ErrSignatureInvalid = errors.New("token signature invalid")

	// ErrStoreUnavailable indicates the identity store is not reachable and
	// identity resolution cannot proceed. Protected routes fail closed with it.
	ErrStoreUnavailable = errors.New("identity store unavailable")

	// ErrLookupTimeout indicates an identity lookup exceeded its deadline.
	ErrLookupTimeout = errors.New("identity lookup timed out")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
