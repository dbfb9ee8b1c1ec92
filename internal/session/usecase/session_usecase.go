// Package usecase implements business logic for session operations.
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/sessions/internal/errors"
	identityDomain "github.com/allisson/sessions/internal/identity/domain"
	"github.com/allisson/sessions/internal/metrics"
	sessionDomain "github.com/allisson/sessions/internal/session/domain"
	sessionService "github.com/allisson/sessions/internal/session/service"
)

// SessionUseCase handles session issuance and resolution.
type SessionUseCase struct {
	codec          sessionService.TokenCodec
	verifier       CredentialVerifier
	finder         IdentityFinder
	storeHealth    StoreHealth
	sessionMetrics metrics.SessionMetrics
	tokenTTL       time.Duration
	lookupTimeout  time.Duration
}

// NewSessionUseCase creates a new SessionUseCase.
func NewSessionUseCase(
	codec sessionService.TokenCodec,
	verifier CredentialVerifier,
	finder IdentityFinder,
	storeHealth StoreHealth,
	sessionMetrics metrics.SessionMetrics,
	tokenTTL time.Duration,
	lookupTimeout time.Duration,
) *SessionUseCase {
	return &SessionUseCase{
		codec:          codec,
		verifier:       verifier,
		finder:         finder,
		storeHealth:    storeHealth,
		sessionMetrics: sessionMetrics,
		tokenTTL:       tokenTTL,
		lookupTimeout:  lookupTimeout,
	}
}

// Login verifies credentials and issues a session for the identity.
func (uc *SessionUseCase) Login(
	ctx context.Context,
	input LoginInput,
) (*sessionDomain.Session, *identityDomain.Identity, error) {
	if !uc.storeHealth.Available() {
		return nil, nil, apperrors.ErrStoreUnavailable
	}

	identity, err := uc.verifier.VerifyCredentials(ctx, input.Email, input.Password)
	if err != nil {
		return nil, nil, err
	}

	session, err := uc.Issue(identity.ID.String())
	if err != nil {
		return nil, nil, err
	}
	return session, identity, nil
}

// Issue creates a session for an already-authenticated subject.
func (uc *SessionUseCase) Issue(subjectID string) (*sessionDomain.Session, error) {
	token, err := uc.codec.Issue(subjectID, uc.tokenTTL)
	if err != nil {
		uc.sessionMetrics.RecordIssuance(context.Background(), "error")
		return nil, err
	}

	uc.sessionMetrics.RecordIssuance(context.Background(), "success")
	return &sessionDomain.Session{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// Resolve verifies a raw token and loads the identity it names. Verification
// is pure and happens before any store access; an expired or forged token
// never costs a database roundtrip.
func (uc *SessionUseCase) Resolve(ctx context.Context, rawToken string) (*identityDomain.Identity, error) {
	start := time.Now()

	identity, err := uc.resolve(ctx, rawToken)
	outcome := verificationOutcome(err)
	uc.sessionMetrics.RecordVerification(ctx, outcome)
	uc.sessionMetrics.RecordVerificationDuration(ctx, time.Since(start), outcome)

	return identity, err
}

func (uc *SessionUseCase) resolve(ctx context.Context, rawToken string) (*identityDomain.Identity, error) {
	subjectID, err := uc.codec.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTokenMalformed, "subject is not a valid identifier")
	}

	if !uc.storeHealth.Available() {
		return nil, apperrors.ErrStoreUnavailable
	}

	lookupCtx, cancel := context.WithTimeout(ctx, uc.lookupTimeout)
	defer cancel()

	identity, err := uc.finder.FindByID(lookupCtx, id)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, apperrors.Wrap(apperrors.ErrLookupTimeout, "identity lookup deadline exceeded")
		case apperrors.Is(err, apperrors.ErrNotFound):
			// The subject no longer exists; the token is cryptographically
			// valid but names nobody.
			return nil, apperrors.Wrap(apperrors.ErrUnauthenticated, "unknown subject")
		default:
			return nil, err
		}
	}

	return identity, nil
}

// verificationOutcome maps a resolution error to a metrics outcome label.
func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.Is(err, apperrors.ErrTokenExpired):
		return "token_expired"
	case apperrors.Is(err, apperrors.ErrTokenMalformed):
		return "token_malformed"
	case apperrors.Is(err, apperrors.ErrSignatureInvalid):
		return "signature_invalid"
	case apperrors.Is(err, apperrors.ErrStoreUnavailable):
		return "store_unavailable"
	case apperrors.Is(err, apperrors.ErrLookupTimeout):
		return "lookup_timeout"
	case apperrors.Is(err, apperrors.ErrUnauthenticated):
		return "unknown_subject"
	default:
		return "error"
	}
}
