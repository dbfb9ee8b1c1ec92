package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/allisson/sessions/internal/errors"
	sessionDomain "github.com/allisson/sessions/internal/session/domain"
)

// sessionClaims is the JWT claims set for session tokens. The subject ID
// rides in the registered "sub" claim; "iat" and "exp" complete the minimal
// claim set the wire format requires.
type sessionClaims struct {
	jwt.RegisteredClaims
}

// jwtTokenCodec implements TokenCodec using HMAC-SHA256 signed JWTs.
type jwtTokenCodec struct {
	signingKey []byte
	now        func() time.Time
}

// CodecOption configures a TokenCodec.
type CodecOption func(*jwtTokenCodec)

// WithClock overrides the codec clock. Issuance and verification both use
// this clock, keeping expiry comparisons on a single time source.
func WithClock(now func() time.Time) CodecOption {
	return func(c *jwtTokenCodec) {
		c.now = now
	}
}

// NewTokenCodec creates a TokenCodec signing with the given key.
// The key must be configured at process start; running without one is a
// startup configuration error, never a per-request failure.
func NewTokenCodec(signingKey []byte, opts ...CodecOption) (TokenCodec, error) {
	if len(signingKey) == 0 {
		return nil, apperrors.New("token codec requires a signing key")
	}

	codec := &jwtTokenCodec{
		signingKey: signingKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Issue creates a signed session token for the subject with the given TTL.
func (c *jwtTokenCodec) Issue(subjectID string, ttl time.Duration) (*sessionDomain.SessionToken, error) {
	if subjectID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "subject id is required")
	}
	if ttl <= 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "ttl must be positive")
	}

	issuedAt := c.now()
	expiresAt := issuedAt.Add(ttl)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign session token")
	}

	return &sessionDomain.SessionToken{
		Value:     signed,
		SubjectID: subjectID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks a raw token and returns its subject identifier.
func (c *jwtTokenCodec) Verify(rawToken string) (string, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(rawToken, claims,
		func(t *jwt.Token) (any, error) {
			return c.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", classifyTokenError(err)
	}

	if !token.Valid {
		return "", apperrors.ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return "", apperrors.Wrap(apperrors.ErrTokenMalformed, "missing subject claim")
	}

	return claims.Subject, nil
}

// classifyTokenError maps jwt parse errors to the domain error taxonomy.
// Structural failures take precedence so garbage input is never reported as
// a signature problem; expiry outranks the signature check so an expired but
// well-signed token prompts re-login rather than a forgery alert.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.Wrap(apperrors.ErrTokenMalformed, err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Wrap(apperrors.ErrTokenExpired, err.Error())
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return apperrors.Wrap(apperrors.ErrSignatureInvalid, err.Error())
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return apperrors.Wrap(apperrors.ErrTokenMalformed, err.Error())
	default:
		return apperrors.Wrap(apperrors.ErrTokenMalformed, err.Error())
	}
}
