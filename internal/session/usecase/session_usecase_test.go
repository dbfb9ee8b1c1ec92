package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/sessions/internal/errors"
	identityDomain "github.com/allisson/sessions/internal/identity/domain"
	"github.com/allisson/sessions/internal/metrics"
	sessionDomain "github.com/allisson/sessions/internal/session/domain"
)

// mockTokenCodec is a mock implementation of service.TokenCodec for testing.
type mockTokenCodec struct {
	mock.Mock
}

func (m *mockTokenCodec) Issue(subjectID string, ttl time.Duration) (*sessionDomain.SessionToken, error) {
	args := m.Called(subjectID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionDomain.SessionToken), args.Error(1)
}

func (m *mockTokenCodec) Verify(rawToken string) (string, error) {
	args := m.Called(rawToken)
	return args.String(0), args.Error(1)
}

// mockCredentialVerifier is a mock implementation of CredentialVerifier for testing.
type mockCredentialVerifier struct {
	mock.Mock
}

func (m *mockCredentialVerifier) VerifyCredentials(ctx context.Context, email, password string) (*identityDomain.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Identity), args.Error(1)
}

// mockIdentityFinder is a mock implementation of IdentityFinder for testing.
type mockIdentityFinder struct {
	mock.Mock
}

func (m *mockIdentityFinder) FindByID(ctx context.Context, id uuid.UUID) (*identityDomain.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Identity), args.Error(1)
}

// staticStoreHealth reports a fixed store availability.
type staticStoreHealth struct {
	available bool
}

func (s staticStoreHealth) Available() bool {
	return s.available
}

func newTestIdentity() *identityDomain.Identity {
	return &identityDomain.Identity{
		ID:    uuid.Must(uuid.NewV7()),
		Name:  "Test User",
		Email: "user@example.com",
	}
}

func TestSessionUseCaseLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues session for valid credentials", func(t *testing.T) {
		identity := newTestIdentity()
		codec := &mockTokenCodec{}
		verifier := &mockCredentialVerifier{}
		verifier.On("VerifyCredentials", ctx, "user@example.com", "password123").Return(identity, nil)
		codec.On("Issue", identity.ID.String(), time.Hour).Return(&sessionDomain.SessionToken{
			Value:     "signed-token",
			SubjectID: identity.ID.String(),
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)

		uc := NewSessionUseCase(codec, verifier, nil, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		session, gotIdentity, err := uc.Login(ctx, LoginInput{Email: "user@example.com", Password: "password123"})

		require.NoError(t, err)
		assert.Equal(t, "signed-token", session.Token)
		assert.Equal(t, identity, gotIdentity)
		verifier.AssertExpectations(t)
		codec.AssertExpectations(t)
	})

	t.Run("propagates invalid credentials", func(t *testing.T) {
		verifier := &mockCredentialVerifier{}
		verifier.On("VerifyCredentials", ctx, "user@example.com", "wrong").
			Return(nil, identityDomain.ErrInvalidCredentials)

		uc := NewSessionUseCase(&mockTokenCodec{}, verifier, nil, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		session, identity, err := uc.Login(ctx, LoginInput{Email: "user@example.com", Password: "wrong"})

		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		assert.Nil(t, session)
		assert.Nil(t, identity)
	})

	t.Run("returns store unavailable without verifying credentials", func(t *testing.T) {
		verifier := &mockCredentialVerifier{}

		uc := NewSessionUseCase(&mockTokenCodec{}, verifier, nil, staticStoreHealth{available: false}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		session, identity, err := uc.Login(ctx, LoginInput{Email: "user@example.com", Password: "password123"})

		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
		assert.Nil(t, session)
		assert.Nil(t, identity)
		verifier.AssertNotCalled(t, "VerifyCredentials", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSessionUseCaseResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves identity for valid token", func(t *testing.T) {
		identity := newTestIdentity()
		codec := &mockTokenCodec{}
		codec.On("Verify", "signed-token").Return(identity.ID.String(), nil)
		finder := &mockIdentityFinder{}
		finder.On("FindByID", mock.Anything, identity.ID).Return(identity, nil)

		uc := NewSessionUseCase(codec, nil, finder, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		gotIdentity, err := uc.Resolve(ctx, "signed-token")

		require.NoError(t, err)
		assert.Equal(t, identity, gotIdentity)
	})

	t.Run("propagates token verification errors", func(t *testing.T) {
		codec := &mockTokenCodec{}
		codec.On("Verify", "expired-token").Return("", apperrors.ErrTokenExpired)
		finder := &mockIdentityFinder{}

		uc := NewSessionUseCase(codec, nil, finder, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		identity, err := uc.Resolve(ctx, "expired-token")

		assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
		assert.Nil(t, identity)
		finder.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("classifies non-identifier subject as malformed", func(t *testing.T) {
		codec := &mockTokenCodec{}
		codec.On("Verify", "signed-token").Return("not-a-uuid", nil)

		uc := NewSessionUseCase(codec, nil, &mockIdentityFinder{}, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		identity, err := uc.Resolve(ctx, "signed-token")

		assert.ErrorIs(t, err, apperrors.ErrTokenMalformed)
		assert.Nil(t, identity)
	})

	t.Run("returns store unavailable without store access", func(t *testing.T) {
		subjectID := uuid.Must(uuid.NewV7())
		codec := &mockTokenCodec{}
		codec.On("Verify", "signed-token").Return(subjectID.String(), nil)
		finder := &mockIdentityFinder{}

		uc := NewSessionUseCase(codec, nil, finder, staticStoreHealth{available: false}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		identity, err := uc.Resolve(ctx, "signed-token")

		assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
		assert.Nil(t, identity)
		finder.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("maps unknown subject to unauthenticated", func(t *testing.T) {
		subjectID := uuid.Must(uuid.NewV7())
		codec := &mockTokenCodec{}
		codec.On("Verify", "signed-token").Return(subjectID.String(), nil)
		finder := &mockIdentityFinder{}
		finder.On("FindByID", mock.Anything, subjectID).Return(nil, identityDomain.ErrIdentityNotFound)

		uc := NewSessionUseCase(codec, nil, finder, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		identity, err := uc.Resolve(ctx, "signed-token")

		assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
		assert.Nil(t, identity)
	})

	t.Run("maps lookup deadline to lookup timeout", func(t *testing.T) {
		subjectID := uuid.Must(uuid.NewV7())
		codec := &mockTokenCodec{}
		codec.On("Verify", "signed-token").Return(subjectID.String(), nil)
		finder := &mockIdentityFinder{}
		finder.On("FindByID", mock.Anything, subjectID).
			Return(nil, apperrors.Wrap(context.DeadlineExceeded, "query canceled"))

		uc := NewSessionUseCase(codec, nil, finder, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		identity, err := uc.Resolve(ctx, "signed-token")

		assert.ErrorIs(t, err, apperrors.ErrLookupTimeout)
		assert.Nil(t, identity)
	})

	t.Run("bounds the lookup with the configured timeout", func(t *testing.T) {
		subjectID := uuid.Must(uuid.NewV7())
		codec := &mockTokenCodec{}
		codec.On("Verify", "signed-token").Return(subjectID.String(), nil)
		finder := &mockIdentityFinder{}
		finder.On("FindByID", mock.Anything, subjectID).
			Run(func(args mock.Arguments) {
				lookupCtx := args.Get(0).(context.Context)
				_, ok := lookupCtx.Deadline()
				assert.True(t, ok, "lookup context must carry a deadline")
			}).
			Return(newTestIdentity(), nil)

		uc := NewSessionUseCase(codec, nil, finder, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, 50*time.Millisecond)
		_, err := uc.Resolve(ctx, "signed-token")

		require.NoError(t, err)
	})
}

func TestSessionUseCaseIssue(t *testing.T) {
	t.Run("wraps codec output in a session", func(t *testing.T) {
		expiresAt := time.Now().Add(time.Hour)
		codec := &mockTokenCodec{}
		codec.On("Issue", "subject-1", time.Hour).Return(&sessionDomain.SessionToken{
			Value:     "signed-token",
			SubjectID: "subject-1",
			ExpiresAt: expiresAt,
		}, nil)

		uc := NewSessionUseCase(codec, nil, nil, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		session, err := uc.Issue("subject-1")

		require.NoError(t, err)
		assert.Equal(t, "signed-token", session.Token)
		assert.Equal(t, expiresAt, session.ExpiresAt)
	})

	t.Run("propagates codec errors", func(t *testing.T) {
		codec := &mockTokenCodec{}
		codec.On("Issue", "", time.Hour).Return(nil, apperrors.ErrInvalidInput)

		uc := NewSessionUseCase(codec, nil, nil, staticStoreHealth{available: true}, metrics.NewNoOpSessionMetrics(), time.Hour, time.Second)
		session, err := uc.Issue("")

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Nil(t, session)
	})
}
