package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/sessions/internal/config"
	identityDomain "github.com/allisson/sessions/internal/identity/domain"
	sessionDomain "github.com/allisson/sessions/internal/session/domain"
	"github.com/allisson/sessions/internal/session/http/dto"
	sessionUseCase "github.com/allisson/sessions/internal/session/usecase"
)

func newTestCookieWriter() *CookieWriter {
	return NewCookieWriter(&config.Config{
		CookieName:   testCookieName,
		CookieMaxAge: 24 * time.Hour,
	})
}

func newSessionRouter(sessionUC sessionUseCase.UseCase) *gin.Engine {
	handler := NewSessionHandler(sessionUC, newTestCookieWriter(), createTestLogger())

	router := gin.New()
	router.POST("/v1/sessions", handler.LoginHandler)
	router.DELETE("/v1/sessions", handler.LogoutHandler)
	router.GET("/v1/sessions",
		SessionMiddleware(sessionUC, testCookieName, createTestLogger()),
		handler.CurrentHandler)
	return router
}

func findSessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	resp := w.Result()
	defer resp.Body.Close()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == testCookieName {
			return cookie
		}
	}
	return nil
}

func TestLoginHandler(t *testing.T) {
	t.Run("issues session and sets cookie", func(t *testing.T) {
		identity := newTestIdentity()
		session := &sessionDomain.Session{
			Token:     "signed-token",
			ExpiresAt: time.Now().Add(time.Hour).UTC(),
		}
		mockUC := &mockSessionUseCase{}
		mockUC.On("Login", mock.Anything, sessionUseCase.LoginInput{
			Email:    "user@example.com",
			Password: "password123",
		}).Return(session, identity, nil).Once()

		router := newSessionRouter(mockUC)
		body, err := json.Marshal(dto.LoginRequest{Email: "user@example.com", Password: "password123"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp dto.SessionResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, identity.ID, resp.Identity.ID)
		assert.Equal(t, identity.Email, resp.Identity.Email)

		cookie := findSessionCookie(t, w)
		require.NotNil(t, cookie, "session cookie must be set")
		assert.Equal(t, "signed-token", cookie.Value)
		assert.Equal(t, "/", cookie.Path)
		assert.True(t, cookie.HttpOnly)
		assert.Positive(t, cookie.MaxAge)

		mockUC.AssertExpectations(t)
	})

	t.Run("returns 401 for invalid credentials", func(t *testing.T) {
		mockUC := &mockSessionUseCase{}
		mockUC.On("Login", mock.Anything, mock.Anything).
			Return(nil, nil, identityDomain.ErrInvalidCredentials).Once()

		router := newSessionRouter(mockUC)
		body, err := json.Marshal(dto.LoginRequest{Email: "user@example.com", Password: "wrong-password"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resp := decodeErrorResponse(t, w.Body)
		assert.Equal(t, "unauthenticated", resp.Error)
		assert.Nil(t, findSessionCookie(t, w))
	})

	t.Run("returns 400 for malformed JSON", func(t *testing.T) {
		mockUC := &mockSessionUseCase{}

		router := newSessionRouter(mockUC)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUC.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("returns 422 for missing email", func(t *testing.T) {
		mockUC := &mockSessionUseCase{}

		router := newSessionRouter(mockUC)
		body, err := json.Marshal(dto.LoginRequest{Password: "password123"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUC.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestLogoutHandler(t *testing.T) {
	mockUC := &mockSessionUseCase{}

	router := newSessionRouter(mockUC)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	cookie := findSessionCookie(t, w)
	require.NotNil(t, cookie, "expired session cookie must be set")
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestCurrentHandler(t *testing.T) {
	t.Run("returns authenticated identity", func(t *testing.T) {
		identity := newTestIdentity()
		mockUC := &mockSessionUseCase{}
		mockUC.On("Resolve", mock.Anything, "signed-token").Return(identity, nil).Once()

		router := newSessionRouter(mockUC)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
		req.Header.Set("Authorization", "Bearer signed-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.IdentityResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, identity.ID, resp.ID)
		assert.Equal(t, identity.Email, resp.Email)
		mockUC.AssertExpectations(t)
	})

	t.Run("returns 401 without token", func(t *testing.T) {
		mockUC := &mockSessionUseCase{}

		router := newSessionRouter(mockUC)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
