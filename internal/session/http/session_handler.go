package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/sessions/internal/errors"
	"github.com/allisson/sessions/internal/httputil"
	"github.com/allisson/sessions/internal/session/http/dto"
	sessionUseCase "github.com/allisson/sessions/internal/session/usecase"
)

// SessionHandler handles HTTP requests for session lifecycle operations.
type SessionHandler struct {
	sessionUC    sessionUseCase.UseCase
	cookieWriter *CookieWriter
	logger       *slog.Logger
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(
	sessionUC sessionUseCase.UseCase,
	cookieWriter *CookieWriter,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionUC:    sessionUC,
		cookieWriter: cookieWriter,
		logger:       logger,
	}
}

// LoginHandler verifies credentials and issues a session.
// POST /v1/sessions - Returns 201 Created with the token and identity, and
// sets the session cookie.
func (h *SessionHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	session, identity, err := h.sessionUC.Login(c.Request.Context(), sessionUseCase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.cookieWriter.Write(c, session.Token)
	c.JSON(http.StatusCreated, dto.ToSessionResponse(session, identity))
}

// LogoutHandler ends the session on this client by clearing the cookie.
// DELETE /v1/sessions - Returns 204 No Content. Tokens are not revocable
// server-side; other copies of the token remain valid until expiry.
func (h *SessionHandler) LogoutHandler(c *gin.Context) {
	h.cookieWriter.Clear(c)
	c.Status(http.StatusNoContent)
}

// CurrentHandler returns the identity behind the presented session token.
// GET /v1/sessions - Requires the session middleware. Returns 200 OK.
func (h *SessionHandler) CurrentHandler(c *gin.Context) {
	identity, ok := GetIdentity(c.Request.Context())
	if !ok || identity == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthenticated, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToIdentityResponse(identity))
}
