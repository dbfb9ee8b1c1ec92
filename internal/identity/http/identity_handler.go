// Package http provides HTTP handlers for identity operations.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/sessions/internal/httputil"
	"github.com/allisson/sessions/internal/identity/http/dto"
	identityUseCase "github.com/allisson/sessions/internal/identity/usecase"
	sessionDomain "github.com/allisson/sessions/internal/session/domain"
	sessionHTTP "github.com/allisson/sessions/internal/session/http"
)

// SessionIssuer creates a session for a freshly registered identity so the
// signup response doubles as a login.
type SessionIssuer interface {
	Issue(subjectID string) (*sessionDomain.Session, error)
}

// IdentityHandler handles HTTP requests for identity management operations.
type IdentityHandler struct {
	identityUC    identityUseCase.UseCase
	sessionIssuer SessionIssuer
	cookieWriter  *sessionHTTP.CookieWriter
	logger        *slog.Logger
}

// NewIdentityHandler creates a new identity handler with required dependencies.
func NewIdentityHandler(
	identityUC identityUseCase.UseCase,
	sessionIssuer SessionIssuer,
	cookieWriter *sessionHTTP.CookieWriter,
	logger *slog.Logger,
) *IdentityHandler {
	return &IdentityHandler{
		identityUC:    identityUC,
		sessionIssuer: sessionIssuer,
		cookieWriter:  cookieWriter,
		logger:        logger,
	}
}

// RegisterHandler creates a new identity and issues its first session.
// POST /v1/identities - Returns 201 Created with the session token and the
// identity (no password), and sets the session cookie.
// Returns 409 Conflict when the email is already registered.
func (h *IdentityHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	identity, err := h.identityUC.Register(c.Request.Context(), identityUseCase.RegisterIdentityInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	session, err := h.sessionIssuer.Issue(identity.ID.String())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.cookieWriter.Write(c, session.Token)
	c.JSON(http.StatusCreated, dto.ToRegisterResponse(session, identity))
}
