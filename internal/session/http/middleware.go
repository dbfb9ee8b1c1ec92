package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/sessions/internal/errors"
	"github.com/allisson/sessions/internal/httputil"
	sessionUseCase "github.com/allisson/sessions/internal/session/usecase"
)

// tokenQueryParam is the fallback query parameter for clients that cannot set
// headers or cookies (e.g. EventSource connections).
const tokenQueryParam = "token"

// SessionMiddleware authenticates requests by resolving a session token to an
// identity and storing it in the request context.
//
// Token extraction checks the channels in a fixed order and takes the first
// non-empty value without consulting the rest:
//  1. Authorization header ("Bearer <token>", case-insensitive scheme)
//  2. "token" query parameter
//  3. session cookie
//
// A request carrying no token in any channel is rejected with 401 before any
// verification work happens.
func SessionMiddleware(
	sessionUC sessionUseCase.UseCase,
	cookieName string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := extractToken(c, cookieName)
		if rawToken == "" {
			logger.Debug("session authentication failed: no token presented")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthenticated, logger)
			c.Abort()
			return
		}

		identity, err := sessionUC.Resolve(c.Request.Context(), rawToken)
		if err != nil {
			logger.Debug("session authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// extractToken returns the first token found in header, query or cookie order.
func extractToken(c *gin.Context, cookieName string) string {
	const bearerPrefix = "bearer "

	authHeader := c.GetHeader("Authorization")
	if len(authHeader) >= len(bearerPrefix) &&
		strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		if token := authHeader[len(bearerPrefix):]; token != "" {
			return token
		}
	}

	if token := c.Query(tokenQueryParam); token != "" {
		return token
	}

	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	return ""
}
