package origin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware applies the origin policy to every request.
//
// All responses carry Vary: Origin so caches never serve one caller's
// Access-Control-Allow-Origin to another. Preflight OPTIONS requests are
// answered with 204 and no body.
func Middleware(policy *Policy, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := policy.Evaluate(c.GetHeader("Origin"), c.Request.Host)

		if decision.Rejected {
			logger.Debug("origin not in allow-list",
				slog.String("origin", decision.RequestOrigin))
		}

		c.Writer.Header().Add("Vary", "Origin")
		c.Header("Access-Control-Allow-Origin", decision.AllowOrigin)
		if decision.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.Header("Access-Control-Max-Age", "43200")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
