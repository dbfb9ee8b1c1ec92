package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/sessions/internal/config"
)

// CookieWriter emits and clears the session cookie with deployment-aware
// attributes. Same-origin deployments use SameSite=Lax; cross-origin
// deployments need SameSite=None, which browsers only accept with Secure.
type CookieWriter struct {
	name        string
	maxAge      int
	crossOrigin bool
}

// NewCookieWriter creates a CookieWriter from configuration.
func NewCookieWriter(cfg *config.Config) *CookieWriter {
	return &CookieWriter{
		name:        cfg.CookieName,
		maxAge:      int(cfg.CookieMaxAge.Seconds()),
		crossOrigin: cfg.CrossOriginDeployment,
	}
}

// Name returns the session cookie name.
func (w *CookieWriter) Name() string {
	return w.name
}

// Write sets the session cookie on the response.
func (w *CookieWriter) Write(c *gin.Context, token string) {
	http.SetCookie(c.Writer, w.cookie(token, w.maxAge))
}

// Clear expires the session cookie on the response. Clearing is idempotent;
// the attributes must match the ones used when setting the cookie or browsers
// will keep the original.
func (w *CookieWriter) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, w.cookie("", -1))
}

func (w *CookieWriter) cookie(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     w.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if w.crossOrigin {
		cookie.SameSite = http.SameSiteNoneMode
		cookie.Secure = true
	}
	return cookie
}
