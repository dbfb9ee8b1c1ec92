// Package http provides the HTTP server, router setup and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/sessions/internal/config"
	identityHTTP "github.com/allisson/sessions/internal/identity/http"
	"github.com/allisson/sessions/internal/metrics"
	"github.com/allisson/sessions/internal/origin"
	sessionHTTP "github.com/allisson/sessions/internal/session/http"
	sessionUseCase "github.com/allisson/sessions/internal/session/usecase"
	"github.com/allisson/sessions/internal/supervisor"
)

// Server represents the API HTTP server.
type Server struct {
	storeSupervisor *supervisor.Supervisor
	router          *gin.Engine
	server          *http.Server
	logger          *slog.Logger

	// baseCtx bounds background goroutines owned by the router (rate limiter
	// cleanup); Shutdown cancels it.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewServer creates a new HTTP server. The supervisor feeds the readiness
// endpoint; routes are registered through SetupRouter before Start.
func NewServer(
	storeSupervisor *supervisor.Supervisor,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	return &Server{
		storeSupervisor: storeSupervisor,
		logger:          logger,
		baseCtx:         baseCtx,
		cancelBase:      cancelBase,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig carries the handlers and middleware dependencies for SetupRouter.
type RouterConfig struct {
	Config          *config.Config
	OriginPolicy    *origin.Policy
	MetricsProvider *metrics.Provider
	SessionHandler  *sessionHTTP.SessionHandler
	IdentityHandler *identityHTTP.IdentityHandler
	SessionUseCase  sessionUseCase.UseCase
}

// SetupRouter builds the gin router with the full middleware stack and routes.
func (s *Server) SetupRouter(rc RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))
	router.Use(origin.Middleware(rc.OriginPolicy, s.logger))

	if rc.MetricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(
			rc.MetricsProvider.MeterProvider(),
			rc.Config.MetricsNamespace,
		))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Unauthenticated session issuance endpoints, rate limited per IP.
	issuance := v1.Group("")
	if rc.Config.RateLimitSessionEnabled {
		issuance.Use(sessionHTTP.IPRateLimitMiddleware(
			s.baseCtx,
			rc.Config.RateLimitSessionRequestsPerSec,
			rc.Config.RateLimitSessionBurst,
			s.logger,
		))
	}
	issuance.POST("/sessions", rc.SessionHandler.LoginHandler)
	issuance.POST("/identities", rc.IdentityHandler.RegisterHandler)

	// Logout only touches the cookie, no authentication required.
	v1.DELETE("/sessions", rc.SessionHandler.LogoutHandler)

	// Authenticated routes behind the session gate.
	authenticated := v1.Group("")
	authenticated.Use(sessionHTTP.SessionMiddleware(
		rc.SessionUseCase,
		rc.Config.CookieName,
		s.logger,
	))
	authenticated.GET("/sessions", rc.SessionHandler.CurrentHandler)

	s.router = router
	s.server.Handler = router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can do useful work. Readiness
// follows the supervisor's view of the identity store; the endpoint never
// pings the store itself.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.storeSupervisor == nil || !s.storeSupervisor.Available() {
		state := "error"
		if s.storeSupervisor != nil {
			state = s.storeSupervisor.State().String()
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"components": gin.H{
				"identity_store": state,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"components": gin.H{
			"identity_store": s.storeSupervisor.State().String(),
		},
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.server.Handler == nil {
		s.server.Handler = s.router
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server and stops the router's
// background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.cancelBase()
	return s.server.Shutdown(ctx)
}
