// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/sessions/internal/config"
	"github.com/allisson/sessions/internal/database"
	"github.com/allisson/sessions/internal/http"
	identityHTTP "github.com/allisson/sessions/internal/identity/http"
	identityRepository "github.com/allisson/sessions/internal/identity/repository"
	identityService "github.com/allisson/sessions/internal/identity/service"
	identityUsecase "github.com/allisson/sessions/internal/identity/usecase"
	"github.com/allisson/sessions/internal/metrics"
	"github.com/allisson/sessions/internal/origin"
	sessionHTTP "github.com/allisson/sessions/internal/session/http"
	sessionService "github.com/allisson/sessions/internal/session/service"
	sessionUsecase "github.com/allisson/sessions/internal/session/usecase"
	"github.com/allisson/sessions/internal/supervisor"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	storeSupervisor *supervisor.Supervisor
	metricsProvider *metrics.Provider
	sessionMetrics  metrics.SessionMetrics

	// Repositories and services
	identityRepo    identityUsecase.IdentityRepository
	passwordService identityService.PasswordService
	tokenCodec      sessionService.TokenCodec

	// Use Cases
	identityUseCase identityUsecase.UseCase
	sessionUseCase  sessionUsecase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	supervisorInit      sync.Once
	metricsProviderInit sync.Once
	sessionMetricsInit  sync.Once
	identityRepoInit    sync.Once
	passwordServiceInit sync.Once
	tokenCodecInit      sync.Once
	identityUseCaseInit sync.Once
	sessionUseCaseInit  sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database handle for the identity store. The handle is opened
// without an initial ping; the supervisor owns connection establishment.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// StoreSupervisor returns the identity store supervisor.
func (c *Container) StoreSupervisor() (*supervisor.Supervisor, error) {
	var err error
	c.supervisorInit.Do(func() {
		c.storeSupervisor, err = c.initStoreSupervisor()
		if err != nil {
			c.initErrors["storeSupervisor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["storeSupervisor"]; exists {
		return nil, storedErr
	}
	return c.storeSupervisor, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// SessionMetrics returns the session metrics recorder.
func (c *Container) SessionMetrics() (metrics.SessionMetrics, error) {
	var err error
	c.sessionMetricsInit.Do(func() {
		c.sessionMetrics, err = c.initSessionMetrics()
		if err != nil {
			c.initErrors["sessionMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionMetrics"]; exists {
		return nil, storedErr
	}
	return c.sessionMetrics, nil
}

// IdentityRepository returns the identity repository instance.
func (c *Container) IdentityRepository() (identityUsecase.IdentityRepository, error) {
	var err error
	c.identityRepoInit.Do(func() {
		c.identityRepo, err = c.initIdentityRepository()
		if err != nil {
			c.initErrors["identityRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityRepo"]; exists {
		return nil, storedErr
	}
	return c.identityRepo, nil
}

// PasswordService returns the password hashing service.
func (c *Container) PasswordService() identityService.PasswordService {
	c.passwordServiceInit.Do(func() {
		c.passwordService = identityService.NewPasswordService()
	})
	return c.passwordService
}

// TokenCodec returns the session token codec.
func (c *Container) TokenCodec() (sessionService.TokenCodec, error) {
	var err error
	c.tokenCodecInit.Do(func() {
		c.tokenCodec, err = c.initTokenCodec()
		if err != nil {
			c.initErrors["tokenCodec"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenCodec"]; exists {
		return nil, storedErr
	}
	return c.tokenCodec, nil
}

// IdentityUseCase returns the identity use case instance.
func (c *Container) IdentityUseCase() (identityUsecase.UseCase, error) {
	var err error
	c.identityUseCaseInit.Do(func() {
		c.identityUseCase, err = c.initIdentityUseCase()
		if err != nil {
			c.initErrors["identityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityUseCase"]; exists {
		return nil, storedErr
	}
	return c.identityUseCase, nil
}

// SessionUseCase returns the session use case instance.
func (c *Container) SessionUseCase() (sessionUsecase.UseCase, error) {
	var err error
	c.sessionUseCaseInit.Do(func() {
		c.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.sessionUseCase, nil
}

// HTTPServer returns the HTTP server instance with the router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Flush pending metrics if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB opens the database handle for the identity store.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Open(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// initStoreSupervisor creates the identity store supervisor over the database handle.
func (c *Container) initStoreSupervisor() (*supervisor.Supervisor, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for supervisor: %w", err)
	}
	return supervisor.New(db, c.config), nil
}

// initMetricsProvider creates the metrics provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	return metrics.NewProvider(c.config.MetricsNamespace)
}

// initSessionMetrics creates the session metrics recorder, falling back to a
// no-op recorder when metrics are disabled.
func (c *Container) initSessionMetrics() (metrics.SessionMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for session metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpSessionMetrics(), nil
	}
	return metrics.NewSessionMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initIdentityRepository creates the identity repository instance.
func (c *Container) initIdentityRepository() (identityUsecase.IdentityRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for identity repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return identityRepository.NewMySQLIdentityRepository(db), nil
	case "postgres":
		return identityRepository.NewPostgreSQLIdentityRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTokenCodec loads the signing key and creates the token codec.
func (c *Container) initTokenCodec() (sessionService.TokenCodec, error) {
	signingKey, err := sessionService.LoadSigningKey(context.Background(), c.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	return sessionService.NewTokenCodec(signingKey)
}

// initIdentityUseCase creates the identity use case with all its dependencies.
func (c *Container) initIdentityUseCase() (identityUsecase.UseCase, error) {
	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for identity use case: %w", err)
	}
	return identityUsecase.NewIdentityUseCase(identityRepo, c.PasswordService()), nil
}

// initSessionUseCase creates the session use case with all its dependencies.
func (c *Container) initSessionUseCase() (sessionUsecase.UseCase, error) {
	tokenCodec, err := c.TokenCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get token codec for session use case: %w", err)
	}

	identityUC, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for session use case: %w", err)
	}

	identityRepo, err := c.IdentityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity repository for session use case: %w", err)
	}

	storeSupervisor, err := c.StoreSupervisor()
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisor for session use case: %w", err)
	}

	sessionMetrics, err := c.SessionMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get session metrics for session use case: %w", err)
	}

	return sessionUsecase.NewSessionUseCase(
		tokenCodec,
		identityUC,
		identityRepo,
		storeSupervisor,
		sessionMetrics,
		c.config.SessionTokenTTL,
		c.config.IdentityLookupTimeout,
	), nil
}

// initHTTPServer creates the HTTP server with the full router.
func (c *Container) initHTTPServer() (*http.Server, error) {
	storeSupervisor, err := c.StoreSupervisor()
	if err != nil {
		return nil, fmt.Errorf("failed to get supervisor for http server: %w", err)
	}

	sessionUC, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for http server: %w", err)
	}

	identityUC, err := c.IdentityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity use case for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	logger := c.Logger()
	cookieWriter := sessionHTTP.NewCookieWriter(c.config)
	server := http.NewServer(storeSupervisor, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(http.RouterConfig{
		Config: c.config,
		OriginPolicy: origin.NewPolicy(
			c.config.CORSAllowOrigins,
			c.config.CORSTrustedParents,
			c.config.CORSDefaultOrigin,
			c.config.IsProduction(),
		),
		MetricsProvider: metricsProvider,
		SessionHandler:  sessionHTTP.NewSessionHandler(sessionUC, cookieWriter, logger),
		IdentityHandler: identityHTTP.NewIdentityHandler(identityUC, sessionUC, cookieWriter, logger),
		SessionUseCase:  sessionUC,
	})

	return server, nil
}

// initMetricsServer creates the metrics HTTP server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), metricsProvider), nil
}
