// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"

	apperrors "github.com/allisson/sessions/internal/errors"
)

// Startup configuration errors. These are fatal: the process must refuse to
// serve rather than run half-configured.
var (
	// ErrMissingSigningKey indicates no session signing key (plain or
	// KMS-wrapped) is configured.
	ErrMissingSigningKey = apperrors.New("session signing key is not configured")

	// ErrMissingStoreDSN indicates no identity store connection string is configured.
	ErrMissingStoreDSN = apperrors.New("identity store connection string is not configured")
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// Environment is the deployment mode ("production" or "development").
	// Non-production deployments get the permissive cross-origin branch.
	Environment string

	// DBDriver is the database driver to use (e.g., "postgres", "mysql").
	DBDriver string
	// DBConnectionString is the connection string for the identity store.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// SessionSigningKey is the raw HMAC signing key for session tokens.
	SessionSigningKey string
	// SessionSigningKeyWrapped is a base64-encoded signing key wrapped by a KMS.
	// When set together with KMSKeyURI it takes precedence over SessionSigningKey.
	SessionSigningKeyWrapped string
	// KMSKeyURI is the gocloud.dev secrets keeper URI used to unwrap the
	// wrapped signing key (e.g., "base64key://...", "hashivault://...").
	KMSKeyURI string
	// SessionTokenTTL is the lifetime of issued session tokens.
	SessionTokenTTL time.Duration
	// IdentityLookupTimeout bounds a single identity lookup during session
	// verification.
	IdentityLookupTimeout time.Duration

	// CookieName is the name of the session cookie.
	CookieName string
	// CookieMaxAge is the explicit expiry set on the session cookie.
	CookieMaxAge time.Duration
	// CrossOriginDeployment indicates the API is served from a different origin
	// than the UI; the session cookie then requires SameSite=None with Secure.
	CrossOriginDeployment bool

	// CORSAllowOrigins is a comma-separated list of exactly-matched allowed origins.
	CORSAllowOrigins string
	// CORSTrustedParents is a comma-separated list of parent domains whose
	// subdomains are trusted (suffix match).
	CORSTrustedParents string
	// CORSDefaultOrigin is the fixed origin returned to unmatched callers in
	// production. Never a wildcard when credentials are involved.
	CORSDefaultOrigin string

	// StoreConnectBaseDelay is the initial backoff delay between store
	// connection attempts; it doubles on every failure.
	StoreConnectBaseDelay time.Duration
	// StoreConnectMaxAttempts caps consecutive connection attempts before the
	// supervisor settles in the disconnected state.
	StoreConnectMaxAttempts int
	// StoreProbeInterval is the health probe period while connected.
	StoreProbeInterval time.Duration

	// RateLimitSessionEnabled indicates whether IP rate limiting for the
	// session issuance endpoints is enabled.
	RateLimitSessionEnabled bool
	// RateLimitSessionRequestsPerSec is the number of requests allowed per
	// second per IP for session issuance.
	RateLimitSessionRequestsPerSec float64
	// RateLimitSessionBurst is the burst size for session issuance rate limiting.
	RateLimitSessionBurst int

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost:  env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort:  env.GetInt("SERVER_PORT", 8080),
		Environment: env.GetString("ENVIRONMENT", "production"),

		// Identity store configuration
		DBDriver:             env.GetString("DB_DRIVER", "postgres"),
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 25),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 5),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Session tokens
		SessionSigningKey:        env.GetString("SESSION_SIGNING_KEY", ""),
		SessionSigningKeyWrapped: env.GetString("SESSION_SIGNING_KEY_WRAPPED", ""),
		KMSKeyURI:                env.GetString("KMS_KEY_URI", ""),
		SessionTokenTTL:          env.GetDuration("SESSION_TOKEN_TTL_SECONDS", 86400, time.Second),
		IdentityLookupTimeout:    env.GetDuration("IDENTITY_LOOKUP_TIMEOUT_SECONDS", 5, time.Second),

		// Session cookie
		CookieName:            env.GetString("SESSION_COOKIE_NAME", "session_token"),
		CookieMaxAge:          env.GetDuration("SESSION_COOKIE_MAX_AGE_DAYS", 30, 24*time.Hour),
		CrossOriginDeployment: env.GetBool("CROSS_ORIGIN_DEPLOYMENT", false),

		// Cross-origin policy
		CORSAllowOrigins:   env.GetString("CORS_ALLOW_ORIGINS", ""),
		CORSTrustedParents: env.GetString("CORS_TRUSTED_PARENTS", ""),
		CORSDefaultOrigin:  env.GetString("CORS_DEFAULT_ORIGIN", "https://app.example.com"),

		// Store supervision
		StoreConnectBaseDelay:   env.GetDuration("STORE_CONNECT_BASE_DELAY_MS", 500, time.Millisecond),
		StoreConnectMaxAttempts: env.GetInt("STORE_CONNECT_MAX_ATTEMPTS", 5),
		StoreProbeInterval:      env.GetDuration("STORE_PROBE_INTERVAL_SECONDS", 15, time.Second),

		// Rate limiting for session issuance (IP-based, unauthenticated)
		RateLimitSessionEnabled:        env.GetBool("RATE_LIMIT_SESSION_ENABLED", true),
		RateLimitSessionRequestsPerSec: env.GetFloat64("RATE_LIMIT_SESSION_REQUESTS_PER_SEC", 5.0),
		RateLimitSessionBurst:          env.GetInt("RATE_LIMIT_SESSION_BURST", 10),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "sessions"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// Validate checks the startup-fatal configuration invariants. A missing
// signing key or store address must stop the process before it serves.
func (c *Config) Validate() error {
	if c.SessionSigningKey == "" && (c.SessionSigningKeyWrapped == "" || c.KMSKeyURI == "") {
		return ErrMissingSigningKey
	}
	if c.DBConnectionString == "" {
		return ErrMissingStoreDSN
	}
	return nil
}

// IsProduction reports whether the deployment mode is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
