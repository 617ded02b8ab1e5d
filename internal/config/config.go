// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saasify/saasify-api/internal/token"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Env  string // development or production
	Port string

	JWTSecret string

	SessionCookieName string
	SessionTTL        time.Duration

	StoreBackend string // memory, postgres, or mysql
	DatabaseURL  string

	// RedisAddr switches rate limiting from in-process counters to a
	// shared Redis backend. Empty means in-process.
	RedisAddr     string
	RedisPassword string

	CORSOrigin string

	// PolicyFile overrides the embedded route access policy.
	PolicyFile string

	GlobalRateLimit int
	LoginRateLimit  int
	RateLimitWindow time.Duration

	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json
}

// Getenv is the environment lookup used by Load; swappable in tests.
type Getenv func(key string) string

// Load reads configuration from env and validates it.
func Load(getenv Getenv) (Config, error) {
	cfg := Config{
		Env:               fallback(getenv("APP_ENV"), "development"),
		Port:              fallback(getenv("PORT"), "4000"),
		JWTSecret:         strings.TrimSpace(getenv("JWT_SECRET")),
		SessionCookieName: fallback(getenv("COOKIE_NAME"), "saasify_token"),
		StoreBackend:      fallback(getenv("STORE_BACKEND"), StoreMemory),
		DatabaseURL:       strings.TrimSpace(getenv("DATABASE_URL")),
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR")),
		RedisPassword:     getenv("REDIS_PASSWORD"),
		CORSOrigin:        fallback(getenv("CORS_ORIGIN"), "http://localhost:5173"),
		PolicyFile:        strings.TrimSpace(getenv("AUTHZ_POLICY_FILE")),
		LogLevel:          fallback(getenv("LOG_LEVEL"), "info"),
		LogFormat:         fallback(getenv("LOG_FORMAT"), "text"),
	}

	sessionHours, err := intEnv(getenv, "SESSION_TTL_HOURS", 24*7)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL = time.Duration(sessionHours) * time.Hour

	if cfg.GlobalRateLimit, err = intEnv(getenv, "GLOBAL_RATE_LIMIT", 300); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = intEnv(getenv, "LOGIN_RATE_LIMIT", 10); err != nil {
		return Config{}, err
	}

	windowMinutes, err := intEnv(getenv, "RATE_LIMIT_WINDOW_MINUTES", 15)
	if err != nil {
		return Config{}, err
	}
	cfg.RateLimitWindow = time.Duration(windowMinutes) * time.Minute

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if len(c.JWTSecret) < token.MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", token.MinSecretLength)
	}

	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("APP_ENV must be development or production, got %q", c.Env)
	}

	if c.SessionCookieName == "" {
		return errors.New("COOKIE_NAME must not be empty")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres, StoreMySQL:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for a SQL store backend")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, postgres, or mysql, got %q", c.StoreBackend)
	}

	if c.GlobalRateLimit <= 0 || c.LoginRateLimit <= 0 {
		return errors.New("rate limits must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("rate limit window must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	return nil
}

// IsProduction reports whether the server runs with production hardening
// (TLS-only cookies in particular).
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// HTTPAddress returns the bind address for the HTTP server.
func (c Config) HTTPAddress() string {
	return ":" + c.Port
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func intEnv(getenv Getenv, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}
