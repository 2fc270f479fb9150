package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var ErrMissingSecret = errors.New("JWT_SECRET is required outside development")

type Config struct {
	// Application
	AppName  string
	AppEnv   string
	Port     string
	Location *time.Location

	// Database: postgres, sqlite or memory
	DBDriver     string
	DBConnection string

	// Redis (optional): rate limiting, habit cache, dispatch lock
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	RateLimit       int
	RateLimitWindow time.Duration

	// Security
	JWTSecret string
	JWTIssuer string
	JWTExpiry time.Duration

	// Dispatcher
	DispatchEnabled  bool
	DispatchInterval time.Duration
	DispatchHour     int

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability
	SentryDSN string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "Kanso"),
		AppEnv:  envString("APP_ENV", EnvDevelopment),
		Port:    envString("PORT", "8080"),

		DBDriver:     envString("DB_DRIVER", "postgres"),
		DBConnection: envString("DB_CONNECTION", ""),

		RedisHost:     envString("REDIS_HOST", ""),
		RedisPort:     envString("REDIS_PORT", "6379"),
		RedisPassword: envString("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		RateLimit:       envInt("RATE_LIMIT", 100),
		RateLimitWindow: envDuration("RATE_LIMIT_WINDOW", time.Minute),

		JWTSecret: envString("JWT_SECRET", ""),
		JWTIssuer: envString("JWT_ISSUER", "kanso-reminder-engine"),
		JWTExpiry: envDuration("JWT_EXPIRY", 72*time.Hour),

		DispatchEnabled:  envBool("DISPATCH_ENABLED", true),
		DispatchInterval: envDuration("DISPATCH_INTERVAL", 15*time.Minute),
		DispatchHour:     envInt("DISPATCH_HOUR", 8),

		EmailFrom:    envString("EMAIL_FROM", "Kanso <noreply@kanso.app>"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		SentryDSN: envString("SENTRY_DSN", ""),
	}

	loc, err := time.LoadLocation(envString("APP_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("config: APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.DBConnection == "" {
		cfg.DBConnection = defaultConnection(cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, ErrMissingSecret
		}
		cfg.JWTSecret = "dev-secret-change-me"
		slog.Warn("JWT_SECRET not set, using an insecure development secret")
	}

	if cfg.DispatchHour < 0 || cfg.DispatchHour > 23 {
		return nil, fmt.Errorf("config: DISPATCH_HOUR must be between 0 and 23, got %d", cfg.DispatchHour)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// defaultConnection builds the DSN from the DB_* variables used by the compose setup.
func defaultConnection(driver string) string {
	switch driver {
	case "sqlite":
		return "./data/kanso.db"
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			envString("DB_USER", "kanso_user"),
			envString("DB_PASSWORD", "secret"),
			envString("DB_HOST", "localhost"),
			envString("DB_PORT", "5432"),
			envString("DB_NAME", "kanso_db"),
		)
	default:
		return ""
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
