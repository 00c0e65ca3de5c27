// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development. A .env file
// is loaded first when present so local setups don't need to export anything.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds session and OAuth settings.
	Auth AuthConfig

	// SMTP holds outbound mail settings for confirmation/reset emails.
	SMTP SMTPConfig

	// Gemini holds generation-service settings.
	Gemini GeminiConfig

	// Chat holds tax-assistant limits.
	Chat ChatConfig

	// PDF holds document export settings.
	PDF PDFConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "finacco").
	User string

	// Password is the MariaDB password (default: "finacco").
	Password string

	// Name is the database name (default: "finacco").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds session and OAuth settings.
type AuthConfig struct {
	// SessionTTL is how long an access session lasts before it must be
	// refreshed (default: 1h).
	SessionTTL time.Duration

	// RefreshTTL is how long a refresh token stays valid after issue
	// (default: 720h). A session that cannot be refreshed within this
	// window is destroyed.
	RefreshTTL time.Duration

	// RefreshInterval is how often the background keeper re-validates
	// active sessions (default: 30m).
	RefreshInterval time.Duration

	// GoogleClientID / GoogleClientSecret configure the Google OAuth flow.
	// OAuth sign-in is disabled when either is empty.
	GoogleClientID     string
	GoogleClientSecret string
}

// SMTPConfig holds outbound mail settings. Mail sending is disabled when
// Host is empty; registration then skips the confirmation step.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// GeminiConfig holds generation-service settings. The API key itself is
// per-user (stored in the api_keys table), not global config.
type GeminiConfig struct {
	// Model is the Gemini model name used for all calls.
	Model string

	// Timeout is the fixed ceiling on a single generation call (default: 15s).
	Timeout time.Duration

	// MaxRetries bounds retries of a failed call (default: 2).
	MaxRetries int
}

// ChatConfig holds tax-assistant limits.
type ChatConfig struct {
	// MaxRequests is the number of generation calls allowed per user within
	// Window (default: 3 per 60s).
	MaxRequests int
	Window      time.Duration
}

// PDFConfig holds document export settings.
type PDFConfig struct {
	// ChromeBin is an optional path to a Chromium binary. Empty lets go-rod
	// resolve or download one.
	ChromeBin string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	// Best effort; absent .env is the normal case in production.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "finacco"),
			Password:        getEnv("DB_PASSWORD", "finacco"),
			Name:            getEnv("DB_NAME", "finacco"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Auth: AuthConfig{
			SessionTTL:         getEnvDuration("SESSION_TTL", time.Hour),
			RefreshTTL:         getEnvDuration("REFRESH_TTL", 30*24*time.Hour),
			RefreshInterval:    getEnvDuration("SESSION_REFRESH_INTERVAL", 30*time.Minute),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@finaccosolutions.com"),
		},
		Gemini: GeminiConfig{
			Model:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout:    getEnvDuration("GEMINI_TIMEOUT", 15*time.Second),
			MaxRetries: getEnvInt("GEMINI_MAX_RETRIES", 2),
		},
		Chat: ChatConfig{
			MaxRequests: getEnvInt("CHAT_MAX_REQUESTS", 3),
			Window:      getEnvDuration("CHAT_RATE_WINDOW", time.Minute),
		},
		PDF: PDFConfig{
			ChromeBin: getEnv("CHROME_BIN", ""),
		},
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d", cfg.Port)
	}
	if cfg.Env != "development" && cfg.Env != "production" {
		return nil, fmt.Errorf("invalid APP_ENV %q: must be development or production", cfg.Env)
	}

	return cfg, nil
}

// IsDevelopment returns true when running in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// --- env helpers ---

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
