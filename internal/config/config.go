// Package config loads process configuration from an optional .env file,
// the environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds everything main needs to wire the server.
type Config struct {
	Env      string
	Addr     string
	DBPath   string
	LogLevel slog.Level

	// StaticDir is served under /static/ when set.
	StaticDir string

	AdminEmail    string
	AdminPassword string

	// CSRFKey is the 32-byte gorilla/csrf authentication key.
	CSRFKey        string
	TrustedOrigins []string

	RateLimitPerSecond int
	SlowQuery          time.Duration
	SlowRequest        time.Duration

	ResendKey   string
	EmailFrom   string
	AdminNotify string // inbox for participation requests; empty disables
}

// Configuration errors
var (
	ErrMissingCSRFKey       = errors.New("CLUB_CSRF_KEY must be set in production")
	ErrShortCSRFKey         = errors.New("CLUB_CSRF_KEY must be 32 bytes")
	ErrMissingAdminPassword = errors.New("CLUB_ADMIN_PASSWORD must be set in production")
	ErrInvalidRateLimit     = errors.New("rate limit must be positive")
)

// devCSRFKey is only accepted outside production.
const devCSRFKey = "clubhouse-development-csrf-key!!"

// Load reads envFile (missing is fine), then the environment, then args.
// PRE: args excludes the program name
// POST: returns a validated Config or the first problem found
func Load(envFile string, args []string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	c := Config{
		Env:           envOrDefault("CLUB_ENV", EnvDevelopment),
		Addr:          envOrDefault("CLUB_ADDR", ":8080"),
		DBPath:        envOrDefault("CLUB_DB_PATH", "clubhouse.db"),
		StaticDir:     os.Getenv("CLUB_STATIC_DIR"),
		AdminEmail:    envOrDefault("CLUB_ADMIN_EMAIL", "admin@clubhouse.local"),
		AdminPassword: os.Getenv("CLUB_ADMIN_PASSWORD"),
		CSRFKey:       os.Getenv("CLUB_CSRF_KEY"),
		ResendKey:     os.Getenv("CLUB_RESEND_KEY"),
		EmailFrom:     envOrDefault("CLUB_EMAIL_FROM", "Clubhouse <noreply@clubhouse.local>"),
		AdminNotify:   os.Getenv("CLUB_ADMIN_NOTIFY"),
	}
	level := envOrDefault("CLUB_LOG_LEVEL", "info")
	if v := os.Getenv("CLUB_TRUSTED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.TrustedOrigins = append(c.TrustedOrigins, o)
			}
		}
	}
	var err error
	if c.RateLimitPerSecond, err = envInt("CLUB_RATE_LIMIT", 10); err != nil {
		return Config{}, err
	}
	slowQueryMs, err := envInt("CLUB_SLOW_QUERY_MS", 50)
	if err != nil {
		return Config{}, err
	}
	slowRequestMs, err := envInt("CLUB_SLOW_REQUEST_MS", 200)
	if err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("clubhouse", flag.ContinueOnError)
	fs.StringVar(&c.Env, "env", c.Env, "environment: development or production")
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite database path")
	fs.StringVar(&level, "log-level", level, "debug, info, warn or error")
	fs.IntVar(&c.RateLimitPerSecond, "rate-limit", c.RateLimitPerSecond, "requests per second per client")
	fs.IntVar(&slowQueryMs, "slow-query-ms", slowQueryMs, "slow query warning threshold")
	fs.IntVar(&slowRequestMs, "slow-request-ms", slowRequestMs, "slow request warning threshold")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	c.SlowQuery = time.Duration(slowQueryMs) * time.Millisecond
	c.SlowRequest = time.Duration(slowRequestMs) * time.Millisecond

	if err := c.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// IsProduction reports the production environment.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) validate() error {
	if c.IsProduction() {
		if c.CSRFKey == "" {
			return ErrMissingCSRFKey
		}
		if c.AdminPassword == "" {
			return ErrMissingAdminPassword
		}
	}
	if c.CSRFKey == "" {
		c.CSRFKey = devCSRFKey
	}
	if len(c.CSRFKey) != 32 {
		return ErrShortCSRFKey
	}
	if c.RateLimitPerSecond <= 0 {
		return ErrInvalidRateLimit
	}
	if c.AdminPassword == "" {
		c.AdminPassword = "clubhouse-dev-password"
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
