// Package config handles application configuration and environment loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration of the audit API server.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8000")
	APIPrefix  string // route prefix of the API endpoints (default "/api")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second per client (default 20, 0 disables)
	RateLimitBurst int     // burst capacity (default 40)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// JWTSecret enables HS256 bearer authentication when set.
	JWTSecret string

	// Database access
	PaginationMode   string        // auto, modern or legacy (default "auto")
	DBConnectTimeout time.Duration // Oracle connect timeout (default 10s)
	DBQueryTimeout   time.Duration // per-statement timeout (default 60s)
	DevSQLitePath    string        // local SQLite store requests may open (optional)
	DevSeed          bool          // seed an empty local store with demo records (default true)

	// Export
	ExportOverridesFile string // YAML file with table name and column overrides (optional)
	ExportTable         string // target table of generated INSERTs (optional)

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AuthEnabled reports whether bearer authentication is configured.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:          os.Getenv("LISTEN_ADDR"),
		APIPrefix:           os.Getenv("API_PREFIX"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		Env:                 os.Getenv("ENV"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		PaginationMode:      strings.ToLower(strings.TrimSpace(os.Getenv("PAGINATION_MODE"))),
		DevSQLitePath:       os.Getenv("DEV_SQLITE_PATH"),
		ExportOverridesFile: os.Getenv("EXPORT_OVERRIDES_FILE"),
		ExportTable:         os.Getenv("EXPORT_TABLE"),
		DevSeed:             parseBoolEnvDefault("DEV_SQLITE_SEED", true),
		RateLimitRPS:        20,
		RateLimitBurst:      40,
		DBConnectTimeout:    10 * time.Second,
		DBQueryTimeout:      60 * time.Second,
	}

	var err error
	if cfg.RateLimitRPS, err = floatEnv("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.DBConnectTimeout, err = durationEnv("DB_CONNECT_TIMEOUT", cfg.DBConnectTimeout); err != nil {
		return nil, err
	}
	if cfg.DBQueryTimeout, err = durationEnv("DB_QUERY_TIMEOUT", cfg.DBQueryTimeout); err != nil {
		return nil, err
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = compactNonEmpty(strings.Split(v, ","))
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8000"
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}
	cfg.APIPrefix = "/" + strings.Trim(cfg.APIPrefix, "/")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.PaginationMode == "" {
		cfg.PaginationMode = "auto"
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	switch cfg.PaginationMode {
	case "auto", "modern", "legacy":
	default:
		return nil, fmt.Errorf("PAGINATION_MODE must be auto, modern or legacy, got %q", cfg.PaginationMode)
	}
	if cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0 {
		return nil, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}

	if !cfg.AuthEnabled() {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, the API accepts unauthenticated requests")
	}
	if cfg.RateLimitRPS == 0 {
		cfg.Warnings = append(cfg.Warnings, "RATE_LIMIT_RPS is 0, rate limiting is disabled")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if !cfg.AuthEnabled() {
			return nil, errors.New("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, errors.New("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.DevSQLitePath != "" {
			return nil, errors.New("DEV_SQLITE_PATH must not be set in production (ENV=production)")
		}
	}

	return cfg, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return f, nil
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

// durationEnv accepts Go durations ("30s") or a bare number of seconds.
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: %q is not a duration", key, v)
	}
	return d, nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "0", "false", "no", "off":
		return false
	case "1", "true", "yes", "on":
		return true
	default:
		return defaultVal
	}
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
