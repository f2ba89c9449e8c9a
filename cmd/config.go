package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"panomirror/mirror"
)

// Environment variables read after the optional .env files are loaded.
const (
	envRoot      = "MIRROR_ROOT"
	envUserAgent = "MIRROR_USER_AGENT"
	envTimeout   = "MIRROR_TIMEOUT"
	envRateLimit = "MIRROR_RATE_LIMIT"
	envLogLevel  = "LOG_LEVEL"
)

// loadEnvFiles loads .env and then .env.local, later files overriding earlier ones
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("failed to load .env.local: %w", err)
		}
	}

	return nil
}

// configFromEnv starts from the defaults and applies environment overrides
func configFromEnv() (*mirror.Config, error) {
	cfg := mirror.DefaultConfig()

	if v := os.Getenv(envRoot); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv(envUserAgent); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv(envTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(envRateLimit); v != "" {
		rate, err := mirror.ParseRateLimit(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envRateLimit, err)
		}
		cfg.RateBytes = rate
	}

	return cfg, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
