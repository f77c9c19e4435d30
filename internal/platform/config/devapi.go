package config

import (
	"fmt"
	"os"
	"time"
)

// DevAPIConfig configures the development stand-in of the booking service.
type DevAPIConfig struct {
	Port           string
	SigningKey     []byte
	TokenTTL       time.Duration
	StorageBackend string // memory | postgres
	DatabaseURL    string
	IdempotencyTTL time.Duration
	LogLevel       string
}

func LoadDevAPIConfigFromEnv() (DevAPIConfig, error) {
	key := os.Getenv("DEVAPI_SIGNING_KEY")
	if key == "" {
		return DevAPIConfig{}, fmt.Errorf("missing required env var: DEVAPI_SIGNING_KEY")
	}

	cfg := DevAPIConfig{
		Port:           getenv("PORT", "8080"),
		SigningKey:     []byte(key),
		TokenTTL:       24 * time.Hour,
		StorageBackend: getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		IdempotencyTTL: 24 * time.Hour,
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}

	if v := os.Getenv("DEVAPI_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return DevAPIConfig{}, fmt.Errorf("DEVAPI_TOKEN_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv("DEVAPI_IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return DevAPIConfig{}, fmt.Errorf("DEVAPI_IDEMPOTENCY_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	switch cfg.StorageBackend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return DevAPIConfig{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return DevAPIConfig{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
