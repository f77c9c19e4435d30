// Package config provides Viper-based configuration for the ridebook CLI.
package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Overland-East-Bay/ridebook/internal/ports/out/tokenstore"
)

// EnvPrefix is the prefix of environment overrides, e.g. RIDEBOOK_API_BASE_URL.
const EnvPrefix = "RIDEBOOK"

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Geocoder GeocoderConfig `mapstructure:"geocoder"`
	Router   RouterConfig   `mapstructure:"router"`
	Session  SessionConfig  `mapstructure:"session"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// APIConfig locates the remote booking service.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type GeocoderConfig struct {
	Provider          string  `mapstructure:"provider"` // memory | nominatim
	BaseURL           string  `mapstructure:"base_url"`
	UserAgent         string  `mapstructure:"user_agent"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	CacheSize         int     `mapstructure:"cache_size"`
}

type RouterConfig struct {
	Provider string `mapstructure:"provider"` // memory | osrm
	BaseURL  string `mapstructure:"base_url"`
}

// SessionConfig selects where the session token is persisted.
type SessionConfig struct {
	Store       string        `mapstructure:"store"` // memory | file | redis | postgres
	File        string        `mapstructure:"file"`
	RedisAddr   string        `mapstructure:"redis_addr"`
	DatabaseURL string        `mapstructure:"database_url"`
	TokenKey    string        `mapstructure:"token_key"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// Load reads configuration from cfgFile (or the default search path) and
// RIDEBOOK_* environment variables. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("ridebook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ridebook")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Session.File == "" {
		cfg.Session.File = defaultTokenFile()
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("geocoder.provider", "memory")
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "ridebook/dev")
	v.SetDefault("geocoder.requests_per_second", 1.0)
	v.SetDefault("geocoder.cache_size", 256)

	v.SetDefault("router.provider", "memory")
	v.SetDefault("router.base_url", "https://router.project-osrm.org")

	v.SetDefault("session.store", "file")
	v.SetDefault("session.file", "")
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.database_url", "")
	v.SetDefault("session.token_key", tokenstore.DefaultKey)
	v.SetDefault("session.default_ttl", time.Hour)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")

	v.SetDefault("output.colors", true)
}

func defaultTokenFile() string {
	dir, err := userConfigDir()
	if err != nil {
		return filepath.Join(".", ".ridebook-token")
	}
	return filepath.Join(dir, "ridebook", "token")
}

func validate(cfg *Config) error {
	if err := validateURL("api.base_url", cfg.API.BaseURL); err != nil {
		return err
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}

	switch cfg.Geocoder.Provider {
	case "memory":
	case "nominatim":
		if err := validateURL("geocoder.base_url", cfg.Geocoder.BaseURL); err != nil {
			return err
		}
		if strings.TrimSpace(cfg.Geocoder.UserAgent) == "" {
			return fmt.Errorf("geocoder.user_agent is required for nominatim")
		}
		if cfg.Geocoder.RequestsPerSecond <= 0 {
			return fmt.Errorf("geocoder.requests_per_second must be positive")
		}
	default:
		return fmt.Errorf("invalid geocoder provider: %s (must be memory or nominatim)", cfg.Geocoder.Provider)
	}

	switch cfg.Router.Provider {
	case "memory":
	case "osrm":
		if err := validateURL("router.base_url", cfg.Router.BaseURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid router provider: %s (must be memory or osrm)", cfg.Router.Provider)
	}

	switch cfg.Session.Store {
	case "memory", "file":
	case "redis":
		if cfg.Session.RedisAddr == "" {
			return fmt.Errorf("session.redis_addr is required for the redis store")
		}
	case "postgres":
		if cfg.Session.DatabaseURL == "" {
			return fmt.Errorf("session.database_url is required for the postgres store")
		}
	default:
		return fmt.Errorf("invalid session store: %s (must be memory, file, redis, or postgres)", cfg.Session.Store)
	}
	if cfg.Session.TokenKey == "" {
		return fmt.Errorf("session.token_key must not be empty")
	}
	if cfg.Session.DefaultTTL <= 0 {
		return fmt.Errorf("session.default_ttl must be positive, got %s", cfg.Session.DefaultTTL)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", cfg.Logging.Format)
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
	}
	return nil
}
