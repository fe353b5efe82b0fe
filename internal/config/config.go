// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DeviceLimit is the global ceiling on registered devices. Registration
	// and auto-registration fail once the count reaches this value.
	DeviceLimit int `mapstructure:"DEVICE_LIMIT"`
	// JWTSecret is the shared HS256 secret used to read caller identity claims.
	// Token issuance and full verification policy live in the auth service.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTIssuer is the expected iss claim (e.g. "devicetrail-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim (e.g. "devicetrail-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// IPLogRetention is how long IP observations are kept before the janitor
	// deletes them (e.g. "2160h" for 90 days).
	IPLogRetention string `mapstructure:"IP_LOG_RETENTION"`
	// JanitorInterval is how often the janitor sweeps (e.g. "1h").
	JanitorInterval string `mapstructure:"JANITOR_INTERVAL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DEVICE_LIMIT", 1000)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "devicetrail-auth")
	v.SetDefault("JWT_AUDIENCE", "devicetrail-api")
	v.SetDefault("IP_LOG_RETENTION", "2160h") // 90d
	v.SetDefault("JANITOR_INTERVAL", "1h")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.DeviceLimit <= 0 {
		return nil, errors.New("config: DEVICE_LIMIT must be a positive integer")
	}
	if cfg.Env == "production" && cfg.JWTSecret == "" {
		return nil, errors.New("config: JWT_SECRET must be set when APP_ENV=production")
	}

	return &cfg, nil
}

// IPLogRetentionDuration parses IPLogRetention as a time.Duration. Returns 90 days if unset or invalid.
func (c *Config) IPLogRetentionDuration() time.Duration {
	d, err := time.ParseDuration(c.IPLogRetention)
	if err != nil || d <= 0 {
		return 2160 * time.Hour
	}
	return d
}

// JanitorIntervalDuration parses JanitorInterval as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) JanitorIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.JanitorInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
