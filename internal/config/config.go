// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets lists placeholder secrets from docs and examples.
// They are rejected outright.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the full application configuration. Every field is bound
// to a TIDES_ environment variable.
type Config struct {
	DBPath        string `env:"TIDES_DB_PATH" envDefault:"./data/tides.db"`
	SessionSecret string `env:"TIDES_SESSION_SECRET,required"`
	ServerHost    string `env:"TIDES_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"TIDES_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"TIDES_ENV" envDefault:"development"`
	LogLevel      string `env:"TIDES_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"TIDES_UPLOADS_DIR" envDefault:"./uploads"`

	// SPA configuration
	SPAOrigin string `env:"TIDES_SPA_ORIGIN" envDefault:"http://localhost:3000"` // Allowed CORS origin for the frontend

	// Cache configuration
	RedisURL     string `env:"TIDES_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"TIDES_CACHE_PREFIX" envDefault:"tides:"`  // Redis key prefix
	CacheTTL     int    `env:"TIDES_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"TIDES_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"TIDES_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Seeding configuration
	DoSeed bool `env:"TIDES_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment reports whether the app runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the listen address in host:port form.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache reports whether a Redis URL was configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled reports whether a GeoIP database path was configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum length accepted for the session
// secret, matching the 32 bytes the CSRF key derivation needs.
const MinSessionSecretLength = 32

const secretHint = "generate a secure secret with: openssl rand -base64 32"

// Load parses environment variables into a Config and validates the
// session secret before anything else starts using it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := checkSessionSecret(cfg.SessionSecret); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkSessionSecret(secret string) error {
	if len(secret) < MinSessionSecretLength {
		return fmt.Errorf("TIDES_SESSION_SECRET must be at least %d bytes long, got %d bytes; %s",
			MinSessionSecretLength, len(secret), secretHint)
	}
	for _, weak := range knownWeakSecrets {
		if secret == weak {
			return fmt.Errorf("TIDES_SESSION_SECRET is a known default value and must not be used; %s", secretHint)
		}
	}
	if !hasMinimumEntropy(secret) {
		slog.Warn("TIDES_SESSION_SECRET has low character diversity; " +
			"consider generating a random one with: openssl rand -base64 32")
	}
	return nil
}

// charClasses partitions printable ASCII into the classes counted by
// hasMinimumEntropy.
var charClasses = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"0123456789",
	"!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\",
}

// hasMinimumEntropy reports whether a secret draws on at least 3 of the
// 4 character classes.
func hasMinimumEntropy(s string) bool {
	found := 0
	for _, class := range charClasses {
		if strings.ContainsAny(s, class) {
			found++
		}
	}
	return found >= 3
}
