// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Clear environment and set only required var
	os.Clearenv()
	setEnv(t, "TIDES_SESSION_SECRET", "test-secret-key-32-bytes-long!!!")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Check defaults
	if cfg.DBPath != "./data/tides.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/tides.db")
	}
	if cfg.ServerHost != "localhost" {
		t.Errorf("ServerHost = %q, want %q", cfg.ServerHost, "localhost")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.SPAOrigin != "http://localhost:3000" {
		t.Errorf("SPAOrigin = %q, want %q", cfg.SPAOrigin, "http://localhost:3000")
	}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache() should be false by default")
	}
	if cfg.GeoIPEnabled() {
		t.Error("GeoIPEnabled() should be false by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	customSecret := "custom-secret-key-32-bytes-long!"
	setEnv(t, "TIDES_SESSION_SECRET", customSecret)
	setEnv(t, "TIDES_DB_PATH", "/custom/path.db")
	setEnv(t, "TIDES_SERVER_HOST", "0.0.0.0")
	setEnv(t, "TIDES_SERVER_PORT", "3000")
	setEnv(t, "TIDES_ENV", "production")
	setEnv(t, "TIDES_SPA_ORIGIN", "https://traceofthetides.org")
	setEnv(t, "TIDES_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SessionSecret != customSecret {
		t.Errorf("SessionSecret = %q, want %q", cfg.SessionSecret, customSecret)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/custom/path.db")
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() should be false for production")
	}
	if cfg.SPAOrigin != "https://traceofthetides.org" {
		t.Errorf("SPAOrigin = %q, want %q", cfg.SPAOrigin, "https://traceofthetides.org")
	}
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache() should be true when TIDES_REDIS_URL is set")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()
	// Don't set TIDES_SESSION_SECRET

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when TIDES_SESSION_SECRET is not set")
	}
}

func TestLoad_ShortSessionSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "TIDES_SESSION_SECRET", "too-short")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail for a session secret below the minimum length")
	}
}

func TestLoad_KnownWeakSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "TIDES_SESSION_SECRET", "change-me-to-32-byte-secret-key!")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should reject a known default session secret")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   bool
	}{
		{"lowercase only", "abcdefghijklmnopqrstuvwxyzabcdef", false},
		{"two classes", "abcdefghijklmnop0123456789abcdef", false},
		{"three classes", "Abcdefghijklmnop0123456789abcdef", true},
		{"four classes", "Abcdef!hijklmnop0123456789abcdef", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasMinimumEntropy(tt.secret); got != tt.want {
				t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
			}
		})
	}
}
