package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadFromMap_DefaultValues(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabaseURL != "postgres://localhost:5432/jwtauth?sslmode=disable" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if !cfg.AutoMigrate {
		t.Error("AutoMigrate should default to true")
	}
	if cfg.JWTSecret != DefaultJWTSecret {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, DefaultJWTSecret)
	}
	if !cfg.UsesDefaultSecret() {
		t.Error("UsesDefaultSecret() should be true with the default secret")
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, 24*time.Hour)
	}
	if cfg.ServerPort != "3000" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "3000")
	}
	if cfg.CORSAllowedOrigin != "*" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "*")
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled should default to true")
	}
}

func TestLoadFromMap_CustomValues(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{
		"DATABASE_URL":        "sqlite:///tmp/jwtauth.db",
		"AUTO_MIGRATE":        "false",
		"JWT_SECRET":          "s3cr3t",
		"TOKEN_TTL":           "2h",
		"SERVER_PORT":         "8080",
		"CORS_ALLOWED_ORIGIN": "http://localhost:5173",
		"LOG_LEVEL":           "debug",
		"METRICS_ENABLED":     "false",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.DatabaseURL != "sqlite:///tmp/jwtauth.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.AutoMigrate {
		t.Error("AutoMigrate = true, want false")
	}
	if cfg.JWTSecret != "s3cr3t" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "s3cr3t")
	}
	if cfg.UsesDefaultSecret() {
		t.Error("UsesDefaultSecret() should be false with a custom secret")
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want %v", cfg.TokenTTL, 2*time.Hour)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:5173" {
		t.Errorf("CORSAllowedOrigin = %q", cfg.CORSAllowedOrigin)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false")
	}
}

func TestLoadFromMap_InvalidValues_ReturnError(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		wantSub string
	}{
		{"unsupported scheme", map[string]string{"DATABASE_URL": "mysql://localhost/db"}, "unsupported DATABASE_URL scheme"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "failed to parse environment"},
		{"bad bool", map[string]string{"AUTO_MIGRATE": "maybe"}, "failed to parse environment"},
		{"bad duration", map[string]string{"TOKEN_TTL": "tomorrow"}, "failed to parse environment"},
		{"non-positive ttl", map[string]string{"TOKEN_TTL": "0s"}, "TOKEN_TTL must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromMap(tt.environ)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestLoadFromMap_PostgresqlSchemeAccepted(t *testing.T) {
	_, err := LoadFromMap(map[string]string{
		"DATABASE_URL": "postgresql://user:pass@db:5432/jwtauth?sslmode=disable",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestLoad_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "from-env")
	}
	if cfg.ServerPort != "9999" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9999")
	}
}
