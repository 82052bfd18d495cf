package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultJWTSecret はJWT_SECRET未設定時に使用する開発用の署名鍵。
// 本番環境では必ず上書きすること。
const DefaultJWTSecret = "your-super-secret-jwt-key"

// DefaultServerPort はSERVER_PORT未設定時の待ち受けポート。
const DefaultServerPort = "3000"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/jwtauth?sslmode=disable"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Token
	JWTSecret string        `env:"JWT_SECRET" envDefault:"your-super-secret-jwt-key"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"3000"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`

	// Observability
	LogLevel       slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	MetricsEnabled bool       `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load は環境変数からConfigを読み込む。
// 全項目にデフォルト値があるため、未設定の環境変数はエラーにならない。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromMap は指定されたマップを環境変数の代わりに使用してConfigを読み込む。
// プロセス環境を参照しないため、テストで使用する。
func LoadFromMap(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UsesDefaultSecret はJWT署名鍵が開発用デフォルトのままかどうかを返す。
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}

	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_URL scheme: %q", u.Scheme)
	}
	return nil
}
