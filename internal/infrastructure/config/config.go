// Package config loads runtime configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL, default=8h"`

	DBPath string `env:"DB_PATH, default=data/opsboard.db"`

	// DayHours is the default daily capacity in hours; per-day overrides
	// take precedence.
	DayHours int `env:"DAY_HOURS, default=8"`
	// DefaultView is the granularity used when a CRA summary request does
	// not name one: day, week, or month.
	DefaultView string `env:"DEFAULT_VIEW, default=week"`

	BcryptCost  int    `env:"BCRYPT_COST, default=12"`
	CSVEncoding string `env:"CSV_ENCODING, default=utf-8"`

	// Demo seed credentials. The admin password is required outside
	// development so demo instances never ship a known default.
	DemoAdminPassword string `env:"DEMO_ADMIN_PASSWORD, default=admin"`
	DemoUserPassword  string `env:"DEMO_USER_PASSWORD,  default=demo"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTSecret == "" && cfg.Env != "development" {
		return nil, fmt.Errorf("JWT_SECRET is required outside development")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-only-secret"
	}
	return &cfg, nil
}
