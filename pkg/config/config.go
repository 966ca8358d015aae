package config

import (
	"errors"
	"fmt"
	"time"

	"mclink/internal/authority"
	"mclink/internal/delivery/ingest"
	"mclink/internal/repository"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Auth   authority.Config
	Store  repository.Config `envPrefix:"STORE_"`
	Ingest ingest.Config     `envPrefix:"INGEST_"`

	BotToken string `env:"BOT_TOKEN" envDefault:""`
	LogLevel string `env:"LOGGER_LEVEL" envDefault:"debug"`

	CodeTTL         time.Duration `env:"CODE_TTL" envDefault:"10m"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"10"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
}

func ReadEnvConfig(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("BOT_TOKEN is required")
	}

	switch c.Auth.Mode {
	case authority.ModeLocal, authority.ModeRemote:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}

	switch c.Store.LedgerBackend {
	case repository.LedgerMemory:
	case repository.LedgerRedis:
		if c.Store.RedisURL == "" {
			return errors.New("STORE_REDIS_URL is required for the redis ledger")
		}
	default:
		return fmt.Errorf("unknown STORE_LEDGER_BACKEND %q", c.Store.LedgerBackend)
	}

	if c.Ingest.Enabled() && c.Ingest.APIKey == "" {
		return errors.New("INGEST_API_KEY is required when INGEST_ADDR is set")
	}
	if c.CodeTTL <= 0 || c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("CODE_TTL, RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}
