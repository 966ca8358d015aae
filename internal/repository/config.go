package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	DataFile      string `env:"DATA_FILE" envDefault:"bot_data.json"`
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"memory"`
	RedisURL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

func NewRedisClient(cfg *Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
