package repository

import (
	"context"
	"fmt"
	"time"

	"mclink/internal/clock"
	"mclink/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

// LinkStore owns the chat -> player bindings and their persistence. It does
// not enforce business rules beyond the one-chat-per-player eviction in Put.
type LinkStore interface {
	Get(chatID int64) (string, bool)
	Put(chatID int64, playerName string)
	Remove(chatID int64)
	FindByPlayer(playerName string) (int64, bool)
	All() []models.LinkRecord
	Load()
	Save() error
	Path() string
}

// CodeLedger keeps one-time codes until they are consumed or expire.
// Codes are case-insensitive; shape validation is up to the caller.
type CodeLedger interface {
	Issue(ctx context.Context, pending models.PendingCode, ttl time.Duration) error
	Resolve(ctx context.Context, code string) (*models.PendingCode, error)
	Consume(ctx context.Context, code string) error
	Sweep(ctx context.Context, now time.Time) error
}

type Repository struct {
	Links LinkStore
	Codes CodeLedger
	redis *redis.Client
}

func NewRepository(cfg *Config, fs afero.Fs, clk clock.Clock, logger Logger) (*Repository, error) {
	links := NewFileLinkStore(fs, cfg.DataFile, logger)
	links.Load()

	repo := &Repository{Links: links}

	switch cfg.LedgerBackend {
	case "", LedgerMemory:
		repo.Codes = NewMemoryLedger(clk)
	case LedgerRedis:
		client, err := NewRedisClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		repo.redis = client
		repo.Codes = NewRedisLedger(client, clk)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
	}

	return repo, nil
}

func (r *Repository) Close() error {
	if r.redis != nil {
		return r.redis.Close()
	}
	return nil
}
