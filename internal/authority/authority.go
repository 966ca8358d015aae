// Package authority decides who turns a one-time code into a player
// identity: the bot itself, from its own code ledger, or the game server's
// HTTP API.
package authority

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"mclink/internal/models"
	"mclink/internal/repository"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"

	DefaultVerifyTimeout = 10 * time.Second
	DefaultHealthTimeout = 5 * time.Second
)

type Logger interface {
	Error(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Info(format string, v ...interface{})
	Debug(format string, v ...interface{})
}

type Config struct {
	Mode          string        `env:"AUTH_MODE" envDefault:"remote"`
	BaseURL       string        `env:"MINECRAFT_API_URL" envDefault:"http://localhost:8080/api"`
	APIKey        string        `env:"MINECRAFT_API_KEY" envDefault:""`
	VerifyTimeout time.Duration `env:"AUTH_VERIFY_TIMEOUT" envDefault:"10s"`
	HealthTimeout time.Duration `env:"AUTH_HEALTH_TIMEOUT" envDefault:"5s"`
}

// Authority redeems one-time codes.
//
// Verify returns models.ErrCodeNotFound or models.ErrCodeExpired for the
// local variant, and models.ErrRemoteUnavailable or a
// *models.RemoteRejectedError for the remote one.
type Authority interface {
	Verify(ctx context.Context, code string, chatID int64) (models.PlayerIdentity, error)
	HealthCheck(ctx context.Context) bool
	Mode() string
}

// Directory is implemented by authorities that also know the current
// bindings and should be asked before trusting the local cache.
type Directory interface {
	LinkedPlayer(ctx context.Context, chatID int64) (name string, linked bool, err error)
}

// New picks the authority variant named by cfg.Mode
func New(cfg *Config, ledger repository.CodeLedger, client *http.Client, logger Logger) (Authority, error) {
	switch cfg.Mode {
	case ModeLocal:
		if ledger == nil {
			return nil, fmt.Errorf("local authority requires a code ledger")
		}
		return NewLocal(ledger, logger), nil
	case ModeRemote:
		return NewRemote(cfg, client, logger)
	default:
		return nil, fmt.Errorf("unknown authority mode %q", cfg.Mode)
	}
}
