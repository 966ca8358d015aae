package authority

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mclink/internal/models"
	"mclink/internal/repository"
)

// Local redeems codes from the bot's own ledger.
type Local struct {
	mu     sync.Mutex
	ledger repository.CodeLedger
	logger Logger
}

var _ Authority = (*Local)(nil)

func NewLocal(ledger repository.CodeLedger, logger Logger) *Local {
	return &Local{ledger: ledger, logger: logger}
}

// Verify resolves and consumes the code in one step so a code can be
// redeemed only once even when two chats race for it.
func (l *Local) Verify(ctx context.Context, code string, chatID int64) (models.PlayerIdentity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.ledger.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrCodeNotFound) || errors.Is(err, models.ErrCodeExpired) {
			return models.PlayerIdentity{}, err
		}
		return models.PlayerIdentity{}, fmt.Errorf("failed to resolve code: %w", err)
	}

	if entry.ChatIDHint != nil && *entry.ChatIDHint != chatID {
		l.logger.Warn("Code %s is reserved for chat %d, rejected for chat %d", entry.Code, *entry.ChatIDHint, chatID)
		return models.PlayerIdentity{}, models.ErrCodeNotFound
	}

	if err := l.ledger.Consume(ctx, entry.Code); err != nil {
		return models.PlayerIdentity{}, fmt.Errorf("failed to consume code: %w", err)
	}

	return entry.Player(), nil
}

func (l *Local) HealthCheck(ctx context.Context) bool {
	return true
}

func (l *Local) Mode() string {
	return ModeLocal
}
