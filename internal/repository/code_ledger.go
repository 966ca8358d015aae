package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"mclink/internal/clock"
	"mclink/internal/models"
)

var errNonPositiveTTL = errors.New("code ttl must be positive")

// NormalizeCode brings a code to its canonical upper-case form
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MemoryLedger is a thread-safe in-process CodeLedger. Expired codes are
// purged whenever the ledger is touched; there is no background janitor.
type MemoryLedger struct {
	mu    sync.Mutex
	codes map[string]models.PendingCode
	clock clock.Clock
}

var _ CodeLedger = (*MemoryLedger)(nil)

func NewMemoryLedger(clk clock.Clock) *MemoryLedger {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryLedger{
		codes: make(map[string]models.PendingCode),
		clock: clk,
	}
}

// Issue stores the code, replacing any pending entry with the same code
func (l *MemoryLedger) Issue(ctx context.Context, pending models.PendingCode, ttl time.Duration) error {
	if ttl <= 0 {
		return errNonPositiveTTL
	}
	now := l.clock.Now()
	pending.Code = NormalizeCode(pending.Code)
	pending.ExpiresAt = now.Add(ttl)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	l.codes[pending.Code] = pending
	return nil
}

// Resolve returns the pending entry without consuming it. An entry found past
// its expiry is deleted and reported as models.ErrCodeExpired; later lookups
// of the same code get models.ErrCodeNotFound.
func (l *MemoryLedger) Resolve(ctx context.Context, code string) (*models.PendingCode, error) {
	code = NormalizeCode(code)
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.codes[code]
	if ok && entry.Expired(now) {
		delete(l.codes, code)
		l.sweep(now)
		return nil, models.ErrCodeExpired
	}
	l.sweep(now)

	if !ok {
		return nil, models.ErrCodeNotFound
	}
	return &entry, nil
}

func (l *MemoryLedger) Consume(ctx context.Context, code string) error {
	code = NormalizeCode(code)

	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.codes, code)
	l.sweep(l.clock.Now())
	return nil
}

func (l *MemoryLedger) Sweep(ctx context.Context, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)
	return nil
}

// Size returns the number of pending codes (for monitoring/debugging)
func (l *MemoryLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.codes)
}

// sweep must be called with mu held.
func (l *MemoryLedger) sweep(now time.Time) {
	for code, entry := range l.codes {
		if entry.Expired(now) {
			delete(l.codes, code)
		}
	}
}
