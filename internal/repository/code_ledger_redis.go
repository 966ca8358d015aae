package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mclink/internal/clock"
	"mclink/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "mclink"
	sweepScanSize = 100
)

func codeKey(code string) string {
	return fmt.Sprintf("%s:code:%s", keyPrefix, code)
}

func codeKeyPattern() string {
	return fmt.Sprintf("%s:code:*", keyPrefix)
}

// RedisLedger keeps pending codes in Redis so they survive bot restarts and
// can be written by the game server side directly. Each key carries a Redis
// TTL equal to the code ttl; ExpiresAt is still checked on every read.
type RedisLedger struct {
	client *redis.Client
	clock  clock.Clock
}

var _ CodeLedger = (*RedisLedger)(nil)

func NewRedisLedger(client *redis.Client, clk clock.Clock) *RedisLedger {
	if clk == nil {
		clk = clock.New()
	}
	return &RedisLedger{client: client, clock: clk}
}

func (l *RedisLedger) Issue(ctx context.Context, pending models.PendingCode, ttl time.Duration) error {
	if ttl <= 0 {
		return errNonPositiveTTL
	}
	pending.Code = NormalizeCode(pending.Code)
	pending.ExpiresAt = l.clock.Now().Add(ttl)

	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode code: %w", err)
	}

	if err := l.client.Set(ctx, codeKey(pending.Code), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (l *RedisLedger) Resolve(ctx context.Context, code string) (*models.PendingCode, error) {
	key := codeKey(NormalizeCode(code))

	data, err := l.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to read code: %w", err)
	}

	var entry models.PendingCode
	if err := json.Unmarshal(data, &entry); err != nil {
		l.client.Del(ctx, key)
		return nil, fmt.Errorf("failed to decode code: %w", err)
	}

	if entry.Expired(l.clock.Now()) {
		if err := l.client.Del(ctx, key).Err(); err != nil {
			return nil, fmt.Errorf("failed to delete expired code: %w", err)
		}
		return nil, models.ErrCodeExpired
	}

	return &entry, nil
}

func (l *RedisLedger) Consume(ctx context.Context, code string) error {
	if err := l.client.Del(ctx, codeKey(NormalizeCode(code))).Err(); err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}
	return nil
}

// Sweep removes entries whose ExpiresAt has passed but whose Redis TTL has
// not fired yet, which happens when clocks disagree.
func (l *RedisLedger) Sweep(ctx context.Context, now time.Time) error {
	var cursor uint64
	for {
		keys, next, err := l.client.Scan(ctx, cursor, codeKeyPattern(), sweepScanSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan codes: %w", err)
		}

		for _, key := range keys {
			data, err := l.client.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			var entry models.PendingCode
			if err := json.Unmarshal(data, &entry); err != nil || entry.Expired(now) {
				l.client.Del(ctx, key)
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}
