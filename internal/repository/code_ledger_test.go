package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mclink/internal/clock"
	"mclink/internal/models"
)

var ledgerEpoch = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestMemoryLedger_IssueAndResolve(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(ledgerEpoch)
	ledger := NewMemoryLedger(clk)

	err := ledger.Issue(ctx, models.PendingCode{Code: "ab12cd34", PlayerName: "Steve", PlayerUUID: "uuid-1"}, 10*time.Minute)
	require.NoError(t, err)

	entry, err := ledger.Resolve(ctx, "AB12cd34")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD34", entry.Code)
	assert.Equal(t, "Steve", entry.PlayerName)
	assert.Equal(t, ledgerEpoch.Add(10*time.Minute), entry.ExpiresAt)

	// resolving does not consume
	_, err = ledger.Resolve(ctx, "AB12CD34")
	assert.NoError(t, err)
}

func TestMemoryLedger_ValidUntilExpiry(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(ledgerEpoch)
	ledger := NewMemoryLedger(clk)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Steve"}, 600*time.Second))

	clk.Advance(599 * time.Second)
	_, err := ledger.Resolve(ctx, "AB12CD34")
	assert.NoError(t, err)

	clk.Advance(time.Second)
	_, err = ledger.Resolve(ctx, "AB12CD34")
	assert.NoError(t, err, "a code is valid up to and including its expiry instant")
}

func TestMemoryLedger_ExpiredCodeIsPurgedOnLookup(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(ledgerEpoch)
	ledger := NewMemoryLedger(clk)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Steve"}, time.Minute))

	clk.Advance(time.Minute + time.Second)

	_, err := ledger.Resolve(ctx, "AB12CD34")
	assert.ErrorIs(t, err, models.ErrCodeExpired)
	assert.Zero(t, ledger.Size())

	_, err = ledger.Resolve(ctx, "AB12CD34")
	assert.ErrorIs(t, err, models.ErrCodeNotFound)
}

func TestMemoryLedger_AccessPurgesOtherExpiredCodes(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(ledgerEpoch)
	ledger := NewMemoryLedger(clk)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "OLDCODE1", PlayerName: "Steve"}, time.Minute))
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "OLDCODE2", PlayerName: "Alex"}, time.Minute))

	clk.Advance(2 * time.Minute)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "NEWCODE1", PlayerName: "Herobrine"}, time.Minute))

	assert.Equal(t, 1, ledger.Size())
}

func TestMemoryLedger_Consume(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(clock.NewFake(ledgerEpoch))
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Steve"}, time.Minute))

	require.NoError(t, ledger.Consume(ctx, "ab12cd34"))
	require.NoError(t, ledger.Consume(ctx, "ab12cd34"))

	_, err := ledger.Resolve(ctx, "AB12CD34")
	assert.ErrorIs(t, err, models.ErrCodeNotFound)
}

func TestMemoryLedger_IssueOverwritesCollision(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(clock.NewFake(ledgerEpoch))
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Steve"}, time.Minute))
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Alex"}, time.Minute))

	entry, err := ledger.Resolve(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, "Alex", entry.PlayerName)
}

func TestMemoryLedger_Sweep(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(ledgerEpoch)
	ledger := NewMemoryLedger(clk)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "SHORT001", PlayerName: "Steve"}, time.Minute))
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "LONG0001", PlayerName: "Alex"}, time.Hour))

	require.NoError(t, ledger.Sweep(ctx, ledgerEpoch.Add(2*time.Minute)))

	assert.Equal(t, 1, ledger.Size())
	_, err := ledger.Resolve(ctx, "LONG0001")
	assert.NoError(t, err)
}

func TestMemoryLedger_RejectsNonPositiveTTL(t *testing.T) {
	ledger := NewMemoryLedger(clock.NewFake(ledgerEpoch))
	err := ledger.Issue(context.Background(), models.PendingCode{Code: "AB12CD34"}, 0)
	assert.Error(t, err)
}
