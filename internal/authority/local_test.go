package authority

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mclink/internal/clock"
	"mclink/internal/models"
	"mclink/internal/repository"
)

func newLocal(t *testing.T) (*Local, repository.CodeLedger, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	ledger := repository.NewMemoryLedger(clk)
	return NewLocal(ledger, nopLogger{}), ledger, clk
}

func TestLocal_VerifyConsumesCode(t *testing.T) {
	ctx := context.Background()
	local, ledger, _ := newLocal(t)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Steve", PlayerUUID: "u-1"}, 10*time.Minute))

	player, err := local.Verify(ctx, "ab12cd34", 42)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerIdentity{Name: "Steve", UUID: "u-1"}, player)

	_, err = local.Verify(ctx, "AB12CD34", 42)
	assert.ErrorIs(t, err, models.ErrCodeNotFound)
}

func TestLocal_VerifyExpired(t *testing.T) {
	ctx := context.Background()
	local, ledger, clk := newLocal(t)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Steve"}, time.Minute))

	clk.Advance(61 * time.Second)

	_, err := local.Verify(ctx, "AB12CD34", 42)
	assert.ErrorIs(t, err, models.ErrCodeExpired)

	_, err = local.Verify(ctx, "AB12CD34", 42)
	assert.ErrorIs(t, err, models.ErrCodeNotFound)
}

func TestLocal_VerifyRespectsChatHint(t *testing.T) {
	ctx := context.Background()
	local, ledger, _ := newLocal(t)
	hint := int64(42)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Steve", ChatIDHint: &hint}, time.Minute))

	_, err := local.Verify(ctx, "AB12CD34", 7)
	assert.ErrorIs(t, err, models.ErrCodeNotFound)

	// the rightful chat can still redeem it
	player, err := local.Verify(ctx, "AB12CD34", 42)
	require.NoError(t, err)
	assert.Equal(t, "Steve", player.Name)
}

func TestLocal_CodeRedeemedOnceUnderRace(t *testing.T) {
	ctx := context.Background()
	local, ledger, _ := newLocal(t)
	require.NoError(t, ledger.Issue(ctx, models.PendingCode{Code: "AB12CD34", PlayerName: "Steve"}, time.Minute))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			if _, err := local.Verify(ctx, "AB12CD34", chatID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestLocal_HealthAndMode(t *testing.T) {
	local, _, _ := newLocal(t)
	assert.True(t, local.HealthCheck(context.Background()))
	assert.Equal(t, ModeLocal, local.Mode())
}

func TestNew_SelectsVariant(t *testing.T) {
	ledger := repository.NewMemoryLedger(nil)

	a, err := New(&Config{Mode: ModeLocal}, ledger, nil, nopLogger{})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, a)

	a, err = New(&Config{Mode: ModeRemote, BaseURL: "http://localhost:8080/api"}, ledger, nil, nopLogger{})
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, a)

	_, err = New(&Config{Mode: "carrier-pigeon"}, ledger, nil, nopLogger{})
	assert.Error(t, err)

	_, err = New(&Config{Mode: ModeRemote, BaseURL: "::not a url"}, ledger, nil, nopLogger{})
	assert.Error(t, err)
}
