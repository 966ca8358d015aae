package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mclink/internal/clock"
)

func newTestLimiter() (*SlidingWindow, *clock.Fake) {
	clk := clock.NewFake(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewSlidingWindow(10, 60*time.Second, clk), clk
}

func TestSlidingWindow_AllowsUpToMaxThenDenies(t *testing.T) {
	limiter, clk := newTestLimiter()

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(42), "request %d should be allowed", i+1)
		clk.Advance(5 * time.Second)
	}

	assert.False(t, limiter.Allow(42), "11th request inside the window must be denied")
}

func TestSlidingWindow_RegainsBudgetAfterWindow(t *testing.T) {
	limiter, clk := newTestLimiter()

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(42))
	}
	require.False(t, limiter.Allow(42))

	clk.Advance(60 * time.Second)

	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow(42), "request %d after the window should be allowed", i+1)
	}
	assert.False(t, limiter.Allow(42))
}

func TestSlidingWindow_SlidesOneRequestAtATime(t *testing.T) {
	limiter, clk := newTestLimiter()

	require.True(t, limiter.Allow(1))
	clk.Advance(30 * time.Second)
	for i := 0; i < 9; i++ {
		require.True(t, limiter.Allow(1))
	}
	require.False(t, limiter.Allow(1))

	// only the first request has left the window
	clk.Advance(30 * time.Second)
	assert.True(t, limiter.Allow(1))
	assert.False(t, limiter.Allow(1))
}

func TestSlidingWindow_DeniedRequestsDoNotConsumeBudget(t *testing.T) {
	limiter, clk := newTestLimiter()

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(7))
	}
	for i := 0; i < 50; i++ {
		clk.Advance(time.Second)
		require.False(t, limiter.Allow(7))
	}

	clk.Advance(10 * time.Second)
	assert.True(t, limiter.Allow(7))
}

func TestSlidingWindow_IdentitiesAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter()

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(1))
	}
	assert.False(t, limiter.Allow(1))
	assert.True(t, limiter.Allow(2))
}

func TestSlidingWindow_RetryAfter(t *testing.T) {
	limiter, clk := newTestLimiter()

	assert.Zero(t, limiter.RetryAfter(5))

	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(5))
		clk.Advance(time.Second)
	}

	assert.Equal(t, 50*time.Second, limiter.RetryAfter(5))
}

func TestSlidingWindow_ForgetsIdleIdentities(t *testing.T) {
	limiter, clk := newTestLimiter()

	limiter.Allow(1)
	limiter.Allow(2)
	require.Equal(t, 2, limiter.Size())

	clk.Advance(2 * time.Minute)
	limiter.Allow(1)

	assert.Equal(t, 1, limiter.Size())
}

func TestSlidingWindow_Defaults(t *testing.T) {
	limiter := NewSlidingWindow(0, 0, nil)
	assert.Equal(t, DefaultMaxRequests, limiter.maxRequests)
	assert.Equal(t, DefaultWindow, limiter.window)
}

func TestSlidingWindow_ConcurrentCallersShareBudget(t *testing.T) {
	limiter, _ := newTestLimiter()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow(99) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}
