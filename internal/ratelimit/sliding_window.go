// Package ratelimit throttles bot commands per Telegram user.
package ratelimit

import (
	"sync"
	"time"

	"mclink/internal/clock"
)

const (
	DefaultMaxRequests = 10
	DefaultWindow      = 60 * time.Second
)

// SlidingWindow keeps the timestamps of the accepted requests of every
// identity and allows a new one while fewer than maxRequests of them fall
// inside the trailing window. Denied requests are not recorded.
type SlidingWindow struct {
	mu          sync.Mutex
	requests    map[int64][]time.Time
	maxRequests int
	window      time.Duration
	clock       clock.Clock
	lastSweep   time.Time
}

func NewSlidingWindow(maxRequests int, window time.Duration, clk clock.Clock) *SlidingWindow {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clk == nil {
		clk = clock.New()
	}
	return &SlidingWindow{
		requests:    make(map[int64][]time.Time),
		maxRequests: maxRequests,
		window:      window,
		clock:       clk,
	}
}

func (l *SlidingWindow) Allow(identity int64) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}

	recent := l.prune(identity, now)
	if len(recent) >= l.maxRequests {
		return false
	}

	l.requests[identity] = append(recent, now)
	return true
}

// RetryAfter reports how long the identity has to wait until Allow can
// succeed again. Zero means it can proceed right away.
func (l *SlidingWindow) RetryAfter(identity int64) time.Duration {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.prune(identity, now)
	if len(recent) < l.maxRequests {
		return 0
	}

	oldest := recent[len(recent)-l.maxRequests]
	return oldest.Add(l.window).Sub(now)
}

func (l *SlidingWindow) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// sweep forgets identities whose newest request already left the window.
func (l *SlidingWindow) sweep(now time.Time) {
	for id, stamps := range l.requests {
		if len(stamps) == 0 || now.Sub(stamps[len(stamps)-1]) >= l.window {
			delete(l.requests, id)
		}
	}
	l.lastSweep = now
}

// prune drops timestamps that left the window. Must be called with mu held.
func (l *SlidingWindow) prune(identity int64, now time.Time) []time.Time {
	stamps := l.requests[identity]

	keep := 0
	for keep < len(stamps) && now.Sub(stamps[keep]) >= l.window {
		keep++
	}
	recent := stamps[keep:]

	if len(recent) == 0 {
		delete(l.requests, identity)
		return nil
	}
	l.requests[identity] = recent
	return recent
}
