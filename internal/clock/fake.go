package clock

import (
	"sync"
	"time"
)

// Fake is a manually driven Clock for tests.
type Fake struct {
	mu      sync.Mutex
	current time.Time
}

var _ Clock = (*Fake)(nil)

func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by d
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
