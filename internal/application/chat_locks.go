package application

import "sync"

// chatLocks hands out one mutex per chat. Entries are dropped once nobody
// holds or waits for them.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*chatLock)}
}

// lock blocks until the chat is free and returns the matching unlock.
func (c *chatLocks) lock(chatID int64) func() {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &chatLock{}
		c.locks[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, chatID)
		}
		c.mu.Unlock()
	}
}

// holders counts callers holding or waiting for the chat's lock
func (c *chatLocks) holders(chatID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locks[chatID]; ok {
		return l.refs
	}
	return 0
}
