package domain

import "sync"

// Conversation is the ordered, append-only log of turns for a chat session.
// It is shared by pointer between every Mode that references it and lives
// only for the lifetime of the process.
//
// Reads and appends are individually safe. Callers that must keep a
// read-send-append span atomic take the span lock with Acquire; waiters are
// admitted in the order they called Acquire.
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn

	span spanLock
}

// NewConversation creates a conversation seeded with the given turns.
func NewConversation(seed ...Turn) *Conversation {
	c := &Conversation{}
	if len(seed) > 0 {
		c.turns = append(make([]Turn, 0, len(seed)), seed...)
	}
	return c
}

// Append adds turns to the end of the log.
func (c *Conversation) Append(turns ...Turn) {
	if len(turns) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
}

// Turns returns a copy of the log in order.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Acquire blocks until the caller holds the span lock and returns the
// function that releases it.
func (c *Conversation) Acquire() (release func()) {
	return c.span.acquire()
}

// spanLock is a FIFO ticket lock.
type spanLock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func (l *spanLock) acquire() func() {
	l.mu.Lock()
	if l.cond == nil {
		l.cond = sync.NewCond(&l.mu)
	}
	ticket := l.next
	l.next++
	for ticket != l.serving {
		l.cond.Wait()
	}
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.serving++
			l.mu.Unlock()
			l.cond.Broadcast()
		})
	}
}
