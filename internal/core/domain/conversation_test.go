package domain

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation(t *testing.T) {
	c := NewConversation()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Turns())

	seeded := NewConversation(SystemTurn("be brief"), UserTurn("hi"))
	assert.Equal(t, 2, seeded.Len())
	assert.Equal(t, RoleSystem, seeded.Turns()[0].Role)
}

func TestConversation_AppendPreservesOrder(t *testing.T) {
	c := NewConversation()
	c.Append(UserTurn("one"))
	c.Append(AssistantTurn("two"), UserTurn("three"))
	c.Append()

	turns := c.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "one", turns[0].Content)
	assert.Equal(t, "two", turns[1].Content)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, "three", turns[2].Content)
}

func TestConversation_TurnsReturnsCopy(t *testing.T) {
	c := NewConversation(UserTurn("original"))

	turns := c.Turns()
	turns[0].Content = "changed"
	_ = append(turns, UserTurn("extra"))

	assert.Equal(t, "original", c.Turns()[0].Content)
	assert.Equal(t, 1, c.Len())
}

func TestConversation_SeedIsCopied(t *testing.T) {
	seed := []Turn{UserTurn("a")}
	c := NewConversation(seed...)
	seed[0].Content = "b"

	assert.Equal(t, "a", c.Turns()[0].Content)
}

func TestConversation_ConcurrentAppend(t *testing.T) {
	c := NewConversation()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Append(UserTurn("x"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestConversation_AcquireIsFIFO(t *testing.T) {
	c := NewConversation()
	release := c.Acquire()

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)

	// Queue waiters one at a time so their ticket order is known.
	for i := 0; i < 5; i++ {
		wg.Add(1)
		started := make(chan struct{})
		go func(n int) {
			defer wg.Done()
			close(started)
			r := c.Acquire()
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			r()
		}(i)
		<-started
		time.Sleep(10 * time.Millisecond)
	}

	release()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestConversation_ReleaseIsIdempotent(t *testing.T) {
	c := NewConversation()
	r := c.Acquire()
	r()
	r()

	done := make(chan struct{})
	go func() {
		c.Acquire()()
		c.Acquire()()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("span lock deadlocked after double release")
	}
}
