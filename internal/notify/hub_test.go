package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/scenariowatch/internal/result"
)

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	h := NewHub()

	ch := h.Subscribe()
	require.NotNil(t, ch)

	h.mu.RLock()
	assert.Len(t, h.listeners, 1)
	h.mu.RUnlock()

	h.Unsubscribe(ch)

	h.mu.RLock()
	assert.Len(t, h.listeners, 0)
	h.mu.RUnlock()
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()

	ch1 := h.Subscribe()
	ch2 := h.Subscribe()
	defer h.Unsubscribe(ch1)
	defer h.Unsubscribe(ch2)

	ev := RunEvent{Trigger: "all", Summary: result.Summary{Passed: true}}
	h.Broadcast(ev)

	for _, ch := range []chan RunEvent{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, ev, got)
		case <-time.After(100 * time.Millisecond):
			t.Fatal("listener did not receive broadcast")
		}
	}
}

func TestHub_BroadcastNonBlocking(t *testing.T) {
	h := NewHub()

	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	ch <- RunEvent{Trigger: "stale"}

	done := make(chan struct{})
	go func() {
		h.Broadcast(RunEvent{Trigger: "fresh"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Broadcast blocked on full channel")
	}
	assert.Equal(t, "stale", (<-ch).Trigger)
}

func TestHub_Concurrent(t *testing.T) {
	h := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := h.Subscribe()
			h.Broadcast(RunEvent{})
			h.Unsubscribe(ch)
		}()
	}
	wg.Wait()

	h.mu.RLock()
	assert.Len(t, h.listeners, 0)
	h.mu.RUnlock()
}
