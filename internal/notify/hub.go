package notify

import (
	"sync"

	"github.com/leapstack-labs/scenariowatch/internal/result"
)

// RunEvent announces a completed run.
type RunEvent struct {
	Trigger string
	Summary result.Summary
}

// Hub broadcasts run events to in-process listeners such as the interactive
// console.
type Hub struct {
	mu        sync.RWMutex
	listeners map[chan RunEvent]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		listeners: make(map[chan RunEvent]struct{}),
	}
}

// Subscribe returns a channel that receives run events.
// The caller must call Unsubscribe when done.
func (h *Hub) Subscribe() chan RunEvent {
	ch := make(chan RunEvent, 1)
	h.mu.Lock()
	h.listeners[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (h *Hub) Unsubscribe(ch chan RunEvent) {
	h.mu.Lock()
	delete(h.listeners, ch)
	h.mu.Unlock()
	close(ch)
}

// Broadcast sends ev to all listeners. A listener whose buffer is full misses
// the event.
func (h *Hub) Broadcast(ev RunEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}
