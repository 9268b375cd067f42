// Package socket delivers fetched content to live network subscribers:
// connected TCP clients and a UDP target.
package socket

import (
	"sync"

	"github.com/fwojciec/httpmon"
	"github.com/google/uuid"
)

// Hub holds the live subscribers. It is safe for concurrent use: listeners
// add subscribers while the scheduler broadcasts.
type Hub struct {
	mu   sync.Mutex
	subs []hubEntry
}

type hubEntry struct {
	id  string
	sub httpmon.Subscriber
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Add registers a subscriber and returns its ID.
func (h *Hub) Add(sub httpmon.Subscriber) string {
	id := uuid.NewString()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, hubEntry{id: id, sub: sub})
	return id
}

// Remove unregisters and closes the subscriber with the given ID.
// It reports whether the subscriber was still registered.
func (h *Hub) Remove(id string) bool {
	h.mu.Lock()
	var found httpmon.Subscriber
	for i, e := range h.subs {
		if e.id == id {
			found = e.sub
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			break
		}
	}
	h.mu.Unlock()

	if found == nil {
		return false
	}
	_ = found.Close()
	return true
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast sends payload to every subscriber and returns how many
// received it. Subscribers that fail are removed and closed; they are
// never retried.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dead []httpmon.Subscriber
	live := h.subs[:0]
	for _, e := range h.subs {
		if err := e.sub.Send(payload); err != nil {
			dead = append(dead, e.sub)
			continue
		}
		live = append(live, e)
	}
	for i := len(live); i < len(h.subs); i++ {
		h.subs[i] = hubEntry{}
	}
	h.subs = live

	for _, sub := range dead {
		_ = sub.Close()
	}
	return len(live)
}

// Close disconnects and forgets every subscriber.
func (h *Hub) Close() error {
	h.mu.Lock()
	subs := h.subs
	h.subs = nil
	h.mu.Unlock()

	for _, e := range subs {
		_ = e.sub.Close()
	}
	return nil
}
