package store

import (
	"sync"
)

// DefaultHistory is the number of events a [MemoryHub] keeps for [MemoryHub.Recent].
const DefaultHistory = 20

// subscriberBuffer is the channel buffer given to each subscriber.
const subscriberBuffer = 100

// MemoryHub is an in-memory implementation of [Hub].
//
// Subscribers receive events via buffered channels (buffer size 100). Events
// are sent non-blocking; if a subscriber's buffer is full, the event is dropped
// for that subscriber so a stalled browser tab never holds up a save.
//
// The hub also keeps a bounded history of the latest events so that a new
// subscriber can catch up on what happened before it connected.
type MemoryHub struct {
	mu      sync.RWMutex
	history []SaveEvent
	limit   int

	subscribers map[chan SaveEvent]struct{}
	subMu       sync.RWMutex
}

// NewMemoryHub creates a new in-memory [Hub] that remembers up to history
// events. A history of zero or less selects [DefaultHistory].
func NewMemoryHub(history int) *MemoryHub {
	if history <= 0 {
		history = DefaultHistory
	}
	return &MemoryHub{
		history:     make([]SaveEvent, 0, history),
		limit:       history,
		subscribers: make(map[chan SaveEvent]struct{}),
	}
}

// Publish appends event to the history and notifies all subscribers.
//
// Once the history is full the oldest event is discarded.
func (h *MemoryHub) Publish(event SaveEvent) {
	h.mu.Lock()
	if len(h.history) == h.limit {
		copy(h.history, h.history[1:])
		h.history = h.history[:h.limit-1]
	}
	h.history = append(h.history, event)

	// notify before unlocking so SubscribeWithRecent sees each event once
	h.notifySubscribers(event)
	h.mu.Unlock()
}

// Recent returns a snapshot of the retained events, oldest first.
func (h *MemoryHub) Recent() []SaveEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	events := make([]SaveEvent, len(h.history))
	copy(events, h.history)
	return events
}

// Subscribe creates a new subscription and returns a channel for receiving events.
//
// Caller must call [MemoryHub.Unsubscribe] when done to prevent resource leaks.
func (h *MemoryHub) Subscribe() <-chan SaveEvent {
	ch := make(chan SaveEvent, subscriberBuffer)

	h.subMu.Lock()
	h.subscribers[ch] = struct{}{}
	h.subMu.Unlock()

	return ch
}

// SubscribeWithRecent subscribes and snapshots the history under the same
// lock Publish holds, so no event is both replayed and delivered.
func (h *MemoryHub) SubscribeWithRecent() ([]SaveEvent, <-chan SaveEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	events := make([]SaveEvent, len(h.history))
	copy(events, h.history)
	return events, h.Subscribe()
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (h *MemoryHub) Unsubscribe(ch <-chan SaveEvent) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	for subCh := range h.subscribers {
		if subCh == ch {
			delete(h.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (h *MemoryHub) Subscribers() int {
	h.subMu.RLock()
	defer h.subMu.RUnlock()
	return len(h.subscribers)
}

func (h *MemoryHub) notifySubscribers(event SaveEvent) {
	h.subMu.RLock()
	defer h.subMu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			// subscriber is slow, drop the event
		}
	}
}
