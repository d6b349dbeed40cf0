// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"log/slog"
	"sync"
)

// Event type constants
const (
	TypeParticipantJoined  = "participant-joined"
	TypeParticipantUpdated = "participant-updated"
	TypeParticipantLeft    = "participant-left"
	TypePhaseChanged       = "session-phase-changed"
	TypeScoreSubmitted     = "score-submitted"
	TypeScoresRevealed     = "scores-revealed"
	TypeScoresUnrevealed   = "scores-unrevealed"
	TypeAllReady           = "all-ready"
)

// Event is one notification to connected clients. Payload is always the
// full updated entity (session, participant, or the affected question's
// score view), never a delta, so clients can overwrite local state.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// subscriberBufferSize bounds how far a slow client may lag before it
// starts losing events. Clients reconcile by refetching session state.
const subscriberBufferSize = 16

// Hub broadcasts events to subscribers grouped by session code.
//
// Delivery is best-effort with no guarantees regarding ordering,
// durability, or retries; a publish to a subscriber whose buffer is full
// drops the event rather than blocking the mutation that produced it.
// The Hub is not a message broker.
//
// Hub is safe for concurrent use by multiple goroutines.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a new listener for one session and returns its
// channel. The caller owns the subscription and must release it with
// Unsubscribe.
func (h *Hub) Subscribe(sessionCode string) chan Event {
	ch := make(chan Event, subscriberBufferSize)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sessionCode]; !ok {
		h.subscribers[sessionCode] = make(map[chan Event]struct{})
	}
	h.subscribers[sessionCode][ch] = struct{}{}

	return ch
}

// Unsubscribe removes a listener and closes its channel. Empty session
// entries are removed so abandoned sessions do not accumulate.
func (h *Hub) Unsubscribe(sessionCode string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[sessionCode]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}

	delete(subs, ch)
	close(ch)

	if len(subs) == 0 {
		delete(h.subscribers, sessionCode)
	}
}

// Publish fans an event out to every subscriber of the session. It never
// blocks: subscribers with a full buffer lose the event.
func (h *Hub) Publish(sessionCode string, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[sessionCode] {
		select {
		case ch <- evt:
		default:
			slog.Debug("event dropped for slow subscriber",
				"session", sessionCode,
				"type", evt.Type,
			)
		}
	}
}

// SubscriberCount reports how many listeners a session currently has.
func (h *Hub) SubscriberCount(sessionCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionCode])
}
