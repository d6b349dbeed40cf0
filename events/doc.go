// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events provides the in-process broadcast hub for session
notifications.

# Hub

The Hub fans events out to every subscriber of a session code:

	hub := events.NewHub()
	ch := hub.Subscribe(code)
	defer hub.Unsubscribe(code, ch)

	hub.Publish(code, events.Event{Type: events.TypePhaseChanged, Payload: session})

Publish is fire-and-forget: it never blocks, never fails the mutation
that produced the event, and drops events for subscribers whose buffer
is full. Clients are expected to reconcile by refetching full session
state on (re)connect rather than relying on having seen every event.

# Event Types

	participant-joined     full Participant
	participant-updated    full Participant
	participant-left       full Participant (status dropped)
	session-phase-changed  full Session
	score-submitted        affected question's score view
	scores-revealed        affected question's score view
	scores-unrevealed      affected question's score view
	all-ready              full Session

Payloads are full entities, never deltas.
*/
package events
