// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the PulseCheck API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, hub)

# Endpoints

Health:

	GET /health

Session lifecycle (uses the six-character join code):

	POST /sessions              - Create session
	GET  /sessions/{code}       - Session state snapshot
	POST /sessions/{code}/join  - Join or rejoin

Participant state (requires X-Participant-Token):

	POST /sessions/{code}/ready  - Set readiness
	POST /sessions/{code}/status - Set active/inactive/dropped

Phase transitions:

	POST /sessions/{code}/start             - lobby → intro
	POST /sessions/{code}/begin-scoring     - intro → scoring
	POST /sessions/{code}/next-question     - advance within scoring
	POST /sessions/{code}/previous-question - step back within scoring
	POST /sessions/{code}/back-to-intro     - scoring → intro
	POST /sessions/{code}/summary           - scoring → summary
	POST /sessions/{code}/back-to-scoring   - summary → scoring
	POST /sessions/{code}/actions-phase     - summary → actions
	POST /sessions/{code}/back-to-summary   - actions → summary
	POST /sessions/{code}/complete          - actions → completed

Scoring:

	POST /sessions/{code}/scores        - Submit or update a score
	POST /sessions/{code}/reveal        - Force-reveal a question
	GET  /sessions/{code}/scores/{index} - Score view for one question
	GET  /sessions/{code}/results       - Score views for all questions
	GET  /sessions/{code}/questions     - The session's question set

Events:

	GET /sessions/{code}/events - Server-sent event stream

# Handler Initialization

The router creates handler instances with dependency injection:

	sessionHandler := handlers.NewSessionHandler(db, hub)
	participantHandler := handlers.NewParticipantHandler(db, hub)
	phaseHandler := handlers.NewPhaseHandler(db, hub)
	scoringHandler := handlers.NewScoringHandler(db, hub)
	streamHandler := handlers.NewStreamHandler(db, hub)

All handlers receive the database connection and the event hub.
*/
package router
