// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the PulseCheck API.

# Handler Types

Each handler is a struct with database and event hub dependencies:

  - SessionHandler: Session creation, lookup, and joining
  - ParticipantHandler: Readiness and status updates
  - PhaseHandler: Phase transitions through the session lifecycle
  - ScoringHandler: Score submission, reveal, and results
  - StreamHandler: Server-sent event streams

Handlers are created via constructor functions that accept *sql.DB and
*events.Hub:

	sessionHandler := handlers.NewSessionHandler(db, hub)

# Session Lifecycle

Sessions progress through six phases:

	lobby → intro → scoring → summary → actions → completed

	POST /sessions                     → CreateSession (returns join code)
	POST /sessions/{code}/join         → JoinSession (returns participant token)
	POST /sessions/{code}/start        → Start (lobby → intro, all ready)
	POST /sessions/{code}/begin-scoring → BeginScoring (intro → scoring)
	POST /sessions/{code}/next-question → NextQuestion
	POST /sessions/{code}/summary      → ShowSummary (after last question)
	POST /sessions/{code}/actions-phase → ShowActions
	POST /sessions/{code}/complete     → Complete

Backward transitions (previous-question, back-to-intro, back-to-scoring,
back-to-summary) un-reveal the question they land on so it can be
re-scored.

Every transition is a guarded UPDATE conditioned on the expected current
phase and question index. A transition that matches no row returns 409;
two facilitators racing the same button cannot double-advance a session.

# Scoring Flow

Participants submit via their identity token:

	POST /sessions/{code}/scores        → SubmitScore (create or update)
	POST /sessions/{code}/reveal        → Reveal (facilitator override)
	GET  /sessions/{code}/scores/{idx}  → GetScores
	GET  /sessions/{code}/results       → GetResults

Participant operations require the X-Participant-Token header. Values
stay hidden until every active non-observer participant has submitted,
at which point the question auto-reveals. Revealed values are immutable.

# Aggregates

Traffic-light classification and aggregate statistics are implemented in
stats.go:

	color := scoreColor(question, value)
	ctv := combinedTeamValue(question, values)

Balance-scale questions grade by distance from the optimal value;
maximal-scale questions grade by the raw value. The combined team value
maps each score's color to a grade, averages, and scales to 0-10.

# Event Stream

GET /sessions/{code}/events serves a server-sent event stream. Every
mutation publishes to the session's subscribers through events.Hub, so
clients render state changes without polling.
*/
package handlers
