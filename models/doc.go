// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateSessionRequest: question_set_id
  - JoinSessionRequest: name, token, is_facilitator, is_observer
  - SetReadyRequest: ready
  - SetStatusRequest: status
  - SubmitScoreRequest: question_index, value
  - RevealRequest: question_index
  - BackToScoringRequest: question_index

# Response Types

Types for JSON responses:

  - JoinSessionResponse: participant, token
  - SessionStateResponse: session, participants, scores
  - ResultsResponse: session_code, questions
  - ErrorResponse: error, message, code

# Domain Types

Internal data structures:

  - Session: workshop run with phase and question position
  - Participant: one person in one session, keyed by identity token
  - Score: one participant's rating for one question
  - IndividualScore: a participant's entry in a score view
  - QuestionScores: per-question score view with aggregates

# Constants

Phases:

	PhaseLobby → PhaseIntro → PhaseScoring → PhaseSummary → PhaseActions → PhaseCompleted

Participant statuses:

	StatusActive, StatusInactive, StatusDropped

Scale types:

	ScaleBalance  (central optimum, deviation penalized both ways)
	ScaleMaximal  (higher is strictly better)

Traffic-light colors:

	ColorGreen, ColorAmber, ColorRed

Error codes:

	CodeAtFirstQuestion  (previous-question called at index 0)
*/
package models
