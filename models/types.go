// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Session phase constants
const (
	PhaseLobby     = "lobby"
	PhaseIntro     = "intro"
	PhaseScoring   = "scoring"
	PhaseSummary   = "summary"
	PhaseActions   = "actions"
	PhaseCompleted = "completed"
)

// Participant status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDropped  = "dropped"
)

// Scale type constants
const (
	ScaleBalance = "balance"
	ScaleMaximal = "maximal"
)

// Traffic-light color constants
const (
	ColorGreen = "green"
	ColorAmber = "amber"
	ColorRed   = "red"
)

// Machine-readable error codes. Only boundary conditions the client must
// branch on get a code; everything else is status + message.
const (
	CodeAtFirstQuestion = "at_first_question"
)

// Request types

type CreateSessionRequest struct {
	QuestionSetID string `json:"question_set_id"`
}

type JoinSessionRequest struct {
	Name          string `json:"name"`
	Token         string `json:"token,omitempty"`
	IsFacilitator bool   `json:"is_facilitator"`
	IsObserver    bool   `json:"is_observer"`
}

type SetReadyRequest struct {
	Ready bool `json:"ready"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type SubmitScoreRequest struct {
	QuestionIndex int `json:"question_index"`
	Value         int `json:"value"`
}

type RevealRequest struct {
	QuestionIndex int `json:"question_index"`
}

type BackToScoringRequest struct {
	QuestionIndex int `json:"question_index"`
}

// Response types

type JoinSessionResponse struct {
	Participant Participant `json:"participant"`
	Token       string      `json:"token"`
}

type SessionStateResponse struct {
	Session      Session         `json:"session"`
	Participants []Participant   `json:"participants"`
	Scores       *QuestionScores `json:"scores,omitempty"`
}

type ResultsResponse struct {
	SessionCode string           `json:"session_code"`
	Questions   []QuestionScores `json:"questions"`
}

// Domain types

type Session struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	QuestionSetID string     `json:"question_set_id"`
	Phase         string     `json:"phase"`
	QuestionIndex int        `json:"question_index"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	LastActiveAt  time.Time  `json:"last_active_at"`
}

type Participant struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Token         string    `json:"-"` // Never expose in JSON
	Name          string    `json:"name"`
	Status        string    `json:"status"`
	IsFacilitator bool      `json:"is_facilitator"`
	IsObserver    bool      `json:"is_observer"`
	IsReady       bool      `json:"is_ready"`
	JoinedAt      time.Time `json:"joined_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

type Score struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	QuestionIndex int       `json:"question_index"`
	Value         int       `json:"value"`
	Revealed      bool      `json:"revealed"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Score view types

// IndividualScore is one participant's entry in a question's score list,
// ordered by the participant's original join order. Value and Color are
// only populated once the question is revealed (or for the submitter's
// own score when a participant token accompanies the request).
type IndividualScore struct {
	ParticipantID string    `json:"participant_id"`
	Name          string    `json:"name"`
	Value         *int      `json:"value,omitempty"`
	Color         string    `json:"color,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// QuestionScores is the full score view for one question. Aggregate fields
// are only populated once the question is revealed.
type QuestionScores struct {
	QuestionIndex     int               `json:"question_index"`
	Revealed          bool              `json:"revealed"`
	AllScored         bool              `json:"all_scored"`
	Count             int               `json:"count"`
	Scores            []IndividualScore `json:"scores"`
	Average           *float64          `json:"average,omitempty"`
	Spread            *int              `json:"spread,omitempty"`
	Min               *int              `json:"min,omitempty"`
	Max               *int              `json:"max,omitempty"`
	CombinedTeamValue *float64          `json:"combined_team_value,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
