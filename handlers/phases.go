// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/middleware"
	"github.com/danielhkuo/pulsecheck/models"
	"github.com/danielhkuo/pulsecheck/questions"
)

// PhaseHandler drives the session state machine:
//
//	lobby → intro → scoring → summary → actions → completed
//
// Each transition is its own endpoint, defined only for its expected
// source phase; a call from any other phase fails loudly with 409 rather
// than coercing state. Facilitator privilege is the surrounding UI's
// policy, not checked here.
type PhaseHandler struct {
	db  *sql.DB
	hub *events.Hub
}

func NewPhaseHandler(db *sql.DB, hub *events.Hub) *PhaseHandler {
	return &PhaseHandler{db: db, hub: hub}
}

// Start handles POST /sessions/{code}/start (lobby → intro)
func (h *PhaseHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}
	if session.Phase != models.PhaseLobby {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in the lobby")
		return
	}

	now := time.Now()
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE session SET phase = $1, started_at = $2, last_active_at = $2
		WHERE id = $3 AND phase = $4
	`, models.PhaseIntro, now, session.ID, models.PhaseLobby)
	if !h.transitionApplied(w, res, err) {
		return
	}
	if err := resetAllReady(tx, session.ID); err != nil {
		slog.Error("failed to reset readiness", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	session.Phase = models.PhaseIntro
	session.StartedAt = &now
	session.LastActiveAt = now
	h.finish(w, session, "session started")
}

// BeginScoring handles POST /sessions/{code}/begin-scoring (intro → scoring)
func (h *PhaseHandler) BeginScoring(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}
	if session.Phase != models.PhaseIntro {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in the intro phase")
		return
	}

	now := time.Now()
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE session SET phase = $1, question_index = 0, last_active_at = $2
		WHERE id = $3 AND phase = $4
	`, models.PhaseScoring, now, session.ID, models.PhaseIntro)
	if !h.transitionApplied(w, res, err) {
		return
	}
	if err := resetAllReady(tx, session.ID); err != nil {
		slog.Error("failed to reset readiness", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to begin scoring")
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to begin scoring")
		return
	}

	session.Phase = models.PhaseScoring
	session.QuestionIndex = 0
	session.LastActiveAt = now
	h.finish(w, session, "scoring started")
}

// NextQuestion handles POST /sessions/{code}/next-question
func (h *PhaseHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	session, set, ok := h.loadScoringSession(w, r)
	if !ok {
		return
	}
	if session.QuestionIndex >= set.Len()-1 {
		middleware.ErrorResponse(w, http.StatusConflict, "Already at the last question")
		return
	}

	now := time.Now()
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE session SET question_index = $1, last_active_at = $2
		WHERE id = $3 AND phase = $4 AND question_index = $5
	`, session.QuestionIndex+1, now, session.ID, models.PhaseScoring, session.QuestionIndex)
	if !h.transitionApplied(w, res, err) {
		return
	}
	if err := resetAllReady(tx, session.ID); err != nil {
		slog.Error("failed to reset readiness", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to advance question")
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to advance question")
		return
	}

	session.QuestionIndex++
	session.LastActiveAt = now
	h.finish(w, session, "question advanced")
}

// PreviousQuestion handles POST /sessions/{code}/previous-question
//
// At index 0 this returns the distinguished at_first_question code without
// mutating anything, so the client can route to back-to-intro instead.
func (h *PhaseHandler) PreviousQuestion(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.loadScoringSession(w, r)
	if !ok {
		return
	}
	if session.QuestionIndex == 0 {
		middleware.CodedErrorResponse(w, http.StatusConflict, models.CodeAtFirstQuestion, "Already at the first question")
		return
	}

	target := session.QuestionIndex - 1
	ok = h.backwardTransition(w, session, target, "Failed to go back a question", `
		UPDATE session SET question_index = $1, last_active_at = $2
		WHERE id = $3 AND phase = $4 AND question_index = $5
	`, target, time.Now(), session.ID, models.PhaseScoring, session.QuestionIndex)
	if !ok {
		return
	}

	session.QuestionIndex = target
	h.finishBackward(w, session, target, "question rewound")
}

// BackToIntro handles POST /sessions/{code}/back-to-intro
// Only valid from scoring at question index 0.
func (h *PhaseHandler) BackToIntro(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.loadScoringSession(w, r)
	if !ok {
		return
	}
	if session.QuestionIndex != 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Can only return to the intro from the first question")
		return
	}

	ok = h.backwardTransition(w, session, 0, "Failed to return to intro", `
		UPDATE session SET phase = $1, last_active_at = $2
		WHERE id = $3 AND phase = $4
	`, models.PhaseIntro, time.Now(), session.ID, models.PhaseScoring)
	if !ok {
		return
	}

	session.Phase = models.PhaseIntro
	h.finishBackward(w, session, 0, "returned to intro")
}

// ShowSummary handles POST /sessions/{code}/summary (scoring → summary)
// Allowed once the last question has been reached; unrevealed scores do
// not block it - the facilitator is trusted.
func (h *PhaseHandler) ShowSummary(w http.ResponseWriter, r *http.Request) {
	session, set, ok := h.loadScoringSession(w, r)
	if !ok {
		return
	}
	if session.QuestionIndex != set.Len()-1 {
		middleware.ErrorResponse(w, http.StatusConflict, "Summary is only reachable from the last question")
		return
	}

	now := time.Now()
	res, err := h.db.Exec(`
		UPDATE session SET phase = $1, last_active_at = $2
		WHERE id = $3 AND phase = $4
	`, models.PhaseSummary, now, session.ID, models.PhaseScoring)
	if !h.transitionApplied(w, res, err) {
		return
	}

	session.Phase = models.PhaseSummary
	session.LastActiveAt = now
	h.finish(w, session, "summary shown")
}

// BackToScoring handles POST /sessions/{code}/back-to-scoring
// From summary, the caller supplies the question index to land on
// (normally the last one).
func (h *PhaseHandler) BackToScoring(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}
	if session.Phase != models.PhaseSummary {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in the summary phase")
		return
	}

	set, err := questions.Lookup(session.QuestionSetID)
	if err != nil {
		slog.Error("failed to look up question set", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Unknown question set")
		return
	}

	var req models.BackToScoringRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.QuestionIndex < 0 || req.QuestionIndex >= set.Len() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question_index out of range")
		return
	}

	target := req.QuestionIndex
	ok = h.backwardTransition(w, session, target, "Failed to return to scoring", `
		UPDATE session SET phase = $1, question_index = $2, last_active_at = $3
		WHERE id = $4 AND phase = $5
	`, models.PhaseScoring, target, time.Now(), session.ID, models.PhaseSummary)
	if !ok {
		return
	}

	session.Phase = models.PhaseScoring
	session.QuestionIndex = target
	h.finishBackward(w, session, target, "returned to scoring")
}

// ShowActions handles POST /sessions/{code}/actions-phase (summary → actions)
func (h *PhaseHandler) ShowActions(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}
	if session.Phase != models.PhaseSummary {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in the summary phase")
		return
	}

	now := time.Now()
	res, err := h.db.Exec(`
		UPDATE session SET phase = $1, last_active_at = $2
		WHERE id = $3 AND phase = $4
	`, models.PhaseActions, now, session.ID, models.PhaseSummary)
	if !h.transitionApplied(w, res, err) {
		return
	}

	session.Phase = models.PhaseActions
	session.LastActiveAt = now
	h.finish(w, session, "actions shown")
}

// BackToSummary handles POST /sessions/{code}/back-to-summary (actions → summary)
// No question is involved, so nothing gets unrevealed.
func (h *PhaseHandler) BackToSummary(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}
	if session.Phase != models.PhaseActions {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in the actions phase")
		return
	}

	now := time.Now()
	res, err := h.db.Exec(`
		UPDATE session SET phase = $1, last_active_at = $2
		WHERE id = $3 AND phase = $4
	`, models.PhaseSummary, now, session.ID, models.PhaseActions)
	if !h.transitionApplied(w, res, err) {
		return
	}

	session.Phase = models.PhaseSummary
	session.LastActiveAt = now
	h.finish(w, session, "returned to summary")
}

// Complete handles POST /sessions/{code}/complete (actions → completed)
func (h *PhaseHandler) Complete(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}
	if session.Phase != models.PhaseActions {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in the actions phase")
		return
	}

	now := time.Now()
	res, err := h.db.Exec(`
		UPDATE session SET phase = $1, completed_at = $2, last_active_at = $2
		WHERE id = $3 AND phase = $4
	`, models.PhaseCompleted, now, session.ID, models.PhaseActions)
	if !h.transitionApplied(w, res, err) {
		return
	}

	session.Phase = models.PhaseCompleted
	session.CompletedAt = &now
	session.LastActiveAt = now
	h.finish(w, session, "session completed")
}

// backwardTransition runs a backward phase UPDATE and unreveals the
// landed-on question's scores in the same transaction, so participants can
// resubmit. Forward transitions never unreveal.
func (h *PhaseHandler) backwardTransition(w http.ResponseWriter, session models.Session, unrevealAt int, fail, query string, args ...any) bool {
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	defer tx.Rollback()

	res, err := tx.Exec(query, args...)
	if !h.transitionApplied(w, res, err) {
		return false
	}

	_, err = tx.Exec(`
		UPDATE score SET revealed = FALSE
		WHERE session_id = $1 AND question_index = $2
	`, session.ID, unrevealAt)
	if err != nil {
		slog.Error("failed to unreveal scores", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, fail)
		return false
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, fail)
		return false
	}
	return true
}

// transitionApplied maps the guarded UPDATE's outcome: an error is a 500,
// zero affected rows means a concurrent request already moved the session
// on and this duplicate must be rejected, not silently coerced.
func (h *PhaseHandler) transitionApplied(w http.ResponseWriter, res sql.Result, err error) bool {
	if err != nil {
		slog.Error("failed to update session phase", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("failed to read affected rows", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Session state changed concurrently")
		return false
	}
	return true
}

func (h *PhaseHandler) loadScoringSession(w http.ResponseWriter, r *http.Request) (models.Session, questions.QuestionSet, bool) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return models.Session{}, questions.QuestionSet{}, false
	}
	if session.Phase != models.PhaseScoring {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in the scoring phase")
		return models.Session{}, questions.QuestionSet{}, false
	}
	set, err := questions.Lookup(session.QuestionSetID)
	if err != nil {
		slog.Error("failed to look up question set", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Unknown question set")
		return models.Session{}, questions.QuestionSet{}, false
	}
	return session, set, true
}

func (h *PhaseHandler) finish(w http.ResponseWriter, session models.Session, logMsg string) {
	slog.Info(logMsg, "session_id", session.ID, "phase", session.Phase, "question_index", session.QuestionIndex)
	h.hub.Publish(session.Code, events.Event{Type: events.TypePhaseChanged, Payload: session})
	middleware.JSONResponse(w, http.StatusOK, session)
}

// finishBackward additionally broadcasts the unrevealed score view for the
// landed-on question so clients reopen their voting controls.
func (h *PhaseHandler) finishBackward(w http.ResponseWriter, session models.Session, unrevealedIndex int, logMsg string) {
	session.LastActiveAt = time.Now()
	slog.Info(logMsg, "session_id", session.ID, "phase", session.Phase, "question_index", session.QuestionIndex)
	h.hub.Publish(session.Code, events.Event{Type: events.TypePhaseChanged, Payload: session})

	if set, err := questions.Lookup(session.QuestionSetID); err == nil {
		if view, err := buildQuestionScores(h.db, session, set, unrevealedIndex, ""); err == nil {
			h.hub.Publish(session.Code, events.Event{Type: events.TypeScoresUnrevealed, Payload: view})
		} else {
			slog.Warn("failed to build unrevealed score view", "error", err, "session_id", session.ID)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, session)
}
