// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/middleware"
	"github.com/danielhkuo/pulsecheck/models"
	"github.com/danielhkuo/pulsecheck/questions"
)

type ScoringHandler struct {
	db  *sql.DB
	hub *events.Hub
}

func NewScoringHandler(db *sql.DB, hub *events.Hub) *ScoringHandler {
	return &ScoringHandler{db: db, hub: hub}
}

// SubmitScore handles POST /sessions/{code}/scores
//
// One Score row exists per (session, participant, question). Resubmitting
// before reveal overwrites that row in place; the upsert's revealed guard
// makes sure a revealed value can never be overwritten even if two
// requests race past the precondition check.
func (h *ScoringHandler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}
	if session.Phase != models.PhaseScoring {
		middleware.ErrorResponse(w, http.StatusConflict, "Session is not in the scoring phase")
		return
	}

	token := r.Header.Get("X-Participant-Token")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Participant-Token header required")
		return
	}

	participant, err := getParticipantByToken(h.db, session.ID, token)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		slog.Error("failed to query participant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if participant.IsObserver {
		middleware.ErrorResponse(w, http.StatusForbidden, "Observers cannot submit scores")
		return
	}

	var req models.SubmitScoreRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	set, err := questions.Lookup(session.QuestionSetID)
	if err != nil {
		slog.Error("failed to look up question set", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Unknown question set")
		return
	}

	question, err := set.Question(req.QuestionIndex)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question_index out of range")
		return
	}

	if !question.InBounds(req.Value) {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("value must be between %d and %d", question.Min, question.Max))
		return
	}

	// Revealed slots are immutable; the UI should never send this.
	var revealed bool
	err = h.db.QueryRow(`
		SELECT revealed FROM score
		WHERE session_id = $1 AND participant_id = $2 AND question_index = $3
	`, session.ID, participant.ID, req.QuestionIndex).Scan(&revealed)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query score", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if revealed {
		middleware.ErrorResponse(w, http.StatusConflict, "Scores for this question are already revealed")
		return
	}

	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO score (id, session_id, participant_id, question_index, value, revealed, submitted_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (session_id, participant_id, question_index)
		DO UPDATE SET value = excluded.value, submitted_at = excluded.submitted_at
		WHERE score.revealed = FALSE
	`, uuid.NewString(), session.ID, participant.ID, req.QuestionIndex, req.Value, now)
	if err != nil {
		slog.Error("failed to upsert score", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit score")
		return
	}

	if err := touchSession(h.db, session.ID, now); err != nil {
		slog.Warn("failed to touch session activity", "error", err, "session_id", session.ID)
	}

	var score models.Score
	err = h.db.QueryRow(`
		SELECT id, session_id, participant_id, question_index, value, revealed, submitted_at
		FROM score
		WHERE session_id = $1 AND participant_id = $2 AND question_index = $3
	`, session.ID, participant.ID, req.QuestionIndex).Scan(
		&score.ID, &score.SessionID, &score.ParticipantID, &score.QuestionIndex,
		&score.Value, &score.Revealed, &score.SubmittedAt,
	)
	if err != nil {
		slog.Error("failed to read back score", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("score submitted", "session_id", session.ID, "participant_id", participant.ID, "question_index", req.QuestionIndex)

	view, err := buildQuestionScores(h.db, session, set, req.QuestionIndex, "")
	if err != nil {
		slog.Warn("failed to build score view", "error", err, "session_id", session.ID)
	} else {
		h.hub.Publish(session.Code, events.Event{Type: events.TypeScoreSubmitted, Payload: view})
	}

	// Reveal decision: re-query current counts instead of keeping a
	// counter. Two near-simultaneous last submissions may both reveal;
	// setting an already-true flag is a no-op, so that race is safe.
	done, err := allScored(h.db, session.ID, req.QuestionIndex)
	if err != nil {
		slog.Error("failed to evaluate reveal gate", "error", err, "session_id", session.ID)
	} else if done && !score.Revealed {
		if err := h.reveal(session, set, req.QuestionIndex); err != nil {
			slog.Error("failed to reveal scores", "error", err, "session_id", session.ID)
		} else {
			score.Revealed = true
		}
	}

	middleware.JSONResponse(w, http.StatusCreated, score)
}

// Reveal handles POST /sessions/{code}/reveal
//
// A facilitator override for groups stuck behind a participant who went
// quiet after the gate was evaluated. Idempotent.
func (h *ScoringHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}

	var req models.RevealRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	set, err := questions.Lookup(session.QuestionSetID)
	if err != nil {
		slog.Error("failed to look up question set", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Unknown question set")
		return
	}
	if req.QuestionIndex < 0 || req.QuestionIndex >= set.Len() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question_index out of range")
		return
	}

	if err := h.reveal(session, set, req.QuestionIndex); err != nil {
		slog.Error("failed to reveal scores", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reveal scores")
		return
	}

	view, err := buildQuestionScores(h.db, session, set, req.QuestionIndex, "")
	if err != nil {
		slog.Error("failed to build score view", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// reveal flips every score at the index and broadcasts the revealed view.
func (h *ScoringHandler) reveal(session models.Session, set questions.QuestionSet, questionIndex int) error {
	_, err := h.db.Exec(`
		UPDATE score SET revealed = TRUE
		WHERE session_id = $1 AND question_index = $2
	`, session.ID, questionIndex)
	if err != nil {
		return fmt.Errorf("failed to reveal scores: %w", err)
	}

	slog.Info("scores revealed", "session_id", session.ID, "question_index", questionIndex)

	view, err := buildQuestionScores(h.db, session, set, questionIndex, "")
	if err != nil {
		return fmt.Errorf("failed to build revealed view: %w", err)
	}
	h.hub.Publish(session.Code, events.Event{Type: events.TypeScoresRevealed, Payload: view})
	return nil
}

// GetScores handles GET /sessions/{code}/scores/{index}
func (h *ScoringHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	set, err := questions.Lookup(session.QuestionSetID)
	if err != nil {
		slog.Error("failed to look up question set", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Unknown question set")
		return
	}
	if index < 0 || index >= set.Len() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "index out of range")
		return
	}

	// A participant may always see its own unrevealed value.
	viewerID := ""
	if token := r.Header.Get("X-Participant-Token"); token != "" {
		if p, err := getParticipantByToken(h.db, session.ID, token); err == nil {
			viewerID = p.ID
		}
	}

	view, err := buildQuestionScores(h.db, session, set, index, viewerID)
	if err != nil {
		slog.Error("failed to build score view", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, view)
}

// GetResults handles GET /sessions/{code}/results
// Returns every question's score view, the reading for the summary phase.
func (h *ScoringHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}

	set, err := questions.Lookup(session.QuestionSetID)
	if err != nil {
		slog.Error("failed to look up question set", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Unknown question set")
		return
	}

	views := make([]models.QuestionScores, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		view, err := buildQuestionScores(h.db, session, set, i, "")
		if err != nil {
			slog.Error("failed to build score view", "error", err, "session_id", session.ID, "question_index", i)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		views = append(views, view)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		SessionCode: session.Code,
		Questions:   views,
	})
}

// GetQuestions handles GET /sessions/{code}/questions
func (h *ScoringHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}

	set, err := questions.Lookup(session.QuestionSetID)
	if err != nil {
		slog.Error("failed to look up question set", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Unknown question set")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, set)
}

// allScored reports whether every active non-observer participant has
// submitted a score at the index, and at least one such participant
// exists. Observers and inactive participants count on neither side.
func allScored(db *sql.DB, sessionID string, questionIndex int) (bool, error) {
	var required, submitted int
	err := db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM participant
			 WHERE session_id = $1 AND status = $2 AND NOT is_observer),
			(SELECT COUNT(*) FROM score s
			 JOIN participant p ON s.participant_id = p.id
			 WHERE s.session_id = $1 AND s.question_index = $3
			   AND p.status = $2 AND NOT p.is_observer)
	`, sessionID, models.StatusActive, questionIndex).Scan(&required, &submitted)
	if err != nil {
		return false, err
	}
	return required > 0 && submitted == required, nil
}

// buildQuestionScores assembles the score view for one question, ordered
// by each participant's original join order regardless of submission
// order. Values, colors, and aggregates only appear once revealed, except
// that viewerID's own value is always included.
func buildQuestionScores(db *sql.DB, session models.Session, set questions.QuestionSet, questionIndex int, viewerID string) (models.QuestionScores, error) {
	question, err := set.Question(questionIndex)
	if err != nil {
		return models.QuestionScores{}, err
	}

	rows, err := db.Query(`
		SELECT s.participant_id, p.name, s.value, s.revealed, s.submitted_at
		FROM score s
		JOIN participant p ON s.participant_id = p.id
		WHERE s.session_id = $1 AND s.question_index = $2
		ORDER BY p.joined_at, p.id
	`, session.ID, questionIndex)
	if err != nil {
		return models.QuestionScores{}, err
	}
	defer rows.Close()

	view := models.QuestionScores{
		QuestionIndex: questionIndex,
		Scores:        []models.IndividualScore{},
	}

	revealedAll := true
	var values []int
	type rawScore struct {
		participantID string
		name          string
		value         int
		revealed      bool
		submittedAt   time.Time
	}
	var raw []rawScore

	for rows.Next() {
		var rs rawScore
		if err := rows.Scan(&rs.participantID, &rs.name, &rs.value, &rs.revealed, &rs.submittedAt); err != nil {
			return models.QuestionScores{}, err
		}
		raw = append(raw, rs)
		values = append(values, rs.value)
		if !rs.revealed {
			revealedAll = false
		}
	}
	if err := rows.Err(); err != nil {
		return models.QuestionScores{}, err
	}

	view.Count = len(raw)
	view.Revealed = len(raw) > 0 && revealedAll

	for _, rs := range raw {
		entry := models.IndividualScore{
			ParticipantID: rs.participantID,
			Name:          rs.name,
			SubmittedAt:   rs.submittedAt,
		}
		if view.Revealed || rs.participantID == viewerID {
			v := rs.value
			entry.Value = &v
			entry.Color = scoreColor(question, rs.value)
		}
		view.Scores = append(view.Scores, entry)
	}

	if view.Revealed {
		view.Average = average(values)
		view.Spread = spread(values)
		view.Min, view.Max = minMax(values)
		view.CombinedTeamValue = combinedTeamValue(question, values)
	}

	done, err := allScored(db, session.ID, questionIndex)
	if err != nil {
		return models.QuestionScores{}, err
	}
	view.AllScored = done

	return view, nil
}
