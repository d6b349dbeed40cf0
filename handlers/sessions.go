// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pulsecheck/auth"
	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/middleware"
	"github.com/danielhkuo/pulsecheck/models"
	"github.com/danielhkuo/pulsecheck/questions"
)

// codeAttempts bounds the collision-check loop at session creation.
const codeAttempts = 5

type SessionHandler struct {
	db  *sql.DB
	hub *events.Hub
}

func NewSessionHandler(db *sql.DB, hub *events.Hub) *SessionHandler {
	return &SessionHandler{db: db, hub: hub}
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && err != io.EOF {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	setID := req.QuestionSetID
	if setID == "" {
		setID = questions.DefaultSetID
	}
	if _, err := questions.Lookup(setID); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown question set: "+setID)
		return
	}

	// Generate a shareable code, retrying on the (unlikely) collision
	var code string
	for attempt := 0; attempt < codeAttempts; attempt++ {
		candidate, err := auth.GenerateSessionCode()
		if err != nil {
			slog.Error("failed to generate session code", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
			return
		}

		var exists bool
		err = h.db.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM session WHERE code = $1)
		`, candidate).Scan(&exists)
		if err != nil {
			slog.Error("failed to check session code", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			code = candidate
			break
		}
	}
	if code == "" {
		slog.Error("session code space exhausted after retries")
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	now := time.Now()
	session := models.Session{
		ID:            uuid.NewString(),
		Code:          code,
		QuestionSetID: setID,
		Phase:         models.PhaseLobby,
		QuestionIndex: 0,
		CreatedAt:     now,
		LastActiveAt:  now,
	}

	_, err := h.db.Exec(`
		INSERT INTO session (id, code, question_set_id, phase, question_index, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, session.ID, session.Code, session.QuestionSetID, session.Phase, session.QuestionIndex, session.CreatedAt, session.LastActiveAt)

	if err != nil {
		slog.Error("failed to insert session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	slog.Info("session created", "session_id", session.ID, "code", session.Code, "question_set", setID)

	middleware.JSONResponse(w, http.StatusCreated, session)
}

// GetSession handles GET /sessions/{code}
// Returns the full current state for client (re)connect reconciliation.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	participants, err := listParticipants(h.db, session.ID)
	if err != nil {
		slog.Error("failed to query participants", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.SessionStateResponse{
		Session:      session,
		Participants: participants,
	}

	// The current question's score view only means something mid-scoring.
	if session.Phase == models.PhaseScoring {
		set, err := questions.Lookup(session.QuestionSetID)
		if err != nil {
			slog.Error("failed to look up question set", "error", err, "session_id", session.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Unknown question set")
			return
		}

		viewerID := ""
		if token := r.Header.Get("X-Participant-Token"); token != "" {
			if p, err := getParticipantByToken(h.db, session.ID, token); err == nil {
				viewerID = p.ID
			}
		}

		view, err := buildQuestionScores(h.db, session, set, session.QuestionIndex, viewerID)
		if err != nil {
			slog.Error("failed to build score view", "error", err, "session_id", session.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		resp.Scores = &view
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// JoinSession handles POST /sessions/{code}/join
//
// Joining is idempotent per identity token: a known token updates the
// existing participant (display name, last seen, back to active) instead
// of creating a second row. Duplicate display names are allowed.
func (h *SessionHandler) JoinSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var req models.JoinSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name must be at most 50 characters")
		return
	}

	now := time.Now()

	// Rejoin path: reuse the existing participant row
	if req.Token != "" {
		participant, err := getParticipantByToken(h.db, session.ID, req.Token)
		if err == nil {
			_, err = h.db.Exec(`
				UPDATE participant
				SET name = $1, status = $2, last_seen_at = $3
				WHERE id = $4
			`, req.Name, models.StatusActive, now, participant.ID)
			if err != nil {
				slog.Error("failed to update participant", "error", err, "participant_id", participant.ID)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join session")
				return
			}

			participant.Name = req.Name
			participant.Status = models.StatusActive
			participant.LastSeenAt = now

			slog.Info("participant rejoined", "session_id", session.ID, "participant_id", participant.ID)

			h.hub.Publish(session.Code, events.Event{Type: events.TypeParticipantUpdated, Payload: participant})

			middleware.JSONResponse(w, http.StatusOK, models.JoinSessionResponse{
				Participant: participant,
				Token:       req.Token,
			})
			return
		}
		if err != sql.ErrNoRows {
			slog.Error("failed to query participant", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		// Unknown token: fall through and mint a fresh identity rather
		// than trusting client-supplied token material.
	}

	token, err := auth.GenerateParticipantToken()
	if err != nil {
		slog.Error("failed to generate participant token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join session")
		return
	}

	participant := models.Participant{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		Token:         token,
		Name:          req.Name,
		Status:        models.StatusActive,
		IsFacilitator: req.IsFacilitator,
		IsObserver:    req.IsObserver,
		IsReady:       false,
		JoinedAt:      now,
		LastSeenAt:    now,
	}

	_, err = h.db.Exec(`
		INSERT INTO participant (id, session_id, token, name, status, is_facilitator, is_observer, is_ready, joined_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, participant.ID, participant.SessionID, participant.Token, participant.Name, participant.Status,
		participant.IsFacilitator, participant.IsObserver, participant.IsReady, participant.JoinedAt, participant.LastSeenAt)

	if err != nil {
		slog.Error("failed to insert participant", "error", err, "session_id", session.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join session")
		return
	}

	if err := touchSession(h.db, session.ID, now); err != nil {
		slog.Warn("failed to touch session activity", "error", err, "session_id", session.ID)
	}

	slog.Info("participant joined", "session_id", session.ID, "participant_id", participant.ID)

	h.hub.Publish(session.Code, events.Event{Type: events.TypeParticipantJoined, Payload: participant})

	middleware.JSONResponse(w, http.StatusCreated, models.JoinSessionResponse{
		Participant: participant,
		Token:       token,
	})
}

// loadSession resolves the {code} path value to a session, writing the
// error response itself when the lookup fails.
func (h *SessionHandler) loadSession(w http.ResponseWriter, r *http.Request) (models.Session, bool) {
	return loadSessionByCode(h.db, w, r)
}

// loadSessionByCode is the shared code-to-session resolution used by every
// handler. Unknown codes surface as a generic not-found, the same shape as
// an unknown participant token.
func loadSessionByCode(db *sql.DB, w http.ResponseWriter, r *http.Request) (models.Session, bool) {
	code := r.PathValue("code")
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code is required")
		return models.Session{}, false
	}

	session, err := getSessionByCode(db, code)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return models.Session{}, false
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Session{}, false
	}
	return session, true
}

func getSessionByCode(db *sql.DB, code string) (models.Session, error) {
	var s models.Session
	err := db.QueryRow(`
		SELECT id, code, question_set_id, phase, question_index, created_at, started_at, completed_at, last_active_at
		FROM session
		WHERE code = $1
	`, auth.NormalizeSessionCode(code)).Scan(
		&s.ID, &s.Code, &s.QuestionSetID, &s.Phase, &s.QuestionIndex,
		&s.CreatedAt, &s.StartedAt, &s.CompletedAt, &s.LastActiveAt,
	)
	return s, err
}

func getParticipantByToken(db *sql.DB, sessionID, token string) (models.Participant, error) {
	var p models.Participant
	err := db.QueryRow(`
		SELECT id, session_id, token, name, status, is_facilitator, is_observer, is_ready, joined_at, last_seen_at
		FROM participant
		WHERE session_id = $1 AND token = $2
	`, sessionID, token).Scan(
		&p.ID, &p.SessionID, &p.Token, &p.Name, &p.Status,
		&p.IsFacilitator, &p.IsObserver, &p.IsReady, &p.JoinedAt, &p.LastSeenAt,
	)
	return p, err
}

// listParticipants returns every participant in arrival order. Join order
// is the stable display ordering throughout the app.
func listParticipants(db *sql.DB, sessionID string) ([]models.Participant, error) {
	rows, err := db.Query(`
		SELECT id, session_id, token, name, status, is_facilitator, is_observer, is_ready, joined_at, last_seen_at
		FROM participant
		WHERE session_id = $1
		ORDER BY joined_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(
			&p.ID, &p.SessionID, &p.Token, &p.Name, &p.Status,
			&p.IsFacilitator, &p.IsObserver, &p.IsReady, &p.JoinedAt, &p.LastSeenAt,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func touchSession(db *sql.DB, sessionID string, now time.Time) error {
	_, err := db.Exec(`UPDATE session SET last_active_at = $1 WHERE id = $2`, now, sessionID)
	return err
}
