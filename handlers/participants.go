// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/middleware"
	"github.com/danielhkuo/pulsecheck/models"
)

type ParticipantHandler struct {
	db  *sql.DB
	hub *events.Hub
}

func NewParticipantHandler(db *sql.DB, hub *events.Hub) *ParticipantHandler {
	return &ParticipantHandler{db: db, hub: hub}
}

// SetReady handles POST /sessions/{code}/ready
func (h *ParticipantHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	session, participant, ok := h.loadSessionParticipant(w, r)
	if !ok {
		return
	}

	var req models.SetReadyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	now := time.Now()
	_, err := h.db.Exec(`
		UPDATE participant SET is_ready = $1, last_seen_at = $2 WHERE id = $3
	`, req.Ready, now, participant.ID)
	if err != nil {
		slog.Error("failed to update readiness", "error", err, "participant_id", participant.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update readiness")
		return
	}

	participant.IsReady = req.Ready
	participant.LastSeenAt = now

	slog.Info("readiness updated", "session_id", session.ID, "participant_id", participant.ID, "ready", req.Ready)

	h.hub.Publish(session.Code, events.Event{Type: events.TypeParticipantUpdated, Payload: participant})

	// Re-query rather than track a counter: two near-simultaneous last
	// updates may both see the gate open, and the duplicate broadcast is
	// harmless.
	if req.Ready {
		ready, err := allActiveReady(h.db, session.ID)
		if err != nil {
			slog.Error("failed to evaluate readiness gate", "error", err, "session_id", session.ID)
		} else if ready {
			h.hub.Publish(session.Code, events.Event{Type: events.TypeAllReady, Payload: session})
		}
	}

	middleware.JSONResponse(w, http.StatusOK, participant)
}

// SetStatus handles POST /sessions/{code}/status
func (h *ParticipantHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	session, participant, ok := h.loadSessionParticipant(w, r)
	if !ok {
		return
	}

	var req models.SetStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch req.Status {
	case models.StatusActive, models.StatusInactive, models.StatusDropped:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "status must be active, inactive, or dropped")
		return
	}

	now := time.Now()
	_, err := h.db.Exec(`
		UPDATE participant SET status = $1, last_seen_at = $2 WHERE id = $3
	`, req.Status, now, participant.ID)
	if err != nil {
		slog.Error("failed to update status", "error", err, "participant_id", participant.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update status")
		return
	}

	participant.Status = req.Status
	participant.LastSeenAt = now

	slog.Info("status updated", "session_id", session.ID, "participant_id", participant.ID, "status", req.Status)

	eventType := events.TypeParticipantUpdated
	if req.Status == models.StatusDropped {
		eventType = events.TypeParticipantLeft
	}
	h.hub.Publish(session.Code, events.Event{Type: eventType, Payload: participant})

	// A dropout can be the thing everyone else was waiting on.
	if req.Status != models.StatusActive {
		ready, err := allActiveReady(h.db, session.ID)
		if err != nil {
			slog.Error("failed to evaluate readiness gate", "error", err, "session_id", session.ID)
		} else if ready {
			h.hub.Publish(session.Code, events.Event{Type: events.TypeAllReady, Payload: session})
		}
	}

	middleware.JSONResponse(w, http.StatusOK, participant)
}

// loadSessionParticipant resolves the session code and the caller's
// participant token. An unknown token gets the same generic not-found as
// an unknown code.
func (h *ParticipantHandler) loadSessionParticipant(w http.ResponseWriter, r *http.Request) (models.Session, models.Participant, bool) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return models.Session{}, models.Participant{}, false
	}

	token := r.Header.Get("X-Participant-Token")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Participant-Token header required")
		return models.Session{}, models.Participant{}, false
	}

	participant, err := getParticipantByToken(h.db, session.ID, token)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return models.Session{}, models.Participant{}, false
	}
	if err != nil {
		slog.Error("failed to query participant", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Session{}, models.Participant{}, false
	}

	return session, participant, true
}

// allActiveReady reports whether there is at least one active participant
// and every active participant is ready. Inactive and dropped participants
// never block the group.
func allActiveReady(db *sql.DB, sessionID string) (bool, error) {
	var total, ready int
	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN is_ready THEN 1 ELSE 0 END), 0)
		FROM participant
		WHERE session_id = $1 AND status = $2
	`, sessionID, models.StatusActive).Scan(&total, &ready)
	if err != nil {
		return false, err
	}
	return total > 0 && ready == total, nil
}

// resetAllReady clears the readiness flag for every participant in the
// session, so each gated step starts from scratch.
func resetAllReady(ex execer, sessionID string) error {
	_, err := ex.Exec(`UPDATE participant SET is_ready = FALSE WHERE session_id = $1`, sessionID)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting the ready reset
// run inside a transition's transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
