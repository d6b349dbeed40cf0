// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/pulsecheck/auth"
	"github.com/danielhkuo/pulsecheck/db"
	"github.com/danielhkuo/pulsecheck/questions"
)

// SetupTestDB creates a fresh in-memory database with the full schema.
// MaxOpenConns is pinned to 1 so every query sees the same :memory:
// database; a second connection would get an empty one.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// CreateTestSession creates a session in the given phase at the given
// question index and returns its ID and join code.
func CreateTestSession(t *testing.T, conn *sql.DB, phase string, questionIndex int) (sessionID, code string) {
	t.Helper()

	sessionID = uuid.NewString()
	code, err := auth.GenerateSessionCode()
	if err != nil {
		t.Fatalf("Failed to generate session code: %v", err)
	}

	now := time.Now()
	var startedAt *time.Time
	if phase != "lobby" {
		startedAt = &now
	}

	_, err = conn.Exec(`
		INSERT INTO session (id, code, question_set_id, phase, question_index, created_at, started_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, sessionID, code, questions.DefaultSetID, phase, questionIndex, now, startedAt, now)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return sessionID, code
}

// JoinTestParticipant inserts an active participant and returns its ID
// and identity token.
func JoinTestParticipant(t *testing.T, conn *sql.DB, sessionID, name string, facilitator, observer bool) (participantID, token string) {
	t.Helper()

	participantID = uuid.NewString()
	token, err := auth.GenerateParticipantToken()
	if err != nil {
		t.Fatalf("Failed to generate participant token: %v", err)
	}

	now := time.Now()
	_, err = conn.Exec(`
		INSERT INTO participant (id, session_id, token, name, status, is_facilitator, is_observer, is_ready, joined_at, last_seen_at)
		VALUES ($1, $2, $3, $4, 'active', $5, $6, FALSE, $7, $8)
	`, participantID, sessionID, token, name, facilitator, observer, now, now)
	if err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}

	return participantID, token
}

// SetTestReady marks a participant ready directly in the database.
func SetTestReady(t *testing.T, conn *sql.DB, participantID string) {
	t.Helper()

	_, err := conn.Exec(`UPDATE participant SET is_ready = TRUE WHERE id = $1`, participantID)
	if err != nil {
		t.Fatalf("Failed to set test participant ready: %v", err)
	}
}

// SubmitTestScore inserts a score row and returns its ID.
func SubmitTestScore(t *testing.T, conn *sql.DB, sessionID, participantID string, questionIndex, value int, revealed bool) string {
	t.Helper()

	scoreID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO score (id, session_id, participant_id, question_index, value, revealed, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, scoreID, sessionID, participantID, questionIndex, value, revealed, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test score: %v", err)
	}

	return scoreID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
