// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/models"
	"github.com/danielhkuo/pulsecheck/testutil"
)

func TestPhaseTransitionsHappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	// retro-pulse has 3 questions, so two next-question calls reach the end
	sessionID, code := testutil.CreateTestSession(t, db, "lobby", 0)
	if _, err := db.Exec(`UPDATE session SET question_set_id = 'retro-pulse' WHERE id = $1`, sessionID); err != nil {
		t.Fatalf("Failed to switch question set: %v", err)
	}

	steps := []struct {
		name      string
		fn        func(http.ResponseWriter, *http.Request)
		body      interface{}
		wantPhase string
		wantIndex int
	}{
		{"start", handler.Start, nil, models.PhaseIntro, 0},
		{"begin scoring", handler.BeginScoring, nil, models.PhaseScoring, 0},
		{"next question", handler.NextQuestion, nil, models.PhaseScoring, 1},
		{"next question again", handler.NextQuestion, nil, models.PhaseScoring, 2},
		{"summary", handler.ShowSummary, nil, models.PhaseSummary, 2},
		{"actions", handler.ShowActions, nil, models.PhaseActions, 2},
		{"complete", handler.Complete, nil, models.PhaseCompleted, 2},
	}

	for _, step := range steps {
		req := testutil.MakeRequest("POST", "/sessions/"+code+"/x", step.body, nil)
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()
		step.fn(w, req)

		testutil.AssertStatus(t, w, 200)

		var session models.Session
		testutil.AssertJSON(t, w, &session)
		if session.Phase != step.wantPhase {
			t.Fatalf("%s: expected phase %s, got %s", step.name, step.wantPhase, session.Phase)
		}
		if session.QuestionIndex != step.wantIndex {
			t.Fatalf("%s: expected question index %d, got %d", step.name, step.wantIndex, session.QuestionIndex)
		}
	}

	var completedAt sql.NullTime
	if err := db.QueryRow(`SELECT completed_at FROM session WHERE id = $1`, sessionID).Scan(&completedAt); err != nil {
		t.Fatalf("Failed to read session: %v", err)
	}
	if !completedAt.Valid {
		t.Error("Expected completed_at to be set")
	}
}

func TestPhaseTransitionsRejectWrongPhase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	tests := []struct {
		name  string
		phase string
		index int
		fn    func(http.ResponseWriter, *http.Request)
		body  interface{}
	}{
		{"start outside lobby", "scoring", 0, handler.Start, nil},
		{"begin scoring outside intro", "lobby", 0, handler.BeginScoring, nil},
		{"next question outside scoring", "summary", 0, handler.NextQuestion, nil},
		{"summary before last question", "scoring", 0, handler.ShowSummary, nil},
		{"summary outside scoring", "actions", 7, handler.ShowSummary, nil},
		{"actions outside summary", "scoring", 0, handler.ShowActions, nil},
		{"back to summary outside actions", "summary", 0, handler.BackToSummary, nil},
		{"complete outside actions", "summary", 7, handler.Complete, nil},
		{"back to intro past first question", "scoring", 2, handler.BackToIntro, nil},
		{"back to scoring outside summary", "scoring", 1, handler.BackToScoring, models.BackToScoringRequest{QuestionIndex: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := testutil.CreateTestSession(t, db, tt.phase, tt.index)

			req := testutil.MakeRequest("POST", "/sessions/"+code+"/x", tt.body, nil)
			req.SetPathValue("code", code)
			w := httptest.NewRecorder()
			tt.fn(w, req)

			testutil.AssertStatus(t, w, 409)
		})
	}
}

func TestNextQuestionAtLastQuestion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	// team-health has 8 questions; index 7 is the last
	_, code := testutil.CreateTestSession(t, db, "scoring", 7)

	req := testutil.MakeRequest("POST", "/sessions/"+code+"/next-question", nil, nil)
	req.SetPathValue("code", code)
	w := httptest.NewRecorder()
	handler.NextQuestion(w, req)

	testutil.AssertStatus(t, w, 409)
}

func TestPreviousQuestionAtFirstQuestion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	sessionID, code := testutil.CreateTestSession(t, db, "scoring", 0)

	req := testutil.MakeRequest("POST", "/sessions/"+code+"/previous-question", nil, nil)
	req.SetPathValue("code", code)
	w := httptest.NewRecorder()
	handler.PreviousQuestion(w, req)

	testutil.AssertStatus(t, w, 409)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Code != models.CodeAtFirstQuestion {
		t.Errorf("Expected code %q, got %q", models.CodeAtFirstQuestion, errResp.Code)
	}

	// The rejection must not have mutated the session
	var phase string
	var index int
	if err := db.QueryRow(`SELECT phase, question_index FROM session WHERE id = $1`, sessionID).Scan(&phase, &index); err != nil {
		t.Fatalf("Failed to read session: %v", err)
	}
	if phase != models.PhaseScoring || index != 0 {
		t.Errorf("Session mutated by rejected transition: phase=%s index=%d", phase, index)
	}
}

func TestPreviousQuestionUnrevealsTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	sessionID, code := testutil.CreateTestSession(t, db, "scoring", 2)
	participantID, _ := testutil.JoinTestParticipant(t, db, sessionID, "Ada", false, false)
	testutil.SubmitTestScore(t, db, sessionID, participantID, 1, 3, true)
	testutil.SubmitTestScore(t, db, sessionID, participantID, 0, 2, true)

	req := testutil.MakeRequest("POST", "/sessions/"+code+"/previous-question", nil, nil)
	req.SetPathValue("code", code)
	w := httptest.NewRecorder()
	handler.PreviousQuestion(w, req)

	testutil.AssertStatus(t, w, 200)

	var session models.Session
	testutil.AssertJSON(t, w, &session)
	if session.QuestionIndex != 1 {
		t.Fatalf("Expected question index 1, got %d", session.QuestionIndex)
	}

	// The landed-on question is unrevealed; earlier questions keep theirs
	var revealed bool
	if err := db.QueryRow(`SELECT revealed FROM score WHERE session_id = $1 AND question_index = 1`, sessionID).Scan(&revealed); err != nil {
		t.Fatalf("Failed to read score: %v", err)
	}
	if revealed {
		t.Error("Expected the landed-on question's scores to be unrevealed")
	}
	if err := db.QueryRow(`SELECT revealed FROM score WHERE session_id = $1 AND question_index = 0`, sessionID).Scan(&revealed); err != nil {
		t.Fatalf("Failed to read score: %v", err)
	}
	if !revealed {
		t.Error("Expected other questions' scores to stay revealed")
	}
}

func TestBackToScoringUnrevealsTarget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	sessionID, code := testutil.CreateTestSession(t, db, "summary", 7)
	participantID, _ := testutil.JoinTestParticipant(t, db, sessionID, "Ada", false, false)
	testutil.SubmitTestScore(t, db, sessionID, participantID, 7, 5, true)

	req := testutil.MakeRequest("POST", "/sessions/"+code+"/back-to-scoring",
		models.BackToScoringRequest{QuestionIndex: 7}, nil)
	req.SetPathValue("code", code)
	w := httptest.NewRecorder()
	handler.BackToScoring(w, req)

	testutil.AssertStatus(t, w, 200)

	var session models.Session
	testutil.AssertJSON(t, w, &session)
	if session.Phase != models.PhaseScoring || session.QuestionIndex != 7 {
		t.Fatalf("Expected scoring at index 7, got %s at %d", session.Phase, session.QuestionIndex)
	}

	var revealed bool
	if err := db.QueryRow(`SELECT revealed FROM score WHERE session_id = $1 AND question_index = 7`, sessionID).Scan(&revealed); err != nil {
		t.Fatalf("Failed to read score: %v", err)
	}
	if revealed {
		t.Error("Expected the target question's scores to be unrevealed")
	}
}

func TestBackToIntroFromFirstQuestion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	sessionID, code := testutil.CreateTestSession(t, db, "scoring", 0)
	participantID, _ := testutil.JoinTestParticipant(t, db, sessionID, "Ada", false, false)
	testutil.SubmitTestScore(t, db, sessionID, participantID, 0, 1, true)

	req := testutil.MakeRequest("POST", "/sessions/"+code+"/back-to-intro", nil, nil)
	req.SetPathValue("code", code)
	w := httptest.NewRecorder()
	handler.BackToIntro(w, req)

	testutil.AssertStatus(t, w, 200)

	var session models.Session
	testutil.AssertJSON(t, w, &session)
	if session.Phase != models.PhaseIntro {
		t.Fatalf("Expected intro phase, got %s", session.Phase)
	}

	var revealed bool
	if err := db.QueryRow(`SELECT revealed FROM score WHERE session_id = $1 AND question_index = 0`, sessionID).Scan(&revealed); err != nil {
		t.Fatalf("Failed to read score: %v", err)
	}
	if revealed {
		t.Error("Expected first question's scores to be unrevealed")
	}
}

func TestForwardTransitionResetsReadiness(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	sessionID, code := testutil.CreateTestSession(t, db, "lobby", 0)
	idA, _ := testutil.JoinTestParticipant(t, db, sessionID, "Ada", true, false)
	idB, _ := testutil.JoinTestParticipant(t, db, sessionID, "Grace", false, false)
	testutil.SetTestReady(t, db, idA)
	testutil.SetTestReady(t, db, idB)

	req := testutil.MakeRequest("POST", "/sessions/"+code+"/start", nil, nil)
	req.SetPathValue("code", code)
	w := httptest.NewRecorder()
	handler.Start(w, req)

	testutil.AssertStatus(t, w, 200)

	var readyCount int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM participant WHERE session_id = $1 AND is_ready
	`, sessionID).Scan(&readyCount); err != nil {
		t.Fatalf("Failed to count ready participants: %v", err)
	}
	if readyCount != 0 {
		t.Errorf("Expected readiness reset on start, %d still ready", readyCount)
	}
}

func TestBackToScoringValidatesIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()
	handler := NewPhaseHandler(db, hub)

	_, code := testutil.CreateTestSession(t, db, "summary", 7)

	for _, index := range []int{-1, 8} {
		req := testutil.MakeRequest("POST", "/sessions/"+code+"/back-to-scoring",
			models.BackToScoringRequest{QuestionIndex: index}, nil)
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()
		handler.BackToScoring(w, req)

		testutil.AssertStatus(t, w, 400)
	}
}
