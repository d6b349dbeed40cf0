// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/models"
	"github.com/danielhkuo/pulsecheck/testutil"
)

// TestFullWorkshopWorkflow tests the complete end-to-end workflow:
// 1. Create session
// 2. Participants join
// 3. Everyone marks ready
// 4. Facilitator starts and begins scoring
// 5. Everyone scores each question, triggering auto-reveal
// 6. Step through all questions to the summary
// 7. Verify results
// 8. Actions phase, then complete
func TestFullWorkshopWorkflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	hub := events.NewHub()

	sessionHandler := NewSessionHandler(db, hub)
	participantHandler := NewParticipantHandler(db, hub)
	phaseHandler := NewPhaseHandler(db, hub)
	scoringHandler := NewScoringHandler(db, hub)

	// Step 1: Create a session with the short retro set
	req := testutil.MakeRequest("POST", "/sessions",
		models.CreateSessionRequest{QuestionSetID: "retro-pulse"}, nil)
	w := httptest.NewRecorder()
	sessionHandler.CreateSession(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 1 - Create session failed: %d - %s", w.Code, w.Body.String())
	}

	var session models.Session
	testutil.AssertJSON(t, w, &session)
	code := session.Code
	t.Logf("Step 1 - Created session: %s", code)

	// Step 2: Two participants join
	join := func(name string, facilitator bool) string {
		t.Helper()
		req := testutil.MakeRequest("POST", "/sessions/"+code+"/join",
			models.JoinSessionRequest{Name: name, IsFacilitator: facilitator}, nil)
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()
		sessionHandler.JoinSession(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Join as %s failed: %d - %s", name, w.Code, w.Body.String())
		}
		var resp models.JoinSessionResponse
		testutil.AssertJSON(t, w, &resp)
		return resp.Token
	}
	tokenAda := join("Ada", true)
	tokenGrace := join("Grace", false)
	t.Log("Step 2 - Participants joined")

	// Step 3: Everyone marks ready
	markReady := func(token string) {
		t.Helper()
		req := testutil.MakeRequest("POST", "/sessions/"+code+"/ready",
			models.SetReadyRequest{Ready: true},
			map[string]string{"X-Participant-Token": token})
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()
		participantHandler.SetReady(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("Step 3 - Ready failed: %d - %s", w.Code, w.Body.String())
		}
	}
	markReady(tokenAda)
	markReady(tokenGrace)
	t.Log("Step 3 - All participants ready")

	// Step 4: Start and begin scoring
	transition := func(step string, fn func(http.ResponseWriter, *http.Request), body interface{}) models.Session {
		t.Helper()
		req := testutil.MakeRequest("POST", "/sessions/"+code+"/x", body, nil)
		req.SetPathValue("code", code)
		w := httptest.NewRecorder()
		fn(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("%s failed: %d - %s", step, w.Code, w.Body.String())
		}
		var s models.Session
		testutil.AssertJSON(t, w, &s)
		return s
	}
	transition("Step 4 - Start", phaseHandler.Start, nil)
	s := transition("Step 4 - Begin scoring", phaseHandler.BeginScoring, nil)
	if s.Phase != models.PhaseScoring || s.QuestionIndex != 0 {
		t.Fatalf("Step 4 - Expected scoring at question 0, got %s at %d", s.Phase, s.QuestionIndex)
	}
	t.Log("Step 4 - Scoring started")

	// Step 5 & 6: Score every question; the second submission auto-reveals
	// retro-pulse: q0 maximal, q1 balance, q2 maximal
	answers := []struct{ ada, grace int }{{8, 6}, {0, -2}, {9, 9}}
	for i, a := range answers {
		w := submitScore(t, scoringHandler, code, tokenAda, i, a.ada)
		testutil.AssertStatus(t, w, 201)
		var score models.Score
		testutil.AssertJSON(t, w, &score)
		if score.Revealed {
			t.Fatalf("Step 5 - Question %d revealed after one of two submissions", i)
		}

		w = submitScore(t, scoringHandler, code, tokenGrace, i, a.grace)
		testutil.AssertStatus(t, w, 201)
		testutil.AssertJSON(t, w, &score)
		if !score.Revealed {
			t.Fatalf("Step 5 - Question %d did not auto-reveal", i)
		}

		if i < len(answers)-1 {
			transition("Step 6 - Next question", phaseHandler.NextQuestion, nil)
		}
	}
	t.Log("Step 5/6 - All questions scored and revealed")

	// Step 6: Summary after the last question
	s = transition("Step 6 - Summary", phaseHandler.ShowSummary, nil)
	if s.Phase != models.PhaseSummary {
		t.Fatalf("Step 6 - Expected summary phase, got %s", s.Phase)
	}

	// Step 7: Results cover all three questions with aggregates
	req = testutil.MakeRequest("GET", "/sessions/"+code+"/results", nil, nil)
	req.SetPathValue("code", code)
	w = httptest.NewRecorder()
	scoringHandler.GetResults(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Step 7 - Results failed: %d - %s", w.Code, w.Body.String())
	}

	var results models.ResultsResponse
	testutil.AssertJSON(t, w, &results)
	if len(results.Questions) != 3 {
		t.Fatalf("Step 7 - Expected 3 question views, got %d", len(results.Questions))
	}
	for i, q := range results.Questions {
		if !q.Revealed {
			t.Errorf("Step 7 - Question %d not revealed", i)
		}
		if q.Average == nil {
			t.Errorf("Step 7 - Question %d missing average", i)
		}
	}
	// q0: (8+6)/2 = 7.0, both >= amber; 8 green + 6 amber → CTV 7.5
	if *results.Questions[0].Average != 7.0 {
		t.Errorf("Step 7 - Expected average 7.0, got %v", *results.Questions[0].Average)
	}
	if *results.Questions[0].CombinedTeamValue != 7.5 {
		t.Errorf("Step 7 - Expected CTV 7.5, got %v", *results.Questions[0].CombinedTeamValue)
	}
	t.Log("Step 7 - Results verified")

	// Step 8: Actions phase, then complete
	transition("Step 8 - Actions", phaseHandler.ShowActions, nil)
	s = transition("Step 8 - Complete", phaseHandler.Complete, nil)
	if s.Phase != models.PhaseCompleted {
		t.Fatalf("Step 8 - Expected completed phase, got %s", s.Phase)
	}
	if s.CompletedAt == nil {
		t.Error("Step 8 - Expected completed_at to be set")
	}
	t.Log("Step 8 - Session completed")
}
