// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, events.NewHub())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, events.NewHub())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "pulsecheck API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, events.NewHub())

	// Test that routes respond (handler is invoked)
	// Note: 400, 401, 404, 409 are all valid handler responses here; a 405
	// would mean the route itself is missing
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},

		// Session lifecycle
		{"POST", "/sessions"},
		{"GET", "/sessions/ABCDEF"},
		{"POST", "/sessions/ABCDEF/join"},

		// Participant state
		{"POST", "/sessions/ABCDEF/ready"},
		{"POST", "/sessions/ABCDEF/status"},

		// Phase transitions
		{"POST", "/sessions/ABCDEF/start"},
		{"POST", "/sessions/ABCDEF/begin-scoring"},
		{"POST", "/sessions/ABCDEF/next-question"},
		{"POST", "/sessions/ABCDEF/previous-question"},
		{"POST", "/sessions/ABCDEF/back-to-intro"},
		{"POST", "/sessions/ABCDEF/summary"},
		{"POST", "/sessions/ABCDEF/back-to-scoring"},
		{"POST", "/sessions/ABCDEF/actions-phase"},
		{"POST", "/sessions/ABCDEF/back-to-summary"},
		{"POST", "/sessions/ABCDEF/complete"},

		// Scoring
		{"POST", "/sessions/ABCDEF/scores"},
		{"POST", "/sessions/ABCDEF/reveal"},
		{"GET", "/sessions/ABCDEF/scores/0"},
		{"GET", "/sessions/ABCDEF/results"},
		{"GET", "/sessions/ABCDEF/questions"},

		// Events
		{"GET", "/sessions/ABCDEF/events"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, events.NewHub())

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},             // Only GET is defined
		{"GET", "/sessions/ABCDEF/join"}, // Only POST is defined
		{"DELETE", "/sessions/ABCDEF"},   // Only GET is defined
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mux := NewRouter(db, events.NewHub())

	_, code := testutil.CreateTestSession(t, db, "lobby", 0)

	// The {code} parameter must reach the handler and resolve the session
	req := httptest.NewRequest("GET", "/sessions/"+code, nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for a real session code, got %d. Body: %s", w.Code, w.Body.String())
	}
}
