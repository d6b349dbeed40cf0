// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/handlers"
	"github.com/danielhkuo/pulsecheck/middleware"
)

func NewRouter(db *sql.DB, hub *events.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(db, hub)
	participantHandler := handlers.NewParticipantHandler(db, hub)
	phaseHandler := handlers.NewPhaseHandler(db, hub)
	scoringHandler := handlers.NewScoringHandler(db, hub)
	streamHandler := handlers.NewStreamHandler(db, hub)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Session lifecycle
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.CreateSession))
	mux.HandleFunc("GET /sessions/{code}", middleware.WithLogging(sessionHandler.GetSession))
	mux.HandleFunc("POST /sessions/{code}/join", middleware.WithLogging(sessionHandler.JoinSession))

	// Participant state (requires X-Participant-Token)
	mux.HandleFunc("POST /sessions/{code}/ready", middleware.WithLogging(participantHandler.SetReady))
	mux.HandleFunc("POST /sessions/{code}/status", middleware.WithLogging(participantHandler.SetStatus))

	// Phase transitions
	mux.HandleFunc("POST /sessions/{code}/start", middleware.WithLogging(phaseHandler.Start))
	mux.HandleFunc("POST /sessions/{code}/begin-scoring", middleware.WithLogging(phaseHandler.BeginScoring))
	mux.HandleFunc("POST /sessions/{code}/next-question", middleware.WithLogging(phaseHandler.NextQuestion))
	mux.HandleFunc("POST /sessions/{code}/previous-question", middleware.WithLogging(phaseHandler.PreviousQuestion))
	mux.HandleFunc("POST /sessions/{code}/back-to-intro", middleware.WithLogging(phaseHandler.BackToIntro))
	mux.HandleFunc("POST /sessions/{code}/summary", middleware.WithLogging(phaseHandler.ShowSummary))
	mux.HandleFunc("POST /sessions/{code}/back-to-scoring", middleware.WithLogging(phaseHandler.BackToScoring))
	mux.HandleFunc("POST /sessions/{code}/actions-phase", middleware.WithLogging(phaseHandler.ShowActions))
	mux.HandleFunc("POST /sessions/{code}/back-to-summary", middleware.WithLogging(phaseHandler.BackToSummary))
	mux.HandleFunc("POST /sessions/{code}/complete", middleware.WithLogging(phaseHandler.Complete))

	// Scoring
	mux.HandleFunc("POST /sessions/{code}/scores", middleware.WithLogging(scoringHandler.SubmitScore))
	mux.HandleFunc("POST /sessions/{code}/reveal", middleware.WithLogging(scoringHandler.Reveal))
	mux.HandleFunc("GET /sessions/{code}/scores/{index}", middleware.WithLogging(scoringHandler.GetScores))
	mux.HandleFunc("GET /sessions/{code}/results", middleware.WithLogging(scoringHandler.GetResults))
	mux.HandleFunc("GET /sessions/{code}/questions", middleware.WithLogging(scoringHandler.GetQuestions))

	// Event stream (no logging wrapper: the request stays open)
	mux.HandleFunc("GET /sessions/{code}/events", streamHandler.Events)

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pulsecheck API v1"))
	})

	return mux
}
