// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/pulsecheck/events"
	"github.com/danielhkuo/pulsecheck/middleware"
)

type StreamHandler struct {
	db  *sql.DB
	hub *events.Hub
}

func NewStreamHandler(db *sql.DB, hub *events.Hub) *StreamHandler {
	return &StreamHandler{db: db, hub: hub}
}

// Events handles GET /sessions/{code}/events
//
// Server-sent events. The subscription lasts until the client disconnects;
// a slow client misses events rather than stalling the publishers.
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSessionByCode(h.db, w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	ch := h.hub.Subscribe(session.Code)
	defer h.hub.Unsubscribe(session.Code, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Let the client know the stream is live before the first event.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	slog.Info("event stream opened", "session_code", session.Code)

	for {
		select {
		case <-r.Context().Done():
			slog.Info("event stream closed", "session_code", session.Code)
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				slog.Warn("failed to marshal event payload", "error", err, "type", ev.Type)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
