// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is deliberately portable: the same statements run on both
// SQLite and PostgreSQL, so all timestamps are written by the
// application rather than by database defaults.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Sessions
CREATE TABLE IF NOT EXISTS session (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    question_set_id TEXT NOT NULL,
    phase TEXT NOT NULL DEFAULT 'lobby' CHECK (phase IN ('lobby', 'intro', 'scoring', 'summary', 'actions', 'completed')),
    question_index INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    started_at TIMESTAMP,
    completed_at TIMESTAMP,
    last_active_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_code ON session(code);

-- Participants
CREATE TABLE IF NOT EXISTS participant (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES session(id) ON DELETE CASCADE,
    token TEXT NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'dropped')),
    is_facilitator BOOLEAN NOT NULL DEFAULT FALSE,
    is_observer BOOLEAN NOT NULL DEFAULT FALSE,
    is_ready BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMP NOT NULL,
    last_seen_at TIMESTAMP NOT NULL,
    UNIQUE (session_id, token)
);

CREATE INDEX IF NOT EXISTS idx_participant_session_id ON participant(session_id);
CREATE INDEX IF NOT EXISTS idx_participant_token ON participant(session_id, token);

-- Scores
CREATE TABLE IF NOT EXISTS score (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES session(id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL REFERENCES participant(id) ON DELETE CASCADE,
    question_index INTEGER NOT NULL,
    value INTEGER NOT NULL,
    revealed BOOLEAN NOT NULL DEFAULT FALSE,
    submitted_at TIMESTAMP NOT NULL,
    UNIQUE (session_id, participant_id, question_index)
);

CREATE INDEX IF NOT EXISTS idx_score_session_question ON score(session_id, question_index);
`
