// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and
indexes. The statements run unchanged on SQLite and PostgreSQL.

# Tables

The schema includes:

  - session: workshop run, phase state, and question position
  - participant: people attached to a session, keyed by identity token
  - score: one rating per (session, participant, question)

# Relationships

	session 1──* participant
	session 1──* score
	participant 1──* score

All foreign keys use ON DELETE CASCADE. The core itself never deletes
rows; dropouts are soft-deleted via participant.status.

# Uniqueness Anchors

Concurrency safety rests on three constraints:

  - session.code UNIQUE (collision-checked shareable codes)
  - participant (session_id, token) UNIQUE (idempotent rejoin)
  - score (session_id, participant_id, question_index) UNIQUE
    (resubmission converges on one row via upsert)
*/
package db
