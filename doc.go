// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the PulseCheck API server.

PulseCheck is a team health check service: a facilitator opens a session,
teammates join with a short code, and the group scores a set of health
questions one at a time. Scores stay hidden until everyone has voted,
then reveal together with traffic-light classification and aggregate
statistics.

# Starting the Server

The server runs on SQLite by default and needs no configuration:

	go run main.go

Or against PostgreSQL:

	go run main.go -t postgres -d "postgres://..."

# Configuration

Optional settings (flags or environment, .env files are loaded):

  - PORT (-p): Server port (default: 3419)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (required for postgres)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (sessions, participants, phases, scoring, streams)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - events: In-process pub/sub hub for server-sent events
  - questions: Built-in question sets and scale definitions
  - auth: Session code and participant token generation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
