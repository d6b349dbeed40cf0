// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token and identifier generation utilities.

# Participant Tokens

Participant tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateParticipantToken()

A token is the stable per-browser identity of a participant. Presenting
the same token to join again reattaches the existing Participant row
instead of creating a new one.

# Session Codes

Session codes are the human-shareable handle for a workshop run:

	code, err := auth.GenerateSessionCode()

Codes are 6 characters, uppercase alphanumeric, drawn from an alphabet
that excludes 0/O and 1/I/L so they can be read off a projector without
ambiguity. Codes are random, not derived; the session creation path checks
the store for collisions. Lookup is case-insensitive via

	auth.NormalizeSessionCode(input)
*/
package auth
