// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// SessionCodeLength is the number of characters in a shareable session code.
const SessionCodeLength = 6

// sessionCodeAlphabet excludes characters that read ambiguously when a code
// is shown on a projector: 0/O, 1/I/L.
const sessionCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateParticipantToken creates a random secure token for a participant.
// The token is the participant's per-browser identity: presenting it again
// reattaches the same Participant row on reconnect.
func GenerateParticipantToken() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate participant token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// GenerateSessionCode creates a random human-shareable session code:
// fixed length, uppercase alphanumeric, ambiguous characters excluded.
// Uniqueness is the caller's concern (checked against the store at
// session creation).
func GenerateSessionCode() (string, error) {
	code := make([]byte, SessionCodeLength)
	max := big.NewInt(int64(len(sessionCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate session code: %w", err)
		}
		code[i] = sessionCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeSessionCode maps user input onto the canonical stored form.
// Lookup is case-insensitive.
func NormalizeSessionCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
