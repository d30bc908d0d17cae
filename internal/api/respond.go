// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

// Package api wires the HTTP surface: routing, auth endpoints,
// transaction CRUD and the websocket upgrade.
package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/hbarton/ledgerd/internal/logging"
)

// sanitizeLogValue removes control characters from strings to prevent
// log injection via attacker-controlled values.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondMessage sends {"message": ...}, the shape used by the auth
// endpoints.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondMsg sends {"msg": ...}, the shape used by the transaction
// endpoints.
func respondMsg(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"msg": msg})
}

// decodeJSON decodes the request body into v, rejecting payloads
// larger than 1 MB.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(v)
}
