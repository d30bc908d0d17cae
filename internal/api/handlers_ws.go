// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/hbarton/ledgerd/internal/auth"
	"github.com/hbarton/ledgerd/internal/logging"
	"github.com/hbarton/ledgerd/internal/realtime"
)

// wsUpgradeLimiter bounds the global rate of websocket upgrades.
var wsUpgradeLimiter = rate.NewLimiter(rate.Limit(10), 30)

// handleWebSocket authenticates the session cookie and upgrades the
// connection. The token must verify before the upgrade; a failed
// handshake is an HTTP 401, not a websocket close.
//
// GET /api/ws
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !wsUpgradeLimiter.Allow() {
		respondMessage(w, http.StatusTooManyRequests, "Too many connection attempts")
		return
	}

	token := auth.TokenFromRequest(r)
	if token == "" {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWSOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := realtime.NewClient(s.hub, conn, claims.Subject)
	s.hub.Register <- client
	client.Start()
}

// checkWSOrigin accepts same-origin requests, the configured CORS
// origins, and any origin in development.
func (s *Server) checkWSOrigin(r *http.Request) bool {
	if !s.production {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().
		Str("origin", sanitizeLogValue(origin)).
		Msg("websocket origin rejected")
	return false
}
