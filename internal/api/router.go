// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hbarton/ledgerd/internal/auth"
	"github.com/hbarton/ledgerd/internal/config"
	"github.com/hbarton/ledgerd/internal/middleware"
	"github.com/hbarton/ledgerd/internal/realtime"
	"github.com/hbarton/ledgerd/internal/store"
)

// Server holds the HTTP surface's dependencies.
type Server struct {
	authenticator *auth.Authenticator
	tokens        *auth.TokenManager
	cookies       *auth.CookieWriter
	users         *store.UserStore
	transactions  *store.TransactionStore
	hub           *realtime.Hub

	production  bool
	corsOrigins []string

	rateLimitReqs     int
	rateLimitWindow   time.Duration
	rateLimitDisabled bool
}

// NewServer wires the handler dependencies.
func NewServer(
	cfg *config.Config,
	authenticator *auth.Authenticator,
	tokens *auth.TokenManager,
	users *store.UserStore,
	transactions *store.TransactionStore,
	hub *realtime.Hub,
) *Server {
	return &Server{
		authenticator:     authenticator,
		tokens:            tokens,
		cookies:           auth.NewCookieWriter(cfg.IsProduction(), cfg.Security.SessionTTL),
		users:             users,
		transactions:      transactions,
		hub:               hub,
		production:        cfg.IsProduction(),
		corsOrigins:       cfg.Security.CORSOrigins,
		rateLimitReqs:     cfg.Security.RateLimitReqs,
		rateLimitWindow:   cfg.Security.RateLimitWindow,
		rateLimitDisabled: cfg.Security.RateLimitDisabled,
	}
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)
	r.Use(s.corsHandler())

	r.Get("/api/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(s.rateLimiter())
		r.Post("/request-otp", s.handleRequestOTP)
		r.Post("/verify-otp", s.handleVerifyOTP)
		r.Get("/me", s.handleMe)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/api/transactions", func(r chi.Router) {
		r.Use(auth.RequireAuth(s.tokens, s.unauthorized))
		r.Get("/", s.handleListTransactions)
		r.Post("/", s.handleCreateTransaction)
		r.Get("/{id}", s.handleGetTransaction)
		r.Put("/{id}", s.handleUpdateTransaction)
		r.Delete("/{id}", s.handleDeleteTransaction)
	})

	r.Get("/api/ws", s.handleWebSocket)

	return r
}

// corsHandler builds the CORS middleware. Credentials must be allowed
// for the cross-origin session cookie, which rules out the wildcard
// origin in production.
func (s *Server) corsHandler() func(http.Handler) http.Handler {
	origins := s.corsOrigins
	if len(origins) == 0 && !s.production {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// rateLimiter bounds requests per client IP on the auth endpoints.
func (s *Server) rateLimiter() func(http.Handler) http.Handler {
	if s.rateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.rateLimitReqs,
		s.rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondMessage(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
}

func (s *Server) unauthorized(w http.ResponseWriter, _ *http.Request) {
	respondMessage(w, http.StatusUnauthorized, "Unauthorized")
}

// handleHealth reports liveness.
//
// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}
