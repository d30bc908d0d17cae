// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

// Package main is the entry point for the Ledgerd server.
//
// Ledgerd is the backend for a personal budget tracker: passwordless
// email OTP login, cookie sessions, per-user transaction CRUD and live
// updates over WebSocket.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (env > file > defaults)
//  2. Database: BadgerDB holding users, transactions and OTP challenges
//  3. Mail: SMTP delivery for one-time codes
//  4. Realtime hub: per-user WebSocket fan-out
//  5. HTTP server: chi router with the REST API and /api/ws
//
// The hub and HTTP server run under a suture supervision tree; a crash
// in one layer restarts only that layer.
//
// # Configuration
//
// Required in production:
//   - JWT_SECRET: secret for session token signing
//   - SMTP_HOST/SMTP_USER/SMTP_PASS (or EMAIL_USER/EMAIL_PASS for Gmail)
//
// Common settings:
//   - HTTP_PORT (default 5000)
//   - ENVIRONMENT: development (default) or production
//   - DATA_DIR: Badger data directory (default /data/ledgerd)
//   - CORS_ORIGINS: comma-separated SPA origins
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests and the hub closes every WebSocket connection.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hbarton/ledgerd/internal/api"
	"github.com/hbarton/ledgerd/internal/auth"
	"github.com/hbarton/ledgerd/internal/config"
	"github.com/hbarton/ledgerd/internal/logging"
	"github.com/hbarton/ledgerd/internal/mail"
	"github.com/hbarton/ledgerd/internal/realtime"
	"github.com/hbarton/ledgerd/internal/store"
	"github.com/hbarton/ledgerd/internal/supervisor"
	"github.com/hbarton/ledgerd/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting Ledgerd")

	if cfg.Security.JWTSecret == config.DevJWTSecret {
		logging.Warn().Msg("Using the development JWT secret; set JWT_SECRET before deploying")
	}

	db, err := store.Open(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	var mailer mail.Mailer
	if cfg.MailConfigured() {
		mailer, err = mail.NewSMTPMailer(cfg.Mail)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to configure SMTP")
		}
	} else {
		if cfg.IsProduction() {
			logging.Fatal().Msg("No SMTP transport configured; set SMTP_* or EMAIL_USER/EMAIL_PASS")
		}
		// Development fallback: codes land in the log, not an inbox.
		logging.Warn().Msg("No SMTP transport configured; logging outbound mail instead")
		mailer = loggingMailer{}
	}

	users := store.NewUserStore(db)
	transactions := store.NewTransactionStore(db)
	codes := auth.NewBadgerCodeStore(db, cfg.OTP.TTL, cfg.OTP.MaxAttempts)
	throttle := auth.NewMemoryThrottle(cfg.OTP.ThrottleWindow)
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.SessionTTL)
	authenticator := auth.NewAuthenticator(codes, throttle, users, mailer, tokens, cfg.OTP.TTL)

	hub := realtime.NewHub()
	server := api.NewServer(cfg, authenticator, tokens, users, transactions, hub)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Addr()).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// loggingMailer is the development stand-in for SMTP delivery.
type loggingMailer struct{}

func (loggingMailer) Send(_ context.Context, msg mail.Message) error {
	logging.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("outbound mail (development)")
	return nil
}
