// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hbarton/ledgerd/internal/auth"
	"github.com/hbarton/ledgerd/internal/logging"
	"github.com/hbarton/ledgerd/internal/models"
	"github.com/hbarton/ledgerd/internal/store"
	"github.com/hbarton/ledgerd/internal/validation"
)

type requestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
	Name  string `json:"name"`
}

// handleRequestOTP issues a one-time code and emails it.
//
// POST /api/auth/request-otp
func (s *Server) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req requestOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.authenticator.RequestOTP(r.Context(), req.Email, auth.ClientIP(r))
	if err != nil {
		var throttled *auth.ThrottledError
		switch {
		case errors.As(err, &throttled):
			w.Header().Set("Retry-After", strconv.Itoa(throttled.RetryAfter))
			respondMessage(w, http.StatusTooManyRequests,
				fmt.Sprintf("Please wait %ds before requesting a new code.", throttled.RetryAfter))
		case errors.Is(err, auth.ErrInvalidEmail):
			respondMessage(w, http.StatusBadRequest, "A valid email is required")
		case errors.Is(err, auth.ErrDeliveryFailed):
			respondMessage(w, http.StatusInternalServerError, "Failed to send OTP")
		default:
			logging.Err(err).Msg("otp request failed")
			respondMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	respondMessage(w, http.StatusOK, "OTP sent")
}

// handleVerifyOTP checks the submitted code and establishes a session.
//
// POST /api/auth/verify-otp
func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Struct(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := s.authenticator.VerifyOTP(req.Email, req.Code, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrChallengeNotFound):
			respondMessage(w, http.StatusBadRequest, "OTP not found, request a new one")
		case errors.Is(err, auth.ErrChallengeExpired):
			respondMessage(w, http.StatusBadRequest, "OTP expired")
		case errors.Is(err, auth.ErrTooManyAttempts):
			respondMessage(w, http.StatusBadRequest, "Too many attempts")
		case errors.Is(err, auth.ErrCodeMismatch):
			respondMessage(w, http.StatusBadRequest, "Invalid code")
		default:
			logging.Err(err).Msg("otp verification failed")
			respondMessage(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	s.cookies.Set(w, token)
	respondJSON(w, http.StatusOK, map[string]models.UserSummary{"user": user.Summary()})
}

// handleMe returns the authenticated user, or {"user": null} for
// anonymous and stale sessions. This endpoint never errors; the SPA
// polls it on load to decide whether to show the login screen.
//
// GET /api/auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	null := map[string]interface{}{"user": nil}

	token := auth.TokenFromRequest(r)
	if token == "" {
		respondJSON(w, http.StatusOK, null)
		return
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		respondJSON(w, http.StatusOK, null)
		return
	}

	user, err := s.users.GetByID(claims.Subject)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logging.Err(err).Msg("failed to load session user")
		}
		respondJSON(w, http.StatusOK, null)
		return
	}

	respondJSON(w, http.StatusOK, map[string]models.UserSummary{"user": user.Summary()})
}

// handleLogout clears the session cookie. Idempotent.
//
// POST /api/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.cookies.Clear(w)
	respondMessage(w, http.StatusOK, "Logged out")
}
