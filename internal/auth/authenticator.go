// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/hbarton/ledgerd/internal/logging"
	lmail "github.com/hbarton/ledgerd/internal/mail"
	"github.com/hbarton/ledgerd/internal/models"
	"github.com/hbarton/ledgerd/internal/store"
)

// Challenge failure sentinels. Each maps 1:1 to a client-facing message
// in the API layer.
var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrChallengeNotFound = errors.New("otp not found")
	ErrChallengeExpired  = errors.New("otp expired")
	ErrTooManyAttempts   = errors.New("too many attempts")
	ErrCodeMismatch      = errors.New("invalid code")
	ErrDeliveryFailed    = errors.New("failed to send otp email")
)

// ThrottledError reports a denied issuance and how long to wait.
type ThrottledError struct {
	RetryAfter int // whole seconds, rounded up
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("otp requested too soon, retry in %ds", e.RetryAfter)
}

// otpSubject is the subject line for code delivery emails.
const otpSubject = "Your Budget Tracker OTP Code"

// Authenticator runs the passwordless login flow: issue a code over
// email, verify it, create the user on first login, mint a session.
type Authenticator struct {
	codes    CodeStore
	throttle ThrottleStore
	users    *store.UserStore
	mailer   lmail.Mailer
	tokens   *TokenManager
	ttl      time.Duration
}

// NewAuthenticator wires the login flow dependencies. ttl is the code
// lifetime, used only for the delivery email text.
func NewAuthenticator(codes CodeStore, throttle ThrottleStore, users *store.UserStore, mailer lmail.Mailer, tokens *TokenManager, ttl time.Duration) *Authenticator {
	return &Authenticator{
		codes:    codes,
		throttle: throttle,
		users:    users,
		mailer:   mailer,
		tokens:   tokens,
		ttl:      ttl,
	}
}

// RequestOTP issues a code for email and delivers it. clientIP scopes
// the issuance throttle together with the email. The throttle records
// the attempt before delivery, so a failed send still counts against
// the window.
func (a *Authenticator) RequestOTP(ctx context.Context, email, clientIP string) error {
	email = models.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		otpRequestsTotal.WithLabelValues("invalid").Inc()
		return ErrInvalidEmail
	}

	if allowed, retryAfter := a.throttle.CheckAndRecord(ThrottleKey(email, clientIP)); !allowed {
		otpRequestsTotal.WithLabelValues("throttled").Inc()
		return &ThrottledError{RetryAfter: retryAfter}
	}

	code, err := a.codes.Issue(email)
	if err != nil {
		return fmt.Errorf("failed to issue otp: %w", err)
	}

	minutes := int(a.ttl.Minutes())
	msg := lmail.Message{
		To:      email,
		Subject: otpSubject,
		Text:    fmt.Sprintf("Your OTP code is %s. It expires in %d minutes.", code, minutes),
		HTML:    fmt.Sprintf("<p>Your OTP code is <b>%s</b>. It expires in %d minutes.</p>", code, minutes),
	}
	if err := a.mailer.Send(ctx, msg); err != nil {
		otpRequestsTotal.WithLabelValues("delivery_failed").Inc()
		logging.Err(err).Str("email", email).Msg("otp delivery failed")
		return ErrDeliveryFailed
	}

	otpRequestsTotal.WithLabelValues("sent").Inc()
	logging.Info().Str("email", email).Msg("otp sent")
	return nil
}

// VerifyOTP checks the submitted code, creating the user on first
// success (name falls back to the email local part when the hint is
// empty) and minting a session token.
func (a *Authenticator) VerifyOTP(email, code, nameHint string) (*models.User, string, error) {
	email = models.NormalizeEmail(email)

	outcome, err := a.codes.Verify(email, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify otp: %w", err)
	}
	otpVerificationsTotal.WithLabelValues(outcome.String()).Inc()

	switch outcome {
	case VerifyOK:
	case VerifyNotFound:
		return nil, "", ErrChallengeNotFound
	case VerifyExpired:
		return nil, "", ErrChallengeExpired
	case VerifyTooManyAttempts:
		return nil, "", ErrTooManyAttempts
	case VerifyMismatch:
		return nil, "", ErrCodeMismatch
	default:
		return nil, "", fmt.Errorf("unexpected verify outcome %v", outcome)
	}

	user, err := a.users.GetOrCreate(email, nameHint)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	token, err := a.tokens.Mint(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	sessionsIssuedTotal.Inc()
	logging.Info().Str("user_id", user.ID).Msg("session issued")
	return user, token, nil
}
