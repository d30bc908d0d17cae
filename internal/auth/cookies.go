// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package auth

import (
	"net/http"
	"time"
)

// CookieName is the session cookie carrying the signed token.
const CookieName = "token"

// CookieWriter sets and clears the session cookie with attributes
// matching the deployment environment. Production serves the SPA from a
// different origin, so the cookie needs SameSite=None and Secure there;
// development uses Lax over plain HTTP.
type CookieWriter struct {
	production bool
	ttl        time.Duration
}

// NewCookieWriter creates a CookieWriter. ttl should match the session
// token lifetime.
func NewCookieWriter(production bool, ttl time.Duration) *CookieWriter {
	return &CookieWriter{production: production, ttl: ttl}
}

func (c *CookieWriter) sameSite() http.SameSite {
	if c.production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Set writes the session cookie.
func (c *CookieWriter) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.production,
		SameSite: c.sameSite(),
	})
}

// Clear expires the session cookie. Attributes must match Set or
// browsers keep the original cookie around.
func (c *CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.production,
		SameSite: c.sameSite(),
	})
}

// TokenFromRequest extracts the session token from the request cookie.
// Returns "" when the cookie is absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
