// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package auth

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hbarton/ledgerd/internal/models"
)

// ThrottleStore rate-limits OTP issuance per (email, client origin) key.
type ThrottleStore interface {
	// CheckAndRecord reports whether an issuance is allowed for key right
	// now. When allowed it records the issuance timestamp immediately,
	// before any delivery attempt, so a failed delivery still counts
	// against the window. When denied it returns the whole seconds left
	// until the next issuance is allowed, rounded up.
	CheckAndRecord(key string) (allowed bool, retryAfter int)
}

// MemoryThrottle is an in-memory ThrottleStore. Entries older than the
// window are pruned opportunistically on access.
type MemoryThrottle struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewMemoryThrottle creates a throttle with the given minimum interval
// between issuances for the same key.
func NewMemoryThrottle(window time.Duration) *MemoryThrottle {
	return &MemoryThrottle{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// CheckAndRecord implements ThrottleStore.
func (t *MemoryThrottle) CheckAndRecord(key string) (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if prev, ok := t.last[key]; ok {
		elapsed := now.Sub(prev)
		if elapsed < t.window {
			remaining := t.window - elapsed
			return false, int(math.Ceil(remaining.Seconds()))
		}
	}

	t.last[key] = now
	t.pruneLocked(now)
	return true, 0
}

// pruneLocked drops entries whose window has fully elapsed. Caller holds mu.
func (t *MemoryThrottle) pruneLocked(now time.Time) {
	for k, ts := range t.last {
		if now.Sub(ts) >= t.window {
			delete(t.last, k)
		}
	}
}

// ThrottleKey builds the throttle key for an issuance request:
// normalized email joined with the client IP.
func ThrottleKey(email, clientIP string) string {
	return models.NormalizeEmail(email) + "|" + clientIP
}

// ClientIP extracts the originating client address for throttling: the
// first X-Forwarded-For entry when present, RemoteAddr otherwise, and
// "unknown" when neither yields anything usable.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if i := strings.IndexByte(xff, ','); i >= 0 {
			first = xff[:i]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}
