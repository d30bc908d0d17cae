// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/hbarton/ledgerd/internal/store"
)

func newTestCodeStore(t *testing.T) *BadgerCodeStore {
	t.Helper()
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerCodeStore(db, 10*time.Minute, 5)
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("generateCode() = %q, want 6 digits", code)
		}
		if code[0] == '0' {
			t.Fatalf("generateCode() = %q, first digit must not be zero", code)
		}
	}
}

func TestVerifyHappyPath(t *testing.T) {
	codes := newTestCodeStore(t)

	code, err := codes.Issue("ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	outcome, err := codes.Verify("ada@example.com", code)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome != VerifyOK {
		t.Fatalf("Verify() = %v, want VerifyOK", outcome)
	}

	// Single use: a second verification of the same code fails.
	outcome, err = codes.Verify("ada@example.com", code)
	if err != nil {
		t.Fatalf("Verify() replay error = %v", err)
	}
	if outcome != VerifyNotFound {
		t.Errorf("Verify() replay = %v, want VerifyNotFound", outcome)
	}
}

func TestVerifyNoChallenge(t *testing.T) {
	codes := newTestCodeStore(t)
	outcome, err := codes.Verify("nobody@example.com", "123456")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome != VerifyNotFound {
		t.Errorf("Verify() = %v, want VerifyNotFound", outcome)
	}
}

func TestVerifyEmailCaseInsensitive(t *testing.T) {
	codes := newTestCodeStore(t)
	code, err := codes.Issue("Ada@Example.COM")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	outcome, err := codes.Verify("ada@example.com", code)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome != VerifyOK {
		t.Errorf("Verify() = %v, want VerifyOK", outcome)
	}
}

func TestVerifyExpired(t *testing.T) {
	codes := newTestCodeStore(t)
	now := time.Now()
	codes.now = func() time.Time { return now }

	code, err := codes.Issue("ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	now = now.Add(10*time.Minute + time.Second)
	outcome, err := codes.Verify("ada@example.com", code)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome != VerifyExpired {
		t.Fatalf("Verify() = %v, want VerifyExpired", outcome)
	}

	// Expiry is stable: repeated verifies keep reporting it.
	outcome, _ = codes.Verify("ada@example.com", code)
	if outcome != VerifyExpired {
		t.Errorf("repeat Verify() after expiry = %v, want VerifyExpired", outcome)
	}
}

func TestVerifyAttemptExhaustion(t *testing.T) {
	codes := newTestCodeStore(t)
	code, err := codes.Issue("ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 5; i++ {
		outcome, err := codes.Verify("ada@example.com", wrong)
		if err != nil {
			t.Fatalf("Verify() attempt %d error = %v", i, err)
		}
		if outcome != VerifyMismatch {
			t.Fatalf("Verify() attempt %d = %v, want VerifyMismatch", i, outcome)
		}
	}

	// Budget spent: even the correct code is refused now.
	outcome, err := codes.Verify("ada@example.com", code)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome != VerifyTooManyAttempts {
		t.Fatalf("Verify() = %v, want VerifyTooManyAttempts", outcome)
	}

	// Exhaustion is terminal for the challenge: even the right code
	// keeps failing until a fresh one is issued.
	outcome, _ = codes.Verify("ada@example.com", code)
	if outcome != VerifyTooManyAttempts {
		t.Errorf("repeat Verify() after exhaustion = %v, want VerifyTooManyAttempts", outcome)
	}
}

func TestReissueReplacesChallenge(t *testing.T) {
	codes := newTestCodeStore(t)

	first, err := codes.Issue("ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	second, err := codes.Issue("ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if first != second {
		outcome, err := codes.Verify("ada@example.com", first)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if outcome != VerifyMismatch {
			t.Errorf("Verify() with stale code = %v, want VerifyMismatch", outcome)
		}
	}

	outcome, err := codes.Verify("ada@example.com", second)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if outcome != VerifyOK {
		t.Errorf("Verify() with fresh code = %v, want VerifyOK", outcome)
	}
}

// TestVerifyConcurrentSingleWinner drives racing verifiers at one
// challenge: exactly one consumes it, everyone else loses.
func TestVerifyConcurrentSingleWinner(t *testing.T) {
	codes := newTestCodeStore(t)
	code, err := codes.Issue("ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	outcomes := make([]VerifyOutcome, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = codes.Verify("ada@example.com", code)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("Verify() worker %d error = %v", i, errs[i])
		}
		switch outcomes[i] {
		case VerifyOK:
			wins++
		case VerifyNotFound:
		default:
			t.Errorf("worker %d outcome = %v, want VerifyOK or VerifyNotFound", i, outcomes[i])
		}
	}
	if wins != 1 {
		t.Errorf("winners = %d, want exactly 1", wins)
	}
}
