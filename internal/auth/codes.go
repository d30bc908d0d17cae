// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

// Package auth implements passwordless OTP authentication: code
// issuance and verification, issuance throttling, session tokens and
// the HTTP session middleware.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/hbarton/ledgerd/internal/models"
)

// VerifyOutcome is the result of a single verification attempt.
type VerifyOutcome int

const (
	// VerifyOK means the code matched and the challenge was consumed.
	VerifyOK VerifyOutcome = iota
	// VerifyNotFound means no active challenge exists for the email.
	VerifyNotFound
	// VerifyExpired means the challenge outlived its TTL.
	VerifyExpired
	// VerifyTooManyAttempts means the challenge was exhausted by failed
	// attempts before this one was checked.
	VerifyTooManyAttempts
	// VerifyMismatch means the submitted code was wrong; the attempt was
	// counted.
	VerifyMismatch
)

func (o VerifyOutcome) String() string {
	switch o {
	case VerifyOK:
		return "ok"
	case VerifyNotFound:
		return "not_found"
	case VerifyExpired:
		return "expired"
	case VerifyTooManyAttempts:
		return "too_many_attempts"
	case VerifyMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// CodeStore issues and verifies one-time codes. A successful Verify
// consumes the challenge; at most one concurrent verifier can win.
type CodeStore interface {
	// Issue creates a fresh challenge for email, replacing any existing
	// one, and returns the plaintext code for delivery.
	Issue(email string) (code string, err error)
	// Verify checks code against the active challenge for email.
	Verify(email, code string) (VerifyOutcome, error)
}

const otpKeyPrefix = "otp:"

// otpRecord is the persisted challenge. Only the SHA-256 hash of the
// code is stored.
type otpRecord struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expiresAt"`
	Attempts  int       `json:"attempts"`
}

// BadgerCodeStore persists challenges in Badger. Verify runs inside a
// serializable Update transaction, so when two verifiers race on the
// same challenge one of them commits the delete and the other retries
// into VerifyNotFound.
type BadgerCodeStore struct {
	db          *badger.DB
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewBadgerCodeStore creates a code store with the given challenge TTL
// and failed-attempt budget.
func NewBadgerCodeStore(db *badger.DB, ttl time.Duration, maxAttempts int) *BadgerCodeStore {
	return &BadgerCodeStore{
		db:          db,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// generateCode returns a uniformly random six-digit code in
// [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func otpKey(email string) []byte {
	return []byte(otpKeyPrefix + models.NormalizeEmail(email))
}

// Issue implements CodeStore. Re-issuing replaces the previous
// challenge and resets the attempt counter.
func (s *BadgerCodeStore) Issue(email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	rec := otpRecord{
		Hash:      hashCode(code),
		ExpiresAt: s.now().Add(s.ttl),
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal otp record: %w", err)
	}

	// Entry TTL reaps abandoned challenges from storage; the expiry
	// check at verification time stays authoritative.
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(otpKey(email), data).WithTTL(s.ttl))
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// Verify implements CodeStore. A wrong code increments the attempt
// counter; a matching code deletes the challenge so it cannot be
// replayed. Expired and exhausted challenges stay put until replaced
// or reaped, so repeated verifies keep reporting the same outcome.
func (s *BadgerCodeStore) Verify(email, code string) (VerifyOutcome, error) {
	key := otpKey(email)

	for {
		outcome, err := s.verifyOnce(key, code)
		if errors.Is(err, badger.ErrConflict) {
			// A concurrent attempt committed first; re-read and decide
			// against the surviving state.
			continue
		}
		return outcome, err
	}
}

func (s *BadgerCodeStore) verifyOnce(key []byte, code string) (VerifyOutcome, error) {
	outcome := VerifyNotFound

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				outcome = VerifyNotFound
				return nil
			}
			return err
		}

		var rec otpRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}

		if !s.now().Before(rec.ExpiresAt) {
			outcome = VerifyExpired
			return nil
		}

		if rec.Attempts >= s.maxAttempts {
			outcome = VerifyTooManyAttempts
			return nil
		}

		if subtle.ConstantTimeCompare([]byte(rec.Hash), []byte(hashCode(code))) != 1 {
			outcome = VerifyMismatch
			rec.Attempts++
			data, merr := json.Marshal(&rec)
			if merr != nil {
				return fmt.Errorf("failed to marshal otp record: %w", merr)
			}
			return txn.Set(key, data)
		}

		outcome = VerifyOK
		return txn.Delete(key)
	})
	if err != nil {
		return VerifyNotFound, err
	}
	return outcome, nil
}
