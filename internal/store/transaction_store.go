// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package store

import (
	"errors"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/hbarton/ledgerd/internal/models"
)

// ErrTransactionNotFound is returned when a transaction does not exist or
// belongs to a different user. The two cases are indistinguishable on
// purpose so the API never confirms another user's transaction ids.
var ErrTransactionNotFound = errors.New("transaction not found")

// Key layout:
//
//	txn:<userID>:<txnID> -> JSON-encoded models.Transaction
//
// The user id in the key makes a per-user List a single prefix scan and
// makes cross-user access structurally impossible.
const txnPrefix = "txn:"

func txnKey(userID, id string) []byte {
	return []byte(txnPrefix + userID + ":" + id)
}

func txnUserPrefix(userID string) []byte {
	return []byte(txnPrefix + userID + ":")
}

// TransactionStore persists transactions in Badger, scoped per user.
type TransactionStore struct {
	db *badger.DB
}

// NewTransactionStore creates a TransactionStore on top of db.
func NewTransactionStore(db *badger.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Create inserts a transaction for userID. The id and timestamps are
// assigned here; a zero Date defaults to now.
func (s *TransactionStore) Create(userID string, txn *models.Transaction) (*models.Transaction, error) {
	now := time.Now().UTC()
	txn.ID = uuid.NewString()
	txn.UserID = userID
	if txn.Date.IsZero() {
		txn.Date = now
	}
	txn.CreatedAt = now
	txn.UpdatedAt = now

	err := s.db.Update(func(t *badger.Txn) error {
		data, err := json.Marshal(txn)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction: %w", err)
		}
		return t.Set(txnKey(userID, txn.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Get fetches one transaction owned by userID.
func (s *TransactionStore) Get(userID, id string) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.View(func(t *badger.Txn) error {
		item, err := t.Get(txnKey(userID, id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &txn)
		})
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// List returns the transactions owned by userID that match filter,
// newest date first. A nil filter returns everything.
func (s *TransactionStore) List(userID string, filter *models.TransactionFilter) ([]*models.Transaction, error) {
	out := make([]*models.Transaction, 0)
	err := s.db.View(func(t *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := txnUserPrefix(userID)
		opts.Prefix = prefix
		it := t.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var txn models.Transaction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &txn)
			})
			if err != nil {
				return err
			}
			if filter == nil || filter.Match(&txn) {
				cp := txn
				out = append(out, &cp)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// Update applies a partial update to an existing transaction owned by
// userID and bumps UpdatedAt. Identity and CreatedAt are preserved.
func (s *TransactionStore) Update(userID, id string, patch *models.TransactionPatch) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.db.Update(func(t *badger.Txn) error {
		key := txnKey(userID, id)
		item, err := t.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		var existing models.Transaction
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &existing)
		}); err != nil {
			return err
		}

		patch.Apply(&existing)
		existing.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(&existing)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction: %w", err)
		}
		if err := t.Set(key, data); err != nil {
			return err
		}
		result = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a transaction owned by userID.
func (s *TransactionStore) Delete(userID, id string) error {
	return s.db.Update(func(t *badger.Txn) error {
		key := txnKey(userID, id)
		if _, err := t.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		return t.Delete(key)
	})
}
