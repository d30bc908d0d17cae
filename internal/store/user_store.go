// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

package store

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/hbarton/ledgerd/internal/models"
)

// ErrUserNotFound is returned when no user matches the given id or email.
var ErrUserNotFound = errors.New("user not found")

// Key layout:
//
//	user:id:<uuid>     -> JSON-encoded models.User
//	user:email:<email> -> uuid (unique index, normalized email)
const (
	userIDPrefix    = "user:id:"
	userEmailPrefix = "user:email:"
)

// UserStore persists users in Badger with a unique index on email.
type UserStore struct {
	db *badger.DB
}

// NewUserStore creates a UserStore on top of db.
func NewUserStore(db *badger.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. The email must not already be registered;
// the id is assigned here. The email index and the record are written in
// one transaction so concurrent creates for the same address cannot both
// succeed.
func (s *UserStore) Create(email, name string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	user := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(userEmailPrefix + email)
		if _, err := txn.Get(emailKey); err == nil {
			return fmt.Errorf("email %s already registered", email)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}
		if err := txn.Set([]byte(userIDPrefix+user.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID fetches a user by id.
func (s *UserStore) GetByID(id string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userIDPrefix + id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail fetches a user by normalized email.
func (s *UserStore) GetByEmail(email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailPrefix + email))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// GetOrCreate fetches the user for email, creating one when absent. The
// name is only used for creation; existing users keep their stored name.
// A concurrent create for the same email is resolved by re-reading.
func (s *UserStore) GetOrCreate(email, name string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if user, err := s.GetByEmail(email); err == nil {
		return user, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if name == "" {
		name = models.NameFromEmail(email)
	}

	user, err := s.Create(email, name)
	if err != nil {
		// Lost the race to another create; the winner's record serves.
		if existing, getErr := s.GetByEmail(email); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}
