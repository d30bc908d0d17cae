// Ledgerd - Budget Tracker Backend
// Copyright 2026 H. Barton (hbarton)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hbarton/ledgerd

// Package store persists users, transactions and one-time codes in
// BadgerDB. Each concern gets its own key prefix inside a single shared
// database so a deployment is exactly one data directory.
package store

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/hbarton/ledgerd/internal/config"
	"github.com/hbarton/ledgerd/internal/logging"
)

// Open opens the Badger database described by cfg. InMemory mode is used
// by tests and throwaway setups.
func Open(cfg config.DatabaseConfig) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", cfg.Path, err)
	}
	return db, nil
}

// OpenInMemory opens a throwaway in-memory database. Test helper.
func OpenInMemory() (*badger.DB, error) {
	return Open(config.DatabaseConfig{InMemory: true})
}

// badgerLogger routes Badger's internal logging through zerolog. Badger
// is chatty at INFO during compaction, so its info goes out at debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
