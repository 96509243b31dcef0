// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/models"
)

// shownKeyPrefix namespaces exposure entries in BadgerDB.
// Key layout: shown:<customer>:<product> -> RFC 3339 timestamp.
const shownKeyPrefix = "shown:"

// Badger is a Store backed by BadgerDB, the durable production backend.
// Entries persist across restarts and writes are transactional.
type Badger struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadger opens (or creates) a Badger-backed store at dir.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func NewBadger(dir string, logger zerolog.Logger) (*Badger, error) {
	componentLogger := logger.With().Str("component", "ledger").Str("backend", "badger").Logger()

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own logger is noisy; zerolog covers us

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}

	return &Badger{db: db, logger: componentLogger}, nil
}

// shownKey builds the key for a customer/product pair.
func shownKey(customerID, productID string) []byte {
	return []byte(shownKeyPrefix + customerID + ":" + productID)
}

// Shown returns the customer's record by prefix scan. Entries with
// unparseable timestamps are skipped and logged.
func (b *Badger) Shown(ctx context.Context, customerID string) (models.ShownRecord, error) {
	record := make(models.ShownRecord)
	prefix := []byte(shownKeyPrefix + customerID + ":")

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			productID := strings.TrimPrefix(string(item.Key()), string(prefix))

			err := item.Value(func(val []byte) error {
				t, parseErr := time.Parse(time.RFC3339, string(val))
				if parseErr != nil {
					b.logger.Warn().
						Str("customer_id", customerID).
						Str("product_id", productID).
						Msg("skipping unparseable ledger entry")
					return nil
				}
				record[productID] = t
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}

	return record, nil
}

// Record stores a shown entry, overwriting any prior entry for the
// customer/product pair.
func (b *Badger) Record(ctx context.Context, customerID, productID string, shownAt time.Time) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(shownKey(customerID, productID), []byte(shownAt.Format(time.RFC3339)))
	})
	if err != nil {
		return fmt.Errorf("record shown product: %w", err)
	}
	return nil
}

// Clear removes a customer's entries, or every entry for an empty ID.
func (b *Badger) Clear(ctx context.Context, customerID string) error {
	prefix := []byte(shownKeyPrefix)
	if customerID != "" {
		prefix = []byte(shownKeyPrefix + customerID + ":")
	}

	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan ledger: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete ledger entry: %w", err)
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}
