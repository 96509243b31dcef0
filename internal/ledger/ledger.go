// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package ledger persists which products were shown to which customers
// and when. The selector consults it to keep recommendations varied and
// records every successful selection.
//
// The Store interface is a narrow port: the engine core stays
// storage-agnostic. Three implementations ship:
//
//   - Memory: test double and ephemeral deployments
//   - File: JSON file matching the customer -> product -> timestamp layout
//   - Badger: durable embedded KV store for production
//
// A corrupt or unreadable store is treated as empty, never as a fatal
// condition; write failures are surfaced to the caller, which logs and
// continues.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/basketlabs/basketwise/internal/models"
)

// Store is the exposure-ledger port. Record implies an immediate flush to
// the backing storage.
type Store interface {
	// Shown returns the customer's shown-product record. A customer with
	// no history yields an empty record, not an error.
	Shown(ctx context.Context, customerID string) (models.ShownRecord, error)

	// Record stores that a product was shown to a customer at the given
	// time, overwriting any prior entry for that product, and flushes.
	Record(ctx context.Context, customerID, productID string, shownAt time.Time) error

	// Clear removes a customer's record. An empty customer ID clears all.
	Clear(ctx context.Context, customerID string) error

	// Close releases backing resources.
	Close() error
}

// Memory is an in-memory Store used in tests and ephemeral deployments.
// Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	shown map[string]models.ShownRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{shown: make(map[string]models.ShownRecord)}
}

// Shown returns a copy of the customer's record.
func (m *Memory) Shown(ctx context.Context, customerID string) (models.ShownRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record := make(models.ShownRecord, len(m.shown[customerID]))
	for productID, t := range m.shown[customerID] {
		record[productID] = t
	}
	return record, nil
}

// Record stores a shown entry, overwriting any prior entry.
func (m *Memory) Record(ctx context.Context, customerID, productID string, shownAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shown[customerID] == nil {
		m.shown[customerID] = make(models.ShownRecord)
	}
	m.shown[customerID][productID] = shownAt
	return nil
}

// Clear removes a customer's record, or all records for an empty ID.
func (m *Memory) Clear(ctx context.Context, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if customerID == "" {
		m.shown = make(map[string]models.ShownRecord)
		return nil
	}
	delete(m.shown, customerID)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error {
	return nil
}
