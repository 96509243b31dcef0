// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/models"
)

// File is a Store backed by a single JSON file laid out as
// customer -> product -> RFC 3339 timestamp. The whole structure is
// loaded once at construction and rewritten on every Record.
//
// Suited to small single-process deployments; Badger is the production
// backend.
type File struct {
	path   string
	logger zerolog.Logger

	mu    sync.Mutex
	shown map[string]map[string]string // customer -> product -> RFC 3339
}

// NewFile creates a file-backed store, loading any existing state. A
// missing file starts empty; a corrupt or unreadable file is logged and
// treated as empty rather than blocking selection.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func NewFile(path string, logger zerolog.Logger) *File {
	f := &File{
		path:   path,
		logger: logger.With().Str("component", "ledger").Str("backend", "file").Logger(),
		shown:  make(map[string]map[string]string),
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Error().Err(err).Str("path", path).Msg("ledger unreadable, starting empty")
		}
		return f
	}

	if err := json.Unmarshal(data, &f.shown); err != nil {
		f.logger.Error().Err(err).Str("path", path).Msg("ledger corrupt, starting empty")
		f.shown = make(map[string]map[string]string)
	}
	return f
}

// Shown returns the customer's record. Entries with unparseable
// timestamps are skipped and logged.
func (f *File) Shown(ctx context.Context, customerID string) (models.ShownRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	record := make(models.ShownRecord, len(f.shown[customerID]))
	for productID, raw := range f.shown[customerID] {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			f.logger.Warn().
				Str("customer_id", customerID).
				Str("product_id", productID).
				Str("timestamp", raw).
				Msg("skipping unparseable ledger entry")
			continue
		}
		record[productID] = t
	}
	return record, nil
}

// Record stores a shown entry and rewrites the file.
func (f *File) Record(ctx context.Context, customerID, productID string, shownAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shown[customerID] == nil {
		f.shown[customerID] = make(map[string]string)
	}
	f.shown[customerID][productID] = shownAt.Format(time.RFC3339)

	return f.flushLocked()
}

// Clear removes a customer's record, or all records for an empty ID, and
// rewrites the file.
func (f *File) Clear(ctx context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if customerID == "" {
		f.shown = make(map[string]map[string]string)
	} else {
		delete(f.shown, customerID)
	}
	return f.flushLocked()
}

// Close is a no-op: every Record already flushed.
func (f *File) Close() error {
	return nil
}

// flushLocked writes the full structure back to disk. Must be called with
// mu held.
func (f *File) flushLocked() error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(f.shown, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
