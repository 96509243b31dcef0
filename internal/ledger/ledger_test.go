// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
)

// storeFactories builds each Store implementation against a temp dir so
// the shared contract tests run across all backends.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			t.Helper()
			return NewMemory()
		},
		"file": func(t *testing.T) Store {
			t.Helper()
			return NewFile(filepath.Join(t.TempDir(), "shown_products.json"), zerolog.Nop())
		},
		"badger": func(t *testing.T) Store {
			t.Helper()
			store, err := NewBadger(t.TempDir(), zerolog.Nop())
			if err != nil {
				t.Fatalf("open badger store: %v", err)
			}
			return store
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	shownAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close() //nolint:errcheck // test cleanup

			// Unknown customer reads empty, not an error.
			shown, err := store.Shown(ctx, "C999")
			if err != nil {
				t.Fatalf("Shown for unknown customer: %v", err)
			}
			if len(shown) != 0 {
				t.Fatalf("unknown customer has %d records, want 0", len(shown))
			}

			if err := store.Record(ctx, "C001", "P001", shownAt); err != nil {
				t.Fatalf("Record: %v", err)
			}
			if err := store.Record(ctx, "C001", "P002", shownAt.Add(time.Hour)); err != nil {
				t.Fatalf("Record: %v", err)
			}
			if err := store.Record(ctx, "C002", "P001", shownAt); err != nil {
				t.Fatalf("Record: %v", err)
			}

			shown, err = store.Shown(ctx, "C001")
			if err != nil {
				t.Fatalf("Shown: %v", err)
			}
			if len(shown) != 2 {
				t.Fatalf("C001 has %d records, want 2", len(shown))
			}
			if !shown["P001"].Equal(shownAt) {
				t.Errorf("P001 shown at %v, want %v", shown["P001"], shownAt)
			}

			// Re-recording overwrites the timestamp.
			later := shownAt.Add(24 * time.Hour)
			if err := store.Record(ctx, "C001", "P001", later); err != nil {
				t.Fatalf("Record overwrite: %v", err)
			}
			shown, _ = store.Shown(ctx, "C001")
			if !shown["P001"].Equal(later) {
				t.Errorf("P001 shown at %v after overwrite, want %v", shown["P001"], later)
			}

			// Per-customer clear leaves other customers alone.
			if err := store.Clear(ctx, "C001"); err != nil {
				t.Fatalf("Clear customer: %v", err)
			}
			shown, _ = store.Shown(ctx, "C001")
			if len(shown) != 0 {
				t.Errorf("C001 has %d records after clear, want 0", len(shown))
			}
			shown, _ = store.Shown(ctx, "C002")
			if len(shown) != 1 {
				t.Errorf("C002 has %d records, want 1 untouched", len(shown))
			}

			// Empty customer ID clears everything.
			if err := store.Clear(ctx, ""); err != nil {
				t.Fatalf("Clear all: %v", err)
			}
			shown, _ = store.Shown(ctx, "C002")
			if len(shown) != 0 {
				t.Errorf("C002 has %d records after clear-all, want 0", len(shown))
			}
		})
	}
}

func TestFilePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shown_products.json")
	shownAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	first := NewFile(path, zerolog.Nop())
	if err := first.Record(ctx, "C001", "P001", shownAt); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := NewFile(path, zerolog.Nop())
	shown, err := second.Shown(ctx, "C001")
	if err != nil {
		t.Fatalf("Shown after reopen: %v", err)
	}
	if !shown["P001"].Equal(shownAt) {
		t.Errorf("P001 shown at %v after reopen, want %v", shown["P001"], shownAt)
	}
}

func TestFileCorruptStateStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shown_products.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFile(path, zerolog.Nop())
	shown, err := store.Shown(context.Background(), "C001")
	if err != nil {
		t.Fatalf("Shown over corrupt file: %v", err)
	}
	if len(shown) != 0 {
		t.Fatalf("corrupt file produced %d records, want fresh empty state", len(shown))
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	shownAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	first, err := NewBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Record(ctx, "C001", "P001", shownAt); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close() //nolint:errcheck // test cleanup

	shown, err := second.Shown(ctx, "C001")
	if err != nil {
		t.Fatalf("Shown after reopen: %v", err)
	}
	if !shown["P001"].Equal(shownAt) {
		t.Errorf("P001 shown at %v after reopen, want %v", shown["P001"], shownAt)
	}
}

func TestOpenBackends(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LedgerConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.LedgerConfig{Backend: "memory"}},
		{name: "file", cfg: config.LedgerConfig{Backend: "file", Path: filepath.Join(t.TempDir(), "ledger.json")}},
		{name: "badger", cfg: config.LedgerConfig{Backend: "badger", Path: t.TempDir()}},
		{name: "unknown", cfg: config.LedgerConfig{Backend: "redis"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg, zerolog.Nop())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error for unknown backend")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := store.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
	}
}
