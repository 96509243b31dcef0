// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package selector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/ledger"
	"github.com/basketlabs/basketwise/internal/models"
)

func selectionConfig() config.SelectionConfig {
	return config.SelectionConfig{TopK: 5, DecayHours: 24, RandomSeed: 42}
}

func scored(id string, score float64) models.ScoredProduct {
	return models.ScoredProduct{
		Product:    models.Product{ID: id, Name: "Product " + id, Category: "grocery", InStock: true},
		FinalScore: score,
	}
}

func TestSelectEmptyCandidates(t *testing.T) {
	s := New(selectionConfig(), ledger.NewMemory(), zerolog.Nop())

	_, err := s.Select(context.Background(), "C001", nil, nil, time.Now())
	if !errors.Is(err, ErrNoRecommendation) {
		t.Fatalf("got %v, want ErrNoRecommendation", err)
	}
}

func TestSelectSingleCandidate(t *testing.T) {
	store := ledger.NewMemory()
	s := New(selectionConfig(), store, zerolog.Nop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	all := []models.ScoredProduct{scored("P001", 0.9), scored("P002", 0.5), scored("P003", 0.7)}
	// Only the middle-scored product survived filtering.
	filtered := []models.ScoredProduct{all[2]}

	rec, err := s.Select(context.Background(), "C001", filtered, all, now)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if rec.ProductID != "P003" {
		t.Errorf("selected %s, want P003", rec.ProductID)
	}
	if rec.Rank != 2 {
		t.Errorf("rank = %d, want 2 (one pre-filter candidate scored higher)", rec.Rank)
	}
	if rec.TotalCandidates != 3 {
		t.Errorf("total candidates = %d, want 3", rec.TotalCandidates)
	}
	if !rec.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, now)
	}

	// The selection must be in the ledger immediately.
	shown, err := store.Shown(context.Background(), "C001")
	if err != nil {
		t.Fatalf("Shown: %v", err)
	}
	if !shown["P003"].Equal(now) {
		t.Errorf("ledger records P003 at %v, want %v", shown["P003"], now)
	}
}

func TestSelectExposureFiltering(t *testing.T) {
	store := ledger.NewMemory()
	cfg := selectionConfig()
	cfg.TopK = 2
	s := New(cfg, store, zerolog.Nop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	candidates := []models.ScoredProduct{scored("P001", 0.9), scored("P002", 0.8), scored("P003", 0.1)}

	// Both top-K products were shown within the window; selection must
	// fall back to the full candidate set and pick the remaining one.
	if err := store.Record(context.Background(), "C001", "P001", now.Add(-1*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(context.Background(), "C001", "P002", now.Add(-2*time.Hour)); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Select(context.Background(), "C001", candidates, candidates, now)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if rec.ProductID != "P003" {
		t.Errorf("selected %s, want the only unshown product P003", rec.ProductID)
	}
}

func TestSelectExposureOutsideWindowIgnored(t *testing.T) {
	store := ledger.NewMemory()
	cfg := selectionConfig()
	cfg.TopK = 1
	s := New(cfg, store, zerolog.Nop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	// Shown 48h ago with a 24h window: no longer filtered.
	if err := store.Record(context.Background(), "C001", "P001", now.Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}

	candidates := []models.ScoredProduct{scored("P001", 0.9)}
	rec, err := s.Select(context.Background(), "C001", candidates, candidates, now)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if rec.ProductID != "P001" {
		t.Errorf("selected %s, want P001", rec.ProductID)
	}
}

func TestSelectAllRecentlyShown(t *testing.T) {
	store := ledger.NewMemory()
	s := New(selectionConfig(), store, zerolog.Nop())
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	candidates := []models.ScoredProduct{scored("P001", 0.9), scored("P002", 0.8)}
	for _, sp := range candidates {
		if err := store.Record(context.Background(), "C001", sp.Product.ID, now.Add(-time.Hour)); err != nil {
			t.Fatal(err)
		}
	}

	_, err := s.Select(context.Background(), "C001", candidates, candidates, now)
	if !errors.Is(err, ErrNoRecommendation) {
		t.Fatalf("got %v, want ErrNoRecommendation when everything was recently shown", err)
	}
}

func TestSelectFixedSeedDeterminism(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	candidates := []models.ScoredProduct{scored("P001", 0.5), scored("P002", 0.5), scored("P003", 0.5)}

	pick := func() string {
		t.Helper()
		s := New(selectionConfig(), ledger.NewMemory(), zerolog.Nop())
		rec, err := s.Select(context.Background(), "C001", candidates, candidates, now)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		return rec.ProductID
	}

	first := pick()
	for i := 0; i < 5; i++ {
		if got := pick(); got != first {
			t.Fatalf("identically seeded selectors disagree: %s vs %s", got, first)
		}
	}
}

func TestSelectNegativeScoresClamped(t *testing.T) {
	s := New(selectionConfig(), ledger.NewMemory(), zerolog.Nop())
	now := time.Now()

	candidates := []models.ScoredProduct{scored("P001", -0.3), scored("P002", -0.1)}
	rec, err := s.Select(context.Background(), "C001", candidates, candidates, now)
	if err != nil {
		t.Fatalf("Select over negative scores: %v", err)
	}
	if rec.ProductID != "P001" && rec.ProductID != "P002" {
		t.Errorf("selected unexpected product %s", rec.ProductID)
	}
}

func TestSelectRank(t *testing.T) {
	s := New(selectionConfig(), ledger.NewMemory(), zerolog.Nop())
	now := time.Now()

	all := []models.ScoredProduct{
		scored("P001", 0.9),
		scored("P002", 0.9),
		scored("P003", 0.4),
		scored("P004", 0.2),
	}
	filtered := []models.ScoredProduct{all[3]}

	rec, err := s.Select(context.Background(), "C001", filtered, all, now)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	// Three candidates scored strictly higher; ties do not raise the rank.
	if rec.Rank != 4 {
		t.Errorf("rank = %d, want 4", rec.Rank)
	}
}

type failingStore struct {
	*ledger.Memory
}

func (f *failingStore) Record(_ context.Context, _, _ string, _ time.Time) error {
	return errors.New("disk full")
}

func TestSelectLedgerWriteFailureStillRecommends(t *testing.T) {
	s := New(selectionConfig(), &failingStore{Memory: ledger.NewMemory()}, zerolog.Nop())
	now := time.Now()

	candidates := []models.ScoredProduct{scored("P001", 0.9)}
	rec, err := s.Select(context.Background(), "C001", candidates, candidates, now)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if rec.ProductID != "P001" {
		t.Errorf("selected %s, want P001 despite the failed ledger write", rec.ProductID)
	}
}
