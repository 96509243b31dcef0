// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package selector picks the single recommended product from filtered,
// scored candidates.
//
// Selection is deliberately not argmax: the top-K candidates are reduced
// by recently-shown exposure filtering, then one survivor is drawn by
// score-weighted random sampling. Every score gets a small epsilon before
// normalization so even zero-scored candidates keep a nonzero sampling
// probability; this is load-bearing for recommendation variety and must
// not be replaced with a deterministic tie-break.
package selector

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/ledger"
	"github.com/basketlabs/basketwise/internal/metrics"
	"github.com/basketlabs/basketwise/internal/models"
)

// ErrNoRecommendation signals that no eligible product survived exposure
// filtering, even after widening from top-K to all candidates. It is a
// defined outcome, not a failure.
var ErrNoRecommendation = errors.New("no eligible product to recommend")

// samplingEpsilon is added to every clamped score before normalization so
// zero-scored candidates keep a nonzero sampling probability.
const samplingEpsilon = 1e-10

// Selector picks one product per request and records the exposure in the
// persisted ledger. Safe for concurrent use: the random source and ledger
// writes go through a single mutex, so concurrent batch customers cannot
// race on the underlying store.
type Selector struct {
	cfg    config.SelectionConfig
	store  ledger.Store
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a selector over the given exposure ledger. A non-zero
// configured seed makes sampling reproducible; zero seeds from the wall
// clock.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func New(cfg config.SelectionConfig, store ledger.Store, logger zerolog.Logger) *Selector {
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Selector{
		cfg:    cfg,
		store:  store,
		logger: logger.With().Str("component", "selector").Logger(),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for sampling
	}
}

// Select picks one product for the customer from the filtered candidates.
//
// filtered is the constraint-filtered candidate set; scoredAll is the full
// pre-filter scored set used for rank and total-candidate reporting.
// Returns ErrNoRecommendation when no candidate survives exposure
// filtering after the fallback to the full filtered set.
func (s *Selector) Select(ctx context.Context, customerID string, filtered, scoredAll []models.ScoredProduct, now time.Time) (*models.Recommendation, error) {
	if len(filtered) == 0 {
		s.logger.Warn().Str("customer_id", customerID).Msg("no valid products to recommend")
		return nil, ErrNoRecommendation
	}

	shown, err := s.store.Shown(ctx, customerID)
	if err != nil {
		// Unreadable ledger degrades to empty state; selection proceeds.
		s.logger.Error().Err(err).Str("customer_id", customerID).Msg("ledger unreadable, treating as empty")
		shown = models.ShownRecord{}
	}

	candidates := s.filterRecentlyShown(topK(filtered, s.cfg.TopK), shown, now)

	if len(candidates) == 0 {
		metrics.ExposureFallbacks.Inc()
		s.logger.Warn().
			Str("customer_id", customerID).
			Msg("all top candidates recently shown, expanding to all products")
		candidates = s.filterRecentlyShown(filtered, shown, now)

		if len(candidates) == 0 {
			s.logger.Error().Str("customer_id", customerID).Msg("no products available after exposure filtering")
			return nil, ErrNoRecommendation
		}
	}

	winner := s.sample(candidates)

	rank := 1
	for _, sp := range scoredAll {
		if sp.FinalScore > winner.FinalScore {
			rank++
		}
	}

	// A failed ledger write is logged, not fatal: the computed
	// recommendation is still returned.
	if err := s.store.Record(ctx, customerID, winner.Product.ID, now); err != nil {
		metrics.LedgerWriteErrors.Inc()
		s.logger.Error().Err(err).
			Str("customer_id", customerID).
			Str("product_id", winner.Product.ID).
			Msg("failed to persist exposure record")
	}

	s.logger.Info().
		Str("customer_id", customerID).
		Str("product_id", winner.Product.ID).
		Int("rank", rank).
		Float64("score", winner.FinalScore).
		Msg("product selected")

	return &models.Recommendation{
		CustomerID:      customerID,
		ProductID:       winner.Product.ID,
		ProductName:     winner.Product.Name,
		Category:        winner.Product.Category,
		FinalScore:      winner.FinalScore,
		Components:      winner.Components,
		Rank:            rank,
		TotalCandidates: len(scoredAll),
		Timestamp:       now,
	}, nil
}

// topK returns the k highest-scoring candidates by final score.
func topK(scored []models.ScoredProduct, k int) []models.ScoredProduct {
	sorted := make([]models.ScoredProduct, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FinalScore > sorted[j].FinalScore
	})

	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// filterRecentlyShown drops candidates shown to the customer within the
// exposure decay window. Entries outside the window remain in the ledger
// but have no effect here.
func (s *Selector) filterRecentlyShown(candidates []models.ScoredProduct, shown models.ShownRecord, now time.Time) []models.ScoredProduct {
	if len(shown) == 0 {
		return candidates
	}

	cutoff := now.Add(-time.Duration(s.cfg.DecayHours * float64(time.Hour)))

	kept := make([]models.ScoredProduct, 0, len(candidates))
	for _, sp := range candidates {
		if shownAt, ok := shown[sp.Product.ID]; ok && !shownAt.Before(cutoff) {
			continue
		}
		kept = append(kept, sp)
	}
	return kept
}

// sample draws one candidate with probability proportional to its final
// score. Negative scores clamp to zero and every candidate receives the
// sampling epsilon, so the distribution is always well-formed.
func (s *Selector) sample(candidates []models.ScoredProduct) models.ScoredProduct {
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, sp := range candidates {
		w := sp.FinalScore
		if w < 0 {
			w = 0
		}
		w += samplingEpsilon
		weights[i] = w
		total += w
	}

	s.mu.Lock()
	draw := s.rng.Float64() * total
	s.mu.Unlock()

	acc := 0.0
	for i, w := range weights {
		acc += w
		if draw < acc {
			return candidates[i]
		}
	}
	// Floating point accumulation can leave draw marginally above acc.
	return candidates[len(candidates)-1]
}
