// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package constraint removes products that must never be recommended
// regardless of score: recent purchases, discounted items, and items out
// of stock. Each rule is independently togglable; the rules are
// conjunctive, so their order affects only logging granularity.
package constraint

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/metrics"
	"github.com/basketlabs/basketwise/internal/models"
)

// Filter applies the configured business-rule constraints to scored
// candidates. With every rule disabled it is a pass-through.
type Filter struct {
	cfg    config.ConstraintsConfig
	logger zerolog.Logger
}

// NewFilter creates a constraint filter.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func NewFilter(cfg config.ConstraintsConfig, logger zerolog.Logger) *Filter {
	return &Filter{
		cfg:    cfg,
		logger: logger.With().Str("component", "constraint").Logger(),
	}
}

// Apply returns the subset of scored candidates satisfying all enabled
// constraints for the customer. customerTxns must already be restricted
// to the customer. Apply never fails: missing data degrades to keeping
// the product.
func (f *Filter) Apply(customerID string, scored []models.ScoredProduct, customerTxns []models.Transaction, now time.Time) []models.ScoredProduct {
	initial := len(scored)
	filtered := scored

	if f.cfg.ExcludeRecentPurchasesDays > 0 {
		before := len(filtered)
		filtered = f.excludeRecentPurchases(filtered, customerTxns, now)
		metrics.CandidatesFiltered.WithLabelValues("recent_purchase").Add(float64(before - len(filtered)))
		f.logger.Debug().
			Str("customer_id", customerID).
			Int("remaining", len(filtered)).
			Int("initial", initial).
			Msg("after recent purchase filter")
	}

	if f.cfg.ExcludeDiscounted {
		before := len(filtered)
		filtered = f.excludeDiscounted(filtered)
		metrics.CandidatesFiltered.WithLabelValues("discounted").Add(float64(before - len(filtered)))
		f.logger.Debug().
			Str("customer_id", customerID).
			Int("remaining", len(filtered)).
			Int("initial", initial).
			Msg("after discount filter")
	}

	if f.cfg.ExcludeOutOfStock {
		before := len(filtered)
		filtered = f.excludeOutOfStock(filtered)
		metrics.CandidatesFiltered.WithLabelValues("out_of_stock").Add(float64(before - len(filtered)))
		f.logger.Debug().
			Str("customer_id", customerID).
			Int("remaining", len(filtered)).
			Int("initial", initial).
			Msg("after stock filter")
	}

	f.logger.Info().
		Str("customer_id", customerID).
		Int("excluded", initial-len(filtered)).
		Int("remaining", len(filtered)).
		Msg("constraints applied")

	return filtered
}

// excludeRecentPurchases drops products the customer purchased within the
// configured lookback window.
func (f *Filter) excludeRecentPurchases(scored []models.ScoredProduct, customerTxns []models.Transaction, now time.Time) []models.ScoredProduct {
	if len(customerTxns) == 0 {
		return scored
	}

	cutoff := now.AddDate(0, 0, -f.cfg.ExcludeRecentPurchasesDays)

	recent := make(map[string]struct{})
	for _, txn := range customerTxns {
		if !txn.Timestamp.Before(cutoff) {
			recent[txn.ProductID] = struct{}{}
		}
	}
	if len(recent) == 0 {
		return scored
	}

	kept := make([]models.ScoredProduct, 0, len(scored))
	for _, sp := range scored {
		if _, ok := recent[sp.Product.ID]; !ok {
			kept = append(kept, sp)
		}
	}
	return kept
}

// excludeDiscounted drops products flagged as discounted.
func (f *Filter) excludeDiscounted(scored []models.ScoredProduct) []models.ScoredProduct {
	kept := make([]models.ScoredProduct, 0, len(scored))
	for _, sp := range scored {
		if !sp.Product.IsDiscounted {
			kept = append(kept, sp)
		}
	}
	return kept
}

// excludeOutOfStock drops products flagged as unavailable.
func (f *Filter) excludeOutOfStock(scored []models.ScoredProduct) []models.ScoredProduct {
	kept := make([]models.ScoredProduct, 0, len(scored))
	for _, sp := range scored {
		if sp.Product.InStock {
			kept = append(kept, sp)
		}
	}
	return kept
}
