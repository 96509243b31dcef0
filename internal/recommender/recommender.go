// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package recommender orchestrates the full recommendation pipeline:
// score every catalog product for a customer, filter by business
// constraints, then select one product with variety-preserving sampling.
package recommender

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/constraint"
	"github.com/basketlabs/basketwise/internal/dataset"
	"github.com/basketlabs/basketwise/internal/ledger"
	"github.com/basketlabs/basketwise/internal/metrics"
	"github.com/basketlabs/basketwise/internal/models"
	"github.com/basketlabs/basketwise/internal/scoring"
	"github.com/basketlabs/basketwise/internal/selector"
)

// Engine wires the scoring, filtering, and selection stages over a loaded
// dataset and an exposure ledger. Safe for concurrent use.
type Engine struct {
	cfg    *config.Config
	data   *dataset.Dataset
	store  ledger.Store
	scorer *scoring.Engine
	filter *constraint.Filter
	picker *selector.Selector
	logger zerolog.Logger
}

// New assembles a recommendation engine from its configured stages.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func New(cfg *config.Config, data *dataset.Dataset, store ledger.Store, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		data:   data,
		store:  store,
		scorer: scoring.NewEngine(cfg.Scoring, cfg.Selection.RandomSeed, logger),
		filter: constraint.NewFilter(cfg.Constraints, logger),
		picker: selector.New(cfg.Selection, store, logger),
		logger: logger.With().Str("component", "recommender").Logger(),
	}
}

// RecommendProduct produces one recommendation for the customer, or
// selector.ErrNoRecommendation when no eligible product exists. A zero
// now defaults to the current time.
func (e *Engine) RecommendProduct(ctx context.Context, customerID string, now time.Time) (*models.Recommendation, error) {
	if now.IsZero() {
		now = time.Now()
	}

	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	e.logger.Info().Str("customer_id", customerID).Msg("generating recommendation")

	customerTxns := e.data.TransactionsFor(customerID)
	customerClicks := e.data.ClicksFor(customerID)

	scored := e.scorer.Score(customerID, e.data.Products(), customerTxns, e.data.Transactions(), customerClicks, now)
	filtered := e.filter.Apply(customerID, scored, customerTxns, now)

	rec, err := e.picker.Select(ctx, customerID, filtered, scored, now)
	if err != nil {
		if errors.Is(err, selector.ErrNoRecommendation) {
			metrics.RecommendationsTotal.WithLabelValues("empty").Inc()
		} else {
			metrics.RecommendationsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.RecommendationsTotal.WithLabelValues("ok").Inc()

	e.logger.Info().
		Str("customer_id", customerID).
		Str("product_id", rec.ProductID).
		Str("product_name", rec.ProductName).
		Float64("score", rec.FinalScore).
		Msg("recommendation generated")

	return rec, nil
}

// RecommendBatch produces recommendations for many customers, running
// them across a bounded worker pool. A customer whose recommendation
// fails or comes up empty is logged and omitted; the rest of the batch
// is unaffected. Results preserve the input order of customerIDs.
func (e *Engine) RecommendBatch(ctx context.Context, customerIDs []string, now time.Time) []*models.Recommendation {
	if now.IsZero() {
		now = time.Now()
	}

	e.logger.Info().Int("customers", len(customerIDs)).Msg("generating batch recommendations")

	workers := e.cfg.Server.BatchWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(customerIDs) {
		workers = len(customerIDs)
	}

	results := make([]*models.Recommendation, len(customerIDs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec, err := e.RecommendProduct(ctx, customerIDs[i], now)
				if err != nil {
					metrics.BatchCustomersTotal.WithLabelValues("skipped").Inc()
					e.logger.Warn().Err(err).
						Str("customer_id", customerIDs[i]).
						Msg("no recommendation generated for customer")
					continue
				}
				metrics.BatchCustomersTotal.WithLabelValues("ok").Inc()
				results[i] = rec
			}
		}()
	}

	for i := range customerIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	recommendations := make([]*models.Recommendation, 0, len(customerIDs))
	for _, rec := range results {
		if rec != nil {
			recommendations = append(recommendations, rec)
		}
	}

	e.logger.Info().
		Int("generated", len(recommendations)).
		Int("customers", len(customerIDs)).
		Msg("batch recommendations complete")

	return recommendations
}

// ClearShown resets the exposure ledger for one customer, or for all
// customers when customerID is empty.
func (e *Engine) ClearShown(ctx context.Context, customerID string) error {
	return e.store.Clear(ctx, customerID)
}
