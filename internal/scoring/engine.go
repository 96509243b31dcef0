// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package scoring computes per-product recommendation scores for a customer.
//
// Five independent components are computed per catalog product, each in
// [0, 1], then combined into a weighted final score:
//
//   - category affinity: time-decayed category preferences from purchases
//   - repurchase likelihood: Gaussian fit to the customer's repurchase cycle
//   - clickstream intent: recency- and type-weighted browsing signals
//   - product popularity: global unique-customer and quantity reach
//   - exploration: a uniform random draw injecting variety
//
// Scoring is a pure function of its inputs plus the configured random
// source. Missing history never produces an error: each component defines
// an explicit default (0.0, or the 0.5 popularity neutral).
package scoring

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/models"
)

// Engine computes component and final scores for catalog products.
// It is safe for concurrent use; the random source for the exploration
// component is mutex-guarded.
type Engine struct {
	cfg    config.ScoringConfig
	logger zerolog.Logger

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewEngine creates a scoring engine. A non-zero seed makes the
// exploration component reproducible; zero seeds from the wall clock.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func NewEngine(cfg config.ScoringConfig, seed int64, logger zerolog.Logger) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "scoring").Logger(),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for exploration noise
	}
}

// Score computes one ScoredProduct per catalog product for the customer.
//
// customerTxns and customerClicks must already be restricted to the
// customer; allTxns is the global transaction history used by the
// popularity component. Products keep their catalog order.
func (e *Engine) Score(
	customerID string,
	products []models.Product,
	customerTxns []models.Transaction,
	allTxns []models.Transaction,
	customerClicks []models.ClickEvent,
	now time.Time,
) []models.ScoredProduct {
	e.logger.Debug().
		Str("customer_id", customerID).
		Int("products", len(products)).
		Int("transactions", len(customerTxns)).
		Int("clicks", len(customerClicks)).
		Msg("scoring products")

	affinity := e.scoreCategoryAffinity(products, customerTxns, now)
	repurchase := e.scoreRepurchaseLikelihood(products, customerTxns, now)
	intent := e.scoreClickstreamIntent(products, customerClicks, now)
	popularity := e.scoreProductPopularity(products, allTxns)
	exploration := e.scoreExploration(len(products))

	w := e.cfg.Weights
	scored := make([]models.ScoredProduct, len(products))
	for i, p := range products {
		components := models.ComponentScores{
			CategoryAffinity:     affinity[i],
			RepurchaseLikelihood: repurchase[i],
			ClickstreamIntent:    intent[i],
			ProductPopularity:    popularity[i],
			Exploration:          exploration[i],
		}

		scored[i] = models.ScoredProduct{
			Product:    p,
			Components: components,
			FinalScore: w.CategoryAffinity*components.CategoryAffinity +
				w.RepurchaseLikelihood*components.RepurchaseLikelihood +
				w.ClickstreamIntent*components.ClickstreamIntent +
				w.ProductPopularity*components.ProductPopularity +
				w.Exploration*components.Exploration,
		}
	}

	return scored
}

// scoreExploration draws one uniform [0, 1) score per product from the
// seeded source. Purely variety injection: it prevents ties and staleness
// from dominating every run.
func (e *Engine) scoreExploration(n int) []float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = e.rng.Float64()
	}
	return scores
}
