// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/models"
)

func testEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	return NewEngine(config.Default().Scoring, seed, zerolog.Nop())
}

func testProducts() []models.Product {
	return []models.Product{
		{ID: "P001", Name: "Whole Milk", Category: "dairy", InStock: true},
		{ID: "P002", Name: "Sourdough Bread", Category: "bakery", InStock: true},
		{ID: "P003", Name: "Cheddar Cheese", Category: "dairy", InStock: true},
	}
}

func TestScoreZeroHistory(t *testing.T) {
	engine := testEngine(t, 42)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	scored := engine.Score("C001", testProducts(), nil, nil, nil, now)

	if len(scored) != 3 {
		t.Fatalf("expected 3 scored products, got %d", len(scored))
	}

	for _, sp := range scored {
		c := sp.Components
		if c.CategoryAffinity != 0 {
			t.Errorf("%s: category affinity = %f, want 0 for empty history", sp.Product.ID, c.CategoryAffinity)
		}
		if c.RepurchaseLikelihood != 0 {
			t.Errorf("%s: repurchase likelihood = %f, want 0 for empty history", sp.Product.ID, c.RepurchaseLikelihood)
		}
		if c.ClickstreamIntent != 0 {
			t.Errorf("%s: clickstream intent = %f, want 0 for empty history", sp.Product.ID, c.ClickstreamIntent)
		}
		if c.ProductPopularity != 0.5 {
			t.Errorf("%s: popularity = %f, want 0.5 neutral for empty global history", sp.Product.ID, c.ProductPopularity)
		}
		if c.Exploration < 0 || c.Exploration >= 1 {
			t.Errorf("%s: exploration = %f, want [0, 1)", sp.Product.ID, c.Exploration)
		}
	}
}

func TestScoreBoundsAndWeightedSum(t *testing.T) {
	engine := testEngine(t, 7)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	txns := []models.Transaction{
		{CustomerID: "C001", ProductID: "P001", Category: "dairy", Quantity: 2, Timestamp: now.AddDate(0, 0, -10)},
		{CustomerID: "C001", ProductID: "P001", Category: "dairy", Quantity: 1, Timestamp: now.AddDate(0, 0, -24)},
		{CustomerID: "C001", ProductID: "P002", Category: "bakery", Quantity: 1, Timestamp: now.AddDate(0, 0, -3)},
		{CustomerID: "C002", ProductID: "P003", Category: "dairy", Quantity: 5, Timestamp: now.AddDate(0, 0, -1)},
	}
	clicks := []models.ClickEvent{
		{CustomerID: "C001", ProductID: "P003", Type: models.EventAddToCart, Timestamp: now.Add(-2 * time.Hour)},
		{CustomerID: "C001", ProductID: "P001", Type: models.EventView, Timestamp: now.Add(-30 * time.Hour)},
		{CustomerID: "C001", Type: models.EventSearch, Timestamp: now.Add(-1 * time.Hour)},
	}

	customerTxns := []models.Transaction{txns[0], txns[1], txns[2]}
	scored := engine.Score("C001", testProducts(), customerTxns, txns, clicks, now)

	weights := config.Default().Scoring.Weights
	for _, sp := range scored {
		c := sp.Components
		for name, v := range map[string]float64{
			"category_affinity":     c.CategoryAffinity,
			"repurchase_likelihood": c.RepurchaseLikelihood,
			"clickstream_intent":    c.ClickstreamIntent,
			"product_popularity":    c.ProductPopularity,
			"exploration":           c.Exploration,
		} {
			if v < 0 || v > 1 {
				t.Errorf("%s: %s = %f, want [0, 1]", sp.Product.ID, name, v)
			}
		}

		want := weights.CategoryAffinity*c.CategoryAffinity +
			weights.RepurchaseLikelihood*c.RepurchaseLikelihood +
			weights.ClickstreamIntent*c.ClickstreamIntent +
			weights.ProductPopularity*c.ProductPopularity +
			weights.Exploration*c.Exploration
		if math.Abs(sp.FinalScore-want) > 1e-3 {
			t.Errorf("%s: final score = %f, want %f", sp.Product.ID, sp.FinalScore, want)
		}
	}
}

func TestScoreFixedSeedDeterminism(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	products := testProducts()

	first := testEngine(t, 99).Score("C001", products, nil, nil, nil, now)
	second := testEngine(t, 99).Score("C001", products, nil, nil, nil, now)

	for i := range first {
		if first[i].FinalScore != second[i].FinalScore {
			t.Errorf("product %s: scores differ across identically seeded engines: %f vs %f",
				first[i].Product.ID, first[i].FinalScore, second[i].FinalScore)
		}
	}
}

func TestCategoryAffinity(t *testing.T) {
	engine := testEngine(t, 1)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	txns := []models.Transaction{
		{CustomerID: "C001", ProductID: "P001", Category: "dairy", Quantity: 3, Timestamp: now.AddDate(0, 0, -2)},
		{CustomerID: "C001", ProductID: "P002", Category: "bakery", Quantity: 1, Timestamp: now.AddDate(0, 0, -60)},
	}

	scores := engine.scoreCategoryAffinity(testProducts(), txns, now)

	// dairy: recent, higher quantity; must dominate and max-normalize to 1.
	if scores[0] != 1.0 {
		t.Errorf("dairy affinity = %f, want 1.0 after max normalization", scores[0])
	}
	// Same category shares the score.
	if scores[2] != scores[0] {
		t.Errorf("same-category products scored differently: %f vs %f", scores[2], scores[0])
	}
	if scores[1] <= 0 || scores[1] >= scores[0] {
		t.Errorf("stale bakery affinity = %f, want in (0, %f)", scores[1], scores[0])
	}
}

func TestCategoryAffinityUnseenCategory(t *testing.T) {
	engine := testEngine(t, 1)
	now := time.Now()

	txns := []models.Transaction{
		{CustomerID: "C001", ProductID: "P001", Category: "dairy", Quantity: 1, Timestamp: now.AddDate(0, 0, -1)},
	}
	products := []models.Product{{ID: "P009", Category: "frozen"}}

	scores := engine.scoreCategoryAffinity(products, txns, now)
	if scores[0] != 0 {
		t.Errorf("unseen category affinity = %f, want 0", scores[0])
	}
}

func TestRepurchaseLikelihood(t *testing.T) {
	engine := testEngine(t, 1)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	products := []models.Product{{ID: "P001", Category: "dairy"}}

	// Purchased every 7 days, last purchase 7 days ago: peak of the Gaussian.
	onCycle := []models.Transaction{
		{CustomerID: "C001", ProductID: "P001", Quantity: 1, Timestamp: now.AddDate(0, 0, -21)},
		{CustomerID: "C001", ProductID: "P001", Quantity: 1, Timestamp: now.AddDate(0, 0, -14)},
		{CustomerID: "C001", ProductID: "P001", Quantity: 1, Timestamp: now.AddDate(0, 0, -7)},
	}
	scores := engine.scoreRepurchaseLikelihood(products, onCycle, now)
	if math.Abs(scores[0]-1.0) > 1e-9 {
		t.Errorf("on-cycle repurchase = %f, want 1.0", scores[0])
	}

	// Purchased yesterday with a 7-day cycle: well below peak.
	early := append(onCycle[:2:2], models.Transaction{
		CustomerID: "C001", ProductID: "P001", Quantity: 1, Timestamp: now.AddDate(0, 0, -1),
	})
	earlyScores := engine.scoreRepurchaseLikelihood(products, early, now)
	if earlyScores[0] >= scores[0] {
		t.Errorf("early repurchase = %f, want below on-cycle %f", earlyScores[0], scores[0])
	}
}

func TestRepurchaseLikelihoodMinPurchasesGate(t *testing.T) {
	engine := testEngine(t, 1)
	now := time.Now()
	products := []models.Product{{ID: "P001"}}

	single := []models.Transaction{
		{CustomerID: "C001", ProductID: "P001", Quantity: 1, Timestamp: now.AddDate(0, 0, -14)},
	}

	scores := engine.scoreRepurchaseLikelihood(products, single, now)
	if scores[0] != 0 {
		t.Errorf("repurchase with one purchase = %f, want 0 below the minimum purchase gate", scores[0])
	}
}

func TestClickstreamIntent(t *testing.T) {
	engine := testEngine(t, 1)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	clicks := []models.ClickEvent{
		{CustomerID: "C001", ProductID: "P001", Type: models.EventAddToCart, Timestamp: now.Add(-1 * time.Hour)},
		{CustomerID: "C001", ProductID: "P002", Type: models.EventView, Timestamp: now.Add(-100 * time.Hour)},
		{CustomerID: "C001", Type: models.EventSearch, Timestamp: now},
	}

	scores := engine.scoreClickstreamIntent(testProducts(), clicks, now)

	if scores[0] != 1.0 {
		t.Errorf("recent add_to_cart intent = %f, want 1.0 after max normalization", scores[0])
	}
	if scores[1] <= 0 || scores[1] >= scores[0] {
		t.Errorf("stale view intent = %f, want in (0, 1)", scores[1])
	}
	if scores[2] != 0 {
		t.Errorf("unclicked product intent = %f, want 0", scores[2])
	}
}

func TestClickstreamIntentUnknownEventWeight(t *testing.T) {
	cfg := config.Default().Scoring
	engine := NewEngine(cfg, 1, zerolog.Nop())
	now := time.Now()

	clicks := []models.ClickEvent{
		{CustomerID: "C001", ProductID: "P001", Type: "page_scroll", Timestamp: now},
	}
	products := []models.Product{{ID: "P001"}}

	scores := engine.scoreClickstreamIntent(products, clicks, now)
	if scores[0] == 0 {
		t.Error("unknown event type should fall back to the default weight, not zero")
	}
}

func TestProductPopularity(t *testing.T) {
	engine := testEngine(t, 1)

	allTxns := []models.Transaction{
		{CustomerID: "C001", ProductID: "P001", Quantity: 2},
		{CustomerID: "C002", ProductID: "P001", Quantity: 3},
		{CustomerID: "C003", ProductID: "P001", Quantity: 1},
		{CustomerID: "C001", ProductID: "P002", Quantity: 1},
	}

	scores := engine.scoreProductPopularity(testProducts(), allTxns)

	if math.Abs(scores[0]-1.0) > 1e-9 {
		t.Errorf("most popular product = %f, want 1.0", scores[0])
	}
	if scores[1] >= scores[0] {
		t.Errorf("less popular product = %f, want below %f", scores[1], scores[0])
	}
	if scores[2] != 0.5 {
		t.Errorf("never-purchased product = %f, want 0.5 neutral", scores[2])
	}
}
