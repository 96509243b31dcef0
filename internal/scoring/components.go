// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/basketlabs/basketwise/internal/models"
)

const hoursPerDay = 24.0

// scoreCategoryAffinity scores products by time-weighted category
// preference. Each past purchase contributes exp(-daysAgo/decayDays) to
// its category; category totals are scaled by log1p(total quantity) and
// max-normalized into [0, 1]. Products in categories the customer never
// purchased score 0, as does a customer with no history.
func (e *Engine) scoreCategoryAffinity(products []models.Product, customerTxns []models.Transaction, now time.Time) []float64 {
	scores := make([]float64, len(products))
	if len(customerTxns) == 0 {
		return scores
	}

	decayDays := e.cfg.CategoryAffinity.DecayDays

	type categoryStats struct {
		weight   float64
		quantity int
	}
	byCategory := make(map[string]*categoryStats)

	for _, txn := range customerTxns {
		daysAgo := now.Sub(txn.Timestamp).Hours() / hoursPerDay
		stats := byCategory[txn.Category]
		if stats == nil {
			stats = &categoryStats{}
			byCategory[txn.Category] = stats
		}
		stats.weight += math.Exp(-daysAgo / decayDays)
		stats.quantity += txn.Quantity
	}

	categoryScores := make(map[string]float64, len(byCategory))
	maxScore := 0.0
	for category, stats := range byCategory {
		s := stats.weight * math.Log1p(float64(stats.quantity))
		categoryScores[category] = s
		if s > maxScore {
			maxScore = s
		}
	}

	if maxScore > 0 {
		for category := range categoryScores {
			categoryScores[category] /= maxScore
		}
	}

	for i, p := range products {
		scores[i] = categoryScores[p.Category] // zero for unseen categories
	}
	return scores
}

// scoreRepurchaseLikelihood scores products by how closely the elapsed
// time since the customer's last purchase matches their typical repurchase
// cadence. The score is a Gaussian centered on the customer's mean
// inter-purchase interval for the product (or the configured default cycle
// when fewer than two purchases exist):
//
//	exp(-(daysSince - avgCycle)^2 / (2*std^2))
//
// Too early and too late both reduce the score symmetrically. Pairs below
// the minimum purchase count score 0.
func (e *Engine) scoreRepurchaseLikelihood(products []models.Product, customerTxns []models.Transaction, now time.Time) []float64 {
	scores := make([]float64, len(products))
	if len(customerTxns) == 0 {
		return scores
	}

	cfg := e.cfg.Repurchase

	byProduct := make(map[string][]time.Time)
	for _, txn := range customerTxns {
		byProduct[txn.ProductID] = append(byProduct[txn.ProductID], txn.Timestamp)
	}
	for _, times := range byProduct {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	}

	for i, p := range products {
		times := byProduct[p.ID]
		if len(times) < cfg.MinPurchases {
			continue
		}

		last := times[len(times)-1]
		daysSince := now.Sub(last).Hours() / hoursPerDay

		avgCycle := cfg.ExpectedCycleDays
		if len(times) >= 2 {
			var total float64
			for j := 1; j < len(times); j++ {
				total += times[j].Sub(times[j-1]).Hours() / hoursPerDay
			}
			avgCycle = total / float64(len(times)-1)
		}

		deviation := daysSince - avgCycle
		scores[i] = math.Exp(-(deviation * deviation) / (2 * cfg.CycleStdDays * cfg.CycleStdDays))
	}
	return scores
}

// scoreClickstreamIntent scores products by browsing behavior. Each event
// with a product reference combines recency exp(-hoursAgo/decayHours) and
// its event-type weight as a convex combination controlled by the recency
// weight; per-product sums are max-normalized into [0, 1]. Events without
// a product reference are skipped. No click history yields 0 everywhere.
func (e *Engine) scoreClickstreamIntent(products []models.Product, customerClicks []models.ClickEvent, now time.Time) []float64 {
	scores := make([]float64, len(products))
	if len(customerClicks) == 0 {
		return scores
	}

	cfg := e.cfg.Clickstream

	productScores := make(map[string]float64)
	maxScore := 0.0
	for _, click := range customerClicks {
		if !click.HasProduct() {
			continue
		}

		hoursAgo := now.Sub(click.Timestamp).Hours()
		recency := math.Exp(-hoursAgo / cfg.DecayHours)

		eventWeight, ok := cfg.EventWeights[string(click.Type)]
		if !ok {
			eventWeight = cfg.DefaultEventWeight
		}

		combined := cfg.RecencyWeight*recency + (1-cfg.RecencyWeight)*eventWeight
		productScores[click.ProductID] += combined
		if productScores[click.ProductID] > maxScore {
			maxScore = productScores[click.ProductID]
		}
	}

	if maxScore > 0 {
		for id := range productScores {
			productScores[id] /= maxScore
		}
	}

	for i, p := range products {
		scores[i] = productScores[p.ID]
	}
	return scores
}

// scoreProductPopularity scores products by global reach: normalized
// unique-customer count and normalized total quantity sold, combined with
// the configured weights. Products absent from the global history get the
// 0.5 neutral default so new catalog items are not penalized; an entirely
// empty global history yields 0.5 everywhere.
func (e *Engine) scoreProductPopularity(products []models.Product, allTxns []models.Transaction) []float64 {
	const neutral = 0.5

	scores := make([]float64, len(products))
	if len(allTxns) == 0 {
		for i := range scores {
			scores[i] = neutral
		}
		return scores
	}

	cfg := e.cfg.Popularity

	type productStats struct {
		customers map[string]struct{}
		quantity  int
	}
	byProduct := make(map[string]*productStats)

	for _, txn := range allTxns {
		stats := byProduct[txn.ProductID]
		if stats == nil {
			stats = &productStats{customers: make(map[string]struct{})}
			byProduct[txn.ProductID] = stats
		}
		stats.customers[txn.CustomerID] = struct{}{}
		stats.quantity += txn.Quantity
	}

	maxCustomers, maxQuantity := 0, 0
	for _, stats := range byProduct {
		if len(stats.customers) > maxCustomers {
			maxCustomers = len(stats.customers)
		}
		if stats.quantity > maxQuantity {
			maxQuantity = stats.quantity
		}
	}

	for i, p := range products {
		stats, ok := byProduct[p.ID]
		if !ok {
			scores[i] = neutral
			continue
		}

		var customerScore, frequencyScore float64
		if maxCustomers > 0 {
			customerScore = float64(len(stats.customers)) / float64(maxCustomers)
		}
		if maxQuantity > 0 {
			frequencyScore = float64(stats.quantity) / float64(maxQuantity)
		}

		scores[i] = cfg.CustomerWeight*customerScore + cfg.FrequencyWeight*frequencyScore
	}
	return scores
}
