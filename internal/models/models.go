// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package models defines the typed views over the product catalog,
// transaction history, and clickstream feed consumed by the scoring,
// filtering, and selection stages.
//
// All types here are plain data: catalog and history records are read-only
// once loaded, ScoredProduct is recomputed per request and never persisted,
// and Recommendation is the immutable per-call output.
package models

import "time"

// EventType classifies clickstream events by expressed purchase intent.
type EventType string

const (
	// EventView indicates a product detail page view.
	EventView EventType = "view"
	// EventAddToCart indicates a product was added to the basket.
	EventAddToCart EventType = "add_to_cart"
	// EventWishlist indicates a product was saved for later.
	EventWishlist EventType = "wishlist"
	// EventSearch indicates a catalog search; usually carries no product.
	EventSearch EventType = "search"
	// EventRemoveFromCart indicates a product was removed from the basket.
	EventRemoveFromCart EventType = "remove_from_cart"
)

// Product is an immutable catalog entry for the scoring window.
// The catalog source owns it; the engine only reads it.
type Product struct {
	// ID is the unique product identifier.
	ID string `json:"product_id"`

	// Name is the display name.
	Name string `json:"product_name"`

	// Category is the product category used for affinity scoring.
	Category string `json:"product_category"`

	// IsDiscounted marks products currently on promotion.
	IsDiscounted bool `json:"is_discounted"`

	// InStock marks products currently available.
	InStock bool `json:"in_stock"`
}

// Transaction is an append-only purchase fact. A customer may have many
// transactions for the same product.
type Transaction struct {
	// CustomerID identifies the purchasing customer.
	CustomerID string `json:"customer_id"`

	// ProductID identifies the purchased product.
	ProductID string `json:"product_id"`

	// Category is the product category, denormalized onto the transaction.
	Category string `json:"product_category"`

	// Quantity is the number of units purchased. Always positive.
	Quantity int `json:"quantity"`

	// Timestamp is when the purchase occurred.
	Timestamp time.Time `json:"date_of_transaction"`
}

// ClickEvent is an append-only clickstream fact. Events without a product
// reference (searches, page loads) are excluded from per-product intent
// scoring but kept in the feed.
type ClickEvent struct {
	// CustomerID identifies the browsing customer.
	CustomerID string `json:"customer_id"`

	// ProductID identifies the product the event refers to.
	// Empty for events with no product reference.
	ProductID string `json:"product_id,omitempty"`

	// Type classifies the event.
	Type EventType `json:"event_type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"event_timestamp"`
}

// HasProduct reports whether the event carries a product reference.
func (e ClickEvent) HasProduct() bool {
	return e.ProductID != ""
}

// ComponentScores holds the five independent signal scores for a product.
// Each component lies in [0, 1].
type ComponentScores struct {
	// CategoryAffinity is the time-decayed category preference score.
	CategoryAffinity float64 `json:"category_affinity"`

	// RepurchaseLikelihood is the Gaussian repurchase-cycle score.
	RepurchaseLikelihood float64 `json:"repurchase_likelihood"`

	// ClickstreamIntent is the recency- and event-weighted browsing score.
	ClickstreamIntent float64 `json:"clickstream_intent"`

	// ProductPopularity is the global popularity score.
	ProductPopularity float64 `json:"product_popularity"`

	// Exploration is the random variety-injection score.
	Exploration float64 `json:"exploration"`
}

// ScoredProduct is a catalog product augmented with component scores and
// the weighted final score. Ephemeral: recomputed per request.
type ScoredProduct struct {
	Product Product `json:"product"`

	// Components are the five signal scores, each in [0, 1].
	Components ComponentScores `json:"components"`

	// FinalScore is the weighted sum of the components. Not strictly
	// bounded to [0, 1], but close to it since weights sum to 1.
	FinalScore float64 `json:"final_score"`
}

// ShownRecord maps product ID to the last time it was shown to a customer.
// Persisted by the exposure ledger; entries outside the decay window remain
// but lose effect.
type ShownRecord map[string]time.Time

// Recommendation is the final output of one selection: the chosen product
// with its scores, rank among all pre-filter candidates, and timestamp.
// Created once per call and immutable.
type Recommendation struct {
	// CustomerID is the customer the recommendation is for.
	CustomerID string `json:"customer_id"`

	// ProductID is the chosen product.
	ProductID string `json:"recommended_product_id"`

	// ProductName is the chosen product's display name.
	ProductName string `json:"product_name"`

	// Category is the chosen product's category.
	Category string `json:"product_category"`

	// FinalScore is the chosen product's weighted score.
	FinalScore float64 `json:"final_score"`

	// Components is the chosen product's score breakdown.
	Components ComponentScores `json:"score_components"`

	// Rank is 1 + the number of pre-filter candidates with a strictly
	// greater final score.
	Rank int `json:"rank"`

	// TotalCandidates is the number of scored candidates before filtering.
	TotalCandidates int `json:"total_candidates"`

	// Timestamp is when the recommendation was produced, RFC 3339.
	Timestamp time.Time `json:"timestamp"`
}
