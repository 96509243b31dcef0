// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package config provides layered configuration for Basketwise.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, optional YAML config file,
// built-in defaults. Struct tags drive go-playground/validator checks;
// cross-field invariants are checked explicitly in Validate.
package config

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the recommendation engine and its
// HTTP front-end.
type Config struct {
	// Scoring holds the weights and per-component tunables.
	Scoring ScoringConfig `koanf:"scoring" json:"scoring"`

	// Constraints holds the business-rule filter toggles.
	Constraints ConstraintsConfig `koanf:"constraints" json:"constraints"`

	// Selection holds top-K, exposure decay, and seeding parameters.
	Selection SelectionConfig `koanf:"selection" json:"selection"`

	// Ledger configures the persisted exposure ledger.
	Ledger LedgerConfig `koanf:"ledger" json:"ledger"`

	// Data points at the catalog, transaction, and clickstream CSV files.
	Data DataConfig `koanf:"data" json:"data"`

	// Server configures the HTTP API.
	Server ServerConfig `koanf:"server" json:"server"`

	// Logging configures the zerolog output.
	Logging LoggingConfig `koanf:"logging" json:"logging"`
}

// ScoringConfig holds the scoring weights and component tunables.
type ScoringConfig struct {
	Weights          WeightsConfig          `koanf:"scoring_weights" json:"scoring_weights"`
	CategoryAffinity CategoryAffinityConfig `koanf:"category_affinity" json:"category_affinity"`
	Repurchase       RepurchaseConfig       `koanf:"repurchase_likelihood" json:"repurchase_likelihood"`
	Clickstream      ClickstreamConfig      `koanf:"clickstream_intent" json:"clickstream_intent"`
	Popularity       PopularityConfig       `koanf:"product_popularity" json:"product_popularity"`
}

// WeightsConfig defines the contribution of each scoring component to the
// final score. The five weights are expected to sum to 1.0 within ±0.01;
// a violation is logged at load time but is not fatal.
type WeightsConfig struct {
	CategoryAffinity     float64 `koanf:"category_affinity" json:"category_affinity" validate:"gte=0,lte=1"`
	RepurchaseLikelihood float64 `koanf:"repurchase_likelihood" json:"repurchase_likelihood" validate:"gte=0,lte=1"`
	ClickstreamIntent    float64 `koanf:"clickstream_intent" json:"clickstream_intent" validate:"gte=0,lte=1"`
	ProductPopularity    float64 `koanf:"product_popularity" json:"product_popularity" validate:"gte=0,lte=1"`
	Exploration          float64 `koanf:"exploration" json:"exploration" validate:"gte=0,lte=1"`
}

// Sum returns the total of the five weights.
func (w WeightsConfig) Sum() float64 {
	return w.CategoryAffinity + w.RepurchaseLikelihood + w.ClickstreamIntent +
		w.ProductPopularity + w.Exploration
}

// SumToleranceOK reports whether the weights sum to 1.0 within ±0.01.
func (w WeightsConfig) SumToleranceOK() bool {
	return math.Abs(w.Sum()-1.0) <= 0.01
}

// CategoryAffinityConfig tunes the time-decayed category preference score.
type CategoryAffinityConfig struct {
	// DecayDays is the exponential decay constant in days for purchase
	// recency weighting. Default: 30.
	DecayDays float64 `koanf:"decay_days" json:"decay_days" validate:"gt=0"`
}

// RepurchaseConfig tunes the Gaussian repurchase-cycle score.
type RepurchaseConfig struct {
	// ExpectedCycleDays is the default repurchase cycle applied when a
	// customer has fewer than two purchases of a product. Default: 14.
	ExpectedCycleDays float64 `koanf:"expected_cycle_days" json:"expected_cycle_days" validate:"gt=0"`

	// CycleStdDays is the Gaussian standard deviation in days. Default: 5.
	CycleStdDays float64 `koanf:"cycle_std_days" json:"cycle_std_days" validate:"gt=0"`

	// MinPurchases is the minimum purchase count for a customer/product
	// pair before the component scores it at all. Default: 2.
	MinPurchases int `koanf:"min_purchases" json:"min_purchases" validate:"gte=1"`
}

// ClickstreamConfig tunes the browsing-intent score.
type ClickstreamConfig struct {
	// RecencyWeight balances event recency against event-type weight in
	// the convex combination. Must be in [0, 1]. Default: 0.6.
	RecencyWeight float64 `koanf:"recency_weight" json:"recency_weight" validate:"gte=0,lte=1"`

	// DecayHours is the exponential decay constant in hours for event
	// recency. Default: 48.
	DecayHours float64 `koanf:"decay_hours" json:"decay_hours" validate:"gt=0"`

	// EventWeights maps event types to importance weights.
	EventWeights map[string]float64 `koanf:"event_weights" json:"event_weights"`

	// DefaultEventWeight is applied to event types missing from
	// EventWeights. Default: 0.3.
	DefaultEventWeight float64 `koanf:"default_event_weight" json:"default_event_weight" validate:"gte=0,lte=1"`
}

// PopularityConfig tunes the global popularity score.
type PopularityConfig struct {
	// CustomerWeight is the importance of normalized unique-customer
	// count. Default: 0.6.
	CustomerWeight float64 `koanf:"customer_weight" json:"customer_weight" validate:"gte=0,lte=1"`

	// FrequencyWeight is the importance of normalized total quantity
	// sold. Default: 0.4.
	FrequencyWeight float64 `koanf:"frequency_weight" json:"frequency_weight" validate:"gte=0,lte=1"`
}

// ConstraintsConfig toggles the hard business-rule filters. Each filter is
// independently togglable; all disabled makes the filter a pass-through.
type ConstraintsConfig struct {
	// ExcludeRecentPurchasesDays excludes products the customer purchased
	// within this many days. Zero disables the filter. Default: 7.
	ExcludeRecentPurchasesDays int `koanf:"exclude_recent_purchases_days" json:"exclude_recent_purchases_days" validate:"gte=0"`

	// ExcludeDiscounted excludes products flagged is_discounted.
	// Default: true.
	ExcludeDiscounted bool `koanf:"exclude_discounted" json:"exclude_discounted"`

	// ExcludeOutOfStock excludes products flagged not in_stock.
	// Default: true.
	ExcludeOutOfStock bool `koanf:"exclude_out_of_stock" json:"exclude_out_of_stock"`
}

// SelectionConfig tunes the final selection stage.
type SelectionConfig struct {
	// TopK is the number of highest-scoring candidates considered before
	// exposure filtering. Default: 5.
	TopK int `koanf:"top_k" json:"top_k" validate:"gte=1"`

	// DecayHours is the exposure window: products shown to a customer
	// within this window are filtered from the candidate set. Default: 24.
	DecayHours float64 `koanf:"decay_hours" json:"decay_hours" validate:"gt=0"`

	// RandomSeed seeds both the exploration component and the weighted
	// sampling draw for reproducible runs. Zero means non-deterministic
	// (time-based) seeding.
	RandomSeed int64 `koanf:"random_seed" json:"random_seed"`
}

// LedgerConfig configures the persisted exposure ledger.
type LedgerConfig struct {
	// Backend selects the store implementation: badger, file, or memory.
	// Default: badger.
	Backend string `koanf:"backend" json:"backend" validate:"oneof=badger file memory"`

	// Path is the Badger directory or JSON file path, depending on the
	// backend. Ignored for memory.
	Path string `koanf:"path" json:"path"`
}

// DataConfig points at the CSV snapshots consumed at startup.
type DataConfig struct {
	ProductsPath     string `koanf:"products_path" json:"products_path"`
	TransactionsPath string `koanf:"transactions_path" json:"transactions_path"`
	ClickstreamPath  string `koanf:"clickstream_path" json:"clickstream_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host    string        `koanf:"host" json:"host"`
	Port    int           `koanf:"port" json:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	// BatchWorkers bounds the per-batch recommendation concurrency.
	// Default: 4.
	BatchWorkers int `koanf:"batch_workers" json:"batch_workers" validate:"gte=1"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins" json:"cors_origins"`

	// RateLimitReqs and RateLimitWindow bound request rates per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" json:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" json:"rate_limit_window"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
	Caller bool   `koanf:"caller" json:"caller"`
}

// Default returns a Config with production defaults. These are applied
// first, then overridden by the config file and environment variables.
func Default() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Weights: WeightsConfig{
				CategoryAffinity:     0.30,
				RepurchaseLikelihood: 0.25,
				ClickstreamIntent:    0.20,
				ProductPopularity:    0.15,
				Exploration:          0.10,
			},
			CategoryAffinity: CategoryAffinityConfig{
				DecayDays: 30,
			},
			Repurchase: RepurchaseConfig{
				ExpectedCycleDays: 14,
				CycleStdDays:      5,
				MinPurchases:      2,
			},
			Clickstream: ClickstreamConfig{
				RecencyWeight: 0.6,
				DecayHours:    48,
				EventWeights: map[string]float64{
					"view":             0.4,
					"add_to_cart":      1.0,
					"wishlist":         0.7,
					"search":           0.3,
					"remove_from_cart": 0.1,
				},
				DefaultEventWeight: 0.3,
			},
			Popularity: PopularityConfig{
				CustomerWeight:  0.6,
				FrequencyWeight: 0.4,
			},
		},
		Constraints: ConstraintsConfig{
			ExcludeRecentPurchasesDays: 7,
			ExcludeDiscounted:          true,
			ExcludeOutOfStock:          true,
		},
		Selection: SelectionConfig{
			TopK:       5,
			DecayHours: 24,
			RandomSeed: 0, // non-deterministic by default
		},
		Ledger: LedgerConfig{
			Backend: "badger",
			Path:    "/data/ledger",
		},
		Data: DataConfig{
			ProductsPath:     "data/products.csv",
			TransactionsPath: "data/transactions.csv",
			ClickstreamPath:  "data/clickstream.csv",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			BatchWorkers:    4,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// validate is the shared validator instance. validator caches struct
// metadata, so a single instance is reused.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for errors. An invalid configuration
// is fatal at engine construction; the weight-sum tolerance is the one
// soft invariant, surfaced via WeightSumWarning instead.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	for name, w := range c.Scoring.Clickstream.EventWeights {
		if w < 0 || w > 1 {
			return fmt.Errorf("clickstream_intent.event_weights[%s] must be in [0, 1], got %f", name, w)
		}
	}

	if c.Ledger.Backend != "memory" && c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required for backend %q", c.Ledger.Backend)
	}

	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive, got %v", c.Server.RateLimitWindow)
	}

	return nil
}

// WeightSumWarning returns a non-empty message when the scoring weights
// violate the sum-to-1.0 tolerance. Callers log it; they do not abort.
func (c *Config) WeightSumWarning() string {
	if c.Scoring.Weights.SumToleranceOK() {
		return ""
	}
	return fmt.Sprintf("scoring weights sum to %.4f, expected 1.0 (±0.01)", c.Scoring.Weights.Sum())
}
