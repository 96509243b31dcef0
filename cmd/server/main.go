// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package main is the entry point for the Basketwise server.
//
// Basketwise recommends exactly one grocery product per customer, chosen
// from time-decayed purchase, repurchase-cycle, browsing-intent, and
// popularity signals, with constraint filtering and variety-preserving
// randomized selection backed by a persisted exposure ledger.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 loading (defaults, YAML file,
//     environment variables)
//  2. Logging: zerolog, configured from the loaded settings
//  3. Dataset: product catalog, transactions, and clickstream CSVs
//  4. Exposure ledger: BadgerDB, JSON file, or in-memory store
//  5. Recommendation engine: scoring, constraint filter, selector
//  6. HTTP server: Chi-routed REST API with Prometheus metrics
//
// Shutdown on SIGINT or SIGTERM is graceful: the HTTP server drains
// in-flight requests, then the ledger store is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/basketlabs/basketwise/internal/api"
	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/dataset"
	"github.com/basketlabs/basketwise/internal/ledger"
	"github.com/basketlabs/basketwise/internal/logging"
	"github.com/basketlabs/basketwise/internal/recommender"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()

	logging.Info().Msg("Starting Basketwise")

	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	if warning := cfg.WeightSumWarning(); warning != "" {
		logging.Warn().Msg(warning)
	}

	data, err := dataset.Load(cfg.Data, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load dataset")
	}
	products, transactions, clicks := data.Counts()
	logging.Info().
		Int("products", products).
		Int("transactions", transactions).
		Int("clicks", clicks).
		Msg("Dataset loaded")

	store, err := ledger.Open(cfg.Ledger, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open exposure ledger")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing exposure ledger")
		}
	}()
	logging.Info().Str("backend", cfg.Ledger.Backend).Msg("Exposure ledger ready")

	engine := recommender.New(cfg, data, store, logger)
	router := api.NewRouter(cfg.Server, engine, data, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server error")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
