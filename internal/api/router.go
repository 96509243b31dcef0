// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package api exposes the recommendation engine over HTTP using the Chi
// router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/dataset"
	"github.com/basketlabs/basketwise/internal/recommender"
)

// Router builds the HTTP handler tree for the service.
type Router struct {
	cfg     config.ServerConfig
	handler *Handler
	logger  zerolog.Logger
}

// NewRouter creates a router over the recommendation engine and dataset.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func NewRouter(cfg config.ServerConfig, engine *recommender.Engine, data *dataset.Dataset, logger zerolog.Logger) *Router {
	return &Router{
		cfg:     cfg,
		handler: NewHandler(engine, data, logger),
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// Setup configures all routes and the global middleware stack.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID(rt.logger))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rt.cfg.RateLimitReqs, rt.cfg.RateLimitWindow))
		r.Use(Instrument)

		r.Get("/health", rt.handler.Health)
		r.Post("/recommend", rt.handler.Recommend)
		r.Post("/recommend/batch", rt.handler.RecommendBatch)
		r.Delete("/exposure", rt.handler.ClearExposure)
		r.Delete("/exposure/{customerID}", rt.handler.ClearExposure)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
