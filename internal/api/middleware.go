// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/metrics"
)

// requestIDHeader carries the per-request correlation ID. Client-supplied
// values are honored so upstream proxies can thread their own IDs through.
const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a correlation ID, echoes it in the
// response header, and attaches it plus basic request fields to a logger
// stored on the request context.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func RequestID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			reqLogger := logger.With().
				Str("request_id", id).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			next.ServeHTTP(w, r.WithContext(reqLogger.WithContext(r.Context())))
		})
	}
}

// Instrument records handler latency by route pattern and status code.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
