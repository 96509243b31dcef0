// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/dataset"
	"github.com/basketlabs/basketwise/internal/models"
	"github.com/basketlabs/basketwise/internal/recommender"
	"github.com/basketlabs/basketwise/internal/selector"
)

// maxBatchSize caps the number of customers accepted in one batch call.
const maxBatchSize = 1000

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler implements the HTTP endpoints.
type Handler struct {
	engine *recommender.Engine
	data   *dataset.Dataset
	logger zerolog.Logger
}

// NewHandler creates a request handler over the engine and dataset.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func NewHandler(engine *recommender.Engine, data *dataset.Dataset, logger zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		data:   data,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// RecommendRequest is the body of POST /api/v1/recommend.
type RecommendRequest struct {
	CustomerID string `json:"customer_id" validate:"required"`
}

// BatchRequest is the body of POST /api/v1/recommend/batch.
type BatchRequest struct {
	CustomerIDs []string `json:"customer_ids" validate:"required,min=1,dive,required"`
}

// BatchResponse is the body returned by the batch endpoint. Customers
// with no eligible product are omitted from Recommendations.
type BatchResponse struct {
	Recommendations []*models.Recommendation `json:"recommendations"`
	Requested       int                      `json:"requested"`
	Generated       int                      `json:"generated"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Recommend handles POST /api/v1/recommend.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id is required")
		return
	}

	rec, err := h.engine.RecommendProduct(r.Context(), req.CustomerID, time.Time{})
	if err != nil {
		if errors.Is(err, selector.ErrNoRecommendation) {
			h.respondError(w, http.StatusNotFound, "NO_RECOMMENDATION", "no eligible product for customer")
			return
		}
		h.logger.Error().Err(err).Str("customer_id", req.CustomerID).Msg("recommendation failed")
		h.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "recommendation failed")
		return
	}

	h.respondJSON(w, http.StatusOK, rec)
}

// RecommendBatch handles POST /api/v1/recommend/batch.
func (h *Handler) RecommendBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "customer_ids must be a non-empty list of IDs")
		return
	}
	if len(req.CustomerIDs) > maxBatchSize {
		h.respondError(w, http.StatusBadRequest, "BATCH_TOO_LARGE", "customer_ids exceeds the batch limit")
		return
	}

	recs := h.engine.RecommendBatch(r.Context(), req.CustomerIDs, time.Time{})

	h.respondJSON(w, http.StatusOK, BatchResponse{
		Recommendations: recs,
		Requested:       len(req.CustomerIDs),
		Generated:       len(recs),
	})
}

// ClearExposure handles DELETE /api/v1/exposure[/{customerID}]. Without a
// customer ID it clears the whole ledger.
func (h *Handler) ClearExposure(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	if err := h.engine.ClearShown(r.Context(), customerID); err != nil {
		h.logger.Error().Err(err).Str("customer_id", customerID).Msg("failed to clear exposure ledger")
		h.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to clear exposure ledger")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /api/v1/health, reporting loaded dataset counts.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	products, transactions, clicks := h.data.Counts()

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"products":     products,
		"transactions": transactions,
		"clicks":       clicks,
		"timestamp":    time.Now().UTC(),
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to write JSON response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, errorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	})
}
