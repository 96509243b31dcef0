// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/basketlabs/basketwise/internal/config"
	"github.com/basketlabs/basketwise/internal/models"
)

// timestampLayouts are accepted in order for transaction and clickstream
// timestamps. Date-only values parse to midnight UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Load reads the three configured CSV files and returns an indexed
// dataset. Malformed rows are skipped with a warning; a missing optional
// product column degrades to a permissive default rather than failing the
// load.
//
//nolint:gocritic // logger passed by value is idiomatic for zerolog
func Load(cfg config.DataConfig, logger zerolog.Logger) (*Dataset, error) {
	log := logger.With().Str("component", "dataset").Logger()

	products, err := loadProducts(cfg.ProductsPath, log)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	log.Info().Int("count", len(products)).Str("path", cfg.ProductsPath).Msg("loaded products")

	transactions, err := loadTransactions(cfg.TransactionsPath, log)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	log.Info().Int("count", len(transactions)).Str("path", cfg.TransactionsPath).Msg("loaded transactions")

	clicks, err := loadClickstream(cfg.ClickstreamPath, log)
	if err != nil {
		return nil, fmt.Errorf("load clickstream: %w", err)
	}
	log.Info().Int("count", len(clicks)).Str("path", cfg.ClickstreamPath).Msg("loaded clickstream events")

	return New(products, transactions, clicks), nil
}

// header maps column names to their positions, lower-cased and trimmed.
type header map[string]int

func (h header) get(row []string, col string) (string, bool) {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

func readAll(path string) (header, [][]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	head, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	h := make(header, len(head))
	for i, col := range head {
		h[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}

	return h, rows, nil
}

//nolint:gocritic // logger passed by value is idiomatic for zerolog
func loadProducts(path string, log zerolog.Logger) ([]models.Product, error) {
	h, rows, err := readAll(path)
	if err != nil {
		return nil, err
	}

	if _, ok := h["is_discounted"]; !ok {
		log.Warn().Str("path", path).Msg("products file has no is_discounted column, assuming not discounted")
	}
	if _, ok := h["in_stock"]; !ok {
		log.Warn().Str("path", path).Msg("products file has no in_stock column, assuming in stock")
	}

	products := make([]models.Product, 0, len(rows))
	for i, row := range rows {
		id, ok := h.get(row, "product_id")
		if !ok || id == "" {
			log.Warn().Int("row", i+2).Str("path", path).Msg("skipping product row without product_id")
			continue
		}

		name, _ := h.get(row, "product_name")
		category, _ := h.get(row, "product_category")

		p := models.Product{
			ID:           id,
			Name:         name,
			Category:     category,
			IsDiscounted: false,
			InStock:      true,
		}
		if v, ok := h.get(row, "is_discounted"); ok && v != "" {
			p.IsDiscounted = parseBool(v)
		}
		if v, ok := h.get(row, "in_stock"); ok && v != "" {
			p.InStock = parseBool(v)
		}

		products = append(products, p)
	}

	return products, nil
}

//nolint:gocritic // logger passed by value is idiomatic for zerolog
func loadTransactions(path string, log zerolog.Logger) ([]models.Transaction, error) {
	h, rows, err := readAll(path)
	if err != nil {
		return nil, err
	}

	transactions := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		customerID, _ := h.get(row, "customer_id")
		productID, _ := h.get(row, "product_id")
		if customerID == "" || productID == "" {
			log.Warn().Int("row", i+2).Str("path", path).Msg("skipping transaction row without customer_id or product_id")
			continue
		}

		rawTS, _ := h.get(row, "date_of_transaction")
		ts, err := parseTimestamp(rawTS)
		if err != nil {
			log.Warn().Int("row", i+2).Str("path", path).Str("value", rawTS).Msg("skipping transaction row with unparseable timestamp")
			continue
		}

		quantity := 1
		if v, ok := h.get(row, "quantity"); ok && v != "" {
			q, err := strconv.Atoi(v)
			if err != nil || q < 1 {
				log.Warn().Int("row", i+2).Str("path", path).Str("value", v).Msg("invalid quantity, defaulting to 1")
			} else {
				quantity = q
			}
		}

		category, _ := h.get(row, "product_category")

		transactions = append(transactions, models.Transaction{
			CustomerID: customerID,
			ProductID:  productID,
			Category:   category,
			Quantity:   quantity,
			Timestamp:  ts,
		})
	}

	return transactions, nil
}

//nolint:gocritic // logger passed by value is idiomatic for zerolog
func loadClickstream(path string, log zerolog.Logger) ([]models.ClickEvent, error) {
	h, rows, err := readAll(path)
	if err != nil {
		return nil, err
	}

	clicks := make([]models.ClickEvent, 0, len(rows))
	for i, row := range rows {
		customerID, _ := h.get(row, "customer_id")
		eventType, _ := h.get(row, "event_type")
		if customerID == "" || eventType == "" {
			log.Warn().Int("row", i+2).Str("path", path).Msg("skipping clickstream row without customer_id or event_type")
			continue
		}

		rawTS, _ := h.get(row, "event_timestamp")
		ts, err := parseTimestamp(rawTS)
		if err != nil {
			log.Warn().Int("row", i+2).Str("path", path).Str("value", rawTS).Msg("skipping clickstream row with unparseable timestamp")
			continue
		}

		productID, _ := h.get(row, "product_id")

		clicks = append(clicks, models.ClickEvent{
			CustomerID: customerID,
			ProductID:  productID,
			Type:       models.EventType(eventType),
			Timestamp:  ts,
		})
	}

	return clicks, nil
}

func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "t", "yes", "y":
		return true
	default:
		return false
	}
}
