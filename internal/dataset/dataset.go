// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package dataset loads the product catalog, transaction history, and
// clickstream feed from CSV files and serves indexed read-only views of
// them to the recommendation pipeline.
package dataset

import (
	"github.com/basketlabs/basketwise/internal/models"
)

// Dataset is an immutable, indexed snapshot of the three input feeds.
// Built once at load time; all accessors are safe for concurrent reads.
type Dataset struct {
	products     []models.Product
	transactions []models.Transaction
	clicks       []models.ClickEvent

	txnsByCustomer   map[string][]models.Transaction
	clicksByCustomer map[string][]models.ClickEvent
	productsByID     map[string]models.Product
}

// New builds an indexed dataset from already-parsed records.
func New(products []models.Product, transactions []models.Transaction, clicks []models.ClickEvent) *Dataset {
	d := &Dataset{
		products:         products,
		transactions:     transactions,
		clicks:           clicks,
		txnsByCustomer:   make(map[string][]models.Transaction),
		clicksByCustomer: make(map[string][]models.ClickEvent),
		productsByID:     make(map[string]models.Product, len(products)),
	}

	for _, p := range products {
		d.productsByID[p.ID] = p
	}
	for _, t := range transactions {
		d.txnsByCustomer[t.CustomerID] = append(d.txnsByCustomer[t.CustomerID], t)
	}
	for _, c := range clicks {
		d.clicksByCustomer[c.CustomerID] = append(d.clicksByCustomer[c.CustomerID], c)
	}

	return d
}

// Products returns the full catalog. Callers must not mutate the slice.
func (d *Dataset) Products() []models.Product {
	return d.products
}

// Product looks up a catalog entry by ID.
func (d *Dataset) Product(id string) (models.Product, bool) {
	p, ok := d.productsByID[id]
	return p, ok
}

// Transactions returns the full purchase history across all customers.
func (d *Dataset) Transactions() []models.Transaction {
	return d.transactions
}

// TransactionsFor returns the purchase history of one customer. Nil when
// the customer has no history.
func (d *Dataset) TransactionsFor(customerID string) []models.Transaction {
	return d.txnsByCustomer[customerID]
}

// ClicksFor returns the clickstream events of one customer. Nil when the
// customer has no browsing history.
func (d *Dataset) ClicksFor(customerID string) []models.ClickEvent {
	return d.clicksByCustomer[customerID]
}

// Counts reports the loaded record counts for logging and health checks.
func (d *Dataset) Counts() (products, transactions, clicks int) {
	return len(d.products), len(d.transactions), len(d.clicks)
}
