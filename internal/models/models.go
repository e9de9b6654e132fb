// Package models provides the data structures shared across the rule engine,
// the confidence gate, and the batch processor.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a financial transaction fetched from the ledger API.
// The engine never mutates a Transaction; writes go through the injected
// apply capability.
type Transaction struct {
	ID               string
	Date             time.Time
	Payee            string
	Amount           decimal.Decimal
	AccountName      string
	Category         *Category
	Labels           []string
	StoredConfidence int
}

// Category is a transaction category as known by the ledger.
type Category struct {
	Name        string
	Description string
}

// HasCategory reports whether the transaction already carries a category.
func (t *Transaction) HasCategory() bool {
	return t.Category != nil && t.Category.Name != ""
}

// CategoryName returns the current category title, or "" when uncategorized.
func (t *Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

// AbsAmount returns the absolute value of the transaction amount.
func (t *Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}
