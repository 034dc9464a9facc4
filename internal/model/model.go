// Package model holds the domain types shared by the cart, the stores,
// and the HTTP handlers.
package model

import "github.com/shopspring/decimal"

// MenuItem is one purchasable entry in the catalog.
type MenuItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Image    string          `json:"image,omitempty"`
}

// OrderLine is one menu item plus quantity within a cart or order.
// Name and Price are snapshots taken when the line was added; later
// catalog edits must not change them.
type OrderLine struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Qty      int32           `json:"qty"`
	Category string          `json:"category,omitempty"`
}

// Subtotal returns Price multiplied by Qty.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt32(l.Qty))
}

// Order is a committed, durable record of a completed sale.
// Total is denormalized: it always equals the sum of line subtotals at
// the time of the last commit or replace and is never edited on its own.
type Order struct {
	ID    int64           `json:"id"`
	Date  string          `json:"date"`
	Items []OrderLine     `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// CloneLines returns a deep copy of the given lines.
func CloneLines(lines []OrderLine) []OrderLine {
	out := make([]OrderLine, len(lines))
	copy(out, lines)
	return out
}

// SumLines recomputes the total over the given lines.
func SumLines(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
