// Package store defines the persistence contracts for the menu catalog and
// the order history, plus the two backends that satisfy them: a JSON-file
// store for single-terminal deployments and a PostgreSQL store for
// server-side persistence.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/caisseresto/api/internal/model"
)

// Sentinel errors shared by both backends.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrMenuNotFound  = errors.New("menu item not found")
)

// OrderStore is durable CRUD over the order history.
type OrderStore interface {
	// ListOrders returns all orders, newest id first. An uninitialized
	// store yields an empty slice, not an error.
	ListOrders(ctx context.Context) ([]model.Order, error)
	// GetOrder returns the order with the given id or ErrOrderNotFound.
	GetOrder(ctx context.Context, id int64) (model.Order, error)
	// AppendOrder adds a new order to the history.
	AppendOrder(ctx context.Context, order model.Order) error
	// ReplaceOrder substitutes the stored order with the same id wholesale.
	// It returns ErrOrderNotFound when no such order exists; it never
	// inserts.
	ReplaceOrder(ctx context.Context, order model.Order) error
	// DeleteOrder removes the order with the given id. Deleting an absent
	// id is a no-op.
	DeleteOrder(ctx context.Context, id int64) error
	// DeleteAllOrders resets the history to empty.
	DeleteAllOrders(ctx context.Context) error
}

// MenuStore is CRUD over the menu catalog.
type MenuStore interface {
	// ListMenus returns the catalog, optionally filtered by category
	// (case-insensitive; empty string means no filter).
	ListMenus(ctx context.Context, category string) ([]model.MenuItem, error)
	// GetMenu returns the item with the given id or ErrMenuNotFound.
	GetMenu(ctx context.Context, id int64) (model.MenuItem, error)
	// CreateMenu adds a new item and returns its generated id.
	CreateMenu(ctx context.Context, item model.MenuItem) (int64, error)
	// UpdateMenu overwrites the item with the given id or returns
	// ErrMenuNotFound.
	UpdateMenu(ctx context.Context, item model.MenuItem) error
	// DeleteMenu removes the item. Deleting an absent id is a no-op.
	DeleteMenu(ctx context.Context, id int64) error
}

// Store is the full persistence surface the application wires up.
type Store interface {
	MenuStore
	OrderStore
}

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

// DefaultMenus returns the catalog seeded on first use.
func DefaultMenus() []model.MenuItem {
	return []model.MenuItem{
		{ID: 1, Name: "Pizza Margherita", Price: d("12.50"), Category: "pizza"},
		{ID: 2, Name: "Pizza 4 Fromages", Price: d("14.00"), Category: "pizza"},
		{ID: 3, Name: "Tacos Poulet", Price: d("8.00"), Category: "tacos"},
		{ID: 4, Name: "Tacos Viande", Price: d("9.00"), Category: "tacos"},
		{ID: 5, Name: "Burger Classic", Price: d("10.00"), Category: "burger"},
		{ID: 6, Name: "Burger Cheese", Price: d("11.50"), Category: "burger"},
		{ID: 7, Name: "Coca Cola", Price: d("2.50"), Category: "boisson"},
		{ID: 8, Name: "Fanta", Price: d("2.50"), Category: "boisson"},
		{ID: 9, Name: "Salade Cesar", Price: d("7.00"), Category: "salade"},
		{ID: 10, Name: "Salade Grecque", Price: d("7.50"), Category: "salade"},
	}
}
