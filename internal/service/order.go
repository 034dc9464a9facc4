// Package service owns the commit and replace semantics for orders: every
// write is expressed through the cart model so duplicate lines merge and
// totals are always recomputed server-side.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/caisseresto/api/internal/cart"
	"github.com/caisseresto/api/internal/model"
	"github.com/caisseresto/api/internal/ws"
)

// Errors returned by the order service.
var (
	ErrEmptyItems      = errors.New("items are required")
	ErrInvalidQuantity = errors.New("quantity must be > 0")
	ErrNegativePrice   = errors.New("price must be >= 0")
)

// OrderStore defines the store methods needed to write orders.
// Satisfied by *store.FileStore and *store.PostgresStore.
type OrderStore interface {
	AppendOrder(ctx context.Context, order model.Order) error
	ReplaceOrder(ctx context.Context, order model.Order) error
	DeleteOrder(ctx context.Context, id int64) error
	DeleteAllOrders(ctx context.Context) error
}

// Notifier emits a refresh event after the history changes.
// Satisfied by *ws.Hub.
type Notifier interface {
	Broadcast(event ws.Event)
}

// OrderService handles order business logic.
type OrderService struct {
	store    OrderStore
	notifier Notifier
	newID    cart.IDFunc
	now      cart.ClockFunc
	logger   zerolog.Logger
}

// NewOrderService creates a new OrderService. gen and now supply order ids
// and commit timestamps; production callers pass cart.MonotonicID() and
// cart.Now.
func NewOrderService(store OrderStore, notifier Notifier, gen cart.IDFunc, now cart.ClockFunc, logger zerolog.Logger) *OrderService {
	return &OrderService{
		store:    store,
		notifier: notifier,
		newID:    gen,
		now:      now,
		logger:   logger.With().Str("service", "order").Logger(),
	}
}

// fold validates the incoming lines and merges them through a cart, so
// duplicate ids collapse into one line and the total is recomputed from
// the snapshots rather than trusted from the caller.
func fold(lines []model.OrderLine) (*cart.Cart, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}
	c := cart.New()
	for i, l := range lines {
		if l.Qty <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if l.Price.IsNegative() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrNegativePrice)
		}
		c.AddLine(l)
	}
	return c, nil
}

// Create commits the given lines as a new order: fresh id, fresh
// timestamp, recomputed total. The lines are rejected before any
// persistence call when empty or invalid.
func (s *OrderService) Create(ctx context.Context, lines []model.OrderLine) (model.Order, error) {
	c, err := fold(lines)
	if err != nil {
		return model.Order{}, err
	}

	order, err := c.ToOrder(s.newID, s.now)
	if err != nil {
		return model.Order{}, err
	}

	if err := s.store.AppendOrder(ctx, order); err != nil {
		return model.Order{}, fmt.Errorf("append order: %w", err)
	}

	s.logger.Info().Int64("order_id", order.ID).Str("total", order.Total.StringFixed(2)).Msg("order committed")
	s.notifier.Broadcast(ws.Event{Type: ws.EventOrdersChanged})
	return order, nil
}

// Replace substitutes the stored order with the given id wholesale,
// recomputing the date and total from the new lines. A missing id
// surfaces as store.ErrOrderNotFound; nothing is inserted.
func (s *OrderService) Replace(ctx context.Context, id int64, lines []model.OrderLine) (model.Order, error) {
	c, err := fold(lines)
	if err != nil {
		return model.Order{}, err
	}

	order := model.Order{
		ID:    id,
		Date:  s.now(),
		Items: c.Lines(),
		Total: c.Total(),
	}

	if err := s.store.ReplaceOrder(ctx, order); err != nil {
		return model.Order{}, err
	}

	s.logger.Info().Int64("order_id", id).Str("total", order.Total.StringFixed(2)).Msg("order replaced")
	s.notifier.Broadcast(ws.Event{Type: ws.EventOrdersChanged})
	return order, nil
}

// Delete removes the order with the given id; deleting an absent id is a
// no-op.
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("order_id", id).Msg("order deleted")
	s.notifier.Broadcast(ws.Event{Type: ws.EventOrdersChanged})
	return nil
}

// DeleteAll resets the history to empty.
func (s *OrderService) DeleteAll(ctx context.Context) error {
	if err := s.store.DeleteAllOrders(ctx); err != nil {
		return err
	}
	s.logger.Info().Msg("order history cleared")
	s.notifier.Broadcast(ws.Event{Type: ws.EventOrdersChanged})
	return nil
}
