// Package cart implements the in-progress order: the transient set of
// selected lines a cashier builds up before committing it as an Order.
package cart

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caisseresto/api/internal/model"
)

// ErrEmptyCart is returned by ToOrder when there is nothing to commit.
var ErrEmptyCart = errors.New("cart is empty")

// DateFormat is the timestamp layout stamped onto committed orders.
const DateFormat = "02/01/2006 15:04"

// IDFunc generates a new order id.
type IDFunc func() int64

// ClockFunc returns the formatted timestamp for a commit.
type ClockFunc func() string

// Now returns the current time formatted with DateFormat.
func Now() string {
	return time.Now().Format(DateFormat)
}

// MonotonicID returns an IDFunc producing Unix-millisecond ids that never
// repeat or decrease within the process, even when two commits land in the
// same millisecond.
func MonotonicID() IDFunc {
	var mu sync.Mutex
	var last int64
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		id := time.Now().UnixMilli()
		if id <= last {
			id = last + 1
		}
		last = id
		return id
	}
}

// Cart accumulates order lines. It is not safe for concurrent use; a cart
// belongs to a single session.
type Cart struct {
	lines []model.OrderLine
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem records one unit of the given menu item. A line with the same id
// has its quantity incremented; otherwise a new line is appended with a
// snapshot of the item's name, price, and category.
func (c *Cart) AddItem(mi model.MenuItem) {
	for i := range c.lines {
		if c.lines[i].ID == mi.ID {
			c.lines[i].Qty++
			return
		}
	}
	c.lines = append(c.lines, model.OrderLine{
		ID:       mi.ID,
		Name:     mi.Name,
		Price:    mi.Price,
		Qty:      1,
		Category: mi.Category,
	})
}

// AddLine merges a full line into the cart, summing quantities when a line
// with the same id already exists. Lines with a non-positive quantity are
// ignored. Used to reload a stored order into a fresh cart for the modify
// flow, and to collapse duplicate ids in incoming payloads.
func (c *Cart) AddLine(line model.OrderLine) {
	if line.Qty <= 0 {
		return
	}
	for i := range c.lines {
		if c.lines[i].ID == line.ID {
			c.lines[i].Qty += line.Qty
			return
		}
	}
	c.lines = append(c.lines, line)
}

// ChangeQuantity adjusts the quantity of the line with the given id by
// delta. A resulting quantity of zero or below removes the line, so a
// decrement on a single-unit line drops it. Unknown ids are a no-op.
func (c *Cart) ChangeQuantity(id int64, delta int32) {
	for i := range c.lines {
		if c.lines[i].ID != id {
			continue
		}
		if c.lines[i].Qty+delta <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
		c.lines[i].Qty += delta
		return
	}
}

// RemoveItem drops the line with the given id. Removing an absent id is a
// no-op.
func (c *Cart) RemoveItem(id int64) {
	for i := range c.lines {
		if c.lines[i].ID == id {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Lines returns a deep copy of the current lines in insertion order.
func (c *Cart) Lines() []model.OrderLine {
	return model.CloneLines(c.lines)
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Total recomputes the cart total from the current lines.
func (c *Cart) Total() decimal.Decimal {
	return model.SumLines(c.lines)
}

// Reset empties the cart.
func (c *Cart) Reset() {
	c.lines = nil
}

// ToOrder snapshots the cart into a new Order with a freshly generated id
// and timestamp. The returned order owns a deep copy of the lines, so
// mutating the cart afterwards does not touch it. An empty cart is refused.
func (c *Cart) ToOrder(gen IDFunc, now ClockFunc) (model.Order, error) {
	if len(c.lines) == 0 {
		return model.Order{}, ErrEmptyCart
	}
	return model.Order{
		ID:    gen(),
		Date:  now(),
		Items: model.CloneLines(c.lines),
		Total: c.Total(),
	}, nil
}
