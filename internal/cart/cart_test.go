package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caisseresto/api/internal/model"
)

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

var (
	pizza = model.MenuItem{ID: 1, Name: "Pizza Margherita", Price: price("12.50"), Category: "pizza"}
	coke  = model.MenuItem{ID: 7, Name: "Coca Cola", Price: price("2.50"), Category: "boisson"}
)

func fixedID(id int64) IDFunc {
	return func() int64 { return id }
}

func fixedClock(s string) ClockFunc {
	return func() string { return s }
}

func TestAddItemMergesByID(t *testing.T) {
	c := New()
	c.AddItem(pizza)
	c.AddItem(coke)
	c.AddItem(pizza)
	c.AddItem(pizza)

	require.Equal(t, 2, c.Len())
	lines := c.Lines()
	assert.Equal(t, int32(3), lines[0].Qty)
	assert.Equal(t, "Pizza Margherita", lines[0].Name)
	assert.Equal(t, int32(1), lines[1].Qty)
}

func TestTotalTracksMutations(t *testing.T) {
	c := New()
	assert.True(t, c.Total().IsZero())

	c.AddItem(pizza)
	c.AddItem(pizza)
	c.AddItem(coke)
	assert.True(t, c.Total().Equal(price("27.50")), "got %s", c.Total())

	c.ChangeQuantity(pizza.ID, 1)
	assert.True(t, c.Total().Equal(price("40.00")), "got %s", c.Total())

	c.RemoveItem(coke.ID)
	assert.True(t, c.Total().Equal(price("37.50")), "got %s", c.Total())
}

func TestChangeQuantityRemovesAtZero(t *testing.T) {
	c := New()
	c.AddItem(pizza)
	c.ChangeQuantity(pizza.ID, 1)
	require.Equal(t, int32(2), c.Lines()[0].Qty)

	c.ChangeQuantity(pizza.ID, -1)
	require.Equal(t, int32(1), c.Lines()[0].Qty)

	// Decrementing a single-unit line drops it.
	c.ChangeQuantity(pizza.ID, -1)
	assert.Equal(t, 0, c.Len())

	// Unknown id is a no-op.
	c.ChangeQuantity(999, -1)
	assert.Equal(t, 0, c.Len())
}

func TestRemoveItemIdempotent(t *testing.T) {
	c := New()
	c.AddItem(pizza)
	c.RemoveItem(coke.ID)
	assert.Equal(t, 1, c.Len())
	c.RemoveItem(pizza.ID)
	assert.Equal(t, 0, c.Len())
	c.RemoveItem(pizza.ID)
	assert.Equal(t, 0, c.Len())
}

func TestAddLineMergesAndSkipsNonPositive(t *testing.T) {
	c := New()
	c.AddLine(model.OrderLine{ID: 1, Name: "Pizza", Price: price("15"), Qty: 2})
	c.AddLine(model.OrderLine{ID: 1, Name: "Pizza", Price: price("15"), Qty: 3})
	c.AddLine(model.OrderLine{ID: 2, Name: "Fanta", Price: price("2.50"), Qty: 0})

	require.Equal(t, 1, c.Len())
	assert.Equal(t, int32(5), c.Lines()[0].Qty)
}

func TestToOrderEmptyCartRefused(t *testing.T) {
	c := New()
	_, err := c.ToOrder(fixedID(1), fixedClock("01/01/2026 12:00"))
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestToOrderSnapshotsDeepCopy(t *testing.T) {
	c := New()
	c.AddItem(model.MenuItem{ID: 1, Name: "Pizza", Price: price("15"), Category: "pizza"})
	c.AddItem(model.MenuItem{ID: 1, Name: "Pizza", Price: price("15"), Category: "pizza"})

	order, err := c.ToOrder(fixedID(42), fixedClock("01/01/2026 12:00"))
	require.NoError(t, err)

	assert.Equal(t, int64(42), order.ID)
	assert.Equal(t, "01/01/2026 12:00", order.Date)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int32(2), order.Items[0].Qty)
	assert.True(t, order.Total.Equal(price("30")), "got %s", order.Total)

	// Post-commit mutation must not leak into the snapshot.
	c.ChangeQuantity(1, 5)
	c.AddItem(coke)
	assert.Equal(t, int32(2), order.Items[0].Qty)
	require.Len(t, order.Items, 1)
}

func TestMonotonicIDNeverRepeats(t *testing.T) {
	gen := MonotonicID()
	prev := gen()
	for i := 0; i < 1000; i++ {
		next := gen()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestResetEmptiesCart(t *testing.T) {
	c := New()
	c.AddItem(pizza)
	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Total().IsZero())
}
