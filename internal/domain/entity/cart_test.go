package entity

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widget(stock int) *CatalogProduct {
	return &CatalogProduct{
		ID:            uuid.New(),
		Name:          "Widget",
		Price:         decimal.RequireFromString("9.99"),
		StockQuantity: stock,
	}
}

func TestCart_AddOrAccumulate_NewLine(t *testing.T) {
	cart := NewCart(uuid.New())
	product := widget(10)

	err := cart.AddOrAccumulate(product, 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	item := cart.Items[0]
	assert.Equal(t, product.ID, item.ProductID)
	assert.Equal(t, "Widget", item.ProductName)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, cart.ID, item.CartID)
	assert.True(t, cart.TotalAmount().Equal(decimal.RequireFromString("19.98")))
	assert.NotNil(t, cart.UpdatedAt)
}

func TestCart_AddOrAccumulate_AccumulatesOnExistingLine(t *testing.T) {
	cart := NewCart(uuid.New())
	product := widget(10)

	require.NoError(t, cart.AddOrAccumulate(product, 2))
	require.NoError(t, cart.AddOrAccumulate(product, 3))

	require.Len(t, cart.Items, 1, "repeated adds must never create a second line for the same product")
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems())
}

func TestCart_AddOrAccumulate_RefreshesSnapshotOnAccumulate(t *testing.T) {
	cart := NewCart(uuid.New())
	product := widget(10)

	require.NoError(t, cart.AddOrAccumulate(product, 1))

	// Catalog price and name changed between adds; the line must reflect
	// the most recent fetch.
	product.Name = "Widget Pro"
	product.Price = decimal.RequireFromString("12.50")
	require.NoError(t, cart.AddOrAccumulate(product, 1))

	item := cart.Items[0]
	assert.Equal(t, "Widget Pro", item.ProductName)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("12.50")))
}

func TestCart_AddOrAccumulate_StockBoundary(t *testing.T) {
	cart := NewCart(uuid.New())
	product := widget(5)

	// Adding exactly the available stock succeeds.
	require.NoError(t, cart.AddOrAccumulate(product, 5))

	// One more unit pushes the cumulative quantity to 6 and must fail,
	// leaving the cart unchanged.
	err := cart.AddOrAccumulate(product, 1)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Widget", stockErr.ProductName)
	assert.Equal(t, 6, stockErr.RequestedQuantity)
	assert.Equal(t, 5, stockErr.AvailableStock)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCart_AddOrAccumulate_InvalidQuantity(t *testing.T) {
	cart := NewCart(uuid.New())
	product := widget(5)

	assert.ErrorIs(t, cart.AddOrAccumulate(product, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, cart.AddOrAccumulate(product, -3), ErrInvalidQuantity)
	assert.Empty(t, cart.Items)
}

func TestCart_SetItemQuantity(t *testing.T) {
	cart := NewCart(uuid.New())
	product := widget(5)
	require.NoError(t, cart.AddOrAccumulate(product, 2))
	itemID := cart.Items[0].ID

	// Absolute set, not additive.
	require.NoError(t, cart.SetItemQuantity(itemID, 4, product))
	assert.Equal(t, 4, cart.Items[0].Quantity)

	// Over stock fails and leaves the line untouched.
	err := cart.SetItemQuantity(itemID, 6, product)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 6, stockErr.RequestedQuantity)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	assert.ErrorIs(t, cart.SetItemQuantity(itemID, 0, product), ErrInvalidQuantity)
	assert.ErrorIs(t, cart.SetItemQuantity(uuid.New(), 1, product), ErrItemNotFound)
}

func TestCart_RemoveItem(t *testing.T) {
	cart := NewCart(uuid.New())
	require.NoError(t, cart.AddOrAccumulate(widget(5), 2))
	other := widget(5)
	require.NoError(t, cart.AddOrAccumulate(other, 1))
	itemID := cart.Items[0].ID

	require.NoError(t, cart.RemoveItem(itemID))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, other.ID, cart.Items[0].ProductID)

	// Removing a nonexistent item fails and leaves the items unchanged.
	err := cart.RemoveItem(uuid.New())
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Len(t, cart.Items, 1)
}

func TestCart_ClearItems_Idempotent(t *testing.T) {
	cart := NewCart(uuid.New())
	require.NoError(t, cart.AddOrAccumulate(widget(5), 3))

	cart.ClearItems()
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount().IsZero())

	// Second clear on an already-empty cart is a no-op.
	cart.ClearItems()
	assert.Empty(t, cart.Items)
}

func TestCart_DerivedTotals_RandomItemSets(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for range 50 {
		cart := NewCart(uuid.New())
		wantAmount := decimal.Zero
		wantItems := 0

		for n := rng.Intn(8); n >= 0; n-- {
			price := decimal.NewFromInt(int64(rng.Intn(10000))).Div(decimal.NewFromInt(100))
			qty := 1 + rng.Intn(9)
			product := &CatalogProduct{
				ID:            uuid.New(),
				Name:          "P",
				Price:         price,
				StockQuantity: qty,
			}
			require.NoError(t, cart.AddOrAccumulate(product, qty))

			wantAmount = wantAmount.Add(price.Mul(decimal.NewFromInt(int64(qty))))
			wantItems += qty
		}

		assert.True(t, cart.TotalAmount().Equal(wantAmount),
			"total %s != expected %s", cart.TotalAmount(), wantAmount)
		assert.Equal(t, wantItems, cart.TotalItems())

		// Product uniqueness holds after any sequence of adds.
		seen := map[uuid.UUID]bool{}
		for _, item := range cart.Items {
			assert.False(t, seen[item.ProductID])
			seen[item.ProductID] = true
		}
	}
}
