package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

func product(id uint, desc string, price string, stock int) *catalog.Product {
	p := &catalog.Product{
		Description: desc,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		StockLimit:  100,
	}
	p.ID = id
	return p
}

func cartWith(lines ...cart.CartItem) *cart.Cart {
	c := &cart.Cart{Items: lines}
	c.ID = 1
	c.RecomputeTotal()
	return c
}

func TestBuildFromCartSnapshotsLines(t *testing.T) {
	keyboard := product(1, "keyboard", "100.00", 10)
	mouse := product(2, "mouse", "49.90", 5)
	c := cartWith(
		cart.CartItem{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("100.00")},
		cart.CartItem{ProductID: 2, Quantity: 3, Price: decimal.RequireFromString("49.90")},
	)

	order, err := BuildFromCart(c, 7, nil, map[uint]*catalog.Product{1: keyboard, 2: mouse})
	require.NoError(t, err)

	assert.Equal(t, uint(7), order.CustomerID)
	assert.Equal(t, StatusCreated, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "keyboard", order.Items[0].Description)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("349.70")))
}

// 快照价与当前商品价不同（特价加购后涨价等）时以快照价成交
func TestBuildFromCartUsesSnapshotPrice(t *testing.T) {
	keyboard := product(1, "keyboard", "120.00", 10)
	c := cartWith(cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("80.00")})

	order, err := BuildFromCart(c, 7, nil, map[uint]*catalog.Product{1: keyboard})
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("80.00")))
	assert.True(t, order.Items[0].Price.Equal(decimal.RequireFromString("80.00")))
}

func TestBuildFromCartEmptyCart(t *testing.T) {
	_, err := BuildFromCart(cartWith(), 7, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = BuildFromCart(nil, 7, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

// 任一行库存不足时整单失败，错误指明商品
func TestBuildFromCartInsufficientStockFailsWhole(t *testing.T) {
	keyboard := product(1, "keyboard", "100.00", 10)
	mouse := product(2, "mouse", "49.90", 1)
	c := cartWith(
		cart.CartItem{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("100.00")},
		cart.CartItem{ProductID: 2, Quantity: 3, Price: decimal.RequireFromString("49.90")},
	)

	_, err := BuildFromCart(c, 7, nil, map[uint]*catalog.Product{1: keyboard, 2: mouse})
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "mouse")
}

func TestBuildFromCartOutOfStock(t *testing.T) {
	gone := product(1, "monitor", "900.00", 0)
	c := cartWith(cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("900.00")})

	_, err := BuildFromCart(c, 7, nil, map[uint]*catalog.Product{1: gone})
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "monitor")
}

func TestBuildFromCartMissingProduct(t *testing.T) {
	c := cartWith(cart.CartItem{ProductID: 9, Quantity: 1, Price: decimal.RequireFromString("1.00")})
	_, err := BuildFromCart(c, 7, nil, map[uint]*catalog.Product{})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestNewOrderPlacedEvent(t *testing.T) {
	order := &Order{
		CustomerID: 7,
		Total:      decimal.RequireFromString("349.70"),
		Items: []OrderItem{
			{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("100.00")},
		},
	}
	order.ID = 42

	event := NewOrderPlacedEvent(order)
	assert.Equal(t, uint(42), event.OrderID)
	assert.Equal(t, "349.70", event.Total)
	require.Len(t, event.Items, 1)
	assert.Equal(t, "100.00", event.Items[0].Price)
	assert.False(t, event.OccurredAt.IsZero())
}
