package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

func newProduct(id uint, desc string, price string, stock, limit int) *catalog.Product {
	p := &catalog.Product{
		Description: desc,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		StockLimit:  limit,
	}
	p.ID = id
	return p
}

func TestCartAddItemAccumulates(t *testing.T) {
	cart := &Cart{}
	keyboard := newProduct(1, "keyboard", "100.00", 10, 100)

	errored, msgs := cart.AddItem(keyboard, 2, keyboard.Price)
	assert.False(t, errored)
	assert.Empty(t, msgs)

	errored, msgs = cart.AddItem(keyboard, 3, keyboard.Price)
	assert.False(t, errored)
	assert.Empty(t, msgs)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	cart.RecomputeTotal()
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("500.00")))
}

// 累加超过库存时收敛到库存并带提示，这是第二次加购的典型场景
func TestCartAddItemClampsAccumulatedQuantity(t *testing.T) {
	cart := &Cart{}
	mouse := newProduct(2, "mouse", "50.00", 3, 100)

	errored, _ := cart.AddItem(mouse, 2, mouse.Price)
	assert.False(t, errored)

	errored, msgs := cart.AddItem(mouse, 2, mouse.Price)
	assert.True(t, errored)
	assert.Equal(t, []string{"only 3 units of mouse are in stock"}, msgs)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestCartAddItemOutOfStockLeavesNoLine(t *testing.T) {
	cart := &Cart{}
	gone := newProduct(3, "monitor", "900.00", 0, 100)

	errored, msgs := cart.AddItem(gone, 1, gone.Price)
	assert.True(t, errored)
	assert.Equal(t, []string{"monitor is out of stock"}, msgs)
	assert.True(t, cart.IsEmpty())
}

func TestCartSetItemQuantityReplaces(t *testing.T) {
	cart := &Cart{}
	keyboard := newProduct(1, "keyboard", "100.00", 10, 100)

	cart.AddItem(keyboard, 5, keyboard.Price)
	errored, msgs := cart.SetItemQuantity(keyboard, 2, keyboard.Price)
	assert.False(t, errored)
	assert.Empty(t, msgs)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartSetItemQuantityZeroRemovesLine(t *testing.T) {
	cart := &Cart{}
	keyboard := newProduct(1, "keyboard", "100.00", 10, 100)

	cart.AddItem(keyboard, 5, keyboard.Price)
	errored, msgs := cart.SetItemQuantity(keyboard, 0, keyboard.Price)
	assert.False(t, errored)
	assert.Empty(t, msgs)
	assert.True(t, cart.IsEmpty())
}

func TestCartRemoveItemIdempotent(t *testing.T) {
	cart := &Cart{}
	keyboard := newProduct(1, "keyboard", "100.00", 10, 100)
	cart.AddItem(keyboard, 1, keyboard.Price)

	assert.True(t, cart.RemoveItem(keyboard.ID))
	assert.False(t, cart.RemoveItem(keyboard.ID))
	assert.True(t, cart.IsEmpty())

	cart.RecomputeTotal()
	assert.True(t, cart.Total.IsZero())
}

func TestCartTotalMatchesLines(t *testing.T) {
	cart := &Cart{}
	keyboard := newProduct(1, "keyboard", "100.00", 10, 100)
	mouse := newProduct(2, "mouse", "49.90", 10, 100)

	cart.AddItem(keyboard, 2, keyboard.Price)
	cart.AddItem(mouse, 3, mouse.Price)
	cart.RecomputeTotal()

	want := decimal.RequireFromString("349.70")
	assert.True(t, cart.Total.Equal(want), "total %s, want %s", cart.Total, want)
}

func TestCartClear(t *testing.T) {
	cart := &Cart{}
	keyboard := newProduct(1, "keyboard", "100.00", 10, 100)
	cart.AddItem(keyboard, 2, keyboard.Price)
	cart.RecomputeTotal()

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total.IsZero())
}

func TestCartMergeUnionsLines(t *testing.T) {
	keyboard := newProduct(1, "keyboard", "100.00", 10, 100)
	mouse := newProduct(2, "mouse", "50.00", 10, 100)
	products := map[uint]*catalog.Product{1: keyboard, 2: mouse}
	resolve := func(id uint) (*catalog.Product, decimal.Decimal, error) {
		return products[id], products[id].Price, nil
	}

	target := &Cart{}
	target.ID = 1
	target.AddItem(keyboard, 2, keyboard.Price)

	source := &Cart{}
	source.ID = 2
	source.AddItem(keyboard, 1, keyboard.Price)
	source.AddItem(mouse, 3, mouse.Price)

	errored, msgs, err := target.Merge(source, resolve)
	require.NoError(t, err)
	assert.False(t, errored)
	assert.Empty(t, msgs)

	require.Len(t, target.Items, 2)
	assert.Equal(t, 3, target.Item(1).Quantity)
	assert.Equal(t, 3, target.Item(2).Quantity)
	assert.True(t, target.Total.Equal(decimal.RequireFromString("450.00")))
}

// 合并后总量超过库存时按常规收敛规则处理
func TestCartMergeClampsCombinedQuantity(t *testing.T) {
	mouse := newProduct(2, "mouse", "50.00", 4, 100)
	resolve := func(id uint) (*catalog.Product, decimal.Decimal, error) {
		return mouse, mouse.Price, nil
	}

	target := &Cart{}
	target.ID = 1
	target.AddItem(mouse, 3, mouse.Price)

	source := &Cart{}
	source.ID = 2
	source.AddItem(mouse, 3, mouse.Price)

	errored, msgs, err := target.Merge(source, resolve)
	require.NoError(t, err)
	assert.True(t, errored)
	assert.Equal(t, []string{"only 4 units of mouse are in stock"}, msgs)
	assert.Equal(t, 4, target.Item(2).Quantity)
}

func TestCartMergeSameCartNoOp(t *testing.T) {
	keyboard := newProduct(1, "keyboard", "100.00", 10, 100)
	cart := &Cart{}
	cart.ID = 7
	cart.AddItem(keyboard, 2, keyboard.Price)

	errored, msgs, err := cart.Merge(cart, nil)
	require.NoError(t, err)
	assert.False(t, errored)
	assert.Empty(t, msgs)
	assert.Equal(t, 2, cart.Item(1).Quantity)
}

func TestCartMergeNilSource(t *testing.T) {
	cart := &Cart{}
	cart.ID = 7
	_, _, err := cart.Merge(nil, nil)
	assert.ErrorIs(t, err, ErrCartNotFound)
}
