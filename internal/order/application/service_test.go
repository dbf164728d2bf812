package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	customer "github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
)

// passthroughTx 直通事务，仅用于单测
type passthroughTx struct{}

func (passthroughTx) Transact(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeCartRepo struct {
	carts map[uint]*cart.Cart
}

func (r *fakeCartRepo) Create(context.Context) (*cart.Cart, error) { return nil, nil }

func (r *fakeCartRepo) Get(_ context.Context, id uint) (*cart.Cart, error) {
	c, ok := r.carts[id]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return c, nil
}

func (r *fakeCartRepo) Save(_ context.Context, c *cart.Cart) error {
	r.carts[c.ID] = c
	return nil
}

func (r *fakeCartRepo) Delete(_ context.Context, id uint) error {
	delete(r.carts, id)
	return nil
}

type fakeProductRepo struct {
	products map[uint]*catalog.Product
	locked   []uint
}

func (r *fakeProductRepo) Get(_ context.Context, id uint) (*catalog.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) GetForUpdate(ctx context.Context, id uint) (*catalog.Product, error) {
	r.locked = append(r.locked, id)
	return r.Get(ctx, id)
}

func (r *fakeProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) List(context.Context, string, []string, int, int) ([]*catalog.Product, int64, error) {
	return nil, 0, nil
}
func (r *fakeProductRepo) Delete(context.Context, uint) error { return nil }
func (r *fakeProductRepo) AttachCategory(context.Context, *catalog.Product, *catalog.Category) error {
	return nil
}
func (r *fakeProductRepo) DetachCategory(context.Context, *catalog.Product, *catalog.Category) error {
	return nil
}

type fakeOrderRepo struct {
	orders map[uint]*domain.Order
	nextID uint
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	order.ID = r.nextID
	r.nextID++
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) Get(_ context.Context, id uint) (*domain.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) GetByGID(_ context.Context, gid string) (*domain.Order, error) {
	for _, order := range r.orders {
		if order.SagaGID == gid {
			return order, nil
		}
	}
	// 仓储可能包一层上下文，调用方必须用 errors.Is 判断
	return nil, fmt.Errorf("order by gid %s: %w", gid, domain.ErrOrderNotFound)
}

func (r *fakeOrderRepo) List(_ context.Context, filter domain.ListFilter) ([]*domain.Order, int64, error) {
	var out []*domain.Order
	for _, order := range r.orders {
		if filter.CustomerID != 0 && order.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, order)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

type fakeCustomerRepo struct {
	customers map[uint]*customer.Customer
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) Get(_ context.Context, id uint) (*customer.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, customer.ErrCustomerNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) GetByEmail(context.Context, string) (*customer.Customer, error) {
	return nil, customer.ErrCustomerNotFound
}
func (r *fakeCustomerRepo) Save(context.Context, *customer.Customer) error      { return nil }
func (r *fakeCustomerRepo) AddAddress(context.Context, *customer.Address) error { return nil }
func (r *fakeCustomerRepo) DeleteAddress(context.Context, uint, uint) error     { return nil }

type fakePublisher struct {
	events []*domain.OrderPlacedEvent
}

func (p *fakePublisher) PublishOrderPlaced(_ context.Context, event *domain.OrderPlacedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func setup() (*OrderService, *fakeCartRepo, *fakeProductRepo, *fakeOrderRepo, *fakePublisher) {
	keyboard := &catalog.Product{Description: "keyboard", Price: decimal.RequireFromString("100.00"), Stock: 10, StockLimit: 100}
	keyboard.ID = 1
	mouse := &catalog.Product{Description: "mouse", Price: decimal.RequireFromString("50.00"), Stock: 3, StockLimit: 100}
	mouse.ID = 2

	buyer := &customer.Customer{}
	buyer.ID = 7
	buyer.Addresses = []customer.Address{{}}
	buyer.Addresses[0].ID = 30
	buyer.Addresses[0].CustomerID = 7

	carts := &fakeCartRepo{carts: make(map[uint]*cart.Cart)}
	products := &fakeProductRepo{products: map[uint]*catalog.Product{1: keyboard, 2: mouse}}
	orders := &fakeOrderRepo{orders: make(map[uint]*domain.Order), nextID: 1}
	customers := &fakeCustomerRepo{customers: map[uint]*customer.Customer{7: buyer}}
	publisher := &fakePublisher{}
	svc := NewOrderService(passthroughTx{}, orders, carts, products, customers, publisher)
	return svc, carts, products, orders, publisher
}

func cartWithLines(id uint, lines ...cart.CartItem) *cart.Cart {
	c := &cart.Cart{Items: lines}
	c.ID = id
	c.RecomputeTotal()
	return c
}

func TestCheckoutHappyPath(t *testing.T) {
	svc, carts, products, _, publisher := setup()
	carts.carts[5] = cartWithLines(5,
		cart.CartItem{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("100.00")},
		cart.CartItem{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("50.00")},
	)

	order, err := svc.Checkout(context.Background(), CheckoutCommand{CartID: 5, CustomerID: 7})
	require.NoError(t, err)

	assert.True(t, order.Total.Equal(decimal.RequireFromString("250.00")))
	require.Len(t, order.Items, 2)

	// 库存精确扣减一次
	assert.Equal(t, 8, products.products[1].Stock)
	assert.Equal(t, 2, products.products[2].Stock)

	// 购物车被清空
	assert.True(t, carts.carts[5].IsEmpty())
	assert.True(t, carts.carts[5].Total.IsZero())

	// 下单事件已发布
	require.Len(t, publisher.events, 1)
	assert.Equal(t, order.ID, publisher.events[0].OrderID)
}

// 商品按 ID 升序加锁，防止并发结账死锁
func TestCheckoutLocksProductsInOrder(t *testing.T) {
	svc, carts, products, _, _ := setup()
	carts.carts[5] = cartWithLines(5,
		cart.CartItem{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("50.00")},
		cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("100.00")},
	)

	_, err := svc.Checkout(context.Background(), CheckoutCommand{CartID: 5, CustomerID: 7})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, products.locked)
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, carts, _, _, publisher := setup()
	carts.carts[5] = cartWithLines(5)

	_, err := svc.Checkout(context.Background(), CheckoutCommand{CartID: 5, CustomerID: 7})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, publisher.events)
}

func TestCheckoutUnknownCart(t *testing.T) {
	svc, _, _, _, _ := setup()
	_, err := svc.Checkout(context.Background(), CheckoutCommand{CartID: 99, CustomerID: 7})
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

// 已归属其他客户的购物车不可被结账
func TestCheckoutForeignCartDenied(t *testing.T) {
	svc, carts, _, orders, publisher := setup()
	foreign := cartWithLines(5,
		cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("100.00")},
	)
	foreign.Claim(9)
	carts.carts[5] = foreign

	_, err := svc.Checkout(context.Background(), CheckoutCommand{CartID: 5, CustomerID: 7})
	assert.ErrorIs(t, err, cart.ErrCartAccessDenied)
	assert.Empty(t, orders.orders)
	assert.Empty(t, publisher.events)
	assert.Len(t, carts.carts[5].Items, 1)
}

// Saga 结账同样拒绝他人的购物车，且在向 dtm 提交前就返回
func TestCheckoutSagaForeignCartDenied(t *testing.T) {
	svc, carts, _, _, _ := setup()
	foreign := cartWithLines(5,
		cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("100.00")},
	)
	foreign.Claim(9)
	carts.carts[5] = foreign

	cfg := SagaConfig{Server: "http://localhost:36789/api/dtmsvr", BaseURL: "http://localhost:8080"}
	_, err := svc.CheckoutSaga(context.Background(), cfg, CheckoutCommand{CartID: 5, CustomerID: 7})
	assert.ErrorIs(t, err, cart.ErrCartAccessDenied)
}

func TestCheckoutWithOwnAddress(t *testing.T) {
	svc, carts, _, _, _ := setup()
	carts.carts[5] = cartWithLines(5,
		cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("100.00")},
	)

	addressID := uint(30)
	order, err := svc.Checkout(context.Background(), CheckoutCommand{CartID: 5, CustomerID: 7, AddressID: &addressID})
	require.NoError(t, err)
	require.NotNil(t, order.AddressID)
	assert.Equal(t, addressID, *order.AddressID)
}

// 地址必须属于结账客户，陌生地址按不存在处理
func TestCheckoutForeignAddressRejected(t *testing.T) {
	svc, carts, _, orders, _ := setup()
	carts.carts[5] = cartWithLines(5,
		cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("100.00")},
	)

	addressID := uint(99)
	_, err := svc.Checkout(context.Background(), CheckoutCommand{CartID: 5, CustomerID: 7, AddressID: &addressID})
	assert.ErrorIs(t, err, customer.ErrAddressNotFound)
	assert.Empty(t, orders.orders)
}

// 任一行库存不足时整单失败，不产生订单与事件
func TestCheckoutInsufficientStockAborts(t *testing.T) {
	svc, carts, _, orders, publisher := setup()
	carts.carts[5] = cartWithLines(5,
		cart.CartItem{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("100.00")},
		cart.CartItem{ProductID: 2, Quantity: 5, Price: decimal.RequireFromString("50.00")},
	)

	_, err := svc.Checkout(context.Background(), CheckoutCommand{CartID: 5, CustomerID: 7})
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "mouse")
	assert.Empty(t, orders.orders)
	assert.Empty(t, publisher.events)
}

func TestCreateOrderBranchIdempotentByGID(t *testing.T) {
	svc, carts, _, orders, publisher := setup()
	carts.carts[5] = cartWithLines(5,
		cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("100.00")},
	)
	payload := &SagaCheckoutPayload{
		CartID:     5,
		CustomerID: 7,
		Items:      []SagaLine{{ProductID: 1, Description: "keyboard", Quantity: 1, Price: "100.00"}},
	}

	first, err := svc.CreateOrderBranch(context.Background(), "gid-1", payload)
	require.NoError(t, err)
	second, err := svc.CreateOrderBranch(context.Background(), "gid-1", payload)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, orders.orders, 1)
	assert.Len(t, publisher.events, 1)
}

func TestCancelOrderBranch(t *testing.T) {
	svc, carts, _, orders, _ := setup()
	carts.carts[5] = cartWithLines(5,
		cart.CartItem{ProductID: 1, Quantity: 1, Price: decimal.RequireFromString("100.00")},
	)
	payload := &SagaCheckoutPayload{
		CartID:     5,
		CustomerID: 7,
		Items:      []SagaLine{{ProductID: 1, Description: "keyboard", Quantity: 1, Price: "100.00"}},
	}

	order, err := svc.CreateOrderBranch(context.Background(), "gid-2", payload)
	require.NoError(t, err)

	require.NoError(t, svc.CancelOrderBranch(context.Background(), "gid-2"))
	assert.Equal(t, domain.StatusCancelled, orders.orders[order.ID].Status)

	// 订单不存在时补偿为幂等空操作
	assert.NoError(t, svc.CancelOrderBranch(context.Background(), "gid-missing"))
}

func TestReserveAndReleaseStockBranches(t *testing.T) {
	svc, _, products, _, _ := setup()
	items := []SagaLine{{ProductID: 1, Quantity: 4}}

	require.NoError(t, svc.ReserveStockBranch(context.Background(), items))
	assert.Equal(t, 6, products.products[1].Stock)

	require.NoError(t, svc.ReleaseStockBranch(context.Background(), items))
	assert.Equal(t, 10, products.products[1].Stock)
}

func TestReserveStockBranchInsufficient(t *testing.T) {
	svc, _, _, _, _ := setup()
	err := svc.ReserveStockBranch(context.Background(), []SagaLine{{ProductID: 2, Quantity: 99}})
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestListOrdersDefaultsLimit(t *testing.T) {
	svc, _, _, orders, _ := setup()
	order := &domain.Order{CustomerID: 7, Total: decimal.Zero}
	require.NoError(t, orders.Create(context.Background(), order))

	result, total, err := svc.ListOrders(context.Background(), domain.ListFilter{CustomerID: 7})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, result, 1)
}
