// Package application 编排订单用例：结账、查询与 Saga 分支
package application

import (
	"context"
	"sort"

	"github.com/wyfcoding/pkg/logging"

	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	customer "github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
)

// Transactor 事务边界抽象，生产实现为 pkg/db 的 Transact
type Transactor interface {
	Transact(ctx context.Context, fn func(txCtx context.Context) error) error
}

// OrderService 订单应用服务
type OrderService struct {
	tx        Transactor
	orders    domain.OrderRepository
	carts     cart.CartRepository
	products  catalog.ProductRepository
	customers customer.CustomerRepository
	publisher domain.EventPublisher
}

// NewOrderService 构造函数
func NewOrderService(
	tx Transactor,
	orders domain.OrderRepository,
	carts cart.CartRepository,
	products catalog.ProductRepository,
	customers customer.CustomerRepository,
	publisher domain.EventPublisher,
) *OrderService {
	return &OrderService{tx: tx, orders: orders, carts: carts, products: products, customers: customers, publisher: publisher}
}

// CheckoutCommand 结账命令
type CheckoutCommand struct {
	CartID     uint
	CustomerID uint
	AddressID  *uint
}

// Checkout 将购物车转为订单。
// 整个转换在单个数据库事务内完成：按商品 ID 升序逐个加行锁，
// 校验库存并扣减，写入订单快照，清空购物车，写 outbox 事件。
// 任何一步失败都回滚全部变更。
func (s *OrderService) Checkout(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error) {
	if err := s.validateAddress(ctx, cmd); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.tx.Transact(ctx, func(txCtx context.Context) error {
		shoppingCart, err := s.carts.Get(txCtx, cmd.CartID)
		if err != nil {
			return err
		}
		if !shoppingCart.AccessibleBy(cmd.CustomerID) {
			return cart.ErrCartAccessDenied
		}
		if shoppingCart.IsEmpty() {
			return domain.ErrEmptyCart
		}

		// 固定加锁顺序，避免并发结账互相死锁
		ids := make([]uint, 0, len(shoppingCart.Items))
		for _, line := range shoppingCart.Items {
			ids = append(ids, line.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		products := make(map[uint]*catalog.Product, len(ids))
		for _, id := range ids {
			product, err := s.products.GetForUpdate(txCtx, id)
			if err != nil {
				return err
			}
			products[id] = product
		}

		order, err = domain.BuildFromCart(shoppingCart, cmd.CustomerID, cmd.AddressID, products)
		if err != nil {
			return err
		}

		for _, line := range shoppingCart.Items {
			if err := products[line.ProductID].Reserve(line.Quantity); err != nil {
				return err
			}
		}
		for _, id := range ids {
			if err := s.products.Save(txCtx, products[id]); err != nil {
				return err
			}
		}

		if err := s.orders.Create(txCtx, order); err != nil {
			return err
		}

		shoppingCart.Clear()
		if err := s.carts.Save(txCtx, shoppingCart); err != nil {
			return err
		}

		return s.publisher.PublishOrderPlaced(txCtx, domain.NewOrderPlacedEvent(order))
	})
	if err != nil {
		return nil, err
	}

	logging.Info(ctx, "order placed",
		"order_id", order.ID, "customer_id", order.CustomerID, "total", order.Total.StringFixed(2))
	return order, nil
}

// validateAddress 校验收货地址归属，地址必须属于结账客户
func (s *OrderService) validateAddress(ctx context.Context, cmd CheckoutCommand) error {
	if cmd.AddressID == nil {
		return nil
	}
	owner, err := s.customers.Get(ctx, cmd.CustomerID)
	if err != nil {
		return err
	}
	if !owner.HasAddress(*cmd.AddressID) {
		return customer.ErrAddressNotFound
	}
	return nil
}

// GetOrder 获取订单详情
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// ListOrders 按过滤条件列出订单
func (s *OrderService) ListOrders(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.orders.List(ctx, filter)
}
