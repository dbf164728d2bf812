package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dtm-labs/client/dtmcli"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"

	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
)

// SagaConfig Saga 结账配置
type SagaConfig struct {
	// DTM 服务地址，如 http://localhost:36789/api/dtmsvr
	Server string
	// 本服务对外可达的基础 URL，分支回调地址由此拼接
	BaseURL string
}

// SagaLine Saga 载荷中的订单行快照
type SagaLine struct {
	ProductID   uint   `json:"product_id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

// SagaCheckoutPayload 提交时固化的结账载荷，两个分支共用
type SagaCheckoutPayload struct {
	CartID     uint       `json:"cart_id"`
	CustomerID uint       `json:"customer_id"`
	AddressID  *uint      `json:"address_id,omitempty"`
	Items      []SagaLine `json:"items"`
}

// CheckoutSaga 以 dtm Saga 方式结账，用于目录与订单分库部署的场景。
// 正向分支：扣库存、建订单；补偿分支：回补库存、取消订单。
// 返回全局事务 ID，最终结果由 dtm 驱动分支接口达成。
func (s *OrderService) CheckoutSaga(ctx context.Context, cfg SagaConfig, cmd CheckoutCommand) (gid string, err error) {
	if err := s.validateAddress(ctx, cmd); err != nil {
		return "", err
	}
	shoppingCart, err := s.carts.Get(ctx, cmd.CartID)
	if err != nil {
		return "", err
	}
	if !shoppingCart.AccessibleBy(cmd.CustomerID) {
		return "", cart.ErrCartAccessDenied
	}
	if shoppingCart.IsEmpty() {
		return "", domain.ErrEmptyCart
	}

	payload := &SagaCheckoutPayload{
		CartID:     cmd.CartID,
		CustomerID: cmd.CustomerID,
		AddressID:  cmd.AddressID,
	}
	for _, line := range shoppingCart.Items {
		product, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			return "", err
		}
		payload.Items = append(payload.Items, SagaLine{
			ProductID:   line.ProductID,
			Description: product.Description,
			Quantity:    line.Quantity,
			Price:       line.Price.StringFixed(2),
		})
	}

	// dtm 不可达时 MustGenGid 会 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dtm unavailable: %v", r)
		}
	}()
	gid = dtmcli.MustGenGid(cfg.Server)

	saga := dtmcli.NewSaga(cfg.Server, gid).
		Add(
			cfg.BaseURL+"/api/v1/orders/saga/reserve-stock",
			cfg.BaseURL+"/api/v1/orders/saga/release-stock",
			payload,
		).
		Add(
			cfg.BaseURL+"/api/v1/orders/saga/create",
			cfg.BaseURL+"/api/v1/orders/saga/cancel",
			payload,
		)
	if err := saga.Submit(); err != nil {
		return "", err
	}

	logging.Info(ctx, "checkout saga submitted", "gid", gid, "cart_id", cmd.CartID)
	return gid, nil
}

// ReserveStockBranch Saga 正向分支：按行锁扣减库存
func (s *OrderService) ReserveStockBranch(ctx context.Context, items []SagaLine) error {
	return s.tx.Transact(ctx, func(txCtx context.Context) error {
		for _, item := range sortedByProduct(items) {
			product, err := s.products.GetForUpdate(txCtx, item.ProductID)
			if err != nil {
				return err
			}
			if err := product.Reserve(item.Quantity); err != nil {
				return err
			}
			if err := s.products.Save(txCtx, product); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReleaseStockBranch Saga 补偿分支：回补库存
func (s *OrderService) ReleaseStockBranch(ctx context.Context, items []SagaLine) error {
	return s.tx.Transact(ctx, func(txCtx context.Context) error {
		for _, item := range sortedByProduct(items) {
			product, err := s.products.GetForUpdate(txCtx, item.ProductID)
			if err != nil {
				return err
			}
			product.Release(item.Quantity)
			if err := s.products.Save(txCtx, product); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateOrderBranch Saga 正向分支：按载荷快照建订单并清空购物车。
// 以 gid 去重，重复调用直接成功。
func (s *OrderService) CreateOrderBranch(ctx context.Context, gid string, payload *SagaCheckoutPayload) (*domain.Order, error) {
	if existing, err := s.orders.GetByGID(ctx, gid); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrOrderNotFound) {
		return nil, err
	}

	order := &domain.Order{
		CustomerID: payload.CustomerID,
		AddressID:  payload.AddressID,
		Status:     domain.StatusCreated,
		SagaGID:    gid,
		Total:      decimal.Zero,
	}
	for _, item := range payload.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price in saga payload: %w", err)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   item.ProductID,
			Description: item.Description,
			Price:       price,
			Quantity:    item.Quantity,
		})
		order.Total = order.Total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	err := s.tx.Transact(ctx, func(txCtx context.Context) error {
		if err := s.orders.Create(txCtx, order); err != nil {
			return err
		}
		shoppingCart, err := s.carts.Get(txCtx, payload.CartID)
		if err != nil {
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
	return order, nil
}

// CancelOrderBranch Saga 补偿分支：将 gid 对应的订单标记为取消。
// 订单尚未创建时为幂等空操作。
func (s *OrderService) CancelOrderBranch(ctx context.Context, gid string) error {
	order, err := s.orders.GetByGID(ctx, gid)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.orders.UpdateStatus(ctx, order.ID, domain.StatusCancelled)
}

func sortedByProduct(items []SagaLine) []SagaLine {
	sorted := append([]SagaLine(nil), items...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	return sorted
}
