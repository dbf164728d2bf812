// Package domain 包含订单的领域模型
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmptyCart 空购物车不能结账
	ErrEmptyCart = errors.New("cart is empty")
)

// 订单状态
const (
	// StatusCreated 正常创建
	StatusCreated = "created"
	// StatusCancelled Saga 补偿后的取消态
	StatusCancelled = "cancelled"
)

// Order 订单实体
// 创建后不可变，价格与数量均为下单时的快照
type Order struct {
	gorm.Model
	// 下单客户
	CustomerID uint `gorm:"column:customer_id;not null;index" json:"customer_id"`
	// 配送地址，可为空
	AddressID *uint `gorm:"column:address_id" json:"address_id,omitempty"`
	// 状态
	Status string `gorm:"column:status;type:varchar(20);not null;default:'created'" json:"status"`
	// Saga 结账的全局事务 ID，本地事务结账时为空
	SagaGID string `gorm:"column:saga_gid;type:varchar(64);index" json:"-"`
	// 下单时累计的总价
	Total decimal.Decimal `gorm:"column:total;type:decimal(10,2);not null" json:"total"`
	// 行项目
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 订单行项目
type OrderItem struct {
	gorm.Model
	OrderID   uint `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID uint `gorm:"column:product_id;not null;index" json:"product_id"`
	// 下单时的商品描述快照
	Description string `gorm:"column:description;type:varchar(100);not null" json:"description"`
	// 下单时的价格快照
	Price decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	// 数量
	Quantity int `gorm:"column:quantity;not null" json:"quantity"`
}

func (OrderItem) TableName() string { return "order_items" }

// BuildFromCart 从购物车构建订单。
// 纯函数：校验每行库存充足并累计总价，不修改商品也不落库。
// 任一行库存不足时整单失败，错误中指明商品。
func BuildFromCart(c *cart.Cart, customerID uint, addressID *uint, products map[uint]*catalog.Product) (*Order, error) {
	if c == nil || c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := &Order{
		CustomerID: customerID,
		AddressID:  addressID,
		Status:     StatusCreated,
		Total:      decimal.Zero,
	}
	for _, line := range c.Items {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", catalog.ErrProductNotFound, line.ProductID)
		}
		if product.Stock <= 0 {
			return nil, fmt.Errorf("%w: %s is out of stock", catalog.ErrInsufficientStock, product.Description)
		}
		if line.Quantity > product.Stock {
			return nil, fmt.Errorf("%w: %s has %d units left, %d requested",
				catalog.ErrInsufficientStock, product.Description, product.Stock, line.Quantity)
		}

		order.Items = append(order.Items, OrderItem{
			ProductID:   product.ID,
			Description: product.Description,
			Price:       line.Price,
			Quantity:    line.Quantity,
		})
		order.Total = order.Total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return order, nil
}
