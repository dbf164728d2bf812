// Package domain 包含购物车的领域模型
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

var (
	// ErrCartNotFound 购物车不存在
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound 购物车行不存在
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrCartAccessDenied 购物车归属其他客户
	ErrCartAccessDenied = errors.New("cart belongs to another customer")
)

// Cart 购物车实体
// 匿名购物车没有归属客户，登录时被认领或合并
type Cart struct {
	gorm.Model
	// 归属客户，匿名购物车为 nil
	CustomerID *uint `gorm:"column:customer_id;index" json:"customer_id,omitempty"`
	// 派生总价，任何行变更后必须重算
	Total decimal.Decimal `gorm:"column:total;type:decimal(10,2);not null;default:0" json:"total"`
	// 行项目，同一商品至多一行
	Items []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string { return "carts" }

// AccessibleBy 购物车是否可被该客户操作。
// 匿名购物车任何人可操作，已认领的只有归属客户可操作。
func (c *Cart) AccessibleBy(customerID uint) bool {
	return c.CustomerID == nil || *c.CustomerID == customerID
}

// Claim 将购物车认领给客户
func (c *Cart) Claim(customerID uint) {
	c.CustomerID = &customerID
}

// CartItem 购物车行项目
type CartItem struct {
	gorm.Model
	CartID    uint `gorm:"column:cart_id;uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	ProductID uint `gorm:"column:product_id;uniqueIndex:idx_cart_product;not null" json:"product_id"`
	// 数量，恒为正
	Quantity int `gorm:"column:quantity;not null" json:"quantity"`
	// 行创建或刷新时抓取的价格快照
	Price decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
}

func (CartItem) TableName() string { return "cart_items" }

// Item 返回指定商品的行，不存在时返回 nil
func (c *Cart) Item(productID uint) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// IsEmpty 购物车是否没有行项目
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// AddItem 将商品数量累加进购物车并按库存策略收敛。
// 收敛后数量为零时删除该行。返回是否发生收敛及提示信息。
func (c *Cart) AddItem(product *catalog.Product, delta int, price decimal.Decimal) (bool, []string) {
	current := 0
	if item := c.Item(product.ID); item != nil {
		current = item.Quantity
	}
	return c.applyQuantity(product, current+delta, price)
}

// SetItemQuantity 将行数量替换为给定值，同样经过收敛校验
func (c *Cart) SetItemQuantity(product *catalog.Product, quantity int, price decimal.Decimal) (bool, []string) {
	return c.applyQuantity(product, quantity, price)
}

func (c *Cart) applyQuantity(product *catalog.Product, requested int, price decimal.Decimal) (bool, []string) {
	allowed, errored, messages := product.ClampQuantity(requested)
	if allowed == 0 {
		c.RemoveItem(product.ID)
		return errored, messages
	}

	if item := c.Item(product.ID); item != nil {
		item.Quantity = allowed
		item.Price = price
	} else {
		c.Items = append(c.Items, CartItem{
			CartID:    c.ID,
			ProductID: product.ID,
			Quantity:  allowed,
			Price:     price,
		})
	}
	return errored, messages
}

// RemoveItem 无条件删除行，行不存在时为幂等空操作
func (c *Cart) RemoveItem(productID uint) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// RecomputeTotal 按价格快照 × 数量重算总价
func (c *Cart) RecomputeTotal() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	c.Total = total
}

// Clear 清空全部行并将总价归零，结账成功后调用
func (c *Cart) Clear() {
	c.Items = nil
	c.Total = decimal.Zero
}

// Merge 将 source 的行合并进当前购物车。
// resolve 按商品 ID 提供商品与当前快照价格；错误标志按位或，
// 提示信息按 source 行的迭代顺序拼接。同一购物车合并为空操作。
func (c *Cart) Merge(source *Cart, resolve func(productID uint) (*catalog.Product, decimal.Decimal, error)) (bool, []string, error) {
	if source == nil {
		return false, nil, ErrCartNotFound
	}
	if source.ID == c.ID {
		return false, nil, nil
	}

	errored := false
	var messages []string
	for _, item := range source.Items {
		product, price, err := resolve(item.ProductID)
		if err != nil {
			return errored, messages, err
		}
		itemErr, itemMsgs := c.AddItem(product, item.Quantity, price)
		errored = errored || itemErr
		messages = append(messages, itemMsgs...)
	}
	c.RecomputeTotal()
	return errored, messages, nil
}
