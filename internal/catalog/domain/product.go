// Package domain 包含商品目录的领域模型
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound 分类不存在
	ErrCategoryNotFound = errors.New("category not found")
	// ErrInsufficientStock 库存不足，结账时破坏性失败
	ErrInsufficientStock = errors.New("insufficient stock")
)

// DefaultStockLimit 单个购物车行的默认数量上限
const DefaultStockLimit = 100

// Product 商品实体
type Product struct {
	gorm.Model
	// 简述
	Description string `gorm:"column:description;type:varchar(100);not null;index" json:"description"`
	// 详细描述
	FullDescription string `gorm:"column:full_description;type:text" json:"full_description"`
	// 单价
	Price decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	// 库存数量
	Stock int `gorm:"column:stock;not null;default:0" json:"stock"`
	// 单个购物车行允许的最大数量
	StockLimit int `gorm:"column:stock_limit;not null;default:100" json:"stock_limit"`
	// 所属分类
	Categories []Category `gorm:"many2many:product_categories" json:"categories,omitempty"`
}

func (Product) TableName() string { return "products" }

// ClampQuantity 校验请求数量并按库存与单行上限收敛。
// 返回允许的数量、是否发生收敛以及面向用户的提示信息。
// 纯函数，不修改商品状态。
func (p *Product) ClampQuantity(requested int) (int, bool, []string) {
	var messages []string
	if requested < 0 {
		requested = 0
	}
	if p.Stock == 0 {
		return 0, true, []string{fmt.Sprintf("%s is out of stock", p.Description)}
	}

	allowed := requested
	errored := false
	if allowed > p.Stock {
		allowed = p.Stock
		errored = true
		messages = append(messages, fmt.Sprintf("only %d units of %s are in stock", p.Stock, p.Description))
	}
	// 上限检查作用在已按库存收敛后的数量上
	if allowed > p.StockLimit {
		allowed = p.StockLimit
		errored = true
		messages = append(messages, fmt.Sprintf("%s is limited to %d units per cart", p.Description, p.StockLimit))
	}
	return allowed, errored, messages
}

// Reserve 扣减库存，仅在结账事务内调用
func (p *Product) Reserve(qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid reserve quantity %d", qty)
	}
	if p.Stock <= 0 {
		return fmt.Errorf("%w: %s is out of stock", ErrInsufficientStock, p.Description)
	}
	if qty > p.Stock {
		return fmt.Errorf("%w: %s has %d units left, %d requested", ErrInsufficientStock, p.Description, p.Stock, qty)
	}
	p.Stock -= qty
	return nil
}

// Release 回补库存，Saga 补偿分支使用
func (p *Product) Release(qty int) {
	if qty > 0 {
		p.Stock += qty
	}
}

// Category 商品分类
type Category struct {
	gorm.Model
	// 名称
	Name string `gorm:"column:name;type:varchar(50);not null" json:"name"`
	// 唯一 slug
	Slug string `gorm:"column:slug;type:varchar(60);uniqueIndex;not null" json:"slug"`
	// 访问计数
	AccessCount int `gorm:"column:access_count;not null;default:0" json:"access_count"`
}

func (Category) TableName() string { return "categories" }
