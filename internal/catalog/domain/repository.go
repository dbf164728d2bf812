package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CategoryStat 分类统计视图，供热门分类查询使用
type CategoryStat struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	AccessCount int             `json:"access_count"`
	SalesCount  int64           `json:"sales_count"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// Save 保存或更新商品
	Save(ctx context.Context, product *Product) error
	// Get 根据 ID 获取商品
	Get(ctx context.Context, id uint) (*Product, error)
	// GetForUpdate 在当前事务内以行锁获取商品
	GetForUpdate(ctx context.Context, id uint) (*Product, error)
	// List 按描述搜索并按分类 slug 过滤
	List(ctx context.Context, search string, categorySlugs []string, offset, limit int) ([]*Product, int64, error)
	// Delete 删除商品
	Delete(ctx context.Context, id uint) error
	// AttachCategory 为商品挂接分类
	AttachCategory(ctx context.Context, product *Product, category *Category) error
	// DetachCategory 摘除商品分类
	DetachCategory(ctx context.Context, product *Product, category *Category) error
}

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	// GetOrCreate 按 slug 获取分类，不存在则创建
	GetOrCreate(ctx context.Context, name, slug string) (*Category, error)
	// GetBySlug 按 slug 获取分类
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	// List 列出全部分类
	List(ctx context.Context) ([]*Category, error)
	// IncrementAccess 批量增加分类访问计数
	IncrementAccess(ctx context.Context, slugs []string) error
	// MostAccessed 访问最多的分类
	MostAccessed(ctx context.Context, limit int) ([]*Category, error)
	// MostPurchased 购买次数最多的分类
	MostPurchased(ctx context.Context, limit int) ([]CategoryStat, error)
	// TopRevenue 收入最高的分类
	TopRevenue(ctx context.Context, limit int) ([]CategoryStat, error)
	// Delete 删除分类
	Delete(ctx context.Context, id uint) error
}
