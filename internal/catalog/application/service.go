package application

import (
	"context"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

// CatalogService 商品目录应用服务
type CatalogService struct {
	products   domain.ProductRepository
	categories domain.CategoryRepository
}

// NewCatalogService 构造函数
func NewCatalogService(products domain.ProductRepository, categories domain.CategoryRepository) *CatalogService {
	return &CatalogService{products: products, categories: categories}
}

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Description     string
	FullDescription string
	Price           decimal.Decimal
	Stock           int
	StockLimit      int
	Categories      []string
}

// CreateProduct 创建商品并挂接分类
func (s *CatalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if cmd.StockLimit <= 0 {
		cmd.StockLimit = domain.DefaultStockLimit
	}
	product := &domain.Product{
		Description:     cmd.Description,
		FullDescription: cmd.FullDescription,
		Price:           cmd.Price,
		Stock:           cmd.Stock,
		StockLimit:      cmd.StockLimit,
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	if len(cmd.Categories) > 0 {
		if err := s.AttachCategories(ctx, product.ID, cmd.Categories); err != nil {
			return nil, err
		}
	}
	return s.products.Get(ctx, product.ID)
}

// UpdateProductCommand 更新商品命令
type UpdateProductCommand struct {
	Description     *string
	FullDescription *string
	Price           *decimal.Decimal
	Stock           *int
	StockLimit      *int
}

// UpdateProduct 局部更新商品
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, cmd UpdateProductCommand) (*domain.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.Description != nil {
		product.Description = *cmd.Description
	}
	if cmd.FullDescription != nil {
		product.FullDescription = *cmd.FullDescription
	}
	if cmd.Price != nil {
		product.Price = *cmd.Price
	}
	if cmd.Stock != nil {
		product.Stock = *cmd.Stock
	}
	if cmd.StockLimit != nil {
		product.StockLimit = *cmd.StockLimit
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct 获取商品详情，同时增加其分类的访问计数
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(product.Categories))
	for _, c := range product.Categories {
		slugs = append(slugs, c.Slug)
	}
	if err := s.categories.IncrementAccess(ctx, slugs); err != nil {
		return nil, err
	}
	return product, nil
}

// ListProducts 搜索商品；带分类过滤时增加分类访问计数
func (s *CatalogService) ListProducts(ctx context.Context, search string, categorySlugs []string, page, size int) ([]*domain.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if len(categorySlugs) > 0 {
		if err := s.categories.IncrementAccess(ctx, categorySlugs); err != nil {
			return nil, 0, err
		}
	}
	return s.products.List(ctx, search, categorySlugs, (page-1)*size, size)
}

// AttachCategories 按名称为商品挂接分类，分类不存在则创建
func (s *CatalogService) AttachCategories(ctx context.Context, productID uint, names []string) error {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	for _, name := range names {
		category, err := s.categories.GetOrCreate(ctx, name, slug.Make(name))
		if err != nil {
			return err
		}
		if err := s.products.AttachCategory(ctx, product, category); err != nil {
			return err
		}
	}
	return nil
}

// DetachCategories 按 slug 摘除商品分类
func (s *CatalogService) DetachCategories(ctx context.Context, productID uint, slugs []string) error {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	for _, sl := range slugs {
		category, err := s.categories.GetBySlug(ctx, sl)
		if err != nil {
			return err
		}
		if err := s.products.DetachCategory(ctx, product, category); err != nil {
			return err
		}
	}
	return nil
}

// ListCategories 列出全部分类
func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// MostAccessedCategories 访问最多的分类
func (s *CatalogService) MostAccessedCategories(ctx context.Context, limit int) ([]*domain.Category, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.categories.MostAccessed(ctx, limit)
}

// MostPurchasedCategories 购买最多的分类
func (s *CatalogService) MostPurchasedCategories(ctx context.Context, limit int) ([]domain.CategoryStat, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.categories.MostPurchased(ctx, limit)
}

// TopRevenueCategories 收入最高的分类
func (s *CatalogService) TopRevenueCategories(ctx context.Context, limit int) ([]domain.CategoryStat, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.categories.TopRevenue(ctx, limit)
}
