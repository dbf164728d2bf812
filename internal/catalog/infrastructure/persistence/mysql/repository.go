package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

type productRepository struct{ db *gorm.DB }

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.getDB(ctx).WithContext(ctx).Save(product).Error
}

func (r *productRepository) Get(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.getDB(ctx).WithContext(ctx).Preload("Categories").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetForUpdate 以 SELECT ... FOR UPDATE 获取商品行，必须在事务上下文内调用
func (r *productRepository) GetForUpdate(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.getDB(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, search string, categorySlugs []string, offset, limit int) ([]*domain.Product, int64, error) {
	query := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{})
	if search != "" {
		query = query.Where("description LIKE ?", "%"+search+"%")
	}
	if len(categorySlugs) > 0 {
		query = query.
			Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Joins("JOIN categories c ON c.id = pc.category_id").
			Where("c.slug IN ?", categorySlugs).
			Distinct("products.*")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []*domain.Product
	err := query.Preload("Categories").
		Order("description").
		Offset(offset).Limit(limit).
		Find(&products).Error
	return products, total, err
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.getDB(ctx).WithContext(ctx).Delete(&domain.Product{}, id).Error
}

func (r *productRepository) AttachCategory(ctx context.Context, product *domain.Product, category *domain.Category) error {
	return r.getDB(ctx).WithContext(ctx).Model(product).Association("Categories").Append(category)
}

func (r *productRepository) DetachCategory(ctx context.Context, product *domain.Product, category *domain.Category) error {
	return r.getDB(ctx).WithContext(ctx).Model(product).Association("Categories").Delete(category)
}

type categoryRepository struct{ db *gorm.DB }

// NewCategoryRepository 创建分类仓储
func NewCategoryRepository(db *gorm.DB) domain.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

func (r *categoryRepository) GetOrCreate(ctx context.Context, name, slug string) (*domain.Category, error) {
	var category domain.Category
	err := r.getDB(ctx).WithContext(ctx).
		Where(domain.Category{Slug: slug}).
		Attrs(domain.Category{Name: name}).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var category domain.Category
	err := r.getDB(ctx).WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var categories []*domain.Category
	err := r.getDB(ctx).WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) IncrementAccess(ctx context.Context, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	return r.getDB(ctx).WithContext(ctx).Model(&domain.Category{}).
		Where("slug IN ?", slugs).
		UpdateColumn("access_count", gorm.Expr("access_count + 1")).Error
}

func (r *categoryRepository) MostAccessed(ctx context.Context, limit int) ([]*domain.Category, error) {
	var categories []*domain.Category
	err := r.getDB(ctx).WithContext(ctx).
		Order("access_count DESC").
		Limit(limit).
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) MostPurchased(ctx context.Context, limit int) ([]domain.CategoryStat, error) {
	var stats []domain.CategoryStat
	err := r.getDB(ctx).WithContext(ctx).
		Table("categories").
		Select("categories.name, categories.slug, categories.access_count, COUNT(order_items.id) AS sales_count").
		Joins("LEFT JOIN product_categories pc ON pc.category_id = categories.id").
		Joins("LEFT JOIN order_items ON order_items.product_id = pc.product_id").
		Group("categories.id").
		Order("sales_count DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

func (r *categoryRepository) TopRevenue(ctx context.Context, limit int) ([]domain.CategoryStat, error) {
	var stats []domain.CategoryStat
	err := r.getDB(ctx).WithContext(ctx).
		Table("categories").
		Select("categories.name, categories.slug, categories.access_count, COALESCE(SUM(order_items.price * order_items.quantity), 0) AS revenue").
		Joins("LEFT JOIN product_categories pc ON pc.category_id = categories.id").
		Joins("LEFT JOIN order_items ON order_items.product_id = pc.product_id").
		Group("categories.id").
		Order("revenue DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return r.getDB(ctx).WithContext(ctx).Delete(&domain.Category{}, id).Error
}
