// Package redis 提供商品读路径的 cache-aside 装饰器
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

const (
	productTTL = 10 * time.Minute
	// 第二次删除的延迟，需大于写事务的提交耗时
	redeleteDelay = time.Second
)

// productCache 装饰器用到的缓存操作子集
type productCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedProductRepository 在 mysql 仓储之上缓存单个商品读
type CachedProductRepository struct {
	inner   domain.ProductRepository
	cache   productCache
	redelay time.Duration
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(inner domain.ProductRepository, cache *cache.RedisCache) *CachedProductRepository {
	return &CachedProductRepository{inner: inner, cache: cache, redelay: redeleteDelay}
}

func (r *CachedProductRepository) key(id uint) string {
	return fmt.Sprintf("catalog:product:%d", id)
}

// invalidate 立即删除缓存并延迟二次删除。
// 写入可能发生在未提交的事务内，并发读会在提交前回填旧值，
// 第二次删除覆盖这个窗口。
func (r *CachedProductRepository) invalidate(ctx context.Context, id uint) error {
	key := r.key(id)
	if err := r.cache.Delete(ctx, key); err != nil {
		return err
	}
	time.AfterFunc(r.redelay, func() {
		if err := r.cache.Delete(context.Background(), key); err != nil {
			logger.Warn(context.Background(), "delayed product cache delete failed", "key", key, "error", err)
		}
	})
	return nil
}

func (r *CachedProductRepository) Get(ctx context.Context, id uint) (*domain.Product, error) {
	var cached domain.Product
	hit, err := r.cache.GetJSON(ctx, r.key(id), &cached)
	if err != nil {
		logger.Warn(ctx, "product cache read failed", "product_id", id, "error", err)
	} else if hit {
		return &cached, nil
	}

	product, err := r.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.SetJSON(ctx, r.key(id), product, productTTL); err != nil {
		logger.Warn(ctx, "product cache write failed", "product_id", id, "error", err)
	}
	return product, nil
}

func (r *CachedProductRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := r.inner.Save(ctx, product); err != nil {
		return err
	}
	return r.invalidate(ctx, product.ID)
}

func (r *CachedProductRepository) Delete(ctx context.Context, id uint) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	return r.invalidate(ctx, id)
}

// GetForUpdate 锁定读必须绕过缓存
func (r *CachedProductRepository) GetForUpdate(ctx context.Context, id uint) (*domain.Product, error) {
	return r.inner.GetForUpdate(ctx, id)
}

func (r *CachedProductRepository) List(ctx context.Context, search string, categorySlugs []string, offset, limit int) ([]*domain.Product, int64, error) {
	return r.inner.List(ctx, search, categorySlugs, offset, limit)
}

func (r *CachedProductRepository) AttachCategory(ctx context.Context, product *domain.Product, category *domain.Category) error {
	if err := r.inner.AttachCategory(ctx, product, category); err != nil {
		return err
	}
	return r.invalidate(ctx, product.ID)
}

func (r *CachedProductRepository) DetachCategory(ctx context.Context, product *domain.Product, category *domain.Category) error {
	if err := r.inner.DetachCategory(ctx, product, category); err != nil {
		return err
	}
	return r.invalidate(ctx, product.ID)
}
