package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

type fakeProductCache struct {
	mu      sync.Mutex
	deletes []string
}

func (f *fakeProductCache) GetJSON(context.Context, string, interface{}) (bool, error) {
	return false, nil
}

func (f *fakeProductCache) SetJSON(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (f *fakeProductCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, keys...)
	return nil
}

func (f *fakeProductCache) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

type fakeInnerRepo struct{}

func (fakeInnerRepo) Save(context.Context, *domain.Product) error { return nil }
func (fakeInnerRepo) Get(context.Context, uint) (*domain.Product, error) {
	return &domain.Product{}, nil
}
func (fakeInnerRepo) GetForUpdate(context.Context, uint) (*domain.Product, error) {
	return &domain.Product{}, nil
}
func (fakeInnerRepo) List(context.Context, string, []string, int, int) ([]*domain.Product, int64, error) {
	return nil, 0, nil
}
func (fakeInnerRepo) Delete(context.Context, uint) error { return nil }
func (fakeInnerRepo) AttachCategory(context.Context, *domain.Product, *domain.Category) error {
	return nil
}
func (fakeInnerRepo) DetachCategory(context.Context, *domain.Product, *domain.Category) error {
	return nil
}

// 写后立即删一次缓存，延迟后再删一次，覆盖未提交事务期间的回填
func TestSaveDeletesCacheTwice(t *testing.T) {
	fake := &fakeProductCache{}
	repo := &CachedProductRepository{inner: fakeInnerRepo{}, cache: fake, redelay: 10 * time.Millisecond}

	product := &domain.Product{}
	product.ID = 1
	require.NoError(t, repo.Save(context.Background(), product))

	assert.Equal(t, 1, fake.deleteCount())
	require.Eventually(t, func() bool { return fake.deleteCount() == 2 }, time.Second, 5*time.Millisecond)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"catalog:product:1", "catalog:product:1"}, fake.deletes)
}
