package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

type cartRepository struct{ db *gorm.DB }

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

func (r *cartRepository) Create(ctx context.Context) (*domain.Cart, error) {
	cart := &domain.Cart{}
	if err := r.getDB(ctx).WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) Get(ctx context.Context, id uint) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.getDB(ctx).WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		First(&cart, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save 保存购物车；内存中已被移除的行在库里一并删除
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return r.getDB(ctx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keep := make([]uint, 0, len(cart.Items))
		for i := range cart.Items {
			cart.Items[i].CartID = cart.ID
			keep = append(keep, cart.Items[i].ProductID)
		}

		stale := tx.Where("cart_id = ?", cart.ID)
		if len(keep) > 0 {
			stale = stale.Where("product_id NOT IN ?", keep)
		}
		if err := stale.Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}

		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error
	})
}

func (r *cartRepository) Delete(ctx context.Context, id uint) error {
	return r.getDB(ctx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Cart{}, id).Error
	})
}
