package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/offer/domain"
)

type offerRepository struct{ db *gorm.DB }

// NewOfferRepository 创建特价仓储
func NewOfferRepository(db *gorm.DB) domain.OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// CreateReplacing 单商品单特价：先删除旧行再创建
func (r *offerRepository) CreateReplacing(ctx context.Context, offer *domain.Offer) error {
	return r.getDB(ctx).WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", offer.ProductID).Delete(&domain.Offer{}).Error; err != nil {
			return err
		}
		return tx.Create(offer).Error
	})
}

func (r *offerRepository) GetActive(ctx context.Context, id uint, now time.Time) (*domain.Offer, error) {
	var offer domain.Offer
	err := r.getDB(ctx).WithContext(ctx).
		Where("valid_until >= ?", now).
		First(&offer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOfferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) GetActiveByProduct(ctx context.Context, productID uint, now time.Time) (*domain.Offer, error) {
	var offer domain.Offer
	err := r.getDB(ctx).WithContext(ctx).
		Where("product_id = ? AND valid_until >= ?", productID, now).
		Order("created_at DESC").
		First(&offer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) ListActive(ctx context.Context, now time.Time, banner *bool) ([]*domain.Offer, error) {
	query := r.getDB(ctx).WithContext(ctx).Where("valid_until >= ?", now)
	if banner != nil {
		query = query.Where("is_banner = ?", *banner)
	}
	var offers []*domain.Offer
	err := query.Order("created_at DESC").Find(&offers).Error
	return offers, err
}

func (r *offerRepository) Save(ctx context.Context, offer *domain.Offer) error {
	return r.getDB(ctx).WithContext(ctx).Save(offer).Error
}

func (r *offerRepository) Delete(ctx context.Context, id uint) error {
	return r.getDB(ctx).WithContext(ctx).Delete(&domain.Offer{}, id).Error
}
