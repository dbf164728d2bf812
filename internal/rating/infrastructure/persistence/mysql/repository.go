package mysql

import (
	"context"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/ecommerce/internal/rating/domain"
)

type ratingRepository struct{ db *gorm.DB }

// NewRatingRepository 创建评分仓储
func NewRatingRepository(db *gorm.DB) domain.RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// Upsert 依赖 (customer_id, product_id) 唯一索引做冲突覆盖
func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) error {
	return r.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "updated_at"}),
		}).
		Create(rating).Error
}

func (r *ratingRepository) ListByProduct(ctx context.Context, productID uint) ([]*domain.Rating, error) {
	var ratings []*domain.Rating
	err := r.getDB(ctx).WithContext(ctx).
		Where("product_id = ?", productID).
		Order("updated_at DESC").
		Find(&ratings).Error
	return ratings, err
}

func (r *ratingRepository) ListByCustomer(ctx context.Context, customerID uint) ([]*domain.Rating, error) {
	var ratings []*domain.Rating
	err := r.getDB(ctx).WithContext(ctx).
		Where("customer_id = ?", customerID).
		Find(&ratings).Error
	return ratings, err
}

func (r *ratingRepository) All(ctx context.Context) ([]*domain.Rating, error) {
	var ratings []*domain.Rating
	err := r.getDB(ctx).WithContext(ctx).Find(&ratings).Error
	return ratings, err
}
