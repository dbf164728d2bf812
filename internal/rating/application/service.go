// Package application 编排评分写入与推荐查询
package application

import (
	"context"

	"github.com/wyfcoding/pkg/logging"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/rating/domain"
)

// RatingService 评分应用服务
type RatingService struct {
	ratings     domain.RatingRepository
	products    catalog.ProductRepository
	recommender *domain.Recommender
	topN        int
}

// NewRatingService 构造函数；topN 为默认推荐数量
func NewRatingService(ratings domain.RatingRepository, products catalog.ProductRepository, recommender *domain.Recommender, topN int) *RatingService {
	if topN <= 0 {
		topN = 10
	}
	return &RatingService{ratings: ratings, products: products, recommender: recommender, topN: topN}
}

// Rate 写入或覆盖评分，随后重建推荐快照
func (s *RatingService) Rate(ctx context.Context, customerID, productID uint, score int, comment string) (*domain.Rating, error) {
	rating := &domain.Rating{
		CustomerID: customerID,
		ProductID:  productID,
		Score:      score,
		Comment:    comment,
	}
	if err := rating.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.ratings.Upsert(ctx, rating); err != nil {
		return nil, err
	}

	if err := s.Refit(ctx); err != nil {
		// 推荐快照过期不影响评分写入，留给下次评分或重启重建
		logging.Error(ctx, "failed to refit recommender", "error", err)
	}
	return rating, nil
}

// Refit 全量加载评分并重建推荐快照
func (s *RatingService) Refit(ctx context.Context) error {
	all, err := s.ratings.All(ctx)
	if err != nil {
		return err
	}
	s.recommender.Fit(all)
	logging.Info(ctx, "recommender refitted", "ratings", len(all))
	return nil
}

// ListProductRatings 列出商品的评分
func (s *RatingService) ListProductRatings(ctx context.Context, productID uint) ([]*domain.Rating, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.ratings.ListByProduct(ctx, productID)
}

// Recommend 为客户返回推荐商品，按预测分值降序
func (s *RatingService) Recommend(ctx context.Context, customerID uint, n int) ([]*catalog.Product, error) {
	if n <= 0 {
		n = s.topN
	}
	ids := s.recommender.TopN(customerID, n)

	products := make([]*catalog.Product, 0, len(ids))
	for _, id := range ids {
		product, err := s.products.Get(ctx, id)
		if err != nil {
			// 商品可能已下架，跳过
			continue
		}
		products = append(products, product)
	}
	return products, nil
}
