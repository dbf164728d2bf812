package domain

import "context"

// RatingRepository 评分仓储接口
type RatingRepository interface {
	// Upsert 写入评分，同一客户同一商品覆盖旧值
	Upsert(ctx context.Context, rating *Rating) error
	// ListByProduct 列出商品的全部评分
	ListByProduct(ctx context.Context, productID uint) ([]*Rating, error)
	// ListByCustomer 列出客户的全部评分
	ListByCustomer(ctx context.Context, customerID uint) ([]*Rating, error)
	// All 加载全量评分，重建推荐快照使用
	All(ctx context.Context) ([]*Rating, error)
}
