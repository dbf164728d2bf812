package domain

import (
	"context"
	"time"
)

// OfferRepository 特价仓储接口
type OfferRepository interface {
	// CreateReplacing 创建特价，同一事务内删除该商品已有的全部特价
	CreateReplacing(ctx context.Context, offer *Offer) error
	// GetActive 获取未过期的特价
	GetActive(ctx context.Context, id uint, now time.Time) (*Offer, error)
	// GetActiveByProduct 获取商品最新创建的未过期特价，没有时返回 nil
	GetActiveByProduct(ctx context.Context, productID uint, now time.Time) (*Offer, error)
	// ListActive 列出未过期的特价；banner 非 nil 时按横幅标记过滤
	ListActive(ctx context.Context, now time.Time, banner *bool) ([]*Offer, error)
	// Save 更新特价
	Save(ctx context.Context, offer *Offer) error
	// Delete 删除特价
	Delete(ctx context.Context, id uint) error
}
