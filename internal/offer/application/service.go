package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/offer/domain"
)

// OfferService 特价应用服务
type OfferService struct {
	offers   domain.OfferRepository
	products catalog.ProductRepository
	now      func() time.Time
}

// NewOfferService 构造函数
func NewOfferService(offers domain.OfferRepository, products catalog.ProductRepository) *OfferService {
	return &OfferService{offers: offers, products: products, now: time.Now}
}

// CreateOfferCommand 创建特价命令
type CreateOfferCommand struct {
	Description string
	Price       decimal.Decimal
	ValidUntil  time.Time
	ProductID   uint
	OwnerID     uint
	IsBanner    bool
}

// CreateOffer 创建特价。
// 同一商品已有的特价在同一事务内被替换掉。
func (s *OfferService) CreateOffer(ctx context.Context, cmd CreateOfferCommand) (*domain.Offer, error) {
	if _, err := s.products.Get(ctx, cmd.ProductID); err != nil {
		return nil, err
	}

	offer := &domain.Offer{
		Description: cmd.Description,
		Price:       cmd.Price,
		ValidUntil:  cmd.ValidUntil,
		ProductID:   cmd.ProductID,
		OwnerID:     cmd.OwnerID,
		IsBanner:    cmd.IsBanner,
	}
	if err := s.offers.CreateReplacing(ctx, offer); err != nil {
		return nil, err
	}
	logging.Info(ctx, "offer created",
		"offer_id", offer.ID, "product_id", offer.ProductID, "valid_until", offer.ValidUntil)
	return offer, nil
}

// GetOffer 获取未过期的特价
func (s *OfferService) GetOffer(ctx context.Context, id uint) (*domain.Offer, error) {
	return s.offers.GetActive(ctx, id, s.now())
}

// ListOffers 列出未过期的特价；banner 非 nil 时按横幅标记过滤
func (s *OfferService) ListOffers(ctx context.Context, banner *bool) ([]*domain.Offer, error) {
	return s.offers.ListActive(ctx, s.now(), banner)
}

// DeleteOffer 删除特价
func (s *OfferService) DeleteOffer(ctx context.Context, id uint) error {
	return s.offers.Delete(ctx, id)
}
