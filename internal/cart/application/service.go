package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	offer "github.com/wyfcoding/ecommerce/internal/offer/domain"
)

// CartService 购物车应用服务
type CartService struct {
	carts    domain.CartRepository
	products catalog.ProductRepository
	offers   offer.OfferRepository
	now      func() time.Time
}

// NewCartService 构造函数
func NewCartService(carts domain.CartRepository, products catalog.ProductRepository, offers offer.OfferRepository) *CartService {
	return &CartService{carts: carts, products: products, offers: offers, now: time.Now}
}

// Result 购物车变更结果；Errored/Messages 携带可恢复的校验提示
type Result struct {
	Cart     *domain.Cart `json:"cart"`
	Errored  bool         `json:"error"`
	Messages []string     `json:"messages"`
}

// GetCart 获取购物车用于展示；userID 为当前客户，匿名为 0。
// 展示前刷新价格快照（有效特价优先于基础价）并重算总价。
func (s *CartService) GetCart(ctx context.Context, cartID, userID uint) (*domain.Cart, error) {
	cart, err := s.loadAuthorized(ctx, cartID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshItemPrices(ctx, cart); err != nil {
		return nil, err
	}
	cart.RecomputeTotal()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// CreateCart 创建空购物车
func (s *CartService) CreateCart(ctx context.Context) (*domain.Cart, error) {
	return s.carts.Create(ctx)
}

// Claim 将匿名购物车认领给客户，登录时调用。
// 已归属其他客户的购物车不可认领。
func (s *CartService) Claim(ctx context.Context, cartID, customerID uint) error {
	cart, err := s.loadAuthorized(ctx, cartID, customerID)
	if err != nil {
		return err
	}
	cart.Claim(customerID)
	return s.carts.Save(ctx, cart)
}

// AddItem 向购物车累加商品；cartID 为 0 时创建新购物车。
// 价格快照取商品当前基础价。
func (s *CartService) AddItem(ctx context.Context, cartID, productID uint, delta int, userID uint) (*Result, error) {
	return s.mutateItem(ctx, cartID, productID, delta, nil, false, userID)
}

// SetItemQuantity 将购物车行数量替换为给定值
func (s *CartService) SetItemQuantity(ctx context.Context, cartID, productID uint, quantity int, userID uint) (*Result, error) {
	return s.mutateItem(ctx, cartID, productID, quantity, nil, true, userID)
}

// ApplyOffer 通过特价将商品加入购物车，价格快照取特价价格。
// 过期特价视为不存在。
func (s *CartService) ApplyOffer(ctx context.Context, cartID, offerID uint, delta int, userID uint) (*Result, error) {
	active, err := s.offers.GetActive(ctx, offerID, s.now())
	if err != nil {
		return nil, err
	}
	return s.mutateItem(ctx, cartID, active.ProductID, delta, &active.Price, false, userID)
}

func (s *CartService) mutateItem(ctx context.Context, cartID, productID uint, quantity int, priceOverride *decimal.Decimal, replace bool, userID uint) (*Result, error) {
	var cart *domain.Cart
	var err error
	if cartID == 0 {
		cart, err = s.carts.Create(ctx)
	} else {
		cart, err = s.loadAuthorized(ctx, cartID, userID)
	}
	if err != nil {
		return nil, err
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	price := product.Price
	if priceOverride != nil {
		price = *priceOverride
	}

	var errored bool
	var messages []string
	if replace {
		errored, messages = cart.SetItemQuantity(product, quantity, price)
	} else {
		errored, messages = cart.AddItem(product, quantity, price)
	}
	cart.RecomputeTotal()

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	if errored {
		logging.Info(ctx, "cart quantity clamped",
			"cart_id", cart.ID, "product_id", productID, "messages", messages)
	}
	return &Result{Cart: cart, Errored: errored, Messages: messages}, nil
}

// RemoveItem 删除购物车行；行不存在时为幂等空操作
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID uint, userID uint) (*Result, error) {
	cart, err := s.loadAuthorized(ctx, cartID, userID)
	if err != nil {
		return nil, err
	}
	cart.RemoveItem(productID)
	cart.RecomputeTotal()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return &Result{Cart: cart}, nil
}

// Merge 将 source 购物车合并进 target 并删除 source。
// 客户带着匿名购物车登录时使用，两车都必须可被该客户操作。
func (s *CartService) Merge(ctx context.Context, targetID, sourceID, userID uint) (*Result, error) {
	target, err := s.loadAuthorized(ctx, targetID, userID)
	if err != nil {
		return nil, err
	}
	if targetID == sourceID {
		return &Result{Cart: target}, nil
	}
	source, err := s.loadAuthorized(ctx, sourceID, userID)
	if err != nil {
		return nil, err
	}

	errored, messages, err := target.Merge(source, func(productID uint) (*catalog.Product, decimal.Decimal, error) {
		product, err := s.products.Get(ctx, productID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		return product, product.Price, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.Save(ctx, target); err != nil {
		return nil, err
	}
	if err := s.carts.Delete(ctx, sourceID); err != nil {
		return nil, err
	}
	return &Result{Cart: target, Errored: errored, Messages: messages}, nil
}

// loadAuthorized 加载购物车并校验归属
func (s *CartService) loadAuthorized(ctx context.Context, cartID, userID uint) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.AccessibleBy(userID) {
		return nil, domain.ErrCartAccessDenied
	}
	return cart, nil
}

// refreshItemPrices 将每行价格快照重解析为有效特价价，否则商品基础价
func (s *CartService) refreshItemPrices(ctx context.Context, cart *domain.Cart) error {
	now := s.now()
	for i := range cart.Items {
		product, err := s.products.Get(ctx, cart.Items[i].ProductID)
		if err != nil {
			return err
		}
		price := product.Price
		active, err := s.offers.GetActiveByProduct(ctx, product.ID, now)
		if err != nil {
			return err
		}
		if active != nil {
			price = active.Price
		}
		cart.Items[i].Price = price
	}
	return nil
}
