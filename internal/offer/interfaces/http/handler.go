package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/offer/application"
	"github.com/wyfcoding/ecommerce/internal/offer/domain"
)

// OfferHandler 特价 HTTP 处理器
type OfferHandler struct {
	svc   *application.OfferService
	carts *cartapp.CartService
}

// NewOfferHandler 创建 HTTP 处理器实例
func NewOfferHandler(svc *application.OfferService, carts *cartapp.CartService) *OfferHandler {
	return &OfferHandler{svc: svc, carts: carts}
}

// RegisterRoutes 注册路由；staffOnly 为后台管理接口的鉴权中间件，
// authOptional 为特价加购解析可能存在的登录态
func (h *OfferHandler) RegisterRoutes(router *gin.RouterGroup, staffOnly, authOptional gin.HandlerFunc) {
	offers := router.Group("/api/v1/offers")
	{
		offers.GET("", h.ListOffers)
		offers.GET("/:id", h.GetOffer)
		offers.POST("", staffOnly, h.CreateOffer)
		offers.DELETE("/:id", staffOnly, h.DeleteOffer)
		offers.POST("/:id/cart", authOptional, h.AddToCart)
	}
}

// CreateOfferRequest 创建特价请求
type CreateOfferRequest struct {
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	ValidUntil  string `json:"valid_until" binding:"required"`
	ProductID   uint   `json:"product_id" binding:"required"`
	IsBanner    bool   `json:"is_banner"`
}

// CreateOffer 创建特价，替换该商品已有的特价
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid price", "")
		return
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid valid_until, expected RFC3339", "")
		return
	}

	offer, err := h.svc.CreateOffer(c.Request.Context(), application.CreateOfferCommand{
		Description: req.Description,
		Price:       price,
		ValidUntil:  validUntil,
		ProductID:   req.ProductID,
		OwnerID:     currentUserID(c),
		IsBanner:    req.IsBanner,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, offer)
}

// GetOffer 获取未过期的特价
func (h *OfferHandler) GetOffer(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offer id", "")
		return
	}
	offer, err := h.svc.GetOffer(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, offer)
}

// ListOffers 列出未过期的特价；banner=true 时只返回横幅特价
func (h *OfferHandler) ListOffers(c *gin.Context) {
	var banner *bool
	if raw := c.Query("banner"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid banner flag", "")
			return
		}
		banner = &value
	}
	offers, err := h.svc.ListOffers(c.Request.Context(), banner)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, offers)
}

// DeleteOffer 删除特价
func (h *OfferHandler) DeleteOffer(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offer id", "")
		return
	}
	if err := h.svc.DeleteOffer(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// AddToCartRequest 特价加购请求
type AddToCartRequest struct {
	CartID   uint `json:"cart_id"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

// AddToCart 通过特价加购，价格快照取特价价格。
// 过期特价返回 404。
func (h *OfferHandler) AddToCart(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offer id", "")
		return
	}
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	res, err := h.carts.ApplyOffer(c.Request.Context(), req.CartID, id, req.Quantity, currentUserID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *OfferHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrOfferNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrCartNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, cart.ErrCartAccessDenied):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "offer request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// currentUserID 读取鉴权中间件注入的用户 ID
func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
