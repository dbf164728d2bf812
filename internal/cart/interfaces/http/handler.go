package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ecommerce/internal/cart/application"
	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

// CartHandler 购物车 HTTP 处理器
type CartHandler struct {
	svc *application.CartService
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(svc *application.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

// RegisterRoutes 注册路由。
// authOptional 解析可能存在的登录态：匿名请求只能操作匿名购物车，
// 已认领的购物车只有归属客户可操作。
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup, authOptional gin.HandlerFunc) {
	carts := router.Group("/api/v1/carts", authOptional)
	{
		carts.POST("/items", h.AddItem)
		carts.GET("/:id", h.GetCart)
		carts.PUT("/:id/items/:product_id", h.SetItemQuantity)
		carts.DELETE("/:id/items/:product_id", h.RemoveItem)
	}
}

// AddItemRequest 加购请求；cart_id 为 0 或缺省时创建新购物车
type AddItemRequest struct {
	CartID    uint `json:"cart_id"`
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// AddItem 向购物车累加商品。
// 数量被收敛时仍返回 200，提示信息随购物车一并下发。
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	res, err := h.svc.AddItem(c.Request.Context(), req.CartID, req.ProductID, req.Quantity, currentUserID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, res)
}

// GetCart 获取购物车，展示前刷新价格快照
func (h *CartHandler) GetCart(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid cart id", "")
		return
	}
	cart, err := h.svc.GetCart(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, cart)
}

// SetQuantityRequest 数量替换请求；0 表示删除该行
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// SetItemQuantity 将购物车行数量替换为给定值
func (h *CartHandler) SetItemQuantity(c *gin.Context) {
	cartID, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid cart id", "")
		return
	}
	productID, err := parseID(c.Param("product_id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if *req.Quantity < 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "quantity must not be negative", "")
		return
	}

	res, err := h.svc.SetItemQuantity(c.Request.Context(), cartID, productID, *req.Quantity, currentUserID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, res)
}

// RemoveItem 删除购物车行，重复删除为幂等空操作
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cartID, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid cart id", "")
		return
	}
	productID, err := parseID(c.Param("product_id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	res, err := h.svc.RemoveItem(c.Request.Context(), cartID, productID, currentUserID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *CartHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrCartNotFound), errors.Is(err, catalog.ErrProductNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrCartAccessDenied):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "cart request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// currentUserID 读取鉴权中间件注入的用户 ID，匿名请求为 0
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
