package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	customer "github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	svc         *application.OrderService
	sagaEnabled bool
	sagaCfg     application.SagaConfig
}

// NewOrderHandler 创建 HTTP 处理器实例。
// sagaEnabled 打开时结账走 dtm Saga，否则走本地事务。
func NewOrderHandler(svc *application.OrderService, sagaEnabled bool, sagaCfg application.SagaConfig) *OrderHandler {
	return &OrderHandler{svc: svc, sagaEnabled: sagaEnabled, sagaCfg: sagaCfg}
}

// RegisterRoutes 注册路由；authOnly 为登录校验中间件
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup, authOnly gin.HandlerFunc) {
	orders := router.Group("/api/v1/orders")
	{
		orders.POST("/checkout", authOnly, h.Checkout)
		orders.GET("", authOnly, h.ListOrders)
		orders.GET("/:id", authOnly, h.GetOrder)
	}
	// dtm 回调的 Saga 分支接口，鉴权由网络边界保证
	saga := router.Group("/api/v1/orders/saga")
	{
		saga.POST("/reserve-stock", h.ReserveStock)
		saga.POST("/release-stock", h.ReleaseStock)
		saga.POST("/create", h.CreateOrder)
		saga.POST("/cancel", h.CancelOrder)
	}
}

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	CartID    uint  `json:"cart_id" binding:"required"`
	AddressID *uint `json:"address_id"`
}

// Checkout 将购物车转为订单
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	cmd := application.CheckoutCommand{
		CartID:     req.CartID,
		CustomerID: currentUserID(c),
		AddressID:  req.AddressID,
	}

	if h.sagaEnabled {
		gid, err := h.svc.CheckoutSaga(c.Request.Context(), h.sagaCfg, cmd)
		if err != nil {
			h.renderError(c, err)
			return
		}
		response.Success(c, gin.H{"gid": gid, "status": "submitted"})
		return
	}

	order, err := h.svc.Checkout(c.Request.Context(), cmd)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrder 获取订单详情，仅本人或后台用户可见
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid order id", "")
		return
	}
	order, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if order.CustomerID != currentUserID(c) && !isStaff(c) {
		response.ErrorWithStatus(c, http.StatusNotFound, domain.ErrOrderNotFound.Error(), "")
		return
	}
	response.Success(c, order)
}

// ListOrders 列出订单。
// 普通客户只能看自己的订单；后台用户可用 customer_id 查看任意客户。
// start/end 过滤创建时间，接受 RFC3339 或 2006-01-02。
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter := domain.ListFilter{CustomerID: currentUserID(c)}
	if isStaff(c) {
		filter.CustomerID = 0
		if raw := c.Query("customer_id"); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				response.ErrorWithStatus(c, http.StatusBadRequest, "invalid customer_id", "")
				return
			}
			filter.CustomerID = id
		}
	}

	if raw := c.Query("start"); raw != "" {
		from, err := parseTime(raw, false)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid start date", "")
			return
		}
		filter.CreatedFrom = &from
	}
	if raw := c.Query("end"); raw != "" {
		to, err := parseTime(raw, true)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid end date", "")
			return
		}
		filter.CreatedTo = &to
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	orders, total, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, gin.H{"items": orders, "total": total, "page": page})
}

// SagaBranchRequest Saga 分支请求体，与提交时的载荷一致
type SagaBranchRequest = application.SagaCheckoutPayload

// ReserveStock Saga 正向分支：扣减库存。
// 库存不足返回 409，触发 dtm 回滚。
func (h *OrderHandler) ReserveStock(c *gin.Context) {
	var req SagaBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		return
	}
	if err := h.svc.ReserveStockBranch(c.Request.Context(), req.Items); err != nil {
		h.renderSagaError(c, err)
		return
	}
	response.Success(c, gin.H{"result": "SUCCESS"})
}

// ReleaseStock Saga 补偿分支：回补库存
func (h *OrderHandler) ReleaseStock(c *gin.Context) {
	var req SagaBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		return
	}
	if err := h.svc.ReleaseStockBranch(c.Request.Context(), req.Items); err != nil {
		// 补偿失败返回 500 让 dtm 重试
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"result": "SUCCESS"})
}

// CreateOrder Saga 正向分支：创建订单并清空购物车
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req SagaBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		return
	}
	order, err := h.svc.CreateOrderBranch(c.Request.Context(), c.Query("gid"), &req)
	if err != nil {
		h.renderSagaError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder Saga 补偿分支：取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	if err := h.svc.CancelOrderBranch(c.Request.Context(), c.Query("gid")); err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"result": "SUCCESS"})
}

func (h *OrderHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, customer.ErrAddressNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, cart.ErrCartAccessDenied):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, domain.ErrEmptyCart):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, catalog.ErrInsufficientStock):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "order request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

// renderSagaError 业务性失败返回 409 触发回滚，其余返回 500 让 dtm 重试
func (h *OrderHandler) renderSagaError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrInsufficientStock) ||
		errors.Is(err, catalog.ErrProductNotFound) ||
		errors.Is(err, cart.ErrCartNotFound) {
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		return
	}
	logging.Error(c.Request.Context(), "saga branch failed", "error", err)
	response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
}

func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func isStaff(c *gin.Context) bool {
	if v, ok := c.Get("is_staff"); ok {
		if staff, ok := v.(bool); ok {
			return staff
		}
	}
	return false
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// parseTime 解析 RFC3339 或 2006-01-02；endOfDay 时日期取当天末尾
func parseTime(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
