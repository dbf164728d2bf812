package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/rating/application"
	"github.com/wyfcoding/ecommerce/internal/rating/domain"
)

// RatingHandler 评分与推荐 HTTP 处理器
type RatingHandler struct {
	svc *application.RatingService
}

// NewRatingHandler 创建 HTTP 处理器实例
func NewRatingHandler(svc *application.RatingService) *RatingHandler {
	return &RatingHandler{svc: svc}
}

// RegisterRoutes 注册路由；authOnly 为登录校验中间件
func (h *RatingHandler) RegisterRoutes(router *gin.RouterGroup, authOnly gin.HandlerFunc) {
	router.POST("/api/v1/products/:id/ratings", authOnly, h.RateProduct)
	router.GET("/api/v1/products/:id/ratings", h.ListRatings)
	router.GET("/api/v1/recommendations", authOnly, h.Recommendations)
}

// RateRequest 评分请求
type RateRequest struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// RateProduct 评分，重复评分覆盖旧值
func (h *RatingHandler) RateProduct(c *gin.Context) {
	productID, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	rating, err := h.svc.Rate(c.Request.Context(), currentUserID(c), productID, req.Score, req.Comment)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, rating)
}

// ListRatings 列出商品的评分
func (h *RatingHandler) ListRatings(c *gin.Context) {
	productID, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	ratings, err := h.svc.ListProductRatings(c.Request.Context(), productID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, ratings)
}

// Recommendations 为当前客户返回推荐商品
func (h *RatingHandler) Recommendations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	products, err := h.svc.Recommend(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, products)
}

func (h *RatingHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, domain.ErrRatingNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidScore):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "rating request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

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
