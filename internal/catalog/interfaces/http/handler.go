package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ecommerce/internal/catalog/application"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

// CatalogHandler HTTP 处理器
// 负责商品与分类相关的 HTTP 请求
type CatalogHandler struct {
	svc *application.CatalogService
}

// NewCatalogHandler 创建 HTTP 处理器实例
func NewCatalogHandler(svc *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// RegisterRoutes 注册路由；staffOnly 为后台管理接口的鉴权中间件
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup, staffOnly gin.HandlerFunc) {
	products := router.Group("/api/v1/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", staffOnly, h.CreateProduct)
		products.PATCH("/:id", staffOnly, h.UpdateProduct)
		products.POST("/:id/categories", staffOnly, h.AttachCategories)
		products.DELETE("/:id/categories", staffOnly, h.DetachCategories)
	}
	categories := router.Group("/api/v1/categories")
	{
		categories.GET("", h.ListCategories)
		categories.GET("/accessed", h.MostAccessedCategories)
		categories.GET("/purchased", h.MostPurchasedCategories)
		categories.GET("/revenue", staffOnly, h.TopRevenueCategories)
	}
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Description     string   `json:"description" binding:"required"`
	FullDescription string   `json:"full_description"`
	Price           string   `json:"price" binding:"required"`
	Stock           int      `json:"stock" binding:"min=0"`
	StockLimit      int      `json:"stock_limit" binding:"min=0"`
	Categories      []string `json:"categories"`
}

// CreateProduct 创建商品
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid price", "")
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Description:     req.Description,
		FullDescription: req.FullDescription,
		Price:           price,
		Stock:           req.Stock,
		StockLimit:      req.StockLimit,
		Categories:      req.Categories,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "failed to create product", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, product)
}

// UpdateProductRequest 更新商品请求
type UpdateProductRequest struct {
	Description     *string `json:"description"`
	FullDescription *string `json:"full_description"`
	Price           *string `json:"price"`
	Stock           *int    `json:"stock"`
	StockLimit      *int    `json:"stock_limit"`
}

// UpdateProduct 更新商品
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.UpdateProductCommand{
		Description:     req.Description,
		FullDescription: req.FullDescription,
		Stock:           req.Stock,
		StockLimit:      req.StockLimit,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid price", "")
			return
		}
		cmd.Price = &price
	}

	product, err := h.svc.UpdateProduct(c.Request.Context(), id, cmd)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, product)
}

// GetProduct 获取商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	product, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, product)
}

// ListProducts 搜索商品；tags 为逗号分隔的分类 slug
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var slugs []string
	if tags := c.Query("tags"); tags != "" {
		slugs = strings.Split(tags, ",")
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	products, total, err := h.svc.ListProducts(c.Request.Context(), c.Query("search"), slugs, page, size)
	if err != nil {
		logging.Error(c.Request.Context(), "failed to list products", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"items": products, "total": total, "page": page})
}

// CategoriesRequest 分类批量操作请求
type CategoriesRequest struct {
	Categories []string `json:"categories" binding:"required,min=1"`
}

// AttachCategories 为商品添加分类
func (h *CatalogHandler) AttachCategories(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	var req CategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.svc.AttachCategories(c.Request.Context(), id, req.Categories); err != nil {
		h.renderError(c, err)
		return
	}
	product, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, product)
}

// DetachCategories 摘除商品分类；categories 为 slug 列表
func (h *CatalogHandler) DetachCategories(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", "")
		return
	}
	var req CategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.svc.DetachCategories(c.Request.Context(), id, req.Categories); err != nil {
		h.renderError(c, err)
		return
	}
	product, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, product)
}

// ListCategories 列出全部分类
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, categories)
}

// MostAccessedCategories 访问最多的分类
func (h *CatalogHandler) MostAccessedCategories(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	categories, err := h.svc.MostAccessedCategories(c.Request.Context(), limit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, categories)
}

// MostPurchasedCategories 购买最多的分类
func (h *CatalogHandler) MostPurchasedCategories(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	stats, err := h.svc.MostPurchasedCategories(c.Request.Context(), limit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, stats)
}

// TopRevenueCategories 收入最高的分类
func (h *CatalogHandler) TopRevenueCategories(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	stats, err := h.svc.TopRevenueCategories(c.Request.Context(), limit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, stats)
}

func (h *CatalogHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCategoryNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "catalog request failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
