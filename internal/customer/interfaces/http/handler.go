package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/ecommerce/internal/customer/application"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
)

// CustomerHandler 客户 HTTP 处理器
type CustomerHandler struct {
	svc *application.CustomerService
}

// NewCustomerHandler 创建 HTTP 处理器实例
func NewCustomerHandler(svc *application.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// RegisterRoutes 注册路由；authOnly 为登录校验中间件
func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup, authOnly gin.HandlerFunc) {
	customers := router.Group("/api/v1/customers")
	{
		customers.POST("/register", h.Register)
		customers.POST("/login", h.Login)
		customers.GET("/me", authOnly, h.Profile)
		customers.POST("/me/addresses", authOnly, h.AddAddress)
		customers.DELETE("/me/addresses/:id", authOnly, h.DeleteAddress)
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	CPF       string `json:"cpf"`
	Gender    string `json:"gender"`
	BirthDate string `json:"birth_date"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

// Register 注册客户
func (h *CustomerHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	cmd := application.RegisterCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CPF:       req.CPF,
		Gender:    req.Gender,
		Email:     req.Email,
		Password:  req.Password,
	}
	if req.BirthDate != "" {
		birth, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid birth_date, expected 2006-01-02", "")
			return
		}
		cmd.BirthDate = &birth
	}

	customer, err := h.svc.Register(c.Request.Context(), cmd)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, customer)
}

// LoginRequest 登录请求；cart_id 为登录前的匿名购物车
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	CartID   uint   `json:"cart_id"`
}

// Login 登录并签发 JWT，同时认领或合并匿名购物车
func (h *CustomerHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, req.CartID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, result)
}

// Profile 获取当前客户资料
func (h *CustomerHandler) Profile(c *gin.Context) {
	customer, err := h.svc.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, customer)
}

// AddAddressRequest 新增地址请求
type AddAddressRequest struct {
	Street     string `json:"street" binding:"required"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required,len=2"`
	ZipCode    string `json:"zip_code"`
}

// AddAddress 为当前客户新增收货地址
func (h *CustomerHandler) AddAddress(c *gin.Context) {
	var req AddAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	address, err := h.svc.AddAddress(c.Request.Context(), currentUserID(c), application.AddAddressCommand{
		Street:     req.Street,
		Number:     req.Number,
		Complement: req.Complement,
		District:   req.District,
		City:       req.City,
		State:      req.State,
		ZipCode:    req.ZipCode,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, address)
}

// DeleteAddress 删除当前客户的收货地址
func (h *CustomerHandler) DeleteAddress(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid address id", "")
		return
	}
	if err := h.svc.DeleteAddress(c.Request.Context(), currentUserID(c), uint(id)); err != nil {
		h.renderError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

func (h *CustomerHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.ErrorWithStatus(c, http.StatusUnauthorized, err.Error(), "")
	case errors.Is(err, domain.ErrEmailTaken):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, domain.ErrCustomerNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), "customer request failed", "error", err)
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
