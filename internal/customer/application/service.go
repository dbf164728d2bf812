// Package application 编排客户用例：注册、登录与购物车认领
package application

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/pkg/logging"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
)

// TokenConfig JWT 签发配置
type TokenConfig struct {
	Secret      string
	ExpireHours int
}

// Claims JWT 载荷
type Claims struct {
	UserID  uint `json:"user_id"`
	IsStaff bool `json:"is_staff"`
	jwt.RegisteredClaims
}

// CustomerService 客户应用服务
type CustomerService struct {
	customers domain.CustomerRepository
	carts     *cartapp.CartService
	token     TokenConfig
}

// NewCustomerService 构造函数
func NewCustomerService(customers domain.CustomerRepository, carts *cartapp.CartService, token TokenConfig) *CustomerService {
	return &CustomerService{customers: customers, carts: carts, token: token}
}

// RegisterCommand 注册命令
type RegisterCommand struct {
	FirstName string
	LastName  string
	CPF       string
	Gender    string
	BirthDate *time.Time
	Email     string
	Password  string
}

// Register 注册客户
func (s *CustomerService) Register(ctx context.Context, cmd RegisterCommand) (*domain.Customer, error) {
	if _, err := s.customers.GetByEmail(ctx, cmd.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrCustomerNotFound) {
		return nil, err
	}

	customer := &domain.Customer{
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		CPF:       cmd.CPF,
		Gender:    cmd.Gender,
		BirthDate: cmd.BirthDate,
		Email:     cmd.Email,
	}
	if err := customer.SetPassword(cmd.Password); err != nil {
		return nil, err
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	logging.Info(ctx, "customer registered", "customer_id", customer.ID, "email", customer.Email)
	return customer, nil
}

// LoginResult 登录结果
type LoginResult struct {
	Token    string           `json:"token"`
	Customer *domain.Customer `json:"customer"`
	// 登录时匿名购物车被合并产生的提示
	CartMessages []string `json:"cart_messages,omitempty"`
}

// Login 校验凭据并签发 JWT。
// anonymousCartID 非零时处理匿名购物车：客户没有购物车则直接认领，
// 已有购物车则把匿名购物车合并进去并删除匿名车。
func (s *CustomerService) Login(ctx context.Context, email, password string, anonymousCartID uint) (*LoginResult, error) {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !customer.CheckPassword(password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 匿名购物车已不存在或归属他人时照常登录，不做关联
	var cartMessages []string
	if anonymousCartID != 0 {
		cartMessages, err = s.adoptCart(ctx, customer, anonymousCartID)
		if err != nil && !errors.Is(err, cart.ErrCartNotFound) && !errors.Is(err, cart.ErrCartAccessDenied) {
			return nil, err
		}
	}

	token, err := s.issueToken(customer)
	if err != nil {
		return nil, err
	}
	logging.Info(ctx, "customer logged in", "customer_id", customer.ID)
	return &LoginResult{Token: token, Customer: customer, CartMessages: cartMessages}, nil
}

// adoptCart 认领或合并匿名购物车
func (s *CustomerService) adoptCart(ctx context.Context, customer *domain.Customer, anonymousCartID uint) ([]string, error) {
	if customer.CartID == nil {
		if err := s.carts.Claim(ctx, anonymousCartID, customer.ID); err != nil {
			return nil, err
		}
		customer.CartID = &anonymousCartID
		return nil, s.customers.Save(ctx, customer)
	}
	if *customer.CartID == anonymousCartID {
		return nil, nil
	}

	res, err := s.carts.Merge(ctx, *customer.CartID, anonymousCartID, customer.ID)
	if err != nil {
		return nil, err
	}
	return res.Messages, nil
}

// GetProfile 获取客户资料
func (s *CustomerService) GetProfile(ctx context.Context, id uint) (*domain.Customer, error) {
	return s.customers.Get(ctx, id)
}

// AddAddressCommand 新增地址命令
type AddAddressCommand struct {
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	ZipCode    string
}

// AddAddress 为客户新增收货地址
func (s *CustomerService) AddAddress(ctx context.Context, customerID uint, cmd AddAddressCommand) (*domain.Address, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return nil, err
	}
	address := &domain.Address{
		CustomerID: customerID,
		Street:     cmd.Street,
		Number:     cmd.Number,
		Complement: cmd.Complement,
		District:   cmd.District,
		City:       cmd.City,
		State:      cmd.State,
		ZipCode:    cmd.ZipCode,
	}
	if err := s.customers.AddAddress(ctx, address); err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress 删除客户的收货地址
func (s *CustomerService) DeleteAddress(ctx context.Context, customerID, addressID uint) error {
	return s.customers.DeleteAddress(ctx, customerID, addressID)
}

func (s *CustomerService) issueToken(customer *domain.Customer) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  customer.ID,
		IsStaff: customer.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.token.ExpireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.token.Secret))
}

// ParseToken 解析并校验 JWT，鉴权中间件使用
func ParseToken(raw, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
