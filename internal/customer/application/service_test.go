package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cart "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
	offer "github.com/wyfcoding/ecommerce/internal/offer/domain"
)

type fakeCustomerRepo struct {
	customers map[uint]*domain.Customer
	nextID    uint
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uint]*domain.Customer), nextID: 1}
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	customer.ID = r.nextID
	r.nextID++
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) Get(_ context.Context, id uint) (*domain.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return customer, nil
}

func (r *fakeCustomerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, customer := range r.customers {
		if customer.Email == email {
			return customer, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *fakeCustomerRepo) Save(_ context.Context, customer *domain.Customer) error {
	r.customers[customer.ID] = customer
	return nil
}

func (r *fakeCustomerRepo) AddAddress(_ context.Context, address *domain.Address) error {
	customer, ok := r.customers[address.CustomerID]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	customer.Addresses = append(customer.Addresses, *address)
	return nil
}

func (r *fakeCustomerRepo) DeleteAddress(context.Context, uint, uint) error { return nil }

type fakeCartRepo struct {
	carts  map[uint]*cart.Cart
	nextID uint
}

func (r *fakeCartRepo) Create(context.Context) (*cart.Cart, error) {
	c := &cart.Cart{}
	c.ID = r.nextID
	r.nextID++
	r.carts[c.ID] = c
	return c, nil
}

func (r *fakeCartRepo) Get(_ context.Context, id uint) (*cart.Cart, error) {
	c, ok := r.carts[id]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return c, nil
}

func (r *fakeCartRepo) Save(_ context.Context, c *cart.Cart) error {
	r.carts[c.ID] = c
	return nil
}

func (r *fakeCartRepo) Delete(_ context.Context, id uint) error {
	delete(r.carts, id)
	return nil
}

type fakeProductRepo struct{ products map[uint]*catalog.Product }

func (r *fakeProductRepo) Get(_ context.Context, id uint) (*catalog.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}
func (r *fakeProductRepo) GetForUpdate(ctx context.Context, id uint) (*catalog.Product, error) {
	return r.Get(ctx, id)
}
func (r *fakeProductRepo) Save(context.Context, *catalog.Product) error { return nil }
func (r *fakeProductRepo) List(context.Context, string, []string, int, int) ([]*catalog.Product, int64, error) {
	return nil, 0, nil
}
func (r *fakeProductRepo) Delete(context.Context, uint) error { return nil }
func (r *fakeProductRepo) AttachCategory(context.Context, *catalog.Product, *catalog.Category) error {
	return nil
}
func (r *fakeProductRepo) DetachCategory(context.Context, *catalog.Product, *catalog.Category) error {
	return nil
}

type fakeOfferRepo struct{}

func (fakeOfferRepo) CreateReplacing(context.Context, *offer.Offer) error { return nil }
func (fakeOfferRepo) GetActive(context.Context, uint, time.Time) (*offer.Offer, error) {
	return nil, offer.ErrOfferNotFound
}
func (fakeOfferRepo) GetActiveByProduct(context.Context, uint, time.Time) (*offer.Offer, error) {
	return nil, nil
}
func (fakeOfferRepo) ListActive(context.Context, time.Time, *bool) ([]*offer.Offer, error) {
	return nil, nil
}
func (fakeOfferRepo) Save(context.Context, *offer.Offer) error { return nil }
func (fakeOfferRepo) Delete(context.Context, uint) error       { return nil }

func setup() (*CustomerService, *fakeCustomerRepo, *fakeCartRepo) {
	keyboard := &catalog.Product{Description: "keyboard", Price: decimal.RequireFromString("100.00"), Stock: 10, StockLimit: 100}
	keyboard.ID = 1

	customers := newFakeCustomerRepo()
	cartRepo := &fakeCartRepo{carts: make(map[uint]*cart.Cart), nextID: 1}
	carts := cartapp.NewCartService(cartRepo, &fakeProductRepo{products: map[uint]*catalog.Product{1: keyboard}}, fakeOfferRepo{})
	svc := NewCustomerService(customers, carts, TokenConfig{Secret: "test-secret", ExpireHours: 24})
	return svc, customers, cartRepo
}

func register(t *testing.T, svc *CustomerService) *domain.Customer {
	t.Helper()
	customer, err := svc.Register(context.Background(), RegisterCommand{
		FirstName: "Maria",
		Email:     "maria@example.com",
		Password:  "secret123",
	})
	require.NoError(t, err)
	return customer
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, _, _ := setup()
	customer := register(t, svc)

	assert.NotEqual(t, "secret123", customer.PasswordHash)
	assert.True(t, customer.CheckPassword("secret123"))
	assert.False(t, customer.CheckPassword("wrong"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := setup()
	register(t, svc)

	_, err := svc.Register(context.Background(), RegisterCommand{
		FirstName: "Other",
		Email:     "maria@example.com",
		Password:  "another1",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginIssuesParsableToken(t *testing.T) {
	svc, _, _ := setup()
	customer := register(t, svc)

	result, err := svc.Login(context.Background(), "maria@example.com", "secret123", 0)
	require.NoError(t, err)

	claims, err := ParseToken(result.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, claims.UserID)
	assert.False(t, claims.IsStaff)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := setup()
	register(t, svc)

	_, err := svc.Login(context.Background(), "maria@example.com", "wrong", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "ghost@example.com", "secret123", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

// 客户没有购物车时登录直接认领匿名购物车
func TestLoginClaimsAnonymousCart(t *testing.T) {
	svc, customers, cartRepo := setup()
	customer := register(t, svc)

	anon, err := cartRepo.Create(context.Background())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "maria@example.com", "secret123", anon.ID)
	require.NoError(t, err)

	saved := customers.customers[customer.ID]
	require.NotNil(t, saved.CartID)
	assert.Equal(t, anon.ID, *saved.CartID)

	// 购物车本身也被标记归属，其他客户不再能操作
	claimed, err := cartRepo.Get(context.Background(), anon.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.CustomerID)
	assert.Equal(t, customer.ID, *claimed.CustomerID)
}

// 匿名购物车已归属他人时登录照常成功，不做关联
func TestLoginForeignCartIgnored(t *testing.T) {
	svc, customers, cartRepo := setup()
	customer := register(t, svc)

	foreign, err := cartRepo.Create(context.Background())
	require.NoError(t, err)
	foreign.Claim(customer.ID + 1)
	require.NoError(t, cartRepo.Save(context.Background(), foreign))

	result, err := svc.Login(context.Background(), "maria@example.com", "secret123", foreign.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Nil(t, customers.customers[customer.ID].CartID)
}

// 客户已有购物车时登录把匿名购物车合并进去并删除匿名车
func TestLoginMergesAnonymousCart(t *testing.T) {
	svc, customers, cartRepo := setup()
	customer := register(t, svc)

	owned, err := cartRepo.Create(context.Background())
	require.NoError(t, err)
	customer.CartID = &owned.ID
	require.NoError(t, customers.Save(context.Background(), customer))

	anon, err := cartRepo.Create(context.Background())
	require.NoError(t, err)
	anon.Items = []cart.CartItem{{CartID: anon.ID, ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("100.00")}}
	require.NoError(t, cartRepo.Save(context.Background(), anon))

	_, err = svc.Login(context.Background(), "maria@example.com", "secret123", anon.ID)
	require.NoError(t, err)

	merged, err := cartRepo.Get(context.Background(), owned.ID)
	require.NoError(t, err)
	require.NotNil(t, merged.Item(1))
	assert.Equal(t, 2, merged.Item(1).Quantity)

	_, err = cartRepo.Get(context.Background(), anon.ID)
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
}

// 匿名购物车已不存在时登录照常成功
func TestLoginMissingAnonymousCartIgnored(t *testing.T) {
	svc, _, _ := setup()
	register(t, svc)

	result, err := svc.Login(context.Background(), "maria@example.com", "secret123", 999)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	svc, _, _ := setup()
	register(t, svc)

	result, err := svc.Login(context.Background(), "maria@example.com", "secret123", 0)
	require.NoError(t, err)

	_, err = ParseToken(result.Token, "other-secret")
	assert.Error(t, err)
}
