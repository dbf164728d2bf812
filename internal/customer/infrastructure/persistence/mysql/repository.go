package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/customer/domain"
)

type customerRepository struct{ db *gorm.DB }

// NewCustomerRepository 创建客户仓储
func NewCustomerRepository(db *gorm.DB) domain.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.getDB(ctx).WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) Get(ctx context.Context, id uint) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.getDB(ctx).WithContext(ctx).
		Preload("Addresses").
		First(&customer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var customer domain.Customer
	err := r.getDB(ctx).WithContext(ctx).
		Where("email = ?", email).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	return r.getDB(ctx).WithContext(ctx).Save(customer).Error
}

func (r *customerRepository) AddAddress(ctx context.Context, address *domain.Address) error {
	return r.getDB(ctx).WithContext(ctx).Create(address).Error
}

func (r *customerRepository) DeleteAddress(ctx context.Context, customerID, addressID uint) error {
	return r.getDB(ctx).WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&domain.Address{}, addressID).Error
}
