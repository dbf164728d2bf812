package domain

import "context"

// CustomerRepository 客户仓储接口
type CustomerRepository interface {
	// Create 创建客户
	Create(ctx context.Context, customer *Customer) error
	// Get 获取客户，预加载地址
	Get(ctx context.Context, id uint) (*Customer, error)
	// GetByEmail 按邮箱获取客户
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	// Save 更新客户
	Save(ctx context.Context, customer *Customer) error
	// AddAddress 新增收货地址
	AddAddress(ctx context.Context, address *Address) error
	// DeleteAddress 删除收货地址
	DeleteAddress(ctx context.Context, customerID, addressID uint) error
}
