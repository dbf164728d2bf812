package domain

import "context"

// CartRepository 购物车仓储接口
type CartRepository interface {
	// Create 创建空购物车
	Create(ctx context.Context) (*Cart, error)
	// Get 获取购物车及其行项目，行按创建顺序排列
	Get(ctx context.Context, id uint) (*Cart, error)
	// Save 持久化购物车，删除不再存在的行
	Save(ctx context.Context, cart *Cart) error
	// Delete 删除购物车及其全部行
	Delete(ctx context.Context, id uint) error
}
