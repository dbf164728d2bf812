package domain

import (
	"context"
	"time"
)

// ListFilter 订单列表过滤条件
type ListFilter struct {
	// CustomerID 非零时只返回该客户的订单
	CustomerID uint
	// CreatedFrom 创建时间下界，含边界
	CreatedFrom *time.Time
	// CreatedTo 创建时间上界，含边界
	CreatedTo *time.Time
	Offset    int
	Limit     int
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 创建订单及其行项目
	Create(ctx context.Context, order *Order) error
	// Get 获取订单，预加载行项目
	Get(ctx context.Context, id uint) (*Order, error)
	// GetByGID 按 Saga 全局事务 ID 获取订单，分支幂等去重使用
	GetByGID(ctx context.Context, gid string) (*Order, error)
	// List 按过滤条件列出订单，按创建时间倒序
	List(ctx context.Context, filter ListFilter) ([]*Order, int64, error)
	// UpdateStatus 更新订单状态，Saga 补偿时使用
	UpdateStatus(ctx context.Context, id uint, status string) error
}
