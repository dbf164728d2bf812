package domain

import (
	"context"
	"time"
)

// EventTypeOrderPlaced 下单事件类型标识
const EventTypeOrderPlaced = "order.placed"

// OrderPlacedEvent 下单领域事件，经事务性 outbox 转发到消息队列
type OrderPlacedEvent struct {
	OrderID    uint                   `json:"order_id"`
	CustomerID uint                   `json:"customer_id"`
	Total      string                 `json:"total"`
	Items      []OrderPlacedEventItem `json:"items"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// OrderPlacedEventItem 事件中的订单行
type OrderPlacedEventItem struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// NewOrderPlacedEvent 从订单构建下单事件
func NewOrderPlacedEvent(order *Order) *OrderPlacedEvent {
	event := &OrderPlacedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Total:      order.Total.StringFixed(2),
		OccurredAt: time.Now(),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, OrderPlacedEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
		})
	}
	return event
}

// EventPublisher 领域事件发布接口
// 事务内的实现写 outbox 表，由后台转发器投递
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *OrderPlacedEvent) error
}
