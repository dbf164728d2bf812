package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// 去重标记保留时长，超过后重复消息按新消息处理
const dedupeTTL = 24 * time.Hour

// DedupeStore 按 key 去重，生产实现为 pkg/cache 的 SetNX
type DedupeStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}

// OrderEventConsumer 消费下单事件并记录履约确认。
// outbox 转发是至少一次投递，按消息 key（message_id）去重。
type OrderEventConsumer struct {
	consumer *mq.KafkaConsumer
	dedupe   DedupeStore
}

// NewOrderEventConsumer 创建下单事件消费者
func NewOrderEventConsumer(consumer *mq.KafkaConsumer, dedupe DedupeStore) *OrderEventConsumer {
	return &OrderEventConsumer{consumer: consumer, dedupe: dedupe}
}

// Run 持续消费直到 ctx 取消
func (c *OrderEventConsumer) Run(ctx context.Context) {
	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "read order event failed", "error", err)
			continue
		}
		if _, err := c.Handle(ctx, msg.Key, msg.Value); err != nil {
			logger.Error(ctx, "handle order event failed", "message_id", msg.Key, "error", err)
		}
	}
}

// Handle 处理单条下单事件，返回是否为首次处理。
// 重复消息直接丢弃。
func (c *OrderEventConsumer) Handle(ctx context.Context, messageID string, payload []byte) (bool, error) {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return false, err
	}

	fresh, err := c.dedupe.SetNX(ctx, "order:event:"+messageID, 1, dedupeTTL)
	if err != nil {
		return false, err
	}
	if !fresh {
		logger.Debug(ctx, "duplicate order event skipped", "message_id", messageID, "order_id", event.OrderID)
		return false, nil
	}

	logger.Info(ctx, "order placed event consumed",
		"order_id", event.OrderID,
		"customer_id", event.CustomerID,
		"total", event.Total,
		"items", len(event.Items),
	)
	return true, nil
}
