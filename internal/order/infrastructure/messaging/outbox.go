// Package messaging 实现事务性 outbox 与 Kafka 转发
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/order/domain"
)

// outbox 消息状态
const (
	statusPending = "pending"
	statusSent    = "sent"
)

// OutboxMessage outbox 表记录
// 与订单在同一事务内写入，保证事件不丢
type OutboxMessage struct {
	gorm.Model
	// 全局唯一消息 ID，作为 Kafka 消息 key
	MessageID string `gorm:"column:message_id;type:varchar(36);uniqueIndex;not null"`
	// 事件类型
	EventType string `gorm:"column:event_type;type:varchar(50);not null"`
	// JSON 序列化的事件体
	Payload []byte `gorm:"column:payload;type:json;not null"`
	// pending 或 sent
	Status string `gorm:"column:status;type:varchar(10);not null;default:'pending';index"`
	// 投递成功时间
	SentAt *time.Time `gorm:"column:sent_at"`
}

func (OutboxMessage) TableName() string { return "outbox_messages" }

// OutboxPublisher 事务内的事件发布器
// 不直接发 Kafka，只写 outbox 表，投递由 OutboxRelay 完成
type OutboxPublisher struct {
	db *gorm.DB
}

// NewOutboxPublisher 创建 outbox 发布器
func NewOutboxPublisher(db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{db: db}
}

func (p *OutboxPublisher) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return p.db
}

// PublishOrderPlaced 将下单事件写入 outbox 表
func (p *OutboxPublisher) PublishOrderPlaced(ctx context.Context, event *domain.OrderPlacedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	message := &OutboxMessage{
		MessageID: uuid.NewString(),
		EventType: domain.EventTypeOrderPlaced,
		Payload:   payload,
		Status:    statusPending,
	}
	return p.getDB(ctx).WithContext(ctx).Create(message).Error
}
