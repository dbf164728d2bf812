package messaging

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// OutboxRelay 轮询 outbox 表并将待投递消息发送到 Kafka
type OutboxRelay struct {
	db       *gorm.DB
	producer *mq.KafkaProducer
	topic    string
	interval time.Duration
	batch    int
}

// NewOutboxRelay 创建转发器
func NewOutboxRelay(db *gorm.DB, producer *mq.KafkaProducer, topic string) *OutboxRelay {
	return &OutboxRelay{
		db:       db,
		producer: producer,
		topic:    topic,
		interval: time.Second,
		batch:    100,
	}
}

// Run 阻塞运行直到 ctx 取消，通常放在独立 goroutine 中
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info(ctx, "outbox relay started", "topic", r.topic, "interval", r.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.relayOnce(ctx); err != nil {
				logger.Error(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

// relayOnce 投递一批待发送消息。
// 先发 Kafka 再标记 sent，宕机时可能重复投递，消费方需按 message_id 幂等。
func (r *OutboxRelay) relayOnce(ctx context.Context) error {
	var messages []OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", statusPending).
		Order("id").
		Limit(r.batch).
		Find(&messages).Error
	if err != nil {
		return err
	}

	for i := range messages {
		msg := &messages[i]
		if err := r.producer.SendRaw(ctx, r.topic, msg.MessageID, msg.Payload); err != nil {
			// 投递失败保持 pending，下一轮重试
			return err
		}
		now := time.Now()
		err := r.db.WithContext(ctx).
			Model(&OutboxMessage{}).
			Where("id = ?", msg.ID).
			Updates(map[string]interface{}{"status": statusSent, "sent_at": &now}).Error
		if err != nil {
			return err
		}
		logger.Debug(ctx, "outbox message relayed", "message_id", msg.MessageID, "event_type", msg.EventType)
	}
	return nil
}
