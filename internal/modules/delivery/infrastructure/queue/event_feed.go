package queue

import (
	"context"
	"encoding/json"
	"strings"

	"PulseLink/internal/modules/delivery/infrastructure/mq"
	presenceService "PulseLink/internal/modules/presence/application/service"
	"PulseLink/pkg/ws"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

// EventFeed 把监督器事件流写入 Kafka 并推送到监控 WebSocket。
// 同一账号的事件按 accountId 作 key，保证分区内有序。
type EventFeed struct {
	pub   mq.Publisher
	topic string
	hub   *ws.Hub
}

func NewEventFeed(pub mq.Publisher, topic string, hub *ws.Hub) *EventFeed {
	return &EventFeed{
		pub:   pub,
		topic: strings.TrimSpace(topic),
		hub:   hub,
	}
}

func (f *EventFeed) Publish(ctx context.Context, record presenceService.FeedRecord) {
	if f == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		zlog.Warn("event feed marshal failed",
			zap.String("type", record.Type),
			zap.String("account_id", record.AccountId),
			zap.Error(err))
		return
	}

	if f.pub != nil && f.topic != "" {
		_, pubErr := f.pub.Publish(ctx, mq.Message{
			Topic: f.topic,
			Key:   []byte(record.AccountId),
			Value: payload,
			Headers: map[string]string{
				"event_type": record.Type,
				"account_id": record.AccountId,
			},
		})
		if pubErr != nil {
			// 事件流是尽力而为，发布失败不阻塞监督器
			zlog.Warn("event feed publish failed",
				zap.String("type", record.Type),
				zap.String("account_id", record.AccountId),
				zap.Error(pubErr))
		}
	}

	if f.hub != nil {
		f.hub.Broadcast("events", payload)
	}
}
