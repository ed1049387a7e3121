package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"PulseLink/internal/modules/delivery/application/service"
	"PulseLink/internal/modules/delivery/infrastructure/mq"
	"PulseLink/pkg/util"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

// deliveryRequest 外部系统经 Kafka 注入的投递请求
type deliveryRequest struct {
	AccountId    string `json:"accountId"`
	FriendId     string `json:"friendId"`
	ActivityId   string `json:"activityId"`
	ContentType  string `json:"contentType"`
	TriggerValue string `json:"triggerValue"`
}

// RequestConsumerWorker 消费投递请求主题，逐条转交投递协调器。
// 非法消息直接丢弃，不做重试。
type RequestConsumerWorker struct {
	consumer mq.Consumer
	delivery service.DeliveryService
}

func NewRequestConsumerWorker(consumer mq.Consumer, delivery service.DeliveryService) *RequestConsumerWorker {
	return &RequestConsumerWorker{
		consumer: consumer,
		delivery: delivery,
	}
}

func (w *RequestConsumerWorker) Run(ctx context.Context) error {
	if w == nil || w.consumer == nil {
		return errors.New("consumer is nil")
	}
	if w.delivery == nil {
		return errors.New("delivery service is nil")
	}
	return w.consumer.Run(ctx, w)
}

func (w *RequestConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	var req deliveryRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		zlog.Warn("delivery request consumer invalid payload", zap.String("topic", msg.Topic), zap.Error(err))
		return nil
	}

	req.AccountId = strings.TrimSpace(req.AccountId)
	req.FriendId = strings.TrimSpace(req.FriendId)
	if req.AccountId == "" || req.FriendId == "" {
		zlog.Warn("delivery request consumer missing account or friend", zap.String("topic", msg.Topic))
		return nil
	}

	activityId := strings.TrimSpace(req.ActivityId)
	if activityId == "" {
		activityId = util.GenerateShortUUID()
	}

	ok := w.delivery.HandleTrigger(ctx, req.AccountId, req.FriendId, activityId, strings.TrimSpace(req.ContentType), strings.TrimSpace(req.TriggerValue))
	if !ok {
		zlog.Info("delivery request rejected",
			zap.String("account_id", req.AccountId),
			zap.String("friend_id", req.FriendId),
			zap.String("content_type", req.ContentType))
	}
	return nil
}
