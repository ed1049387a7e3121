package service

import (
	"context"

	accountService "PulseLink/internal/modules/account/application/service"
	accountRepository "PulseLink/internal/modules/account/domain/repository"
	contentService "PulseLink/internal/modules/content/application/service"
	"PulseLink/internal/modules/delivery/domain/entity"
	"PulseLink/internal/modules/delivery/domain/repository"
	"PulseLink/internal/modules/presence/infrastructure/worker"
	"PulseLink/pkg/util"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

// WorkerDispatcher 把投递命令送达目标账号连接，由监督器实现
type WorkerDispatcher interface {
	DispatchContent(accountId string, cmd worker.DeliveryCommand) bool
}

// DeliveryService 投递协调器：解析触发、检索内容、落 PENDING 记录、
// 向工作单元派发命令，并处理异步投递回执。
type DeliveryService interface {
	// HandleTrigger 返回命令是否成功派发（非投递最终结果）
	HandleTrigger(ctx context.Context, accountId, friendId, activityId, contentType, triggerValue string) bool

	// ConfirmDelivery 工作单元回执：failure 为空表示发送成功
	ConfirmDelivery(ctx context.Context, recordId string, failure string)

	ListDeliveries(ctx context.Context, accountId string, page, pageSize int) ([]*entity.DeliveryRecord, error)
}

type deliveryServiceImpl struct {
	accountRepo  accountRepository.AccountRepository
	prefSvc      accountService.PreferenceService
	resolver     contentService.ResolverService
	deliveryRepo repository.DeliveryRepository
	dispatcher   WorkerDispatcher
}

func NewDeliveryService(
	accountRepo accountRepository.AccountRepository,
	prefSvc accountService.PreferenceService,
	resolver contentService.ResolverService,
	deliveryRepo repository.DeliveryRepository,
	dispatcher WorkerDispatcher,
) DeliveryService {
	return &deliveryServiceImpl{
		accountRepo:  accountRepo,
		prefSvc:      prefSvc,
		resolver:     resolver,
		deliveryRepo: deliveryRepo,
		dispatcher:   dispatcher,
	}
}

func (s *deliveryServiceImpl) HandleTrigger(ctx context.Context, accountId, friendId, activityId, contentType, triggerValue string) bool {
	if accountId == "" || friendId == "" || contentType == "" || triggerValue == "" {
		return false
	}

	if _, err := s.accountRepo.GetByUuid(ctx, accountId); err != nil {
		zlog.Warn("handle trigger: account not found",
			zap.String("account_id", accountId),
			zap.Error(err),
		)
		return false
	}
	prefs, err := s.prefSvc.GetTriggerPrefs(ctx, accountId, friendId)
	if err != nil {
		return false
	}
	if prefs.Blacklisted || !prefs.ContentEnabled {
		return false
	}

	candidate, err := s.resolver.Resolve(ctx, contentType, triggerValue)
	if err != nil || candidate == nil {
		// 无内容视作本次不触发，不算错误
		return false
	}

	record := &entity.DeliveryRecord{
		Uuid:          util.GenerateShortUUID(),
		AccountId:     accountId,
		FriendId:      friendId,
		ActivityId:    activityId,
		ContentUrl:    candidate.URL,
		ContentTitle:  candidate.Title,
		ContentSource: candidate.Source,
		TriggerType:   contentType,
		TriggerValue:  triggerValue,
		Status:        entity.DeliveryStatusPending,
	}
	if err := s.deliveryRepo.Create(ctx, record); err != nil {
		zlog.Error("create delivery record failed",
			zap.String("account_id", accountId),
			zap.String("friend_id", friendId),
			zap.Error(err),
		)
		return false
	}

	ok := s.dispatcher.DispatchContent(accountId, worker.DeliveryCommand{
		FriendId:      friendId,
		ContentURL:    candidate.URL,
		ContentTitle:  candidate.Title,
		ContentSource: candidate.Source,
		TriggerType:   contentType,
		TriggerValue:  triggerValue,
		RecordId:      record.Uuid,
	})
	if !ok {
		_ = s.deliveryRepo.MarkFailed(ctx, record.Uuid, "dispatch failed: worker unavailable")
		return false
	}

	zlog.Info("delivery dispatched",
		zap.String("account_id", accountId),
		zap.String("friend_id", friendId),
		zap.String("record_id", record.Uuid),
		zap.String("trigger_type", contentType),
		zap.String("trigger_value", triggerValue),
	)
	return true
}

func (s *deliveryServiceImpl) ConfirmDelivery(ctx context.Context, recordId string, failure string) {
	if recordId == "" {
		return
	}
	var err error
	if failure == "" {
		err = s.deliveryRepo.MarkSent(ctx, recordId)
	} else {
		err = s.deliveryRepo.MarkFailed(ctx, recordId, failure)
	}
	if err != nil {
		zlog.Error("confirm delivery failed",
			zap.String("record_id", recordId),
			zap.Error(err),
		)
	}
}

func (s *deliveryServiceImpl) ListDeliveries(ctx context.Context, accountId string, page, pageSize int) ([]*entity.DeliveryRecord, error) {
	return s.deliveryRepo.ListByAccount(ctx, accountId, page, pageSize)
}
