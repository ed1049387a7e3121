package service

import (
	"context"

	"PulseLink/internal/modules/delivery/domain/entity"
	"PulseLink/internal/modules/delivery/domain/repository"
	"PulseLink/pkg/util"
	"PulseLink/pkg/ws"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

// AlertService 通知面出口：告警落库并实时推给监控端
type AlertService interface {
	Raise(ctx context.Context, accountId, severity, message string)
	ListRecent(ctx context.Context, accountId string, limit int) ([]*entity.SystemAlert, error)
}

type alertServiceImpl struct {
	alertRepo repository.AlertRepository
	hub       *ws.Hub
}

func NewAlertService(alertRepo repository.AlertRepository, hub *ws.Hub) AlertService {
	return &alertServiceImpl{alertRepo: alertRepo, hub: hub}
}

func (s *alertServiceImpl) Raise(ctx context.Context, accountId, severity, message string) {
	alert := &entity.SystemAlert{
		AlertId:   util.GenerateShortUUID(),
		AccountId: accountId,
		Severity:  severity,
		Message:   message,
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		zlog.Error("persist alert failed",
			zap.String("account_id", accountId),
			zap.Error(err),
		)
	}
	if s.hub != nil {
		_ = s.hub.BroadcastJSON("alerts", alert)
	}
}

func (s *alertServiceImpl) ListRecent(ctx context.Context, accountId string, limit int) ([]*entity.SystemAlert, error) {
	return s.alertRepo.ListRecent(ctx, accountId, limit)
}
