package repository

import (
	"context"

	"PulseLink/internal/modules/delivery/domain/entity"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *entity.SystemAlert) error

	ListRecent(ctx context.Context, accountId string, limit int) ([]*entity.SystemAlert, error)
}
