package repository

import (
	"context"

	"PulseLink/internal/modules/delivery/domain/entity"
)

type DeliveryRepository interface {
	Create(ctx context.Context, record *entity.DeliveryRecord) error

	GetByUuid(ctx context.Context, uuid string) (*entity.DeliveryRecord, error)

	// MarkSent / MarkFailed 只对 PENDING 记录生效，状态不允许回退
	MarkSent(ctx context.Context, uuid string) error
	MarkFailed(ctx context.Context, uuid string, errorMsg string) error

	ListByAccount(ctx context.Context, accountId string, page, pageSize int) ([]*entity.DeliveryRecord, error)
}
