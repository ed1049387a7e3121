package persistence

import (
	"context"
	"time"

	"PulseLink/internal/modules/delivery/domain/entity"
	"PulseLink/internal/modules/delivery/domain/repository"

	"gorm.io/gorm"
)

type deliveryRepositoryImpl struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) repository.DeliveryRepository {
	return &deliveryRepositoryImpl{db: db}
}

func (r *deliveryRepositoryImpl) Create(ctx context.Context, record *entity.DeliveryRecord) error {
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = entity.DeliveryStatusPending
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *deliveryRepositoryImpl) GetByUuid(ctx context.Context, uuid string) (*entity.DeliveryRecord, error) {
	var record entity.DeliveryRecord
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *deliveryRepositoryImpl) MarkSent(ctx context.Context, uuid string) error {
	now := time.Now()
	// 条件限定 PENDING，保证状态不回退
	return r.db.WithContext(ctx).
		Model(&entity.DeliveryRecord{}).
		Where("uuid = ? AND status = ?", uuid, entity.DeliveryStatusPending).
		Updates(map[string]interface{}{
			"status":     entity.DeliveryStatusSent,
			"sent_at":    now,
			"updated_at": now,
		}).Error
}

func (r *deliveryRepositoryImpl) MarkFailed(ctx context.Context, uuid string, errorMsg string) error {
	return r.db.WithContext(ctx).
		Model(&entity.DeliveryRecord{}).
		Where("uuid = ? AND status = ?", uuid, entity.DeliveryStatusPending).
		Updates(map[string]interface{}{
			"status":     entity.DeliveryStatusFailed,
			"error_msg":  errorMsg,
			"updated_at": time.Now(),
		}).Error
}

func (r *deliveryRepositoryImpl) ListByAccount(ctx context.Context, accountId string, page, pageSize int) ([]*entity.DeliveryRecord, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	var records []*entity.DeliveryRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountId).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	return records, err
}
