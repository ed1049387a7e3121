package persistence

import (
	"context"
	"time"

	"PulseLink/internal/modules/delivery/domain/entity"
	"PulseLink/internal/modules/delivery/domain/repository"

	"gorm.io/gorm"
)

type alertRepositoryImpl struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) repository.AlertRepository {
	return &alertRepositoryImpl{db: db}
}

func (r *alertRepositoryImpl) Create(ctx context.Context, alert *entity.SystemAlert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepositoryImpl) ListRecent(ctx context.Context, accountId string, limit int) ([]*entity.SystemAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if accountId != "" {
		q = q.Where("account_id = ?", accountId)
	}
	var alerts []*entity.SystemAlert
	err := q.Find(&alerts).Error
	return alerts, err
}
