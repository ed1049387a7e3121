package persistence

import (
	"context"
	"time"

	"PulseLink/internal/modules/account/domain/entity"
	"PulseLink/internal/modules/account/domain/repository"

	"gorm.io/gorm"
)

type accountRepositoryImpl struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepositoryImpl{db: db}
}

func (r *accountRepositoryImpl) Create(ctx context.Context, account *entity.Account) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepositoryImpl) GetByUuid(ctx context.Context, accountId string) (*entity.Account, error) {
	var account entity.Account
	err := r.db.WithContext(ctx).Where("uuid = ?", accountId).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepositoryImpl) ListEnabled(ctx context.Context) ([]*entity.Account, error) {
	var accounts []*entity.Account
	err := r.db.WithContext(ctx).Where("enabled = ?", true).Find(&accounts).Error
	return accounts, err
}

func (r *accountRepositoryImpl) UpdateSettings(ctx context.Context, accountId string, autoReconnect bool, statusIntervalSeconds int) error {
	return r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("uuid = ?", accountId).
		Updates(map[string]interface{}{
			"auto_reconnect":          autoReconnect,
			"status_interval_seconds": statusIntervalSeconds,
			"updated_at":              time.Now(),
		}).Error
}
