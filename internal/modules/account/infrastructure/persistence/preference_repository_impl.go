package persistence

import (
	"context"
	"time"

	"PulseLink/internal/modules/account/domain/entity"
	"PulseLink/internal/modules/account/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type preferenceRepositoryImpl struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) repository.PreferenceRepository {
	return &preferenceRepositoryImpl{db: db}
}

func (r *preferenceRepositoryImpl) GetByAccountAndFriend(ctx context.Context, accountId, friendId string) (*entity.FriendPreference, error) {
	var pref entity.FriendPreference
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND friend_id = ?", accountId, friendId).
		First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func (r *preferenceRepositoryImpl) Upsert(ctx context.Context, pref *entity.FriendPreference) error {
	now := time.Now()
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}
	pref.UpdatedAt = now
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "friend_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"enabled_types", "blacklisted", "start_hour", "end_hour", "content_enabled", "updated_at",
			}),
		}).
		Create(pref).Error
}
