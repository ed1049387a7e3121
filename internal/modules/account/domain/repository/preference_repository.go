package repository

import (
	"context"

	"PulseLink/internal/modules/account/domain/entity"
)

type PreferenceRepository interface {
	GetByAccountAndFriend(ctx context.Context, accountId, friendId string) (*entity.FriendPreference, error)

	Upsert(ctx context.Context, pref *entity.FriendPreference) error
}
