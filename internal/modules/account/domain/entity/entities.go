package entity

import "time"

// Account 受管账号，TokenCipher 为 AES-GCM 加密后的网关令牌
type Account struct {
	Id                    int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid                  string    `gorm:"column:uuid;type:varchar(64);uniqueIndex;not null"`
	Username              string    `gorm:"column:username;type:varchar(64);not null"`
	TokenCipher           string    `gorm:"column:token_cipher;type:varchar(512);not null"`
	AutoReconnect         bool      `gorm:"column:auto_reconnect;not null;default:1"`
	StatusIntervalSeconds int       `gorm:"column:status_interval_seconds;not null;default:30"`
	Enabled               bool      `gorm:"column:enabled;not null;default:1"`
	CreatedAt             time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt             time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (Account) TableName() string {
	return "account"
}

// FriendPreference 单个 (账号, 好友) 的触发偏好
// EnabledTypes 为逗号分隔的活动类型，如 "GAME,MUSIC"；空串表示沿用默认（全部启用）
// StartHour/EndHour 为本地时段限制，均为空表示不限制；Start > End 表示跨午夜
type FriendPreference struct {
	Id             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AccountId      string    `gorm:"column:account_id;type:varchar(64);index:idx_account_friend,unique;not null"`
	FriendId       string    `gorm:"column:friend_id;type:varchar(64);index:idx_account_friend,unique;not null"`
	EnabledTypes   string    `gorm:"column:enabled_types;type:varchar(128)"`
	Blacklisted    bool      `gorm:"column:blacklisted;not null;default:0"`
	StartHour      *int      `gorm:"column:start_hour;type:tinyint"`
	EndHour        *int      `gorm:"column:end_hour;type:tinyint"`
	ContentEnabled bool      `gorm:"column:content_enabled;not null;default:1"`
	CreatedAt      time.Time `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:datetime;not null"`
}

func (FriendPreference) TableName() string {
	return "friend_preference"
}
