package entity

import "time"

const (
	// 投递记录状态，只允许 Pending → Sent / Failed
	DeliveryStatusPending = "PENDING"
	DeliveryStatusSent    = "SENT"
	DeliveryStatusFailed  = "FAILED"

	// 告警级别
	AlertSeverityError    = "error"
	AlertSeverityCritical = "critical"
)

// DeliveryRecord 一次内容投递的持久化记录
type DeliveryRecord struct {
	Id            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Uuid          string     `gorm:"column:uuid;type:char(32);uniqueIndex;not null"`
	AccountId     string     `gorm:"column:account_id;type:varchar(64);index;not null"`
	FriendId      string     `gorm:"column:friend_id;type:varchar(64);index;not null"`
	ActivityId    string     `gorm:"column:activity_id;type:char(32);not null"`
	ContentUrl    string     `gorm:"column:content_url;type:varchar(1024);not null"`
	ContentTitle  string     `gorm:"column:content_title;type:varchar(255)"`
	ContentSource string     `gorm:"column:content_source;type:varchar(128)"`
	TriggerType   string     `gorm:"column:trigger_type;type:varchar(20);not null"`
	TriggerValue  string     `gorm:"column:trigger_value;type:varchar(255);not null"`
	Status        string     `gorm:"column:status;type:varchar(10);index;not null"`
	SentAt        *time.Time `gorm:"column:sent_at;type:datetime"`
	ErrorMsg      string     `gorm:"column:error_msg;type:varchar(512)"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:datetime;not null"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:datetime;not null"`
}

func (DeliveryRecord) TableName() string {
	return "delivery_record"
}

// SystemAlert 系统告警，错误事件落库后供外部通知面消费
type SystemAlert struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AlertId   string    `gorm:"column:alert_id;type:char(32);uniqueIndex;not null"`
	AccountId string    `gorm:"column:account_id;type:varchar(64);index;not null"`
	Severity  string    `gorm:"column:severity;type:varchar(10);not null"`
	Message   string    `gorm:"column:message;type:varchar(1024);not null"`
	Resolved  bool      `gorm:"column:resolved;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime;not null"`
}

func (SystemAlert) TableName() string {
	return "system_alert"
}
