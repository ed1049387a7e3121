package worker

import (
	"time"

	"PulseLink/internal/modules/presence/domain/activity"
)

// Status 工作单元连接状态
type Status string

const (
	StatusDisconnected Status = "DISCONNECTED"
	StatusConnecting   Status = "CONNECTING"
	StatusConnected    Status = "CONNECTED"
	StatusReconnecting Status = "RECONNECTING"
	StatusFailed       Status = "FAILED"
)

// Event 工作单元上行事件，统一汇入监督器的事件流
type Event interface {
	EventAccountId() string
}

// StatusChanged 连接状态变化
type StatusChanged struct {
	AccountId string
	Connected bool
	Status    Status
	At        time.Time
}

func (e StatusChanged) EventAccountId() string { return e.AccountId }

// WorkerError 工作单元内部错误。Terminal 为 true 表示重连已放弃，单元进入 FAILED
type WorkerError struct {
	AccountId string
	Message   string
	Terminal  bool
	At        time.Time
}

func (e WorkerError) EventAccountId() string { return e.AccountId }

// PresenceChanged 好友活动发生了语义变化（经活动身份比较去噪后）
type PresenceChanged struct {
	AccountId string
	FriendId  string
	Old       *activity.State
	New       *activity.State
	At        time.Time
}

func (e PresenceChanged) EventAccountId() string { return e.AccountId }

// MetricsReport 周期性指标采样
type MetricsReport struct {
	AccountId       string
	MemoryBytes     uint64
	Uptime          time.Duration
	Requests        uint64
	Errors          uint64
	PresenceUpdates uint64
	Delivered       uint64
	At              time.Time
}

func (e MetricsReport) EventAccountId() string { return e.AccountId }

// DeliveryResult 投递命令的异步回执，Err 为空表示发送成功
type DeliveryResult struct {
	AccountId string
	FriendId  string
	RecordId  string
	Err       string
	At        time.Time
}

func (e DeliveryResult) EventAccountId() string { return e.AccountId }

// Settings 运行期可热更的工作单元设置
type Settings struct {
	AutoReconnect  bool
	StatusInterval time.Duration
}

// DeliveryCommand 投递内容命令，RecordId 关联投递记录
type DeliveryCommand struct {
	FriendId      string
	ContentURL    string
	ContentTitle  string
	ContentSource string
	TriggerType   string
	TriggerValue  string
	RecordId      string
}

// Snapshot 非阻塞状态快照，监督器查询接口直接返回该结构
type Snapshot struct {
	AccountId         string    `json:"accountId"`
	Status            Status    `json:"status"`
	Connected         bool      `json:"connected"`
	ReconnectAttempts int       `json:"reconnectAttempts"`
	LastActivity      time.Time `json:"lastActivity"`
	Requests          uint64    `json:"requests"`
	Errors            uint64    `json:"errors"`
	PresenceUpdates   uint64    `json:"presenceUpdates"`
	Delivered         uint64    `json:"delivered"`
}
