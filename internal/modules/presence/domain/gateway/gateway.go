package gateway

import (
	"context"
	"time"
)

// 网关上报的原始活动类型
const (
	ActivityPlaying   = "playing"
	ActivityStreaming = "streaming"
	ActivityListening = "listening"
	ActivityWatching  = "watching"
	ActivityCustom    = "custom"
	ActivityCompeting = "competing"
)

// RawActivity 网关 presence 帧里的单条活动，字段语义由远端网络定义
type RawActivity struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Details string `json:"details"`
	State   string `json:"state"`
	URL     string `json:"url"`
	Assets  struct {
		LargeText string `json:"large_text"`
	} `json:"assets"`
	CreatedAt int64 `json:"created_at"`
}

type EventType int

const (
	EventReady EventType = iota
	EventPresence
	EventClosed
)

// Event 连接上行事件。Presence 事件携带 FriendId 与活动列表；
// Closed 事件表示连接终止，Err 为终止原因（正常关闭时为 nil）。
type Event struct {
	Type       EventType
	FriendId   string
	Activities []RawActivity
	Err        error
	At         time.Time
}

// OutgoingMessage 通过账号连接投递给好友的内容
type OutgoingMessage struct {
	Content    string `json:"content"`
	EmbedURL   string `json:"embed_url,omitempty"`
	EmbedTitle string `json:"embed_title,omitempty"`
}

// Conn 一条已建立的账号连接。Events 通道在连接终止后关闭。
type Conn interface {
	Events() <-chan Event
	SendMessage(ctx context.Context, friendId string, msg OutgoingMessage) error
	Close() error
}

// Dialer 按账号令牌建立连接
type Dialer interface {
	Dial(ctx context.Context, token string) (Conn, error)
}
