package cooldown

import (
	"context"
	"time"
)

// Store 记录每个 (账号, 好友) 最近一次接受触发的时间。
// Remaining 返回 0 表示冷却已过，可再次触发。
type Store interface {
	Remaining(ctx context.Context, accountId, friendId string, window time.Duration) (time.Duration, error)
	MarkTriggered(ctx context.Context, accountId, friendId string, window time.Duration) error
	// Sweep 清理过期条目，由维护调度器周期调用（Redis 实现为空操作，TTL 自动过期）
	Sweep(ctx context.Context, window time.Duration)
}
