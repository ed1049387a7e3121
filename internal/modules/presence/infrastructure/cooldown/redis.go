package cooldown

import (
	"context"
	"time"

	"PulseLink/pkg/redis"
)

// redisStore Redis TTL 键实现，多实例部署时共享冷却状态
type redisStore struct {
	prefix string
}

func NewRedisStore() Store {
	return &redisStore{prefix: "pulselink:cooldown:"}
}

func (s *redisStore) key(accountId, friendId string) string {
	return s.prefix + accountId + ":" + friendId
}

func (s *redisStore) Remaining(ctx context.Context, accountId, friendId string, _ time.Duration) (time.Duration, error) {
	ttl, err := redis.PTTL(ctx, s.key(accountId, friendId))
	if err != nil {
		return 0, err
	}
	// 键不存在时 PTTL 返回负值
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *redisStore) MarkTriggered(ctx context.Context, accountId, friendId string, window time.Duration) error {
	return redis.Set(ctx, s.key(accountId, friendId), time.Now().UnixMilli(), window)
}

func (s *redisStore) Sweep(context.Context, time.Duration) {
	// TTL 自动过期，无需清扫
}
