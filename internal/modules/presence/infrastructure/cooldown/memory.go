package cooldown

import (
	"context"
	"sync"
	"time"
)

// memoryStore 进程内冷却表，读写都持锁，条目在读取和周期清扫时惰性剔除
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	nowFn   func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		entries: make(map[string]time.Time),
		nowFn:   time.Now,
	}
}

func key(accountId, friendId string) string {
	return accountId + ":" + friendId
}

func (s *memoryStore) Remaining(_ context.Context, accountId, friendId string, window time.Duration) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(accountId, friendId)
	last, ok := s.entries[k]
	if !ok {
		return 0, nil
	}

	elapsed := s.nowFn().Sub(last)
	if elapsed >= window {
		delete(s.entries, k)
		return 0, nil
	}
	return window - elapsed, nil
}

func (s *memoryStore) MarkTriggered(_ context.Context, accountId, friendId string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key(accountId, friendId)] = s.nowFn()
	return nil
}

func (s *memoryStore) Sweep(_ context.Context, window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	for k, last := range s.entries {
		if now.Sub(last) >= window {
			delete(s.entries, k)
		}
	}
}
