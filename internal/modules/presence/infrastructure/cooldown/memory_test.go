package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCooldownLifecycle(t *testing.T) {
	ctx := context.Background()
	window := 30 * time.Minute

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().(*memoryStore)
	store.nowFn = func() time.Time { return now }

	remaining, err := store.Remaining(ctx, "acc-1", "friend-1", window)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	require.NoError(t, store.MarkTriggered(ctx, "acc-1", "friend-1", window))

	now = now.Add(5 * time.Minute)
	remaining, err = store.Remaining(ctx, "acc-1", "friend-1", window)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, remaining)

	// 其他好友不受影响
	remaining, err = store.Remaining(ctx, "acc-1", "friend-2", window)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	now = now.Add(25 * time.Minute)
	remaining, err = store.Remaining(ctx, "acc-1", "friend-1", window)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	window := 10 * time.Minute

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().(*memoryStore)
	store.nowFn = func() time.Time { return now }

	require.NoError(t, store.MarkTriggered(ctx, "acc-1", "friend-old", window))
	now = now.Add(9 * time.Minute)
	require.NoError(t, store.MarkTriggered(ctx, "acc-1", "friend-new", window))

	now = now.Add(1 * time.Minute)
	store.Sweep(ctx, window)

	store.mu.Lock()
	_, oldKept := store.entries[key("acc-1", "friend-old")]
	_, newKept := store.entries[key("acc-1", "friend-new")]
	store.mu.Unlock()

	assert.False(t, oldKept)
	assert.True(t, newKept)
}
