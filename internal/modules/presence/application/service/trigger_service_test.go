package service

import (
	"context"
	"errors"
	"testing"
	"time"

	accountService "PulseLink/internal/modules/account/application/service"
	"PulseLink/internal/modules/presence/domain/activity"
	"PulseLink/internal/modules/presence/infrastructure/cooldown"
	"PulseLink/internal/modules/presence/infrastructure/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrefService struct {
	prefs *accountService.TriggerPrefs
	err   error
}

func (f *fakePrefService) GetTriggerPrefs(_ context.Context, _, _ string) (*accountService.TriggerPrefs, error) {
	return f.prefs, f.err
}

func gameEvent(accountId, friendId, game string) worker.PresenceChanged {
	return worker.PresenceChanged{
		AccountId: accountId,
		FriendId:  friendId,
		New:       &activity.State{Kind: activity.KindGame, Name: game},
		At:        time.Now(),
	}
}

func newTestGate(prefs *accountService.TriggerPrefs, window time.Duration, hour int) *TriggerGate {
	gate := NewTriggerGate(&fakePrefService{prefs: prefs}, cooldown.NewMemoryStore(), window)
	gate.nowFn = func() time.Time {
		return time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC)
	}
	return gate
}

func TestEvaluateAcceptsAndStartsCooldown(t *testing.T) {
	gate := newTestGate(&accountService.TriggerPrefs{ContentEnabled: true}, 30*time.Minute, 12)
	ctx := context.Background()

	decision := gate.Evaluate(ctx, gameEvent("acc-1", "friend-1", "Hades"))
	require.True(t, decision.Accept)
	assert.Equal(t, "GAME", decision.ContentType)
	assert.Equal(t, "Hades", decision.TriggerValue)

	// 冷却期内的第二次触发被拒绝，并带上剩余毫秒数
	second := gate.Evaluate(ctx, gameEvent("acc-1", "friend-1", "Elden Ring"))
	assert.False(t, second.Accept)
	assert.Equal(t, "cooldown active", second.Reason)
	assert.Greater(t, second.CooldownRemainingMs, int64(0))
	assert.LessOrEqual(t, second.CooldownRemainingMs, int64(30*60*1000))

	// 不同好友独立计冷却
	other := gate.Evaluate(ctx, gameEvent("acc-1", "friend-2", "Hades"))
	assert.True(t, other.Accept)
}

func TestEvaluateRejectsWithoutActivity(t *testing.T) {
	gate := newTestGate(&accountService.TriggerPrefs{ContentEnabled: true}, 30*time.Minute, 12)
	decision := gate.Evaluate(context.Background(), worker.PresenceChanged{AccountId: "acc-1", FriendId: "friend-1"})
	assert.False(t, decision.Accept)
	assert.Equal(t, "no activity", decision.Reason)
}

func TestEvaluateRejectsBlacklistedAndDisabled(t *testing.T) {
	ctx := context.Background()

	gate := newTestGate(&accountService.TriggerPrefs{Blacklisted: true, ContentEnabled: true}, time.Minute, 12)
	assert.False(t, gate.Evaluate(ctx, gameEvent("a", "f", "Hades")).Accept)

	gate = newTestGate(&accountService.TriggerPrefs{ContentEnabled: false}, time.Minute, 12)
	assert.False(t, gate.Evaluate(ctx, gameEvent("a", "f", "Hades")).Accept)
}

func TestEvaluateRespectsEnabledTypes(t *testing.T) {
	prefs := &accountService.TriggerPrefs{
		ContentEnabled: true,
		EnabledTypes:   map[string]struct{}{"MUSIC": {}},
	}
	gate := newTestGate(prefs, time.Minute, 12)
	ctx := context.Background()

	assert.False(t, gate.Evaluate(ctx, gameEvent("a", "f", "Hades")).Accept)

	musicEv := worker.PresenceChanged{
		AccountId: "a",
		FriendId:  "f",
		New:       &activity.State{Kind: activity.KindMusic, Artist: "Queen", Song: "Under Pressure"},
	}
	decision := gate.Evaluate(ctx, musicEv)
	assert.True(t, decision.Accept)
	assert.Equal(t, "MUSIC", decision.ContentType)
	assert.Equal(t, "Queen", decision.TriggerValue)
}

func TestEvaluateHonorsHourWindow(t *testing.T) {
	ctx := context.Background()
	// 跨午夜窗口 22 点到次日 2 点
	prefs := func() *accountService.TriggerPrefs {
		return &accountService.TriggerPrefs{
			ContentEnabled: true,
			Window:         &accountService.HourWindow{Start: 22, End: 2},
		}
	}

	assert.True(t, newTestGate(prefs(), time.Minute, 23).Evaluate(ctx, gameEvent("a", "f", "Hades")).Accept)
	assert.True(t, newTestGate(prefs(), time.Minute, 1).Evaluate(ctx, gameEvent("a", "f2", "Hades")).Accept)

	rejected := newTestGate(prefs(), time.Minute, 10).Evaluate(ctx, gameEvent("a", "f3", "Hades"))
	assert.False(t, rejected.Accept)
	assert.Equal(t, "outside allowed hours", rejected.Reason)
}

func TestEvaluateRejectsWhenPreferencesUnavailable(t *testing.T) {
	gate := NewTriggerGate(&fakePrefService{err: errors.New("db down")}, cooldown.NewMemoryStore(), time.Minute)
	decision := gate.Evaluate(context.Background(), gameEvent("a", "f", "Hades"))
	assert.False(t, decision.Accept)
	assert.Equal(t, "preferences unavailable", decision.Reason)
}
