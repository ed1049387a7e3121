package service

import (
	"context"
	"time"

	accountService "PulseLink/internal/modules/account/application/service"
	"PulseLink/internal/modules/presence/infrastructure/cooldown"
	"PulseLink/internal/modules/presence/infrastructure/worker"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

// TriggerDecision 单次活动变化的判定结果
type TriggerDecision struct {
	Accept              bool   `json:"accept"`
	ContentType         string `json:"contentType,omitempty"`
	TriggerValue        string `json:"triggerValue,omitempty"`
	CooldownRemainingMs int64  `json:"cooldownRemainingMs,omitempty"`
	Reason              string `json:"reason,omitempty"`
}

// TriggerGate 把活动变化事件转成触发判定。
// 检查按序短路：无活动 → 类型未启用 → 时段限制 → 冷却，任一失败即拒绝，
// 拒绝路径不做任何内容检索。
type TriggerGate struct {
	prefSvc   accountService.PreferenceService
	cooldowns cooldown.Store
	window    time.Duration
	nowFn     func() time.Time
}

func NewTriggerGate(prefSvc accountService.PreferenceService, store cooldown.Store, cooldownWindow time.Duration) *TriggerGate {
	if cooldownWindow <= 0 {
		cooldownWindow = 30 * time.Minute
	}
	return &TriggerGate{
		prefSvc:   prefSvc,
		cooldowns: store,
		window:    cooldownWindow,
		nowFn:     time.Now,
	}
}

// CooldownWindow 当前冷却窗口，维护调度器清扫时使用
func (g *TriggerGate) CooldownWindow() time.Duration {
	return g.window
}

func (g *TriggerGate) Evaluate(ctx context.Context, ev worker.PresenceChanged) TriggerDecision {
	if ev.New == nil {
		return TriggerDecision{Reason: "no activity"}
	}

	prefs, err := g.prefSvc.GetTriggerPrefs(ctx, ev.AccountId, ev.FriendId)
	if err != nil {
		return TriggerDecision{Reason: "preferences unavailable"}
	}
	if prefs.Blacklisted {
		return TriggerDecision{Reason: "friend is blacklisted"}
	}
	if !prefs.ContentEnabled {
		return TriggerDecision{Reason: "content delivery disabled"}
	}

	contentType := string(ev.New.Kind)
	if !prefs.TypeEnabled(contentType) {
		return TriggerDecision{Reason: "activity type not enabled"}
	}

	if prefs.Window != nil && !prefs.Window.Allows(g.nowFn().Hour()) {
		return TriggerDecision{Reason: "outside allowed hours"}
	}

	remaining, err := g.cooldowns.Remaining(ctx, ev.AccountId, ev.FriendId, g.window)
	if err != nil {
		// 冷却表不可用时宁可拒绝，避免刷屏
		zlog.Warn("cooldown lookup failed",
			zap.String("account_id", ev.AccountId),
			zap.String("friend_id", ev.FriendId),
			zap.Error(err),
		)
		return TriggerDecision{Reason: "cooldown unavailable"}
	}
	if remaining > 0 {
		return TriggerDecision{
			Reason:              "cooldown active",
			CooldownRemainingMs: remaining.Milliseconds(),
		}
	}

	if err := g.cooldowns.MarkTriggered(ctx, ev.AccountId, ev.FriendId, g.window); err != nil {
		zlog.Warn("cooldown mark failed",
			zap.String("account_id", ev.AccountId),
			zap.String("friend_id", ev.FriendId),
			zap.Error(err),
		)
	}

	return TriggerDecision{
		Accept:       true,
		ContentType:  contentType,
		TriggerValue: ev.New.TriggerValue(),
	}
}
