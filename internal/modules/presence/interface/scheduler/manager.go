package scheduler

import (
	"context"

	"PulseLink/internal/modules/presence/application/service"
	"PulseLink/internal/modules/presence/infrastructure/cooldown"
	"PulseLink/pkg/zlog"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MaintenanceManager 周期性维护任务：重置指标窗口、清理过期冷却条目、
// 打印在线工作单元概况。
type MaintenanceManager struct {
	cron       *cron.Cron
	supervisor *service.WorkerSupervisor
	gate       *service.TriggerGate
	cooldowns  cooldown.Store
}

func NewMaintenanceManager(sup *service.WorkerSupervisor, gate *service.TriggerGate, cooldowns cooldown.Store) *MaintenanceManager {
	return &MaintenanceManager{
		// 使用标准5段Cron表达式（不含秒）
		cron:       cron.New(),
		supervisor: sup,
		gate:       gate,
		cooldowns:  cooldowns,
	}
}

func (m *MaintenanceManager) Start() {
	_, _ = m.cron.AddFunc("* * * * *", m.rollMetricsWindow)
	_, _ = m.cron.AddFunc("*/5 * * * *", m.sweepCooldowns)
	_, _ = m.cron.AddFunc("*/10 * * * *", m.logWorkerSummary)
	m.cron.Start()
	zlog.Info("Presence Maintenance (Scheduler) started")
}

func (m *MaintenanceManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

func (m *MaintenanceManager) rollMetricsWindow() {
	if m.supervisor == nil {
		return
	}
	m.supervisor.ResetMetricsWindow()
}

func (m *MaintenanceManager) sweepCooldowns() {
	if m.cooldowns == nil || m.gate == nil {
		return
	}
	m.cooldowns.Sweep(context.Background(), m.gate.CooldownWindow())
}

func (m *MaintenanceManager) logWorkerSummary() {
	if m.supervisor == nil {
		return
	}
	metrics := m.supervisor.GetMetrics()
	zlog.Info("worker summary",
		zap.Int("active_workers", metrics.ActiveWorkers),
		zap.Float64("requests_per_min", metrics.RequestsPerMin),
		zap.Float64("errors_per_min", metrics.ErrorsPerMin),
		zap.Float64("presence_per_min", metrics.PresencePerMin))
}
