package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	accountService "PulseLink/internal/modules/account/application/service"
	accountRepository "PulseLink/internal/modules/account/domain/repository"
	"PulseLink/internal/modules/presence/domain/gateway"
	"PulseLink/internal/modules/presence/infrastructure/worker"
	"PulseLink/pkg/util"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

// TriggerSink 接收被接受的触发并负责内容投递，由投递模块实现
type TriggerSink interface {
	HandleTrigger(ctx context.Context, accountId, friendId, activityId, contentType, triggerValue string) bool
	ConfirmDelivery(ctx context.Context, recordId string, failure string)
}

// FeedRecord 事件流对外记录，经 Kafka 与 WebSocket 推给监控端
type FeedRecord struct {
	Type      string      `json:"type"`
	AccountId string      `json:"accountId"`
	FriendId  string      `json:"friendId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	At        time.Time   `json:"at"`
}

// FeedSink 事件流出口
type FeedSink interface {
	Publish(ctx context.Context, record FeedRecord)
}

// AlertSink 错误/告警出口
type AlertSink interface {
	Raise(ctx context.Context, accountId, severity, message string)
}

// SystemMetrics 滚动窗口内的系统级指标
type SystemMetrics struct {
	ActiveWorkers    int     `json:"activeWorkers"`
	ConnectedWorkers int     `json:"connectedWorkers"`
	RequestsPerMin   float64 `json:"requestsPerMin"`
	ErrorsPerMin     float64 `json:"errorsPerMin"`
	PresencePerMin   float64 `json:"presencePerMin"`
	WindowSeconds    float64 `json:"windowSeconds"`
}

// SupervisorOptions 工作单元运行参数，均来自配置
type SupervisorOptions struct {
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	ShutdownTimeout      time.Duration
}

// WorkerSupervisor 账号工作单元的唯一权威注册表。
// 注册表变动持锁，状态查询走各单元的无阻塞快照，
// 单元事件统一汇入一条通道由 Run 循环串行消费。
type WorkerSupervisor struct {
	accountRepo accountRepository.AccountRepository
	credSvc     accountService.CredentialService
	dialer      gateway.Dialer
	gate        *TriggerGate
	opts        SupervisorOptions

	events chan worker.Event

	mu      sync.Mutex
	workers map[string]*worker.Worker

	sink   TriggerSink
	feed   FeedSink
	alerts AlertSink

	metricsMu   sync.Mutex
	windowStart time.Time
	winRequests uint64
	winErrors   uint64
	winPresence uint64
}

func NewWorkerSupervisor(
	accountRepo accountRepository.AccountRepository,
	credSvc accountService.CredentialService,
	dialer gateway.Dialer,
	gate *TriggerGate,
	opts SupervisorOptions,
) *WorkerSupervisor {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &WorkerSupervisor{
		accountRepo: accountRepo,
		credSvc:     credSvc,
		dialer:      dialer,
		gate:        gate,
		opts:        opts,
		events:      make(chan worker.Event, 256),
		workers:     make(map[string]*worker.Worker),
		windowStart: time.Now(),
	}
}

// SetSinks 注入下游出口。投递模块与监督器互相依赖，只能在组装层补绑。
func (s *WorkerSupervisor) SetSinks(sink TriggerSink, feed FeedSink, alerts AlertSink) {
	s.sink = sink
	s.feed = feed
	s.alerts = alerts
}

// StartWorker 为账号创建并启动工作单元。
// 已在运行时返回 (false, nil)，不会再次触碰连接层。
func (s *WorkerSupervisor) StartWorker(ctx context.Context, accountId string) (bool, error) {
	if accountId == "" {
		return false, errors.New("accountId is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workers[accountId]; ok {
		return false, nil
	}

	account, err := s.accountRepo.GetByUuid(ctx, accountId)
	if err != nil {
		return false, fmt.Errorf("account not found: %w", err)
	}
	if !account.Enabled {
		return false, errors.New("account is disabled")
	}

	token, err := s.credSvc.DecryptToken(account)
	if err != nil {
		return false, fmt.Errorf("credential decrypt failed: %w", err)
	}

	w := worker.New(worker.Options{
		AccountId: accountId,
		Token:     token,
		Dialer:    s.dialer,
		Events:    s.events,
		Settings: worker.Settings{
			AutoReconnect:  account.AutoReconnect,
			StatusInterval: time.Duration(account.StatusIntervalSeconds) * time.Second,
		},
		ReconnectDelay:       s.opts.ReconnectDelay,
		MaxReconnectAttempts: s.opts.MaxReconnectAttempts,
	})

	s.workers[accountId] = w
	w.Start()
	zlog.Info("worker started", zap.String("account_id", accountId))
	return true, nil
}

// StopWorker 停止并注销工作单元，阻塞至连接关闭或关停超时。
// 未注册的账号返回 false，无任何副作用。
func (s *WorkerSupervisor) StopWorker(ctx context.Context, accountId string) bool {
	s.mu.Lock()
	w, ok := s.workers[accountId]
	s.mu.Unlock()
	if !ok {
		return false
	}

	stopCtx, cancel := context.WithTimeout(ctx, s.opts.ShutdownTimeout)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		// 单元卡死也要完成注销，不能拖垮整体关停
		zlog.Warn("worker stop timed out, deregistering anyway",
			zap.String("account_id", accountId),
			zap.Error(err),
		)
	}

	s.mu.Lock()
	delete(s.workers, accountId)
	s.mu.Unlock()
	zlog.Info("worker stopped", zap.String("account_id", accountId))
	return true
}

// UpdateWorkerSettings 热更运行中单元的设置，未运行返回 false
func (s *WorkerSupervisor) UpdateWorkerSettings(ctx context.Context, accountId string, settings worker.Settings) bool {
	s.mu.Lock()
	w, ok := s.workers[accountId]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if err := s.accountRepo.UpdateSettings(ctx, accountId, settings.AutoReconnect, int(settings.StatusInterval/time.Second)); err != nil {
		zlog.Error("persist worker settings failed", zap.String("account_id", accountId), zap.Error(err))
	}
	return w.UpdateSettings(settings)
}

// GetWorkerStatus 无阻塞读取单个单元状态
func (s *WorkerSupervisor) GetWorkerStatus(accountId string) (worker.Snapshot, bool) {
	s.mu.Lock()
	w, ok := s.workers[accountId]
	s.mu.Unlock()
	if !ok {
		return worker.Snapshot{}, false
	}
	return w.Snapshot(), true
}

// GetAllWorkersStatus 全量状态快照
func (s *WorkerSupervisor) GetAllWorkersStatus() []worker.Snapshot {
	s.mu.Lock()
	workers := make([]*worker.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	s.mu.Unlock()

	out := make([]worker.Snapshot, 0, len(workers))
	for _, w := range workers {
		out = append(out, w.Snapshot())
	}
	return out
}

// GetMetrics 聚合滚动窗口内的系统指标
func (s *WorkerSupervisor) GetMetrics() SystemMetrics {
	snapshots := s.GetAllWorkersStatus()
	connected := 0
	for _, snap := range snapshots {
		if snap.Connected {
			connected++
		}
	}

	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	elapsed := time.Since(s.windowStart).Seconds()
	if elapsed <= 0 {
		elapsed = 1
	}
	perMin := func(n uint64) float64 {
		return float64(n) / elapsed * 60
	}
	return SystemMetrics{
		ActiveWorkers:    len(snapshots),
		ConnectedWorkers: connected,
		RequestsPerMin:   perMin(s.winRequests),
		ErrorsPerMin:     perMin(s.winErrors),
		PresencePerMin:   perMin(s.winPresence),
		WindowSeconds:    elapsed,
	}
}

// ResetMetricsWindow 重置滚动窗口，由维护调度器按固定间隔调用
func (s *WorkerSupervisor) ResetMetricsWindow() {
	s.metricsMu.Lock()
	s.windowStart = time.Now()
	s.winRequests = 0
	s.winErrors = 0
	s.winPresence = 0
	s.metricsMu.Unlock()
}

// StopAllWorkers 并发停止全部单元并等待完成，用于进程优雅退出
func (s *WorkerSupervisor) StopAllWorkers(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(accountId string) {
			defer wg.Done()
			s.StopWorker(ctx, accountId)
		}(id)
	}
	wg.Wait()
}

// DispatchContent 把投递命令转给目标账号的工作单元，返回是否成功派发。
// 真实投递结果由 DeliveryResult 事件异步确认。
func (s *WorkerSupervisor) DispatchContent(accountId string, cmd worker.DeliveryCommand) bool {
	s.mu.Lock()
	w, ok := s.workers[accountId]
	s.mu.Unlock()
	if !ok {
		zlog.Warn("dispatch content: worker not running", zap.String("account_id", accountId))
		return false
	}
	if err := w.Deliver(cmd); err != nil {
		zlog.Warn("dispatch content failed",
			zap.String("account_id", accountId),
			zap.String("record_id", cmd.RecordId),
			zap.Error(err),
		)
		return false
	}
	return true
}

// StartEnabledWorkers 进程启动时恢复所有启用账号的工作单元
func (s *WorkerSupervisor) StartEnabledWorkers(ctx context.Context) {
	accounts, err := s.accountRepo.ListEnabled(ctx)
	if err != nil {
		zlog.Error("list enabled accounts failed", zap.Error(err))
		return
	}
	for _, account := range accounts {
		if _, err := s.StartWorker(ctx, account.Uuid); err != nil {
			zlog.Error("start worker failed",
				zap.String("account_id", account.Uuid),
				zap.Error(err),
			)
		}
	}
}

// Run 串行消费全部单元事件，驱动触发管线与对外事件流。
// 单个单元的异常绝不穿透到其他单元或本循环。
func (s *WorkerSupervisor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.dispatchEvent(ctx, ev)
		}
	}
}

func (s *WorkerSupervisor) dispatchEvent(ctx context.Context, ev worker.Event) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error("event dispatch panic",
				zap.String("account_id", ev.EventAccountId()),
				zap.Any("panic", r),
			)
		}
	}()

	switch e := ev.(type) {
	case worker.PresenceChanged:
		s.metricsMu.Lock()
		s.winPresence++
		s.metricsMu.Unlock()

		s.publishFeed(ctx, FeedRecord{
			Type:      "presence",
			AccountId: e.AccountId,
			FriendId:  e.FriendId,
			Payload:   e.New,
			At:        e.At,
		})

		if s.sink == nil || s.gate == nil {
			return
		}
		decision := s.gate.Evaluate(ctx, e)
		if !decision.Accept {
			zlog.Debug("trigger rejected",
				zap.String("account_id", e.AccountId),
				zap.String("friend_id", e.FriendId),
				zap.String("reason", decision.Reason),
				zap.Int64("cooldown_remaining_ms", decision.CooldownRemainingMs),
			)
			return
		}
		activityId := util.GenerateShortUUID()
		s.sink.HandleTrigger(ctx, e.AccountId, e.FriendId, activityId, decision.ContentType, decision.TriggerValue)

	case worker.StatusChanged:
		s.publishFeed(ctx, FeedRecord{
			Type:      "status",
			AccountId: e.AccountId,
			Payload:   map[string]interface{}{"connected": e.Connected, "status": e.Status},
			At:        e.At,
		})

	case worker.WorkerError:
		s.metricsMu.Lock()
		s.winErrors++
		s.metricsMu.Unlock()

		severity := "error"
		if e.Terminal {
			severity = "critical"
		}
		if s.alerts != nil {
			s.alerts.Raise(ctx, e.AccountId, severity, e.Message)
		}
		s.publishFeed(ctx, FeedRecord{
			Type:      "error",
			AccountId: e.AccountId,
			Payload:   map[string]interface{}{"message": e.Message, "terminal": e.Terminal},
			At:        e.At,
		})

	case worker.DeliveryResult:
		s.metricsMu.Lock()
		s.winRequests++
		s.metricsMu.Unlock()

		if s.sink != nil && e.RecordId != "" {
			s.sink.ConfirmDelivery(ctx, e.RecordId, e.Err)
		}
		s.publishFeed(ctx, FeedRecord{
			Type:      "delivery",
			AccountId: e.AccountId,
			FriendId:  e.FriendId,
			Payload:   map[string]interface{}{"recordId": e.RecordId, "error": e.Err},
			At:        e.At,
		})

	case worker.MetricsReport:
		s.publishFeed(ctx, FeedRecord{
			Type:      "metrics",
			AccountId: e.AccountId,
			Payload:   e,
			At:        e.At,
		})
	}
}

func (s *WorkerSupervisor) publishFeed(ctx context.Context, record FeedRecord) {
	if s.feed != nil {
		s.feed.Publish(ctx, record)
	}
}
