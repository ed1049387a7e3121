package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"PulseLink/internal/modules/presence/domain/activity"
	"PulseLink/internal/modules/presence/domain/gateway"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

const (
	dialTimeout           = 15 * time.Second
	sendTimeout           = 10 * time.Second
	defaultStatusInterval = 30 * time.Second
)

type commandKind int

const (
	cmdStop commandKind = iota
	cmdUpdateSettings
	cmdDeliver
)

type command struct {
	kind     commandKind
	settings *Settings
	delivery *DeliveryCommand
	done     chan struct{}
}

// Options 构造一个账号工作单元所需的全部依赖
type Options struct {
	AccountId            string
	Token                string
	Dialer               gateway.Dialer
	Events               chan<- Event
	Settings             Settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// Worker 单账号连接工作单元。一个 goroutine 独占全部连接状态，
// 命令经通道进入，事件经共享通道汇入监督器，不共享可变内存。
type Worker struct {
	accountId      string
	token          string
	dialer         gateway.Dialer
	events         chan<- Event
	cmds           chan command
	reconnectDelay time.Duration
	maxAttempts    int

	mu        sync.RWMutex
	running   bool
	status    Status
	attempts  int
	lastSeen  time.Time
	settings  Settings
	requests  uint64
	errs      uint64
	presences uint64
	delivered uint64
}

func New(opts Options) *Worker {
	settings := opts.Settings
	if settings.StatusInterval <= 0 {
		settings.StatusInterval = defaultStatusInterval
	}
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	maxAttempts := opts.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Worker{
		accountId:      opts.AccountId,
		token:          opts.Token,
		dialer:         opts.Dialer,
		events:         opts.Events,
		cmds:           make(chan command, 16),
		reconnectDelay: delay,
		maxAttempts:    maxAttempts,
		status:         StatusDisconnected,
		settings:       settings,
	}
}

// Start 启动工作单元。已在运行时为幂等空操作，返回 false
func (w *Worker) Start() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return false
	}
	w.running = true
	w.status = StatusConnecting
	go w.run()
	return true
}

// Stop 请求优雅关闭并阻塞等待连接完全关闭，受 ctx 超时约束。
// 从未启动的单元直接返回 nil。
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()
	if !running {
		return nil
	}

	done := make(chan struct{})
	cmd := command{kind: cmdStop, done: done}
	select {
	case w.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateSettings 热更设置，不重启连接
func (w *Worker) UpdateSettings(s Settings) bool {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()
	if !running {
		return false
	}
	select {
	case w.cmds <- command{kind: cmdUpdateSettings, settings: &s}:
		return true
	default:
		return false
	}
}

// Deliver 入队一条投递命令。返回 nil 仅表示命令已派发，
// 真实投递结果由 DeliveryResult 事件异步回执。
func (w *Worker) Deliver(cmd DeliveryCommand) error {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()
	if !running {
		return errors.New("worker is not running")
	}
	select {
	case w.cmds <- command{kind: cmdDeliver, delivery: &cmd}:
		return nil
	default:
		return errors.New("worker command queue is full")
	}
}

// Snapshot 非阻塞状态快照，不触碰底层连接
func (w *Worker) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return Snapshot{
		AccountId:         w.accountId,
		Status:            w.status,
		Connected:         w.status == StatusConnected,
		ReconnectAttempts: w.attempts,
		LastActivity:      w.lastSeen,
		Requests:          w.requests,
		Errors:            w.errs,
		PresenceUpdates:   w.presences,
		Delivered:         w.delivered,
	}
}

func (w *Worker) setStatus(s Status) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

func (w *Worker) emit(ev Event) {
	if w.events != nil {
		w.events <- ev
	}
}

// run 状态机主循环，全部连接状态只在本 goroutine 内变动
func (w *Worker) run() {
	defer func() {
		if r := recover(); r != nil {
			w.setStatus(StatusFailed)
			w.emit(WorkerError{
				AccountId: w.accountId,
				Message:   fmt.Sprintf("worker panic: %v", r),
				Terminal:  true,
				At:        time.Now(),
			})
		}
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	startedAt := time.Now()
	lastStates := make(map[string]*activity.State)

	w.mu.RLock()
	interval := w.settings.StatusInterval
	w.mu.RUnlock()
	metricsTicker := time.NewTicker(interval)
	defer metricsTicker.Stop()

	var conn gateway.Conn
	var connEvents <-chan gateway.Event
	var reconnectC <-chan time.Time

	conn, connEvents, reconnectC = w.attemptConnect()

	for {
		select {
		case cmd := <-w.cmds:
			switch cmd.kind {
			case cmdStop:
				if conn != nil {
					_ = conn.Close()
					// 等读泵退出，保证连接完全关闭后再回执
					for range connEvents {
					}
				}
				w.setStatus(StatusDisconnected)
				w.emit(StatusChanged{AccountId: w.accountId, Connected: false, Status: StatusDisconnected, At: time.Now()})
				if cmd.done != nil {
					close(cmd.done)
				}
				return

			case cmdUpdateSettings:
				w.mu.Lock()
				w.settings = *cmd.settings
				if w.settings.StatusInterval <= 0 {
					w.settings.StatusInterval = defaultStatusInterval
				}
				interval = w.settings.StatusInterval
				w.mu.Unlock()
				metricsTicker.Reset(interval)

			case cmdDeliver:
				w.handleDeliver(conn, cmd.delivery)
			}

		case ev, ok := <-connEvents:
			if !ok {
				connEvents = nil
				continue
			}
			switch ev.Type {
			case gateway.EventReady:
				// 连接在拨号成功时已记为 CONNECTED
			case gateway.EventPresence:
				w.handlePresence(lastStates, ev)
			case gateway.EventClosed:
				_ = conn.Close()
				conn = nil
				connEvents = nil
				if ev.Err != nil {
					zlog.Warn("gateway connection lost",
						zap.String("account_id", w.accountId),
						zap.Error(ev.Err),
					)
				}
				w.emit(StatusChanged{AccountId: w.accountId, Connected: false, Status: StatusReconnecting, At: time.Now()})
				reconnectC = w.scheduleReconnect(ev.Err)
			}

		case <-reconnectC:
			reconnectC = nil
			conn, connEvents, reconnectC = w.attemptConnect()

		case <-metricsTicker.C:
			w.emitMetrics(startedAt)
		}
	}
}

// attemptConnect 执行一次连接。失败时按固定间隔安排下次重试，
// 超出重试上限转入 FAILED 并发出唯一一条终态错误。
func (w *Worker) attemptConnect() (gateway.Conn, <-chan gateway.Event, <-chan time.Time) {
	w.setStatus(StatusConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	conn, err := w.dialer.Dial(ctx, w.token)
	cancel()

	if err == nil {
		w.mu.Lock()
		w.status = StatusConnected
		w.attempts = 0
		w.lastSeen = time.Now()
		w.mu.Unlock()
		w.emit(StatusChanged{AccountId: w.accountId, Connected: true, Status: StatusConnected, At: time.Now()})
		return conn, conn.Events(), nil
	}

	w.mu.Lock()
	w.attempts++
	w.errs++
	attempts := w.attempts
	autoReconnect := w.settings.AutoReconnect
	w.mu.Unlock()

	zlog.Warn("gateway connect attempt failed",
		zap.String("account_id", w.accountId),
		zap.Int("attempt", attempts),
		zap.Error(err),
	)

	if !autoReconnect || attempts >= w.maxAttempts {
		w.setStatus(StatusFailed)
		w.emit(WorkerError{
			AccountId: w.accountId,
			Message:   fmt.Sprintf("connection failed after %d attempts: %v", attempts, err),
			Terminal:  true,
			At:        time.Now(),
		})
		return nil, nil, nil
	}

	w.setStatus(StatusReconnecting)
	return nil, nil, time.After(w.reconnectDelay)
}

// scheduleReconnect 处理已建连后的意外断开
func (w *Worker) scheduleReconnect(cause error) <-chan time.Time {
	w.mu.Lock()
	autoReconnect := w.settings.AutoReconnect
	w.errs++
	w.mu.Unlock()

	if !autoReconnect {
		w.setStatus(StatusFailed)
		w.emit(WorkerError{
			AccountId: w.accountId,
			Message:   fmt.Sprintf("connection lost and auto-reconnect is disabled: %v", cause),
			Terminal:  true,
			At:        time.Now(),
		})
		return nil
	}

	w.setStatus(StatusReconnecting)
	return time.After(w.reconnectDelay)
}

func (w *Worker) handlePresence(lastStates map[string]*activity.State, ev gateway.Event) {
	newState := activity.Extract(ev.Activities)
	old := lastStates[ev.FriendId]
	if activity.Same(old, newState) {
		// 同一活动的噪声更新，不穿透到触发管线
		return
	}
	lastStates[ev.FriendId] = newState

	w.mu.Lock()
	w.presences++
	w.lastSeen = ev.At
	w.mu.Unlock()

	w.emit(PresenceChanged{
		AccountId: w.accountId,
		FriendId:  ev.FriendId,
		Old:       old,
		New:       newState,
		At:        ev.At,
	})
}

// handleDeliver 尝试通过活动连接投递内容。失败不影响连接生命周期。
func (w *Worker) handleDeliver(conn gateway.Conn, cmd *DeliveryCommand) {
	if cmd == nil {
		return
	}

	w.mu.Lock()
	w.requests++
	connected := w.status == StatusConnected
	w.mu.Unlock()

	fail := func(err error) {
		w.mu.Lock()
		w.errs++
		w.mu.Unlock()
		w.emit(WorkerError{
			AccountId: w.accountId,
			Message:   fmt.Sprintf("deliver to %s failed: %v", cmd.FriendId, err),
			At:        time.Now(),
		})
		w.emit(DeliveryResult{
			AccountId: w.accountId,
			FriendId:  cmd.FriendId,
			RecordId:  cmd.RecordId,
			Err:       err.Error(),
			At:        time.Now(),
		})
	}

	if conn == nil || !connected {
		fail(errors.New("connection is not established"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	err := conn.SendMessage(ctx, cmd.FriendId, gateway.OutgoingMessage{
		Content:    cmd.ContentTitle,
		EmbedURL:   cmd.ContentURL,
		EmbedTitle: cmd.ContentTitle,
	})
	if err != nil {
		fail(err)
		return
	}

	w.mu.Lock()
	w.delivered++
	w.mu.Unlock()
	w.emit(DeliveryResult{
		AccountId: w.accountId,
		FriendId:  cmd.FriendId,
		RecordId:  cmd.RecordId,
		At:        time.Now(),
	})
}

func (w *Worker) emitMetrics(startedAt time.Time) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	w.mu.RLock()
	report := MetricsReport{
		AccountId:       w.accountId,
		MemoryBytes:     ms.Alloc,
		Uptime:          time.Since(startedAt),
		Requests:        w.requests,
		Errors:          w.errs,
		PresenceUpdates: w.presences,
		Delivered:       w.delivered,
		At:              time.Now(),
	}
	w.mu.RUnlock()

	// 指标丢弃不致命，避免在事件流拥塞时阻塞状态机
	select {
	case w.events <- report:
	default:
	}
}
