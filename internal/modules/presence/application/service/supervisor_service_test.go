package service

import (
	"context"
	"sync"
	"testing"
	"time"

	accountService "PulseLink/internal/modules/account/application/service"
	accountEntity "PulseLink/internal/modules/account/domain/entity"
	"PulseLink/internal/modules/presence/domain/activity"
	"PulseLink/internal/modules/presence/domain/gateway"
	"PulseLink/internal/modules/presence/infrastructure/cooldown"
	"PulseLink/internal/modules/presence/infrastructure/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*accountEntity.Account
	updates  int
}

func newFakeAccountRepo(accounts ...*accountEntity.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[string]*accountEntity.Account)}
	for _, a := range accounts {
		repo.accounts[a.Uuid] = a
	}
	return repo
}

func (r *fakeAccountRepo) Create(_ context.Context, account *accountEntity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.Uuid] = account
	return nil
}

func (r *fakeAccountRepo) GetByUuid(_ context.Context, accountId string) (*accountEntity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) ListEnabled(_ context.Context) ([]*accountEntity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*accountEntity.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) UpdateSettings(_ context.Context, _ string, _ bool, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	return nil
}

type fakeCredService struct{}

func (fakeCredService) EncryptToken(plain string) (string, error) { return plain, nil }

func (fakeCredService) DecryptToken(account *accountEntity.Account) (string, error) {
	return account.TokenCipher, nil
}

type recordingSink struct {
	mu        sync.Mutex
	triggers  []string
	confirmed []string
}

func (s *recordingSink) HandleTrigger(_ context.Context, accountId, friendId, _, contentType, triggerValue string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, accountId+"/"+friendId+"/"+contentType+"/"+triggerValue)
	return true
}

func (s *recordingSink) ConfirmDelivery(_ context.Context, recordId string, failure string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed = append(s.confirmed, recordId+"/"+failure)
}

func enabledAccount(uuid string) *accountEntity.Account {
	return &accountEntity.Account{
		Uuid:                  uuid,
		Username:              "tester",
		TokenCipher:           "tok-" + uuid,
		AutoReconnect:         true,
		StatusIntervalSeconds: 30,
		Enabled:               true,
	}
}

type stubConn struct {
	events chan gateway.Event
	once   sync.Once
}

func (c *stubConn) Events() <-chan gateway.Event { return c.events }

func (c *stubConn) SendMessage(_ context.Context, _ string, _ gateway.OutgoingMessage) error {
	return nil
}

func (c *stubConn) Close() error {
	c.once.Do(func() { close(c.events) })
	return nil
}

type stubDialer struct{}

func (*stubDialer) Dial(_ context.Context, _ string) (gateway.Conn, error) {
	return &stubConn{events: make(chan gateway.Event)}, nil
}

func newTestSupervisor(repo *fakeAccountRepo, dialer gateway.Dialer) *WorkerSupervisor {
	prefs := &accountService.TriggerPrefs{ContentEnabled: true}
	gate := NewTriggerGate(&fakePrefService{prefs: prefs}, cooldown.NewMemoryStore(), 30*time.Minute)
	return NewWorkerSupervisor(repo, fakeCredService{}, dialer, gate, SupervisorOptions{
		ReconnectDelay:       10 * time.Millisecond,
		MaxReconnectAttempts: 2,
		ShutdownTimeout:      time.Second,
	})
}

func TestStartWorkerIsIdempotentPerAccount(t *testing.T) {
	repo := newFakeAccountRepo(enabledAccount("acc-1"))
	dialer := &stubDialer{}
	sup := newTestSupervisor(repo, dialer)
	defer sup.StopAllWorkers(context.Background())

	started, err := sup.StartWorker(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, started)

	started, err = sup.StartWorker(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.False(t, started)

	assert.Len(t, sup.GetAllWorkersStatus(), 1)
}

func TestStartWorkerRejectsUnknownAndDisabled(t *testing.T) {
	disabled := enabledAccount("acc-off")
	disabled.Enabled = false
	repo := newFakeAccountRepo(disabled)
	sup := newTestSupervisor(repo, &stubDialer{})

	_, err := sup.StartWorker(context.Background(), "missing")
	assert.Error(t, err)

	_, err = sup.StartWorker(context.Background(), "acc-off")
	assert.Error(t, err)
}

func TestStopWorkerUnknownAccount(t *testing.T) {
	sup := newTestSupervisor(newFakeAccountRepo(), &stubDialer{})
	assert.False(t, sup.StopWorker(context.Background(), "missing"))
}

func TestStartEnabledWorkersRecoversAll(t *testing.T) {
	disabled := enabledAccount("acc-off")
	disabled.Enabled = false
	repo := newFakeAccountRepo(enabledAccount("acc-1"), enabledAccount("acc-2"), disabled)
	sup := newTestSupervisor(repo, &stubDialer{})
	defer sup.StopAllWorkers(context.Background())

	sup.StartEnabledWorkers(context.Background())
	assert.Len(t, sup.GetAllWorkersStatus(), 2)

	_, ok := sup.GetWorkerStatus("acc-off")
	assert.False(t, ok)
}

func TestSupervisorRoutesPresenceToTriggerSink(t *testing.T) {
	repo := newFakeAccountRepo(enabledAccount("acc-1"))
	sup := newTestSupervisor(repo, &stubDialer{})
	sink := &recordingSink{}
	sup.SetSinks(sink, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	sup.events <- worker.PresenceChanged{
		AccountId: "acc-1",
		FriendId:  "friend-1",
		New:       &activity.State{Kind: activity.KindGame, Name: "Hades"},
		At:        time.Now(),
	}

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.triggers) == 1
	}, time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	assert.Equal(t, "acc-1/friend-1/GAME/Hades", sink.triggers[0])
	sink.mu.Unlock()

	// 冷却期内同一好友的后续活动不再触发
	sup.events <- worker.PresenceChanged{
		AccountId: "acc-1",
		FriendId:  "friend-1",
		New:       &activity.State{Kind: activity.KindGame, Name: "Elden Ring"},
		At:        time.Now(),
	}
	sup.events <- worker.DeliveryResult{
		AccountId: "acc-1",
		FriendId:  "friend-1",
		RecordId:  "rec-1",
		At:        time.Now(),
	}

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.confirmed) == 1
	}, time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	assert.Len(t, sink.triggers, 1)
	assert.Equal(t, "rec-1/", sink.confirmed[0])
	sink.mu.Unlock()
}

func TestSupervisorMetricsWindow(t *testing.T) {
	sup := newTestSupervisor(newFakeAccountRepo(), &stubDialer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	for i := 0; i < 3; i++ {
		sup.events <- worker.DeliveryResult{AccountId: "acc-1", RecordId: "", At: time.Now()}
	}

	require.Eventually(t, func() bool {
		return sup.GetMetrics().RequestsPerMin > 0
	}, time.Second, 10*time.Millisecond)

	sup.ResetMetricsWindow()
	assert.Zero(t, sup.GetMetrics().RequestsPerMin)
}

func TestDispatchContentRequiresRunningWorker(t *testing.T) {
	sup := newTestSupervisor(newFakeAccountRepo(), &stubDialer{})
	assert.False(t, sup.DispatchContent("missing", worker.DeliveryCommand{FriendId: "friend-1"}))
}
