package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	accountService "PulseLink/internal/modules/account/application/service"
	accountEntity "PulseLink/internal/modules/account/domain/entity"
	contentService "PulseLink/internal/modules/content/application/service"
	"PulseLink/internal/modules/content/infrastructure/search"
	"PulseLink/internal/modules/delivery/domain/entity"
	"PulseLink/internal/modules/presence/infrastructure/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAccountRepo struct {
	accounts map[string]*accountEntity.Account
}

func (r *fakeAccountRepo) Create(_ context.Context, account *accountEntity.Account) error {
	r.accounts[account.Uuid] = account
	return nil
}

func (r *fakeAccountRepo) GetByUuid(_ context.Context, accountId string) (*accountEntity.Account, error) {
	account, ok := r.accounts[accountId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return account, nil
}

func (r *fakeAccountRepo) ListEnabled(_ context.Context) ([]*accountEntity.Account, error) {
	return nil, nil
}

func (r *fakeAccountRepo) UpdateSettings(_ context.Context, _ string, _ bool, _ int) error {
	return nil
}

type fakePrefService struct {
	prefs *accountService.TriggerPrefs
}

func (f *fakePrefService) GetTriggerPrefs(_ context.Context, _, _ string) (*accountService.TriggerPrefs, error) {
	return f.prefs, nil
}

type fakeDeliveryRepo struct {
	mu      sync.Mutex
	records map[string]*entity.DeliveryRecord
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{records: make(map[string]*entity.DeliveryRecord)}
}

func (r *fakeDeliveryRepo) Create(_ context.Context, record *entity.DeliveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Uuid] = record
	return nil
}

func (r *fakeDeliveryRepo) GetByUuid(_ context.Context, uuid string) (*entity.DeliveryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[uuid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (r *fakeDeliveryRepo) MarkSent(_ context.Context, uuid string) error {
	return r.transition(uuid, entity.DeliveryStatusSent, "")
}

func (r *fakeDeliveryRepo) MarkFailed(_ context.Context, uuid string, errorMsg string) error {
	return r.transition(uuid, entity.DeliveryStatusFailed, errorMsg)
}

func (r *fakeDeliveryRepo) transition(uuid string, status string, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[uuid]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if record.Status != entity.DeliveryStatusPending {
		return errors.New("record is not pending")
	}
	record.Status = status
	record.ErrorMsg = errorMsg
	return nil
}

func (r *fakeDeliveryRepo) ListByAccount(_ context.Context, accountId string, _, _ int) ([]*entity.DeliveryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.DeliveryRecord, 0)
	for _, record := range r.records {
		if record.AccountId == accountId {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeDeliveryRepo) single(t *testing.T) *entity.DeliveryRecord {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.records, 1)
	for _, record := range r.records {
		return record
	}
	return nil
}

type fakeDispatcher struct {
	ok   bool
	cmds []worker.DeliveryCommand
}

func (d *fakeDispatcher) DispatchContent(_ string, cmd worker.DeliveryCommand) bool {
	d.cmds = append(d.cmds, cmd)
	return d.ok
}

func newTestDeliveryService(results []search.RawResult, dispatcher *fakeDispatcher) (DeliveryService, *fakeDeliveryRepo) {
	accountRepo := &fakeAccountRepo{accounts: map[string]*accountEntity.Account{
		"acc-1": {Uuid: "acc-1", Username: "tester", Enabled: true},
	}}
	prefSvc := &fakePrefService{prefs: &accountService.TriggerPrefs{ContentEnabled: true}}
	resolver := contentService.NewResolverService(search.NewMockProvider(results), 5)
	deliveryRepo := newFakeDeliveryRepo()
	return NewDeliveryService(accountRepo, prefSvc, resolver, deliveryRepo, dispatcher), deliveryRepo
}

func gameResults() []search.RawResult {
	return []search.RawResult{
		{URL: "https://cdn.example.com/clip.gif", Title: "Hades gaming clip", Source: "tube", Width: 300, Height: 300},
	}
}

func TestHandleTriggerDispatchesAndRecordsPending(t *testing.T) {
	dispatcher := &fakeDispatcher{ok: true}
	svc, repo := newTestDeliveryService(gameResults(), dispatcher)

	ok := svc.HandleTrigger(context.Background(), "acc-1", "friend-1", "act-1", "GAME", "Hades")
	require.True(t, ok)

	record := repo.single(t)
	assert.Equal(t, entity.DeliveryStatusPending, record.Status)
	assert.Equal(t, "acc-1", record.AccountId)
	assert.Equal(t, "friend-1", record.FriendId)
	assert.Equal(t, "act-1", record.ActivityId)
	assert.Equal(t, "GAME", record.TriggerType)
	assert.Equal(t, "https://cdn.example.com/clip.gif", record.ContentUrl)

	require.Len(t, dispatcher.cmds, 1)
	assert.Equal(t, record.Uuid, dispatcher.cmds[0].RecordId)
}

func TestHandleTriggerDispatchFailureMarksRecordFailed(t *testing.T) {
	dispatcher := &fakeDispatcher{ok: false}
	svc, repo := newTestDeliveryService(gameResults(), dispatcher)

	ok := svc.HandleTrigger(context.Background(), "acc-1", "friend-1", "act-1", "GAME", "Hades")
	assert.False(t, ok)

	record := repo.single(t)
	assert.Equal(t, entity.DeliveryStatusFailed, record.Status)
	assert.Contains(t, record.ErrorMsg, "worker unavailable")
}

func TestHandleTriggerRejectsUnknownAccount(t *testing.T) {
	dispatcher := &fakeDispatcher{ok: true}
	svc, repo := newTestDeliveryService(gameResults(), dispatcher)

	ok := svc.HandleTrigger(context.Background(), "missing", "friend-1", "act-1", "GAME", "Hades")
	assert.False(t, ok)
	assert.Empty(t, repo.records)
	assert.Empty(t, dispatcher.cmds)
}

func TestHandleTriggerNoContentIsNotAnError(t *testing.T) {
	dispatcher := &fakeDispatcher{ok: true}
	svc, repo := newTestDeliveryService(nil, dispatcher)

	ok := svc.HandleTrigger(context.Background(), "acc-1", "friend-1", "act-1", "GAME", "Hades")
	assert.False(t, ok)
	assert.Empty(t, repo.records)
	assert.Empty(t, dispatcher.cmds)
}

func TestHandleTriggerValidatesArguments(t *testing.T) {
	dispatcher := &fakeDispatcher{ok: true}
	svc, _ := newTestDeliveryService(gameResults(), dispatcher)

	assert.False(t, svc.HandleTrigger(context.Background(), "", "friend-1", "a", "GAME", "Hades"))
	assert.False(t, svc.HandleTrigger(context.Background(), "acc-1", "", "a", "GAME", "Hades"))
	assert.False(t, svc.HandleTrigger(context.Background(), "acc-1", "friend-1", "a", "", "Hades"))
	assert.False(t, svc.HandleTrigger(context.Background(), "acc-1", "friend-1", "a", "GAME", ""))
}

func TestConfirmDeliveryTransitions(t *testing.T) {
	dispatcher := &fakeDispatcher{ok: true}
	svc, repo := newTestDeliveryService(gameResults(), dispatcher)

	require.True(t, svc.HandleTrigger(context.Background(), "acc-1", "friend-1", "act-1", "GAME", "Hades"))
	record := repo.single(t)

	svc.ConfirmDelivery(context.Background(), record.Uuid, "")
	assert.Equal(t, entity.DeliveryStatusSent, record.Status)

	// SENT 之后的回执不允许状态回退
	svc.ConfirmDelivery(context.Background(), record.Uuid, "late failure")
	assert.Equal(t, entity.DeliveryStatusSent, record.Status)
}
