package service

import (
	"context"
	"errors"
	"strings"

	"PulseLink/internal/modules/account/domain/repository"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// HourWindow 本地时段限制，Start > End 表示跨午夜
type HourWindow struct {
	Start int
	End   int
}

// Allows 判断小时是否落在窗口内，区间为 [Start, End)
func (w HourWindow) Allows(hour int) bool {
	if w.Start <= w.End {
		return hour >= w.Start && hour < w.End
	}
	return hour >= w.Start || hour < w.End
}

// TriggerPrefs 触发判定所需的 (账号, 好友) 偏好快照
type TriggerPrefs struct {
	EnabledTypes   map[string]struct{}
	Window         *HourWindow
	Blacklisted    bool
	ContentEnabled bool
}

func (p *TriggerPrefs) TypeEnabled(contentType string) bool {
	if p == nil {
		return false
	}
	// 空集合表示沿用默认：全部类型启用
	if len(p.EnabledTypes) == 0 {
		return true
	}
	_, ok := p.EnabledTypes[contentType]
	return ok
}

// PreferenceService 偏好提供方，核心只读这一个入口
type PreferenceService interface {
	GetTriggerPrefs(ctx context.Context, accountId, friendId string) (*TriggerPrefs, error)
}

type preferenceServiceImpl struct {
	prefRepo repository.PreferenceRepository
}

func NewPreferenceService(prefRepo repository.PreferenceRepository) PreferenceService {
	return &preferenceServiceImpl{prefRepo: prefRepo}
}

func (s *preferenceServiceImpl) GetTriggerPrefs(ctx context.Context, accountId, friendId string) (*TriggerPrefs, error) {
	if accountId == "" || friendId == "" {
		return nil, errors.New("accountId/friendId is empty")
	}

	pref, err := s.prefRepo.GetByAccountAndFriend(ctx, accountId, friendId)
	if err != nil {
		if isNotFound(err) {
			// 未配置的好友使用默认偏好
			return &TriggerPrefs{ContentEnabled: true}, nil
		}
		zlog.Error("load friend preference failed",
			zap.String("account_id", accountId),
			zap.String("friend_id", friendId),
			zap.Error(err),
		)
		return nil, err
	}

	out := &TriggerPrefs{
		Blacklisted:    pref.Blacklisted,
		ContentEnabled: pref.ContentEnabled,
	}

	if types := strings.TrimSpace(pref.EnabledTypes); types != "" {
		out.EnabledTypes = make(map[string]struct{})
		for _, t := range strings.Split(types, ",") {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t != "" {
				out.EnabledTypes[t] = struct{}{}
			}
		}
	}

	if pref.StartHour != nil && pref.EndHour != nil {
		out.Window = &HourWindow{Start: *pref.StartHour, End: *pref.EndHour}
	}

	return out, nil
}
