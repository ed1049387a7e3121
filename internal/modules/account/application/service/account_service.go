package service

import (
	"context"
	"strings"
	"time"

	"PulseLink/internal/modules/account/application/dto/request"
	"PulseLink/internal/modules/account/application/dto/respond"
	"PulseLink/internal/modules/account/domain/entity"
	"PulseLink/internal/modules/account/domain/repository"
	"PulseLink/pkg/util"
	"PulseLink/pkg/util/myjwt"
	"PulseLink/pkg/xerr"
	"PulseLink/pkg/zlog"

	"go.uber.org/zap"
)

// AccountService 账号登记与偏好维护。令牌只存密文，全程不回传明文。
type AccountService interface {
	RegisterAccount(ctx context.Context, req request.RegisterAccountRequest) (*respond.AccountRespond, error)

	GetAccount(ctx context.Context, accountId string) (*respond.AccountRespond, error)

	UpsertPreference(ctx context.Context, accountId string, req request.UpsertPreferenceRequest) error

	// IssueToken 为管理端签发访问令牌
	IssueToken(ctx context.Context, accountId string) (string, error)
}

type accountServiceImpl struct {
	accountRepo repository.AccountRepository
	prefRepo    repository.PreferenceRepository
	credentials CredentialService
}

func NewAccountService(accountRepo repository.AccountRepository, prefRepo repository.PreferenceRepository, credentials CredentialService) AccountService {
	return &accountServiceImpl{
		accountRepo: accountRepo,
		prefRepo:    prefRepo,
		credentials: credentials,
	}
}

func (s *accountServiceImpl) RegisterAccount(ctx context.Context, req request.RegisterAccountRequest) (*respond.AccountRespond, error) {
	username := strings.TrimSpace(req.Username)
	token := strings.TrimSpace(req.Token)
	if username == "" || token == "" {
		return nil, xerr.ErrParam
	}

	cipher, err := s.credentials.EncryptToken(token)
	if err != nil {
		zlog.Error("encrypt account token failed", zap.Error(err))
		return nil, xerr.ErrServerError
	}

	autoReconnect := true
	if req.AutoReconnect != nil {
		autoReconnect = *req.AutoReconnect
	}
	interval := req.StatusIntervalSeconds
	if interval <= 0 {
		interval = 30
	}

	now := time.Now()
	account := &entity.Account{
		Uuid:                  util.GenerateShortUUID(),
		Username:              username,
		TokenCipher:           cipher,
		AutoReconnect:         autoReconnect,
		StatusIntervalSeconds: interval,
		Enabled:               true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		zlog.Error("create account failed", zap.String("username", username), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	return toAccountRespond(account), nil
}

func (s *accountServiceImpl) GetAccount(ctx context.Context, accountId string) (*respond.AccountRespond, error) {
	account, err := s.accountRepo.GetByUuid(ctx, accountId)
	if err != nil {
		if isNotFound(err) {
			return nil, xerr.ErrAccountNotFound
		}
		return nil, xerr.ErrServerError
	}
	return toAccountRespond(account), nil
}

func (s *accountServiceImpl) UpsertPreference(ctx context.Context, accountId string, req request.UpsertPreferenceRequest) error {
	friendId := strings.TrimSpace(req.FriendId)
	if accountId == "" || friendId == "" {
		return xerr.ErrParam
	}

	if _, err := s.accountRepo.GetByUuid(ctx, accountId); err != nil {
		if isNotFound(err) {
			return xerr.ErrAccountNotFound
		}
		return xerr.ErrServerError
	}

	contentEnabled := true
	if req.ContentEnabled != nil {
		contentEnabled = *req.ContentEnabled
	}

	now := time.Now()
	pref := &entity.FriendPreference{
		AccountId:      accountId,
		FriendId:       friendId,
		EnabledTypes:   strings.Join(req.EnabledTypes, ","),
		Blacklisted:    req.Blacklisted,
		StartHour:      req.StartHour,
		EndHour:        req.EndHour,
		ContentEnabled: contentEnabled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.prefRepo.Upsert(ctx, pref); err != nil {
		zlog.Error("upsert friend preference failed",
			zap.String("account_id", accountId),
			zap.String("friend_id", friendId),
			zap.Error(err))
		return xerr.ErrServerError
	}
	return nil
}

func (s *accountServiceImpl) IssueToken(ctx context.Context, accountId string) (string, error) {
	account, err := s.accountRepo.GetByUuid(ctx, accountId)
	if err != nil {
		if isNotFound(err) {
			return "", xerr.ErrAccountNotFound
		}
		return "", xerr.ErrServerError
	}
	token, err := myjwt.GenerateToken(account.Uuid, account.Username)
	if err != nil {
		zlog.Error("issue token failed", zap.String("account_id", accountId), zap.Error(err))
		return "", xerr.ErrServerError
	}
	return token, nil
}

func toAccountRespond(account *entity.Account) *respond.AccountRespond {
	return &respond.AccountRespond{
		Uuid:                  account.Uuid,
		Username:              account.Username,
		AutoReconnect:         account.AutoReconnect,
		StatusIntervalSeconds: account.StatusIntervalSeconds,
		Enabled:               account.Enabled,
	}
}
