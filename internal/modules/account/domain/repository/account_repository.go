package repository

import (
	"context"

	"PulseLink/internal/modules/account/domain/entity"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error

	GetByUuid(ctx context.Context, accountId string) (*entity.Account, error)

	// ListEnabled 返回所有启用的账号，进程启动时用于恢复工作单元
	ListEnabled(ctx context.Context) ([]*entity.Account, error)

	UpdateSettings(ctx context.Context, accountId string, autoReconnect bool, statusIntervalSeconds int) error
}
