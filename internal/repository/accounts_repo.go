package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// AccountsRepository 结算账户Repository接口
// 使用强类型领域模型；归档语义（逻辑删除/唯一性排除已删除行）在 SQL 层统一处理
type AccountsRepository interface {
	// GetAccount 根据account_id获取账户（包含已删除行，恢复删除需要）
	GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error)

	// ListAccounts 查询账户列表（支持分页、过滤、搜索；默认排除已删除行）
	ListAccounts(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.Account, int, error)

	// GetAccountsByIDs 按ID列表获取活跃账户（导出任务使用）
	GetAccountsByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Account, error)

	// CreateAccount 创建账户（分配 account_id 和顺序编号 A001 形式）
	CreateAccount(ctx context.Context, tenantID string, account *domain.Account) (string, error)

	// UpdateAccount 更新账户可编辑字段
	UpdateAccount(ctx context.Context, tenantID string, account *domain.Account) error

	// SoftDeleteAccount 逻辑删除：置删除标记和删除时间（已删除则不生效）
	SoftDeleteAccount(ctx context.Context, tenantID, accountID string) error

	// UndoDeleteAccount 恢复删除：清除删除标记和删除时间
	// 唯一性预检由 Service 层完成，数据库唯一索引兜底并发竞争
	UndoDeleteAccount(ctx context.Context, tenantID, accountID string) error

	// ExistsActiveName 活跃行内是否已有同名账户（excludeID 排除自身，可为空）
	ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error)
}
