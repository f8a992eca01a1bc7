package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inventory-data/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresAccountsRepository 结算账户Repository实现
type PostgresAccountsRepository struct {
	db *sql.DB
}

// NewPostgresAccountsRepository 创建结算账户Repository
func NewPostgresAccountsRepository(db *sql.DB) *PostgresAccountsRepository {
	return &PostgresAccountsRepository{db: db}
}

// 确保实现了接口
var _ AccountsRepository = (*PostgresAccountsRepository)(nil)

const accountColumns = `
	account_id::text,
	tenant_id::text,
	number,
	name,
	COALESCE(remark, ''),
	is_enabled,
	initial_balance_amount,
	balance_amount,
	extension_data,
	update_time,
	create_time,
	is_deleted,
	delete_time
`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var account domain.Account
	var extension []byte
	var deleteTime sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.TenantID,
		&account.Number,
		&account.Name,
		&account.Remark,
		&account.IsEnabled,
		&account.InitialBalanceAmount,
		&account.BalanceAmount,
		&extension,
		&account.UpdateTime,
		&account.CreateTime,
		&account.IsDeleted,
		&deleteTime,
	)
	if err != nil {
		return nil, err
	}

	if account.ExtensionData, err = extensionFromJSON(extension); err != nil {
		return nil, fmt.Errorf("failed to decode extension_data: %w", err)
	}
	if deleteTime.Valid {
		t := deleteTime.Time
		account.DeleteTime = &t
	}
	return &account, nil
}

// GetAccount 根据account_id获取账户
func (r *PostgresAccountsRepository) GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	if tenantID == "" || accountID == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE tenant_id = $1 AND account_id = $2`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, tenantID, accountID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListAccounts 查询账户列表
func (r *PostgresAccountsRepository) ListAccounts(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.Account, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	// 构建WHERE条件
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIdx := 2

	if filter.IsDeleted != nil {
		where = append(where, fmt.Sprintf("is_deleted = $%d", argIdx))
		args = append(args, *filter.IsDeleted)
		argIdx++
	} else if !filter.IncludeDeleted {
		where = append(where, "is_deleted = FALSE")
	}

	if filter.IsEnabled != nil {
		where = append(where, fmt.Sprintf("is_enabled = $%d", argIdx))
		args = append(args, *filter.IsEnabled)
		argIdx++
	}

	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(number ILIKE $%d OR name ILIKE $%d OR remark ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM accounts WHERE ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE %s ORDER BY number LIMIT $%d OFFSET $%d`,
		accountColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, total, rows.Err()
}

// GetAccountsByIDs 按ID列表获取活跃账户
func (r *PostgresAccountsRepository) GetAccountsByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE tenant_id = $1 AND is_deleted = FALSE AND account_id = ANY($2)
		ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts by ids: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// CreateAccount 创建账户
func (r *PostgresAccountsRepository) CreateAccount(ctx context.Context, tenantID string, account *domain.Account) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	// 顺序编号：活跃行计数 + 1；并发冲突由 number 唯一索引兜底
	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) + 1 FROM accounts WHERE tenant_id = $1 AND is_deleted = FALSE`, tenantID).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate account number: %w", err)
	}

	extension, err := extensionToJSON(account.ExtensionData)
	if err != nil {
		return "", fmt.Errorf("failed to encode extension_data: %w", err)
	}

	accountID := uuid.NewString()
	number := fmt.Sprintf("A%03d", seq)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (account_id, tenant_id, number, name, remark, is_enabled,
			initial_balance_amount, balance_amount, extension_data,
			update_time, create_time, is_deleted, delete_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), FALSE, NULL)`,
		accountID, tenantID, number, account.Name, account.Remark, account.IsEnabled,
		account.InitialBalanceAmount, account.InitialBalanceAmount, extension)
	if err != nil {
		return "", fmt.Errorf("failed to create account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	account.ID = accountID
	account.Number = number
	return accountID, nil
}

// UpdateAccount 更新账户可编辑字段（编号不在此处修改）
// 期初余额调整时当前余额由服务层同步修正，两列一起落库
func (r *PostgresAccountsRepository) UpdateAccount(ctx context.Context, tenantID string, account *domain.Account) error {
	extension, err := extensionToJSON(account.ExtensionData)
	if err != nil {
		return fmt.Errorf("failed to encode extension_data: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET name = $3, remark = $4, is_enabled = $5,
		     initial_balance_amount = $6, balance_amount = $7,
		     extension_data = $8, update_time = NOW()
		 WHERE tenant_id = $1 AND account_id = $2 AND is_deleted = FALSE`,
		tenantID, account.ID, account.Name, account.Remark, account.IsEnabled,
		account.InitialBalanceAmount, account.BalanceAmount, extension)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDeleteAccount 逻辑删除
func (r *PostgresAccountsRepository) SoftDeleteAccount(ctx context.Context, tenantID, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET is_deleted = TRUE, delete_time = NOW(), update_time = NOW()
		 WHERE tenant_id = $1 AND account_id = $2 AND is_deleted = FALSE`,
		tenantID, accountID)
	if err != nil {
		return fmt.Errorf("failed to soft delete account: %w", err)
	}
	return nil
}

// UndoDeleteAccount 恢复删除
func (r *PostgresAccountsRepository) UndoDeleteAccount(ctx context.Context, tenantID, accountID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET is_deleted = FALSE, delete_time = NULL, update_time = NOW()
		 WHERE tenant_id = $1 AND account_id = $2 AND is_deleted = TRUE`,
		tenantID, accountID)
	if err != nil {
		return fmt.Errorf("failed to undo delete account: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsActiveName 活跃行内是否已有同名账户
func (r *PostgresAccountsRepository) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM accounts
			WHERE tenant_id = $1 AND name = $2 AND delete_time IS NULL
			  AND ($3 = '' OR account_id::text <> $3)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account name: %w", err)
	}
	return exists, nil
}
