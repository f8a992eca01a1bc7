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

// PostgresUsersRepository 用户Repository实现
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository 创建用户Repository
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	user_id::text,
	tenant_id::text,
	number,
	username,
	password,
	name,
	COALESCE(phone, ''),
	warehouse_ids,
	role_ids,
	permissions,
	COALESCE(remark, ''),
	is_manager,
	is_enabled,
	extension_data,
	update_time,
	create_time,
	is_deleted,
	delete_time
`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	var warehouseIDs, roleIDs, permissions, extension []byte
	var deleteTime sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.TenantID,
		&user.Number,
		&user.Username,
		&user.Password,
		&user.Name,
		&user.Phone,
		&warehouseIDs,
		&roleIDs,
		&permissions,
		&user.Remark,
		&user.IsManager,
		&user.IsEnabled,
		&extension,
		&user.UpdateTime,
		&user.CreateTime,
		&user.IsDeleted,
		&deleteTime,
	)
	if err != nil {
		return nil, err
	}

	if user.WarehouseIDs, err = stringsFromJSON(warehouseIDs); err != nil {
		return nil, fmt.Errorf("failed to decode warehouse_ids: %w", err)
	}
	if user.RoleIDs, err = stringsFromJSON(roleIDs); err != nil {
		return nil, fmt.Errorf("failed to decode role_ids: %w", err)
	}
	if user.Permissions, err = stringsFromJSON(permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}
	if user.ExtensionData, err = extensionFromJSON(extension); err != nil {
		return nil, fmt.Errorf("failed to decode extension_data: %w", err)
	}
	if deleteTime.Valid {
		t := deleteTime.Time
		user.DeleteTime = &t
	}
	return &user, nil
}

// GetUser 根据user_id获取用户
func (r *PostgresUsersRepository) GetUser(ctx context.Context, tenantID, userID string) (*domain.User, error) {
	if tenantID == "" || userID == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND user_id = $2`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, tenantID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByUsername 根据用户名获取活跃用户
func (r *PostgresUsersRepository) GetUserByUsername(ctx context.Context, tenantID, username string) (*domain.User, error) {
	if tenantID == "" || username == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 AND username = $2 AND is_deleted = FALSE`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, tenantID, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// ListUsers 查询用户列表
func (r *PostgresUsersRepository) ListUsers(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.User, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

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
		where = append(where, fmt.Sprintf("(number ILIKE $%d OR username ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY number LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

// GetUsersByIDs 按ID列表获取活跃用户
func (r *PostgresUsersRepository) GetUsersByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1 AND is_deleted = FALSE AND user_id = ANY($2)
		ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateUser 创建用户
func (r *PostgresUsersRepository) CreateUser(ctx context.Context, tenantID string, user *domain.User) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) + 1 FROM users WHERE tenant_id = $1 AND is_deleted = FALSE`, tenantID).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate user number: %w", err)
	}

	warehouseIDs, err := stringsToJSON(user.WarehouseIDs)
	if err != nil {
		return "", fmt.Errorf("failed to encode warehouse_ids: %w", err)
	}
	roleIDs, err := stringsToJSON(user.RoleIDs)
	if err != nil {
		return "", fmt.Errorf("failed to encode role_ids: %w", err)
	}
	permissions, err := stringsToJSON(user.Permissions)
	if err != nil {
		return "", fmt.Errorf("failed to encode permissions: %w", err)
	}
	extension, err := extensionToJSON(user.ExtensionData)
	if err != nil {
		return "", fmt.Errorf("failed to encode extension_data: %w", err)
	}

	userID := uuid.NewString()
	number := fmt.Sprintf("U%03d", seq)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (user_id, tenant_id, number, username, password, name, phone,
			warehouse_ids, role_ids, permissions, remark, is_manager, is_enabled, extension_data,
			update_time, create_time, is_deleted, delete_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW(), FALSE, NULL)`,
		userID, tenantID, number, user.Username, user.Password, user.Name, user.Phone,
		warehouseIDs, roleIDs, permissions, user.Remark, user.IsManager, user.IsEnabled, extension)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	user.ID = userID
	user.Number = number
	return userID, nil
}

// UpdateUser 更新用户可编辑字段（用户名/密码不在此处修改）
func (r *PostgresUsersRepository) UpdateUser(ctx context.Context, tenantID string, user *domain.User) error {
	warehouseIDs, err := stringsToJSON(user.WarehouseIDs)
	if err != nil {
		return fmt.Errorf("failed to encode warehouse_ids: %w", err)
	}
	roleIDs, err := stringsToJSON(user.RoleIDs)
	if err != nil {
		return fmt.Errorf("failed to encode role_ids: %w", err)
	}
	permissions, err := stringsToJSON(user.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}
	extension, err := extensionToJSON(user.ExtensionData)
	if err != nil {
		return fmt.Errorf("failed to encode extension_data: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET name = $3, phone = $4, warehouse_ids = $5, role_ids = $6, permissions = $7,
		     remark = $8, is_enabled = $9, extension_data = $10, update_time = NOW()
		 WHERE tenant_id = $1 AND user_id = $2 AND is_deleted = FALSE`,
		tenantID, user.ID, user.Name, user.Phone, warehouseIDs, roleIDs, permissions,
		user.Remark, user.IsEnabled, extension)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdatePassword 更新密码
func (r *PostgresUsersRepository) UpdatePassword(ctx context.Context, tenantID, userID, password string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = $3, update_time = NOW()
		 WHERE tenant_id = $1 AND user_id = $2 AND is_deleted = FALSE`,
		tenantID, userID, password)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDeleteUser 逻辑删除
func (r *PostgresUsersRepository) SoftDeleteUser(ctx context.Context, tenantID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET is_deleted = TRUE, delete_time = NOW(), update_time = NOW()
		 WHERE tenant_id = $1 AND user_id = $2 AND is_deleted = FALSE`,
		tenantID, userID)
	if err != nil {
		return fmt.Errorf("failed to soft delete user: %w", err)
	}
	return nil
}

// UndoDeleteUser 恢复删除
func (r *PostgresUsersRepository) UndoDeleteUser(ctx context.Context, tenantID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET is_deleted = FALSE, delete_time = NULL, update_time = NOW()
		 WHERE tenant_id = $1 AND user_id = $2 AND is_deleted = TRUE`,
		tenantID, userID)
	if err != nil {
		return fmt.Errorf("failed to undo delete user: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsActiveUsername 活跃行内是否已有同用户名
func (r *PostgresUsersRepository) ExistsActiveUsername(ctx context.Context, tenantID, username, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE tenant_id = $1 AND username = $2 AND delete_time IS NULL
			  AND ($3 = '' OR user_id::text <> $3)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, username, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// ExistsActiveName 活跃行内是否已有同名用户
func (r *PostgresUsersRepository) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE tenant_id = $1 AND name = $2 AND delete_time IS NULL
			  AND ($3 = '' OR user_id::text <> $3)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user name: %w", err)
	}
	return exists, nil
}
