package repository

import (
	"context"
	"database/sql"
	"fmt"

	"inventory-data/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRolesRepository 角色Repository实现
type PostgresRolesRepository struct {
	db *sql.DB
}

// NewPostgresRolesRepository 创建角色Repository
func NewPostgresRolesRepository(db *sql.DB) *PostgresRolesRepository {
	return &PostgresRolesRepository{db: db}
}

var _ RolesRepository = (*PostgresRolesRepository)(nil)

const roleColumns = `
	role_id::text,
	tenant_id::text,
	name,
	COALESCE(remark, ''),
	permissions,
	update_time,
	create_time
`

func scanRole(row interface{ Scan(...any) error }) (*domain.Role, error) {
	var role domain.Role
	var permissions []byte

	err := row.Scan(
		&role.ID,
		&role.TenantID,
		&role.Name,
		&role.Remark,
		&permissions,
		&role.UpdateTime,
		&role.CreateTime,
	)
	if err != nil {
		return nil, err
	}

	if role.Permissions, err = stringsFromJSON(permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}
	return &role, nil
}

// GetRole 根据role_id获取角色
func (r *PostgresRolesRepository) GetRole(ctx context.Context, tenantID, roleID string) (*domain.Role, error) {
	if tenantID == "" || roleID == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + roleColumns + ` FROM roles WHERE tenant_id = $1 AND role_id = $2`

	role, err := scanRole(r.db.QueryRowContext(ctx, query, tenantID, roleID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// GetRolesByIDs 按ID列表获取角色
func (r *PostgresRolesRepository) GetRolesByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + roleColumns + `
		FROM roles
		WHERE tenant_id = $1 AND role_id = ANY($2)
		ORDER BY create_time`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get roles by ids: %w", err)
	}
	defer rows.Close()

	var roles []*domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListRoles 查询角色列表
func (r *PostgresRolesRepository) ListRoles(ctx context.Context, tenantID string, page, size int) ([]*domain.Role, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM roles WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count roles: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	query := `SELECT ` + roleColumns + `
		FROM roles
		WHERE tenant_id = $1
		ORDER BY create_time
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, tenantID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, total, rows.Err()
}

// CreateRole 创建角色
func (r *PostgresRolesRepository) CreateRole(ctx context.Context, tenantID string, role *domain.Role) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}

	permissions, err := stringsToJSON(role.Permissions)
	if err != nil {
		return "", fmt.Errorf("failed to encode permissions: %w", err)
	}

	roleID := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO roles (role_id, tenant_id, name, remark, permissions, update_time, create_time)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		roleID, tenantID, role.Name, role.Remark, permissions)
	if err != nil {
		return "", fmt.Errorf("failed to create role: %w", err)
	}

	role.ID = roleID
	return roleID, nil
}

// UpdateRole 更新角色
func (r *PostgresRolesRepository) UpdateRole(ctx context.Context, tenantID string, role *domain.Role) error {
	permissions, err := stringsToJSON(role.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE roles
		 SET name = $3, remark = $4, permissions = $5, update_time = NOW()
		 WHERE tenant_id = $1 AND role_id = $2`,
		tenantID, role.ID, role.Name, role.Remark, permissions)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteRole 物理删除角色
func (r *PostgresRolesRepository) DeleteRole(ctx context.Context, tenantID, roleID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM roles WHERE tenant_id = $1 AND role_id = $2`,
		tenantID, roleID)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsName 租户内是否已有同名角色
func (r *PostgresRolesRepository) ExistsName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM roles
			WHERE tenant_id = $1 AND name = $2
			  AND ($3 = '' OR role_id::text <> $3)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check role name: %w", err)
	}
	return exists, nil
}
