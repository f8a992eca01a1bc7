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

// PostgresWarehousesRepository 仓库Repository实现
type PostgresWarehousesRepository struct {
	db *sql.DB
}

// NewPostgresWarehousesRepository 创建仓库Repository
func NewPostgresWarehousesRepository(db *sql.DB) *PostgresWarehousesRepository {
	return &PostgresWarehousesRepository{db: db}
}

var _ WarehousesRepository = (*PostgresWarehousesRepository)(nil)

const warehouseColumns = `
	warehouse_id::text,
	tenant_id::text,
	number,
	name,
	COALESCE(address, ''),
	COALESCE(remark, ''),
	is_locked,
	is_enabled,
	extension_data,
	update_time,
	create_time,
	is_deleted,
	delete_time
`

func scanWarehouse(row interface{ Scan(...any) error }) (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	var extension []byte
	var deleteTime sql.NullTime

	err := row.Scan(
		&warehouse.ID,
		&warehouse.TenantID,
		&warehouse.Number,
		&warehouse.Name,
		&warehouse.Address,
		&warehouse.Remark,
		&warehouse.IsLocked,
		&warehouse.IsEnabled,
		&extension,
		&warehouse.UpdateTime,
		&warehouse.CreateTime,
		&warehouse.IsDeleted,
		&deleteTime,
	)
	if err != nil {
		return nil, err
	}

	if warehouse.ExtensionData, err = extensionFromJSON(extension); err != nil {
		return nil, fmt.Errorf("failed to decode extension_data: %w", err)
	}
	if deleteTime.Valid {
		t := deleteTime.Time
		warehouse.DeleteTime = &t
	}
	return &warehouse, nil
}

// GetWarehouse 根据warehouse_id获取仓库
func (r *PostgresWarehousesRepository) GetWarehouse(ctx context.Context, tenantID, warehouseID string) (*domain.Warehouse, error) {
	if tenantID == "" || warehouseID == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE tenant_id = $1 AND warehouse_id = $2`

	warehouse, err := scanWarehouse(r.db.QueryRowContext(ctx, query, tenantID, warehouseID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	return warehouse, nil
}

// ListWarehouses 查询仓库列表
func (r *PostgresWarehousesRepository) ListWarehouses(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.Warehouse, int, error) {
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
		where = append(where, fmt.Sprintf("(number ILIKE $%d OR name ILIKE $%d OR remark ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM warehouses WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count warehouses: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM warehouses WHERE %s ORDER BY number LIMIT $%d OFFSET $%d`,
		warehouseColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []*domain.Warehouse
	for rows.Next() {
		warehouse, err := scanWarehouse(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, warehouse)
	}
	return warehouses, total, rows.Err()
}

// GetWarehousesByIDs 按ID列表获取活跃仓库
func (r *PostgresWarehousesRepository) GetWarehousesByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Warehouse, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + warehouseColumns + `
		FROM warehouses
		WHERE tenant_id = $1 AND is_deleted = FALSE AND warehouse_id = ANY($2)
		ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get warehouses by ids: %w", err)
	}
	defer rows.Close()

	var warehouses []*domain.Warehouse
	for rows.Next() {
		warehouse, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, warehouse)
	}
	return warehouses, rows.Err()
}

// CreateWarehouse 创建仓库
func (r *PostgresWarehousesRepository) CreateWarehouse(ctx context.Context, tenantID string, warehouse *domain.Warehouse) (string, error) {
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
		`SELECT COUNT(*) + 1 FROM warehouses WHERE tenant_id = $1 AND is_deleted = FALSE`, tenantID).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate warehouse number: %w", err)
	}

	extension, err := extensionToJSON(warehouse.ExtensionData)
	if err != nil {
		return "", fmt.Errorf("failed to encode extension_data: %w", err)
	}

	warehouseID := uuid.NewString()
	number := fmt.Sprintf("W%03d", seq)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO warehouses (warehouse_id, tenant_id, number, name, address, remark,
			is_locked, is_enabled, extension_data, update_time, create_time, is_deleted, delete_time)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, NOW(), NOW(), FALSE, NULL)`,
		warehouseID, tenantID, number, warehouse.Name, warehouse.Address, warehouse.Remark,
		warehouse.IsEnabled, extension)
	if err != nil {
		return "", fmt.Errorf("failed to create warehouse: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	warehouse.ID = warehouseID
	warehouse.Number = number
	return warehouseID, nil
}

// UpdateWarehouse 更新仓库可编辑字段
func (r *PostgresWarehousesRepository) UpdateWarehouse(ctx context.Context, tenantID string, warehouse *domain.Warehouse) error {
	extension, err := extensionToJSON(warehouse.ExtensionData)
	if err != nil {
		return fmt.Errorf("failed to encode extension_data: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE warehouses
		 SET name = $3, address = $4, remark = $5, is_enabled = $6, extension_data = $7, update_time = NOW()
		 WHERE tenant_id = $1 AND warehouse_id = $2 AND is_deleted = FALSE`,
		tenantID, warehouse.ID, warehouse.Name, warehouse.Address, warehouse.Remark,
		warehouse.IsEnabled, extension)
	if err != nil {
		return fmt.Errorf("failed to update warehouse: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetLocked 盘点锁定/解锁
func (r *PostgresWarehousesRepository) SetLocked(ctx context.Context, tenantID, warehouseID string, locked bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE warehouses
		 SET is_locked = $3, update_time = NOW()
		 WHERE tenant_id = $1 AND warehouse_id = $2 AND is_deleted = FALSE`,
		tenantID, warehouseID, locked)
	if err != nil {
		return fmt.Errorf("failed to set warehouse lock: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDeleteWarehouse 逻辑删除
func (r *PostgresWarehousesRepository) SoftDeleteWarehouse(ctx context.Context, tenantID, warehouseID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE warehouses
		 SET is_deleted = TRUE, delete_time = NOW(), update_time = NOW()
		 WHERE tenant_id = $1 AND warehouse_id = $2 AND is_deleted = FALSE`,
		tenantID, warehouseID)
	if err != nil {
		return fmt.Errorf("failed to soft delete warehouse: %w", err)
	}
	return nil
}

// UndoDeleteWarehouse 恢复删除
func (r *PostgresWarehousesRepository) UndoDeleteWarehouse(ctx context.Context, tenantID, warehouseID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE warehouses
		 SET is_deleted = FALSE, delete_time = NULL, update_time = NOW()
		 WHERE tenant_id = $1 AND warehouse_id = $2 AND is_deleted = TRUE`,
		tenantID, warehouseID)
	if err != nil {
		return fmt.Errorf("failed to undo delete warehouse: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsActiveName 活跃行内是否已有同名仓库
func (r *PostgresWarehousesRepository) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM warehouses
			WHERE tenant_id = $1 AND name = $2 AND delete_time IS NULL
			  AND ($3 = '' OR warehouse_id::text <> $3)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check warehouse name: %w", err)
	}
	return exists, nil
}
