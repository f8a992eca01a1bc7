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

// PostgresSuppliersRepository 供应商Repository实现
type PostgresSuppliersRepository struct {
	db *sql.DB
}

// NewPostgresSuppliersRepository 创建供应商Repository
func NewPostgresSuppliersRepository(db *sql.DB) *PostgresSuppliersRepository {
	return &PostgresSuppliersRepository{db: db}
}

var _ SuppliersRepository = (*PostgresSuppliersRepository)(nil)

const supplierColumns = `
	supplier_id::text,
	tenant_id::text,
	number,
	name,
	COALESCE(category_id::text, ''),
	COALESCE(contact, ''),
	COALESCE(phone, ''),
	COALESCE(address, ''),
	COALESCE(remark, ''),
	is_enabled,
	initial_arrears_amount,
	arrears_amount,
	extension_data,
	update_time,
	create_time,
	is_deleted,
	delete_time
`

func scanSupplier(row interface{ Scan(...any) error }) (*domain.Supplier, error) {
	var supplier domain.Supplier
	var extension []byte
	var deleteTime sql.NullTime

	err := row.Scan(
		&supplier.ID,
		&supplier.TenantID,
		&supplier.Number,
		&supplier.Name,
		&supplier.CategoryID,
		&supplier.Contact,
		&supplier.Phone,
		&supplier.Address,
		&supplier.Remark,
		&supplier.IsEnabled,
		&supplier.InitialArrearsAmount,
		&supplier.ArrearsAmount,
		&extension,
		&supplier.UpdateTime,
		&supplier.CreateTime,
		&supplier.IsDeleted,
		&deleteTime,
	)
	if err != nil {
		return nil, err
	}

	if supplier.ExtensionData, err = extensionFromJSON(extension); err != nil {
		return nil, fmt.Errorf("failed to decode extension_data: %w", err)
	}
	if deleteTime.Valid {
		t := deleteTime.Time
		supplier.DeleteTime = &t
	}
	return &supplier, nil
}

// GetSupplier 根据supplier_id获取供应商
func (r *PostgresSuppliersRepository) GetSupplier(ctx context.Context, tenantID, supplierID string) (*domain.Supplier, error) {
	if tenantID == "" || supplierID == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE tenant_id = $1 AND supplier_id = $2`

	supplier, err := scanSupplier(r.db.QueryRowContext(ctx, query, tenantID, supplierID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return supplier, nil
}

// ListSuppliers 查询供应商列表
func (r *PostgresSuppliersRepository) ListSuppliers(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.Supplier, int, error) {
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suppliers WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count suppliers: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM suppliers WHERE %s ORDER BY number LIMIT $%d OFFSET $%d`,
		supplierColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*domain.Supplier
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, total, rows.Err()
}

// GetSuppliersByIDs 按ID列表获取活跃供应商
func (r *PostgresSuppliersRepository) GetSuppliersByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + supplierColumns + `
		FROM suppliers
		WHERE tenant_id = $1 AND is_deleted = FALSE AND supplier_id = ANY($2)
		ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get suppliers by ids: %w", err)
	}
	defer rows.Close()

	var suppliers []*domain.Supplier
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, rows.Err()
}

// CreateSupplier 创建供应商
func (r *PostgresSuppliersRepository) CreateSupplier(ctx context.Context, tenantID string, supplier *domain.Supplier) (string, error) {
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
		`SELECT COUNT(*) + 1 FROM suppliers WHERE tenant_id = $1 AND is_deleted = FALSE`, tenantID).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate supplier number: %w", err)
	}

	extension, err := extensionToJSON(supplier.ExtensionData)
	if err != nil {
		return "", fmt.Errorf("failed to encode extension_data: %w", err)
	}

	supplierID := uuid.NewString()
	number := fmt.Sprintf("S%03d", seq)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO suppliers (supplier_id, tenant_id, number, name, category_id, contact, phone, address,
			remark, is_enabled, initial_arrears_amount, arrears_amount, extension_data,
			update_time, create_time, is_deleted, delete_time)
		 VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW(), FALSE, NULL)`,
		supplierID, tenantID, number, supplier.Name, supplier.CategoryID, supplier.Contact,
		supplier.Phone, supplier.Address, supplier.Remark, supplier.IsEnabled,
		supplier.InitialArrearsAmount, supplier.InitialArrearsAmount, extension)
	if err != nil {
		return "", fmt.Errorf("failed to create supplier: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	supplier.ID = supplierID
	supplier.Number = number
	return supplierID, nil
}

// UpdateSupplier 更新供应商可编辑字段
func (r *PostgresSuppliersRepository) UpdateSupplier(ctx context.Context, tenantID string, supplier *domain.Supplier) error {
	extension, err := extensionToJSON(supplier.ExtensionData)
	if err != nil {
		return fmt.Errorf("failed to encode extension_data: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE suppliers
		 SET name = $3, category_id = NULLIF($4, '')::uuid, contact = $5, phone = $6, address = $7,
		     remark = $8, is_enabled = $9, initial_arrears_amount = $10, arrears_amount = $11,
		     extension_data = $12, update_time = NOW()
		 WHERE tenant_id = $1 AND supplier_id = $2 AND is_deleted = FALSE`,
		tenantID, supplier.ID, supplier.Name, supplier.CategoryID, supplier.Contact,
		supplier.Phone, supplier.Address, supplier.Remark, supplier.IsEnabled,
		supplier.InitialArrearsAmount, supplier.ArrearsAmount, extension)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDeleteSupplier 逻辑删除
func (r *PostgresSuppliersRepository) SoftDeleteSupplier(ctx context.Context, tenantID, supplierID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE suppliers
		 SET is_deleted = TRUE, delete_time = NOW(), update_time = NOW()
		 WHERE tenant_id = $1 AND supplier_id = $2 AND is_deleted = FALSE`,
		tenantID, supplierID)
	if err != nil {
		return fmt.Errorf("failed to soft delete supplier: %w", err)
	}
	return nil
}

// UndoDeleteSupplier 恢复删除
func (r *PostgresSuppliersRepository) UndoDeleteSupplier(ctx context.Context, tenantID, supplierID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE suppliers
		 SET is_deleted = FALSE, delete_time = NULL, update_time = NOW()
		 WHERE tenant_id = $1 AND supplier_id = $2 AND is_deleted = TRUE`,
		tenantID, supplierID)
	if err != nil {
		return fmt.Errorf("failed to undo delete supplier: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsActiveName 活跃行内是否已有同名供应商
func (r *PostgresSuppliersRepository) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM suppliers
			WHERE tenant_id = $1 AND name = $2 AND delete_time IS NULL
			  AND ($3 = '' OR supplier_id::text <> $3)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check supplier name: %w", err)
	}
	return exists, nil
}
