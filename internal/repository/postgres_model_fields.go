package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inventory-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresModelFieldsRepository 自定义字段Repository实现
type PostgresModelFieldsRepository struct {
	db *sql.DB
}

// NewPostgresModelFieldsRepository 创建自定义字段Repository
func NewPostgresModelFieldsRepository(db *sql.DB) *PostgresModelFieldsRepository {
	return &PostgresModelFieldsRepository{db: db}
}

var _ ModelFieldsRepository = (*PostgresModelFieldsRepository)(nil)

const modelFieldColumns = `
	field_id::text,
	tenant_id::text,
	number,
	name,
	model,
	type,
	priority,
	COALESCE(remark, ''),
	property,
	update_time,
	create_time,
	is_deleted,
	delete_time
`

func scanModelField(row interface{ Scan(...any) error }) (*domain.ModelField, error) {
	var field domain.ModelField
	var property []byte
	var deleteTime sql.NullTime

	err := row.Scan(
		&field.ID,
		&field.TenantID,
		&field.Number,
		&field.Name,
		&field.Model,
		&field.Type,
		&field.Priority,
		&field.Remark,
		&property,
		&field.UpdateTime,
		&field.CreateTime,
		&field.IsDeleted,
		&deleteTime,
	)
	if err != nil {
		return nil, err
	}

	field.Property = property
	if deleteTime.Valid {
		t := deleteTime.Time
		field.DeleteTime = &t
	}
	return &field, nil
}

// GetModelField 根据field_id获取字段定义
func (r *PostgresModelFieldsRepository) GetModelField(ctx context.Context, tenantID, fieldID string) (*domain.ModelField, error) {
	if tenantID == "" || fieldID == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + modelFieldColumns + ` FROM model_fields WHERE tenant_id = $1 AND field_id = $2`

	field, err := scanModelField(r.db.QueryRowContext(ctx, query, tenantID, fieldID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get model field: %w", err)
	}
	return field, nil
}

// ListModelFields 查询字段定义列表
func (r *PostgresModelFieldsRepository) ListModelFields(ctx context.Context, tenantID string, model domain.DataModel, filter ArchiveFilter, page, size int) ([]*domain.ModelField, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIdx := 2

	if model != "" {
		where = append(where, fmt.Sprintf("model = $%d", argIdx))
		args = append(args, model)
		argIdx++
	}

	if filter.IsDeleted != nil {
		where = append(where, fmt.Sprintf("is_deleted = $%d", argIdx))
		args = append(args, *filter.IsDeleted)
		argIdx++
	} else if !filter.IncludeDeleted {
		where = append(where, "is_deleted = FALSE")
	}

	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(number ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM model_fields WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count model fields: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM model_fields WHERE %s ORDER BY priority DESC, number LIMIT $%d OFFSET $%d`,
		modelFieldColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list model fields: %w", err)
	}
	defer rows.Close()

	var fields []*domain.ModelField
	for rows.Next() {
		field, err := scanModelField(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan model field: %w", err)
		}
		fields = append(fields, field)
	}
	return fields, total, rows.Err()
}

// ActiveFields 指定模型的全部活跃字段，按优先级降序
func (r *PostgresModelFieldsRepository) ActiveFields(ctx context.Context, tenantID string, model domain.DataModel) ([]*domain.ModelField, error) {
	query := `SELECT ` + modelFieldColumns + `
		FROM model_fields
		WHERE tenant_id = $1 AND model = $2 AND is_deleted = FALSE
		ORDER BY priority DESC, number`

	rows, err := r.db.QueryContext(ctx, query, tenantID, model)
	if err != nil {
		return nil, fmt.Errorf("failed to query active fields: %w", err)
	}
	defer rows.Close()

	var fields []*domain.ModelField
	for rows.Next() {
		field, err := scanModelField(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model field: %w", err)
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

// CreateModelField 创建字段定义
func (r *PostgresModelFieldsRepository) CreateModelField(ctx context.Context, tenantID string, field *domain.ModelField) (string, error) {
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
		`SELECT COUNT(*) + 1 FROM model_fields WHERE tenant_id = $1 AND is_deleted = FALSE`, tenantID).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate field number: %w", err)
	}

	fieldID := uuid.NewString()
	number := fmt.Sprintf("F%03d", seq)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO model_fields (field_id, tenant_id, number, name, model, type, priority,
			remark, property, update_time, create_time, is_deleted, delete_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW(), FALSE, NULL)`,
		fieldID, tenantID, number, field.Name, field.Model, field.Type, field.Priority,
		field.Remark, []byte(field.Property))
	if err != nil {
		return "", fmt.Errorf("failed to create model field: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	field.ID = fieldID
	field.Number = number
	return fieldID, nil
}

// UpdateModelField 更新字段定义（model 和 type 不可变）
func (r *PostgresModelFieldsRepository) UpdateModelField(ctx context.Context, tenantID string, field *domain.ModelField) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE model_fields
		 SET name = $3, priority = $4, remark = $5, property = $6, update_time = NOW()
		 WHERE tenant_id = $1 AND field_id = $2 AND is_deleted = FALSE`,
		tenantID, field.ID, field.Name, field.Priority, field.Remark, []byte(field.Property))
	if err != nil {
		return fmt.Errorf("failed to update model field: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDeleteModelField 逻辑删除
func (r *PostgresModelFieldsRepository) SoftDeleteModelField(ctx context.Context, tenantID, fieldID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE model_fields
		 SET is_deleted = TRUE, delete_time = NOW(), update_time = NOW()
		 WHERE tenant_id = $1 AND field_id = $2 AND is_deleted = FALSE`,
		tenantID, fieldID)
	if err != nil {
		return fmt.Errorf("failed to soft delete model field: %w", err)
	}
	return nil
}

// UndoDeleteModelField 恢复删除
func (r *PostgresModelFieldsRepository) UndoDeleteModelField(ctx context.Context, tenantID, fieldID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE model_fields
		 SET is_deleted = FALSE, delete_time = NULL, update_time = NOW()
		 WHERE tenant_id = $1 AND field_id = $2 AND is_deleted = TRUE`,
		tenantID, fieldID)
	if err != nil {
		return fmt.Errorf("failed to undo delete model field: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsActiveName (name, model) 在活跃行内是否已存在
func (r *PostgresModelFieldsRepository) ExistsActiveName(ctx context.Context, tenantID, name string, model domain.DataModel, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM model_fields
			WHERE tenant_id = $1 AND name = $2 AND model = $3 AND delete_time IS NULL
			  AND ($4 = '' OR field_id::text <> $4)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, name, model, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check field name: %w", err)
	}
	return exists, nil
}
