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

// PostgresClientsRepository 客户Repository实现
type PostgresClientsRepository struct {
	db *sql.DB
}

// NewPostgresClientsRepository 创建客户Repository
func NewPostgresClientsRepository(db *sql.DB) *PostgresClientsRepository {
	return &PostgresClientsRepository{db: db}
}

var _ ClientsRepository = (*PostgresClientsRepository)(nil)

const clientColumns = `
	client_id::text,
	tenant_id::text,
	number,
	name,
	COALESCE(category_id::text, ''),
	level,
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

func scanClient(row interface{ Scan(...any) error }) (*domain.Client, error) {
	var client domain.Client
	var extension []byte
	var deleteTime sql.NullTime

	err := row.Scan(
		&client.ID,
		&client.TenantID,
		&client.Number,
		&client.Name,
		&client.CategoryID,
		&client.Level,
		&client.Contact,
		&client.Phone,
		&client.Address,
		&client.Remark,
		&client.IsEnabled,
		&client.InitialArrearsAmount,
		&client.ArrearsAmount,
		&extension,
		&client.UpdateTime,
		&client.CreateTime,
		&client.IsDeleted,
		&deleteTime,
	)
	if err != nil {
		return nil, err
	}

	if client.ExtensionData, err = extensionFromJSON(extension); err != nil {
		return nil, fmt.Errorf("failed to decode extension_data: %w", err)
	}
	if deleteTime.Valid {
		t := deleteTime.Time
		client.DeleteTime = &t
	}
	return &client, nil
}

// GetClient 根据client_id获取客户
func (r *PostgresClientsRepository) GetClient(ctx context.Context, tenantID, clientID string) (*domain.Client, error) {
	if tenantID == "" || clientID == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 AND client_id = $2`

	client, err := scanClient(r.db.QueryRowContext(ctx, query, tenantID, clientID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

// ListClients 查询客户列表
func (r *PostgresClientsRepository) ListClients(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.Client, int, error) {
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE %s ORDER BY number LIMIT $%d OFFSET $%d`,
		clientColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, total, rows.Err()
}

// GetClientsByIDs 按ID列表获取活跃客户
func (r *PostgresClientsRepository) GetClientsByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE tenant_id = $1 AND is_deleted = FALSE AND client_id = ANY($2)
		ORDER BY number`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get clients by ids: %w", err)
	}
	defer rows.Close()

	var clients []*domain.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// CreateClient 创建客户
func (r *PostgresClientsRepository) CreateClient(ctx context.Context, tenantID string, client *domain.Client) (string, error) {
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
		`SELECT COUNT(*) + 1 FROM clients WHERE tenant_id = $1 AND is_deleted = FALSE`, tenantID).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate client number: %w", err)
	}

	extension, err := extensionToJSON(client.ExtensionData)
	if err != nil {
		return "", fmt.Errorf("failed to encode extension_data: %w", err)
	}

	clientID := uuid.NewString()
	number := fmt.Sprintf("C%03d", seq)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO clients (client_id, tenant_id, number, name, category_id, level, contact, phone, address,
			remark, is_enabled, initial_arrears_amount, arrears_amount, extension_data,
			update_time, create_time, is_deleted, delete_time)
		 VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW(), FALSE, NULL)`,
		clientID, tenantID, number, client.Name, client.CategoryID, client.Level, client.Contact,
		client.Phone, client.Address, client.Remark, client.IsEnabled,
		client.InitialArrearsAmount, client.InitialArrearsAmount, extension)
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	client.ID = clientID
	client.Number = number
	return clientID, nil
}

// UpdateClient 更新客户可编辑字段
func (r *PostgresClientsRepository) UpdateClient(ctx context.Context, tenantID string, client *domain.Client) error {
	extension, err := extensionToJSON(client.ExtensionData)
	if err != nil {
		return fmt.Errorf("failed to encode extension_data: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE clients
		 SET name = $3, category_id = NULLIF($4, '')::uuid, level = $5, contact = $6, phone = $7,
		     address = $8, remark = $9, is_enabled = $10,
		     initial_arrears_amount = $11, arrears_amount = $12,
		     extension_data = $13, update_time = NOW()
		 WHERE tenant_id = $1 AND client_id = $2 AND is_deleted = FALSE`,
		tenantID, client.ID, client.Name, client.CategoryID, client.Level, client.Contact,
		client.Phone, client.Address, client.Remark, client.IsEnabled,
		client.InitialArrearsAmount, client.ArrearsAmount, extension)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDeleteClient 逻辑删除
func (r *PostgresClientsRepository) SoftDeleteClient(ctx context.Context, tenantID, clientID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE clients
		 SET is_deleted = TRUE, delete_time = NOW(), update_time = NOW()
		 WHERE tenant_id = $1 AND client_id = $2 AND is_deleted = FALSE`,
		tenantID, clientID)
	if err != nil {
		return fmt.Errorf("failed to soft delete client: %w", err)
	}
	return nil
}

// UndoDeleteClient 恢复删除
func (r *PostgresClientsRepository) UndoDeleteClient(ctx context.Context, tenantID, clientID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE clients
		 SET is_deleted = FALSE, delete_time = NULL, update_time = NOW()
		 WHERE tenant_id = $1 AND client_id = $2 AND is_deleted = TRUE`,
		tenantID, clientID)
	if err != nil {
		return fmt.Errorf("failed to undo delete client: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ExistsActiveName 活跃行内是否已有同名客户
func (r *PostgresClientsRepository) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM clients
			WHERE tenant_id = $1 AND name = $2 AND delete_time IS NULL
			  AND ($3 = '' OR client_id::text <> $3)
		)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check client name: %w", err)
	}
	return exists, nil
}
