package repository

import (
	"context"
	"database/sql"
	"fmt"

	"inventory-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresTenantsRepository 租户Repository实现
type PostgresTenantsRepository struct {
	db *sql.DB
}

// NewPostgresTenantsRepository 创建租户Repository
func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

var _ TenantsRepository = (*PostgresTenantsRepository)(nil)

// GetTenant 根据tenant_id获取租户
func (r *PostgresTenantsRepository) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if tenantID == "" {
		return nil, domain.ErrNotFound
	}

	var t domain.Tenant
	err := r.db.QueryRowContext(ctx,
		`SELECT tenant_id::text, number, name, expiry_time, update_time, create_time
		 FROM tenants WHERE tenant_id = $1`, tenantID).
		Scan(&t.ID, &t.Number, &t.Name, &t.ExpiryTime, &t.UpdateTime, &t.CreateTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// CreateTenant 创建租户
func (r *PostgresTenantsRepository) CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) + 1 FROM tenants`).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate tenant number: %w", err)
	}

	tenantID := uuid.NewString()
	number := fmt.Sprintf("T%03d", seq)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO tenants (tenant_id, number, name, expiry_time, update_time, create_time)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		tenantID, number, tenant.Name, tenant.ExpiryTime)
	if err != nil {
		return "", fmt.Errorf("failed to create tenant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	tenant.ID = tenantID
	tenant.Number = number
	return tenantID, nil
}
