package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// TenantsRepository 租户Repository接口
type TenantsRepository interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error)
}
