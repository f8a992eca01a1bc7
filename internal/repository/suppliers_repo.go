package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// SuppliersRepository 供应商Repository接口
type SuppliersRepository interface {
	GetSupplier(ctx context.Context, tenantID, supplierID string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.Supplier, int, error)
	GetSuppliersByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Supplier, error)
	CreateSupplier(ctx context.Context, tenantID string, supplier *domain.Supplier) (string, error)
	UpdateSupplier(ctx context.Context, tenantID string, supplier *domain.Supplier) error
	SoftDeleteSupplier(ctx context.Context, tenantID, supplierID string) error
	UndoDeleteSupplier(ctx context.Context, tenantID, supplierID string) error
	ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error)
}
