package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// WarehousesRepository 仓库Repository接口
type WarehousesRepository interface {
	GetWarehouse(ctx context.Context, tenantID, warehouseID string) (*domain.Warehouse, error)
	ListWarehouses(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.Warehouse, int, error)
	GetWarehousesByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Warehouse, error)
	CreateWarehouse(ctx context.Context, tenantID string, warehouse *domain.Warehouse) (string, error)
	UpdateWarehouse(ctx context.Context, tenantID string, warehouse *domain.Warehouse) error

	// SetLocked 盘点锁定/解锁
	SetLocked(ctx context.Context, tenantID, warehouseID string, locked bool) error

	SoftDeleteWarehouse(ctx context.Context, tenantID, warehouseID string) error
	UndoDeleteWarehouse(ctx context.Context, tenantID, warehouseID string) error
	ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error)
}
