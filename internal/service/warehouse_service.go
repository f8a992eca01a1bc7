package service

import (
	"context"
	"fmt"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"
	"inventory-data/internal/repository"

	"go.uber.org/zap"
)

// WarehouseService 仓库服务
type WarehouseService struct {
	repo    repository.WarehousesRepository
	exports repository.ExportTasksRepository
	engine  *fieldconf.Engine
	logger  *zap.Logger
}

// NewWarehouseService 创建仓库服务
func NewWarehouseService(
	repo repository.WarehousesRepository,
	exports repository.ExportTasksRepository,
	engine *fieldconf.Engine,
	logger *zap.Logger,
) *WarehouseService {
	return &WarehouseService{repo: repo, exports: exports, engine: engine, logger: logger}
}

// WarehouseItem 仓库项（前端格式）
type WarehouseItem struct {
	WarehouseID   string         `json:"warehouse_id"`
	Number        string         `json:"number"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	Remark        string         `json:"remark"`
	IsLocked      bool           `json:"is_locked"`
	IsEnabled     bool           `json:"is_enabled"`
	ExtensionData map[string]any `json:"extension_data"`
	IsDeleted     bool           `json:"is_deleted"`
	UpdateTime    string         `json:"update_time"`
	CreateTime    string         `json:"create_time"`
}

func toWarehouseItem(w *domain.Warehouse) WarehouseItem {
	return WarehouseItem{
		WarehouseID:   w.ID,
		Number:        w.Number,
		Name:          w.Name,
		Address:       w.Address,
		Remark:        w.Remark,
		IsLocked:      w.IsLocked,
		IsEnabled:     w.IsEnabled,
		ExtensionData: w.ExtensionData,
		IsDeleted:     w.IsDeleted,
		UpdateTime:    w.UpdateTime.Format("2006-01-02 15:04:05"),
		CreateTime:    w.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ListWarehousesRequest 查询仓库列表请求
type ListWarehousesRequest struct {
	TenantID  string
	IsDeleted *bool
	IsEnabled *bool
	Search    string
	Page      int
	Size      int
}

// ListWarehousesResponse 查询仓库列表响应
type ListWarehousesResponse struct {
	Items []WarehouseItem `json:"items"`
	Total int             `json:"total"`
}

// ListWarehouses 查询仓库列表
func (s *WarehouseService) ListWarehouses(ctx context.Context, req ListWarehousesRequest) (*ListWarehousesResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	filter := repository.ArchiveFilter{
		IsDeleted: req.IsDeleted,
		IsEnabled: req.IsEnabled,
		Search:    strings.TrimSpace(req.Search),
	}
	warehouses, total, err := s.repo.ListWarehouses(ctx, req.TenantID, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}

	items := make([]WarehouseItem, 0, len(warehouses))
	for _, w := range warehouses {
		items = append(items, toWarehouseItem(w))
	}
	return &ListWarehousesResponse{Items: items, Total: total}, nil
}

// GetWarehouse 查询仓库详情
func (s *WarehouseService) GetWarehouse(ctx context.Context, tenantID, warehouseID string) (*WarehouseItem, error) {
	warehouse, err := s.repo.GetWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	item := toWarehouseItem(warehouse)
	return &item, nil
}

// WarehousePayload 创建/更新仓库载荷
type WarehousePayload struct {
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	Remark        string         `json:"remark"`
	IsEnabled     *bool          `json:"is_enabled"`
	ExtensionData map[string]any `json:"extension_data"`
}

// CreateWarehouse 创建仓库
func (s *WarehouseService) CreateWarehouse(ctx context.Context, tenantID string, payload WarehousePayload) (*WarehouseItem, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}

	exists, err := s.repo.ExistsActiveName(ctx, tenantID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check warehouse name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, tenantID, domain.ModelWarehouse, payload.ExtensionData)
	if err != nil {
		return nil, err
	}

	warehouse := &domain.Warehouse{
		Name:          name,
		Address:       payload.Address,
		Remark:        payload.Remark,
		IsEnabled:     payload.IsEnabled == nil || *payload.IsEnabled,
		ExtensionData: cleaned,
	}
	if _, err := s.repo.CreateWarehouse(ctx, tenantID, warehouse); err != nil {
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}

	s.logger.Info("仓库已创建",
		zap.String("tenant_id", tenantID),
		zap.String("number", warehouse.Number))
	item := toWarehouseItem(warehouse)
	return &item, nil
}

// UpdateWarehouse 更新仓库
func (s *WarehouseService) UpdateWarehouse(ctx context.Context, tenantID, warehouseID string, payload WarehousePayload) (*WarehouseItem, error) {
	warehouse, err := s.repo.GetWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse.IsDeleted {
		return nil, domain.ErrNotFound
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}
	exists, err := s.repo.ExistsActiveName(ctx, tenantID, name, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check warehouse name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, tenantID, domain.ModelWarehouse, payload.ExtensionData)
	if err != nil {
		return nil, err
	}

	warehouse.Name = name
	warehouse.Address = payload.Address
	warehouse.Remark = payload.Remark
	if payload.IsEnabled != nil {
		warehouse.IsEnabled = *payload.IsEnabled
	}
	warehouse.ExtensionData = cleaned

	if err := s.repo.UpdateWarehouse(ctx, tenantID, warehouse); err != nil {
		return nil, fmt.Errorf("failed to update warehouse: %w", err)
	}
	item := toWarehouseItem(warehouse)
	return &item, nil
}

// LockWarehouse 盘点锁定
// 锁定期间出入库被拒绝；重复锁定返回冲突
func (s *WarehouseService) LockWarehouse(ctx context.Context, tenantID, warehouseID string) error {
	warehouse, err := s.repo.GetWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return err
	}
	if warehouse.IsDeleted {
		return domain.ErrNotFound
	}
	if warehouse.IsLocked {
		return domain.Conflictf("该仓库已处于盘点锁定状态")
	}
	return s.repo.SetLocked(ctx, tenantID, warehouseID, true)
}

// UnlockWarehouse 解除盘点锁定
func (s *WarehouseService) UnlockWarehouse(ctx context.Context, tenantID, warehouseID string) error {
	warehouse, err := s.repo.GetWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return err
	}
	if warehouse.IsDeleted {
		return domain.ErrNotFound
	}
	if !warehouse.IsLocked {
		return domain.Conflictf("该仓库未处于盘点锁定状态")
	}
	return s.repo.SetLocked(ctx, tenantID, warehouseID, false)
}

// DeleteWarehouse 逻辑删除仓库
// 盘点锁定中的仓库不允许删除
func (s *WarehouseService) DeleteWarehouse(ctx context.Context, tenantID, warehouseID string) error {
	warehouse, err := s.repo.GetWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return err
	}
	if warehouse.IsLocked {
		return domain.Conflictf("该仓库处于盘点锁定状态，暂不能删除")
	}

	held, err := s.exports.ActiveTaskHoldsRecord(ctx, tenantID, domain.ModelWarehouse, warehouseID)
	if err != nil {
		return fmt.Errorf("failed to check active tasks: %w", err)
	}
	if held {
		return domain.Conflictf("该仓库有进行中的导出任务，暂不能删除")
	}
	return s.repo.SoftDeleteWarehouse(ctx, tenantID, warehouseID)
}

// UndoDeleteWarehouse 恢复删除
func (s *WarehouseService) UndoDeleteWarehouse(ctx context.Context, tenantID, warehouseID string) error {
	warehouse, err := s.repo.GetWarehouse(ctx, tenantID, warehouseID)
	if err != nil {
		return err
	}
	if !warehouse.IsDeleted {
		return domain.Conflictf("该仓库未被删除")
	}

	exists, err := s.repo.ExistsActiveName(ctx, tenantID, warehouse.Name, warehouseID)
	if err != nil {
		return fmt.Errorf("failed to check warehouse name: %w", err)
	}
	if exists {
		return domain.Validationf("名称 %s 已存在，无法恢复", warehouse.Name)
	}
	return s.repo.UndoDeleteWarehouse(ctx, tenantID, warehouseID)
}
