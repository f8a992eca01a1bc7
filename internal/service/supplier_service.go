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

// SupplierService 供应商服务
type SupplierService struct {
	repo    repository.SuppliersRepository
	exports repository.ExportTasksRepository
	engine  *fieldconf.Engine
	logger  *zap.Logger
}

// NewSupplierService 创建供应商服务
func NewSupplierService(
	repo repository.SuppliersRepository,
	exports repository.ExportTasksRepository,
	engine *fieldconf.Engine,
	logger *zap.Logger,
) *SupplierService {
	return &SupplierService{repo: repo, exports: exports, engine: engine, logger: logger}
}

// SupplierItem 供应商项（前端格式）
type SupplierItem struct {
	SupplierID           string         `json:"supplier_id"`
	Number               string         `json:"number"`
	Name                 string         `json:"name"`
	CategoryID           string         `json:"category_id,omitempty"`
	Contact              string         `json:"contact"`
	Phone                string         `json:"phone"`
	Address              string         `json:"address"`
	Remark               string         `json:"remark"`
	IsEnabled            bool           `json:"is_enabled"`
	InitialArrearsAmount float64        `json:"initial_arrears_amount"`
	ArrearsAmount        float64        `json:"arrears_amount"`
	ExtensionData        map[string]any `json:"extension_data"`
	IsDeleted            bool           `json:"is_deleted"`
	UpdateTime           string         `json:"update_time"`
	CreateTime           string         `json:"create_time"`
}

func toSupplierItem(s *domain.Supplier) SupplierItem {
	return SupplierItem{
		SupplierID:           s.ID,
		Number:               s.Number,
		Name:                 s.Name,
		CategoryID:           s.CategoryID,
		Contact:              s.Contact,
		Phone:                s.Phone,
		Address:              s.Address,
		Remark:               s.Remark,
		IsEnabled:            s.IsEnabled,
		InitialArrearsAmount: s.InitialArrearsAmount,
		ArrearsAmount:        s.ArrearsAmount,
		ExtensionData:        s.ExtensionData,
		IsDeleted:            s.IsDeleted,
		UpdateTime:           s.UpdateTime.Format("2006-01-02 15:04:05"),
		CreateTime:           s.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ListSuppliersRequest 查询供应商列表请求
type ListSuppliersRequest struct {
	TenantID  string
	IsDeleted *bool
	IsEnabled *bool
	Search    string
	Page      int
	Size      int
}

// ListSuppliersResponse 查询供应商列表响应
type ListSuppliersResponse struct {
	Items []SupplierItem `json:"items"`
	Total int            `json:"total"`
}

// ListSuppliers 查询供应商列表
func (s *SupplierService) ListSuppliers(ctx context.Context, req ListSuppliersRequest) (*ListSuppliersResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	filter := repository.ArchiveFilter{
		IsDeleted: req.IsDeleted,
		IsEnabled: req.IsEnabled,
		Search:    strings.TrimSpace(req.Search),
	}
	suppliers, total, err := s.repo.ListSuppliers(ctx, req.TenantID, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}

	items := make([]SupplierItem, 0, len(suppliers))
	for _, item := range suppliers {
		items = append(items, toSupplierItem(item))
	}
	return &ListSuppliersResponse{Items: items, Total: total}, nil
}

// GetSupplier 查询供应商详情
func (s *SupplierService) GetSupplier(ctx context.Context, tenantID, supplierID string) (*SupplierItem, error) {
	supplier, err := s.repo.GetSupplier(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	item := toSupplierItem(supplier)
	return &item, nil
}

// SupplierPayload 创建/更新供应商载荷
type SupplierPayload struct {
	Name                 string         `json:"name"`
	CategoryID           string         `json:"category_id"`
	Contact              string         `json:"contact"`
	Phone                string         `json:"phone"`
	Address              string         `json:"address"`
	Remark               string         `json:"remark"`
	IsEnabled            *bool          `json:"is_enabled"`
	InitialArrearsAmount *float64       `json:"initial_arrears_amount"`
	ExtensionData        map[string]any `json:"extension_data"`
}

// CreateSupplier 创建供应商
func (s *SupplierService) CreateSupplier(ctx context.Context, tenantID string, payload SupplierPayload) (*SupplierItem, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}

	exists, err := s.repo.ExistsActiveName(ctx, tenantID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check supplier name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, tenantID, domain.ModelSupplier, payload.ExtensionData)
	if err != nil {
		return nil, err
	}

	var initialArrears float64
	if payload.InitialArrearsAmount != nil {
		initialArrears = *payload.InitialArrearsAmount
	}
	supplier := &domain.Supplier{
		Name:                 name,
		CategoryID:           payload.CategoryID,
		Contact:              payload.Contact,
		Phone:                payload.Phone,
		Address:              payload.Address,
		Remark:               payload.Remark,
		IsEnabled:            payload.IsEnabled == nil || *payload.IsEnabled,
		InitialArrearsAmount: initialArrears,
		ArrearsAmount:        initialArrears,
		ExtensionData:        cleaned,
	}
	if _, err := s.repo.CreateSupplier(ctx, tenantID, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	s.logger.Info("供应商已创建",
		zap.String("tenant_id", tenantID),
		zap.String("number", supplier.Number))
	item := toSupplierItem(supplier)
	return &item, nil
}

// UpdateSupplier 更新供应商
func (s *SupplierService) UpdateSupplier(ctx context.Context, tenantID, supplierID string, payload SupplierPayload) (*SupplierItem, error) {
	supplier, err := s.repo.GetSupplier(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	if supplier.IsDeleted {
		return nil, domain.ErrNotFound
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}
	exists, err := s.repo.ExistsActiveName(ctx, tenantID, name, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to check supplier name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, tenantID, domain.ModelSupplier, payload.ExtensionData)
	if err != nil {
		return nil, err
	}

	supplier.Name = name
	supplier.CategoryID = payload.CategoryID
	supplier.Contact = payload.Contact
	supplier.Phone = payload.Phone
	supplier.Address = payload.Address
	supplier.Remark = payload.Remark
	if payload.IsEnabled != nil {
		supplier.IsEnabled = *payload.IsEnabled
	}
	if payload.InitialArrearsAmount != nil {
		supplier.ArrearsAmount += *payload.InitialArrearsAmount - supplier.InitialArrearsAmount
		supplier.InitialArrearsAmount = *payload.InitialArrearsAmount
	}
	supplier.ExtensionData = cleaned

	if err := s.repo.UpdateSupplier(ctx, tenantID, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	item := toSupplierItem(supplier)
	return &item, nil
}

// DeleteSupplier 逻辑删除供应商
func (s *SupplierService) DeleteSupplier(ctx context.Context, tenantID, supplierID string) error {
	held, err := s.exports.ActiveTaskHoldsRecord(ctx, tenantID, domain.ModelSupplier, supplierID)
	if err != nil {
		return fmt.Errorf("failed to check active tasks: %w", err)
	}
	if held {
		return domain.Conflictf("该供应商有进行中的导出任务，暂不能删除")
	}
	return s.repo.SoftDeleteSupplier(ctx, tenantID, supplierID)
}

// UndoDeleteSupplier 恢复删除
func (s *SupplierService) UndoDeleteSupplier(ctx context.Context, tenantID, supplierID string) error {
	supplier, err := s.repo.GetSupplier(ctx, tenantID, supplierID)
	if err != nil {
		return err
	}
	if !supplier.IsDeleted {
		return domain.Conflictf("该供应商未被删除")
	}

	exists, err := s.repo.ExistsActiveName(ctx, tenantID, supplier.Name, supplierID)
	if err != nil {
		return fmt.Errorf("failed to check supplier name: %w", err)
	}
	if exists {
		return domain.Validationf("名称 %s 已存在，无法恢复", supplier.Name)
	}
	return s.repo.UndoDeleteSupplier(ctx, tenantID, supplierID)
}
