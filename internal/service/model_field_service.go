package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"
	"inventory-data/internal/repository"

	"go.uber.org/zap"
)

// ModelFieldService 自定义字段服务
type ModelFieldService struct {
	repo   repository.ModelFieldsRepository
	logger *zap.Logger
}

// NewModelFieldService 创建自定义字段服务
func NewModelFieldService(repo repository.ModelFieldsRepository, logger *zap.Logger) *ModelFieldService {
	return &ModelFieldService{repo: repo, logger: logger}
}

// ModelFieldItem 字段定义项（前端格式）
type ModelFieldItem struct {
	FieldID    string          `json:"field_id"`
	Number     string          `json:"number"`
	Name       string          `json:"name"`
	Model      string          `json:"model"`
	ModelText  string          `json:"model_text"`
	Type       string          `json:"type"`
	TypeText   string          `json:"type_text"`
	Priority   int             `json:"priority"`
	Remark     string          `json:"remark"`
	Property   json.RawMessage `json:"property"`
	IsDeleted  bool            `json:"is_deleted"`
	UpdateTime string          `json:"update_time"`
	CreateTime string          `json:"create_time"`
}

func toModelFieldItem(f *domain.ModelField) ModelFieldItem {
	return ModelFieldItem{
		FieldID:    f.ID,
		Number:     f.Number,
		Name:       f.Name,
		Model:      string(f.Model),
		ModelText:  f.Model.Display(),
		Type:       string(f.Type),
		TypeText:   f.Type.Display(),
		Priority:   f.Priority,
		Remark:     f.Remark,
		Property:   f.Property,
		IsDeleted:  f.IsDeleted,
		UpdateTime: f.UpdateTime.Format("2006-01-02 15:04:05"),
		CreateTime: f.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ListModelFieldsRequest 查询字段定义列表请求
type ListModelFieldsRequest struct {
	TenantID  string
	Model     string
	IsDeleted *bool
	Search    string
	Page      int
	Size      int
}

// ListModelFieldsResponse 查询字段定义列表响应
type ListModelFieldsResponse struct {
	Items []ModelFieldItem `json:"items"`
	Total int              `json:"total"`
}

// ListModelFields 查询字段定义列表
func (s *ModelFieldService) ListModelFields(ctx context.Context, req ListModelFieldsRequest) (*ListModelFieldsResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	model := domain.DataModel(req.Model)
	if req.Model != "" && !model.Valid() {
		return nil, domain.Validationf("模型类别无效")
	}

	filter := repository.ArchiveFilter{
		IsDeleted: req.IsDeleted,
		Search:    strings.TrimSpace(req.Search),
	}
	fields, total, err := s.repo.ListModelFields(ctx, req.TenantID, model, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list model fields: %w", err)
	}

	items := make([]ModelFieldItem, 0, len(fields))
	for _, f := range fields {
		items = append(items, toModelFieldItem(f))
	}
	return &ListModelFieldsResponse{Items: items, Total: total}, nil
}

// GetModelField 查询字段定义详情
func (s *ModelFieldService) GetModelField(ctx context.Context, tenantID, fieldID string) (*ModelFieldItem, error) {
	field, err := s.repo.GetModelField(ctx, tenantID, fieldID)
	if err != nil {
		return nil, err
	}
	item := toModelFieldItem(field)
	return &item, nil
}

// CreateModelFieldRequest 创建字段定义请求
type CreateModelFieldRequest struct {
	TenantID string
	Name     string          `json:"name"`
	Model    string          `json:"model"`
	Type     string          `json:"type"`
	Priority int             `json:"priority"`
	Remark   string          `json:"remark"`
	Property json.RawMessage `json:"property"`
}

// CreateModelField 创建字段定义
func (s *ModelFieldService) CreateModelField(ctx context.Context, req CreateModelFieldRequest) (*ModelFieldItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}

	model := domain.DataModel(req.Model)
	if !model.Valid() {
		return nil, domain.Validationf("模型类别无效")
	}
	fieldType := domain.FieldType(req.Type)
	if !fieldType.Valid() {
		return nil, domain.Validationf("字段类型无效")
	}

	property, err := fieldconf.ValidatePropertyDoc(fieldType, req.Property)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsActiveName(ctx, req.TenantID, name, model, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check field name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("%s下已有同名字段 %s", model.Display(), name)
	}

	field := &domain.ModelField{
		Name:     name,
		Model:    model,
		Type:     fieldType,
		Priority: req.Priority,
		Remark:   req.Remark,
		Property: property,
	}
	if _, err := s.repo.CreateModelField(ctx, req.TenantID, field); err != nil {
		return nil, fmt.Errorf("failed to create model field: %w", err)
	}

	s.logger.Info("自定义字段已创建",
		zap.String("tenant_id", req.TenantID),
		zap.String("number", field.Number),
		zap.String("model", string(model)))
	item := toModelFieldItem(field)
	return &item, nil
}

// UpdateModelFieldRequest 更新字段定义请求
// model 和 type 创建后不可修改，载荷中携带也会被忽略校验后拒绝
type UpdateModelFieldRequest struct {
	TenantID string
	FieldID  string
	Name     string          `json:"name"`
	Model    string          `json:"model"`
	Type     string          `json:"type"`
	Priority int             `json:"priority"`
	Remark   string          `json:"remark"`
	Property json.RawMessage `json:"property"`
}

// UpdateModelField 更新字段定义
func (s *ModelFieldService) UpdateModelField(ctx context.Context, req UpdateModelFieldRequest) (*ModelFieldItem, error) {
	field, err := s.repo.GetModelField(ctx, req.TenantID, req.FieldID)
	if err != nil {
		return nil, err
	}
	if field.IsDeleted {
		return nil, domain.ErrNotFound
	}

	if req.Model != "" && domain.DataModel(req.Model) != field.Model {
		return nil, domain.Validationf("模型类别创建后不可修改")
	}
	if req.Type != "" && domain.FieldType(req.Type) != field.Type {
		return nil, domain.Validationf("字段类型创建后不可修改")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}
	exists, err := s.repo.ExistsActiveName(ctx, req.TenantID, name, field.Model, req.FieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to check field name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("%s下已有同名字段 %s", field.Model.Display(), name)
	}

	property, err := fieldconf.ValidatePropertyDoc(field.Type, req.Property)
	if err != nil {
		return nil, err
	}

	field.Name = name
	field.Priority = req.Priority
	field.Remark = req.Remark
	field.Property = property

	if err := s.repo.UpdateModelField(ctx, req.TenantID, field); err != nil {
		return nil, fmt.Errorf("failed to update model field: %w", err)
	}
	item := toModelFieldItem(field)
	return &item, nil
}

// DeleteModelField 逻辑删除字段定义
// 业务记录上的历史数据保留，读取时因字段失活而被忽略
func (s *ModelFieldService) DeleteModelField(ctx context.Context, tenantID, fieldID string) error {
	return s.repo.SoftDeleteModelField(ctx, tenantID, fieldID)
}

// UndoDeleteModelField 恢复删除
func (s *ModelFieldService) UndoDeleteModelField(ctx context.Context, tenantID, fieldID string) error {
	field, err := s.repo.GetModelField(ctx, tenantID, fieldID)
	if err != nil {
		return err
	}
	if !field.IsDeleted {
		return domain.Conflictf("该字段未被删除")
	}

	exists, err := s.repo.ExistsActiveName(ctx, tenantID, field.Name, field.Model, fieldID)
	if err != nil {
		return fmt.Errorf("failed to check field name: %w", err)
	}
	if exists {
		return domain.Validationf("%s下已有同名字段 %s，无法恢复", field.Model.Display(), field.Name)
	}
	return s.repo.UndoDeleteModelField(ctx, tenantID, fieldID)
}

// FieldConfigResponse 字段配置（按模型类别分组的活跃字段）
type FieldConfigResponse struct {
	Configs map[string][]ModelFieldItem `json:"configs"`
}

// FieldConfig 前端表单渲染用的字段配置
func (s *ModelFieldService) FieldConfig(ctx context.Context, tenantID string, models []string) (*FieldConfigResponse, error) {
	if len(models) == 0 {
		models = []string{
			string(domain.ModelAccount), string(domain.ModelSupplier),
			string(domain.ModelClient), string(domain.ModelProduct),
			string(domain.ModelUser), string(domain.ModelWarehouse),
		}
	}

	configs := make(map[string][]ModelFieldItem, len(models))
	for _, m := range models {
		model := domain.DataModel(m)
		if !model.Valid() {
			return nil, domain.Validationf("模型类别无效")
		}
		fields, err := s.repo.ActiveFields(ctx, tenantID, model)
		if err != nil {
			return nil, fmt.Errorf("failed to load fields for %s: %w", m, err)
		}
		items := make([]ModelFieldItem, 0, len(fields))
		for _, f := range fields {
			items = append(items, toModelFieldItem(f))
		}
		configs[m] = items
	}
	return &FieldConfigResponse{Configs: configs}, nil
}
