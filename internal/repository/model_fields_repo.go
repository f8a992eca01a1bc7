package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// ModelFieldsRepository 自定义字段Repository接口
type ModelFieldsRepository interface {
	GetModelField(ctx context.Context, tenantID, fieldID string) (*domain.ModelField, error)
	ListModelFields(ctx context.Context, tenantID string, model domain.DataModel, filter ArchiveFilter, page, size int) ([]*domain.ModelField, int, error)
	// ActiveFields 指定模型的全部活跃字段，按优先级降序
	ActiveFields(ctx context.Context, tenantID string, model domain.DataModel) ([]*domain.ModelField, error)
	CreateModelField(ctx context.Context, tenantID string, field *domain.ModelField) (string, error)
	UpdateModelField(ctx context.Context, tenantID string, field *domain.ModelField) error
	SoftDeleteModelField(ctx context.Context, tenantID, fieldID string) error
	UndoDeleteModelField(ctx context.Context, tenantID, fieldID string) error
	// ExistsActiveName (name, model) 在活跃行内是否已存在
	ExistsActiveName(ctx context.Context, tenantID, name string, model domain.DataModel, excludeID string) (bool, error)
}
