package fieldconf

import (
	"context"
	"fmt"
	"sort"

	"inventory-data/internal/domain"
)

// SchemaProvider 提供某个模型类别当前活跃的自定义字段集合
// 以依赖注入方式传入，不使用全局注册表
type SchemaProvider interface {
	ActiveFields(ctx context.Context, tenantID string, model domain.DataModel) ([]*domain.ModelField, error)
}

// Engine 自定义字段校验引擎
type Engine struct {
	provider SchemaProvider
}

func NewEngine(provider SchemaProvider) *Engine {
	return &Engine{provider: provider}
}

// Provider 返回字段集合来源，供导入等需要逐字段处理的调用方使用
func (e *Engine) Provider() SchemaProvider { return e.provider }

// CleanExtensionData 写入路径的扩展数据校验与规整
// 对模型类别下每个活跃字段：取提交值、按类型校验、写回规整/默认结果；
// 提交数据中未知或已删除字段的键被忽略（容忍过期的客户端负载）
func (e *Engine) CleanExtensionData(ctx context.Context, tenantID string, model domain.DataModel, data domain.ExtensionData) (domain.ExtensionData, error) {
	fields, err := e.provider.ActiveFields(ctx, tenantID, model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model fields: %w", err)
	}

	cleaned := make(domain.ExtensionData, len(fields))
	for _, field := range fields {
		prop, err := ParseProperty(field.Type, field.Property)
		if err != nil {
			return nil, fmt.Errorf("field %s has invalid property: %w", field.Number, err)
		}

		value, err := prop.CleanValue(field.Name, data[field.Number])
		if err != nil {
			return nil, err
		}
		cleaned[field.Number] = value
	}
	return cleaned, nil
}

// ExportColumn 导出时的一列：字段显示名 + 展示值
type ExportColumn struct {
	Name  string
	Value any
}

// ExportExtensionData 导出路径的扩展数据反规整
// 按字段优先级降序产出 字段名 -> 展示值 的扁平列表
func (e *Engine) ExportExtensionData(ctx context.Context, tenantID string, model domain.DataModel, data domain.ExtensionData) ([]ExportColumn, error) {
	fields, err := e.provider.ActiveFields(ctx, tenantID, model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model fields: %w", err)
	}
	sortFieldsByPriority(fields)

	columns := make([]ExportColumn, 0, len(fields))
	for _, field := range fields {
		prop, err := ParseProperty(field.Type, field.Property)
		if err != nil {
			return nil, fmt.Errorf("field %s has invalid property: %w", field.Number, err)
		}

		var display any
		if value, ok := data[field.Number]; ok && value != nil {
			display = prop.Display(value)
		}
		columns = append(columns, ExportColumn{Name: field.Name, Value: display})
	}
	return columns, nil
}

// sortFieldsByPriority 优先级高的排前面；同优先级按编号稳定排序
func sortFieldsByPriority(fields []*domain.ModelField) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Priority != fields[j].Priority {
			return fields[i].Priority > fields[j].Priority
		}
		return fields[i].Number < fields[j].Number
	})
}
