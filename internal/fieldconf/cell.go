package fieldconf

import (
	"strconv"
	"strings"

	"inventory-data/internal/domain"
)

// ParseCellValue 将导入表格单元格文本转换为对应类型的提交值
// 空白单元格视为未提交（nil），交由 CleanValue 套用默认值或必填校验
func ParseCellValue(field *domain.ModelField, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	switch field.Type {
	case domain.FieldTypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, domain.Validationf("%s 类型错误", field.Name)
		}
		return n, nil
	case domain.FieldTypeBoolean:
		prop, err := ParseProperty(field.Type, field.Property)
		if err != nil {
			return nil, err
		}
		bp, ok := prop.(*BooleanProperty)
		if !ok {
			return nil, domain.Validationf("%s 类型错误", field.Name)
		}
		switch raw {
		case bp.TrueLabel:
			return true, nil
		case bp.FalseLabel:
			return false, nil
		}
		return nil, domain.Validationf("%s 选项错误, %s 不在有效的选项中", field.Name, raw)
	case domain.FieldTypeList, domain.FieldTypeMultipleChoice:
		parts := strings.Split(raw, ";")
		items := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items, nil
	}
	return raw, nil
}
