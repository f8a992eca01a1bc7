package fieldconf

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"inventory-data/internal/domain"
)

// roundTo 按精度四舍五入
func roundTo(v float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.Round(v*scale) / scale
}

// asNumber JSON 解码后的数值可能是 float64 或 int
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// asStringList JSON 解码后的列表是 []any，也接受已规整的 []string
func asStringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			items = append(items, s)
		}
		return items, true
	}
	return nil, false
}

// ===== 文本字段 =====

func (p *TextProperty) CleanValue(fieldName string, value any) (any, error) {
	if value == nil {
		if p.DefaultValue != nil {
			return *p.DefaultValue, nil
		}
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, domain.Validationf("%s 类型错误", fieldName)
	}
	if utf8.RuneCountInString(s) > p.MaxLength {
		return nil, domain.Validationf("%s 长度不能大于 %d", fieldName, p.MaxLength)
	}
	return s, nil
}

func (p *TextProperty) Display(value any) any { return value }

// ===== 数字字段 =====

func (p *NumberProperty) CleanValue(fieldName string, value any) (any, error) {
	if value == nil {
		if p.DefaultValue != nil {
			return *p.DefaultValue, nil
		}
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	n, ok := asNumber(value)
	if !ok {
		return nil, domain.Validationf("%s 类型错误", fieldName)
	}
	if n != roundTo(n, p.Precision) {
		return nil, domain.Validationf("%s 精度不符合要求", fieldName)
	}
	if p.MinValue != nil && n < *p.MinValue {
		return nil, domain.Validationf("%s 不能小于 %v", fieldName, *p.MinValue)
	}
	if p.MaxValue != nil && n > *p.MaxValue {
		return nil, domain.Validationf("%s 不能大于 %v", fieldName, *p.MaxValue)
	}
	return n, nil
}

func (p *NumberProperty) Display(value any) any { return value }

// ===== 布尔字段 =====

func (p *BooleanProperty) CleanValue(fieldName string, value any) (any, error) {
	if value == nil {
		if p.DefaultValue != nil {
			return *p.DefaultValue, nil
		}
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	b, ok := value.(bool)
	if !ok {
		return nil, domain.Validationf("%s 类型错误", fieldName)
	}
	return b, nil
}

// Display 布尔值导出为配置的真/假标签
func (p *BooleanProperty) Display(value any) any {
	switch v := value.(type) {
	case bool:
		if v {
			return p.TrueLabel
		}
		return p.FalseLabel
	}
	return nil
}

// ===== 日期字段 =====

const dateLayout = "2006-01-02"

func (p *DateProperty) CleanValue(fieldName string, value any) (any, error) {
	if value == nil {
		if p.DefaultToday {
			return time.Now().Format(dateLayout), nil
		}
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, domain.Validationf("%s 类型错误", fieldName)
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return nil, domain.Validationf("%s 日期格式错误", fieldName)
	}
	return s, nil
}

func (p *DateProperty) Display(value any) any { return value }

// ===== 时间字段 =====

const timeLayout = "15:04"

func (p *TimeProperty) CleanValue(fieldName string, value any) (any, error) {
	if value == nil {
		if p.DefaultNow {
			return time.Now().Format(timeLayout), nil
		}
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, domain.Validationf("%s 类型错误", fieldName)
	}
	if _, err := time.Parse(timeLayout, s); err != nil {
		return nil, domain.Validationf("%s 时间格式错误", fieldName)
	}
	return s, nil
}

func (p *TimeProperty) Display(value any) any { return value }

// ===== 列表字段 =====

func (p *ListProperty) CleanValue(fieldName string, value any) (any, error) {
	if value == nil {
		if len(p.DefaultValue) > 0 {
			return append([]string(nil), p.DefaultValue...), nil
		}
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	items, ok := asStringList(value)
	if !ok {
		return nil, domain.Validationf("%s 类型错误", fieldName)
	}
	if len(items) == 0 {
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}
	if len(items) > p.MaxLength {
		return nil, domain.Validationf("%s 长度不能大于 %d", fieldName, p.MaxLength)
	}
	for _, item := range items {
		if utf8.RuneCountInString(item) > 60 {
			return nil, domain.Validationf("%s 每项长度不能大于 60", fieldName)
		}
	}
	return items, nil
}

// Display 列表导出为分号连接的字符串
func (p *ListProperty) Display(value any) any {
	items, ok := asStringList(value)
	if !ok {
		return nil
	}
	return strings.Join(items, ";")
}

// ===== 单选字段 =====

func (p *SingleChoiceProperty) defaultLabel() (string, bool) {
	for _, option := range p.OptionItems {
		if option.IsDefault {
			return option.Label, true
		}
	}
	return "", false
}

func (p *SingleChoiceProperty) CleanValue(fieldName string, value any) (any, error) {
	if value == nil {
		if label, ok := p.defaultLabel(); ok {
			return label, nil
		}
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, domain.Validationf("%s 类型错误", fieldName)
	}
	for _, option := range p.OptionItems {
		if option.Label == s {
			return s, nil
		}
	}
	return nil, domain.Validationf("%s 选项错误, %s 不在有效的选项中", fieldName, s)
}

func (p *SingleChoiceProperty) Display(value any) any { return value }

// ===== 多选字段 =====

func (p *MultipleChoiceProperty) defaultLabels() []string {
	var labels []string
	for _, option := range p.OptionItems {
		if option.IsDefault {
			labels = append(labels, option.Label)
		}
	}
	return labels
}

func (p *MultipleChoiceProperty) CleanValue(fieldName string, value any) (any, error) {
	if value == nil {
		if labels := p.defaultLabels(); len(labels) > 0 {
			return labels, nil
		}
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	items, ok := asStringList(value)
	if !ok {
		return nil, domain.Validationf("%s 类型错误", fieldName)
	}
	if len(items) == 0 {
		if p.Required {
			return nil, domain.Validationf("%s 不能为空", fieldName)
		}
		return nil, nil
	}

	valid := make(map[string]bool, len(p.OptionItems))
	for _, option := range p.OptionItems {
		valid[option.Label] = true
	}
	var invalid []string
	for _, item := range items {
		if !valid[item] {
			invalid = append(invalid, item)
		}
	}
	if len(invalid) > 0 {
		return nil, domain.Validationf("%s 选项错误, 选项%v 不在有效的选项中", fieldName, invalid)
	}
	return items, nil
}

// Display 多选导出为分号连接的字符串
func (p *MultipleChoiceProperty) Display(value any) any {
	items, ok := asStringList(value)
	if !ok {
		return nil
	}
	return strings.Join(items, ";")
}
