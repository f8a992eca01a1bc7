package fieldconf

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"inventory-data/internal/domain"
)

// Property 自定义字段的类型化属性文档
// 每种字段类型实现三个算法：
//   - Validate: 校验管理员提交的字段定义（属性校验）
//   - CleanValue: 校验并规整业务记录提交的值（值校验/默认值）
//   - Display: 导出时转为人类可读的展示值（反规整）
type Property interface {
	Validate() error
	CleanValue(fieldName string, value any) (any, error)
	Display(value any) any
}

// ParseProperty 按字段类型解析属性文档
// 属性文档在存储和传输层是不透明 JSON，由类型标签决定解释方式
func ParseProperty(t domain.FieldType, doc json.RawMessage) (Property, error) {
	if len(doc) == 0 {
		doc = json.RawMessage(`{}`)
	}

	var prop Property
	switch t {
	case domain.FieldTypeText:
		prop = &TextProperty{}
	case domain.FieldTypeNumber:
		prop = &NumberProperty{}
	case domain.FieldTypeBoolean:
		prop = &BooleanProperty{}
	case domain.FieldTypeDate:
		prop = &DateProperty{}
	case domain.FieldTypeTime:
		prop = &TimeProperty{}
	case domain.FieldTypeList:
		prop = &ListProperty{}
	case domain.FieldTypeSingleChoice:
		prop = &SingleChoiceProperty{}
	case domain.FieldTypeMultipleChoice:
		prop = &MultipleChoiceProperty{}
	default:
		return nil, domain.Validationf("字段类型[%s] 无效", t)
	}

	if err := json.Unmarshal(doc, prop); err != nil {
		return nil, domain.Validationf("属性文档格式错误")
	}
	return prop, nil
}

// ValidatePropertyDoc 校验并规整属性文档（创建/更新字段定义时调用）
func ValidatePropertyDoc(t domain.FieldType, doc json.RawMessage) (json.RawMessage, error) {
	prop, err := ParseProperty(t, doc)
	if err != nil {
		return nil, err
	}
	if err := prop.Validate(); err != nil {
		return nil, err
	}
	normalized, err := json.Marshal(prop)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal property: %w", err)
	}
	return normalized, nil
}

// ===== 文本字段 =====

// TextProperty 文本字段属性
type TextProperty struct {
	Required     bool    `json:"required"`
	MaxLength    int     `json:"max_length"`
	DefaultValue *string `json:"default_value"`
}

func (p *TextProperty) Validate() error {
	if p.MaxLength < 10 || p.MaxLength > 240 {
		return domain.Validationf("最大长度必须在 10 到 240 之间")
	}
	if p.DefaultValue != nil && utf8.RuneCountInString(*p.DefaultValue) > p.MaxLength {
		return domain.Validationf("默认值长度不能大于最大长度")
	}
	return nil
}

// ===== 数字字段 =====

// NumberProperty 数字字段属性
type NumberProperty struct {
	Required     bool     `json:"required"`
	Precision    int      `json:"precision"`
	MinValue     *float64 `json:"min_value"`
	MaxValue     *float64 `json:"max_value"`
	DefaultValue *float64 `json:"default_value"`
}

func (p *NumberProperty) Validate() error {
	if p.Precision < 0 {
		return domain.Validationf("数值精度不能为负数")
	}
	if p.MinValue != nil && p.MaxValue != nil && *p.MinValue > *p.MaxValue {
		return domain.Validationf("最小值不能大于最大值")
	}
	if p.DefaultValue != nil {
		if p.MinValue != nil && *p.MinValue > *p.DefaultValue {
			return domain.Validationf("默认值不能小于最小值")
		}
		if p.MaxValue != nil && *p.MaxValue < *p.DefaultValue {
			return domain.Validationf("默认值不能大于最大值")
		}
		if *p.DefaultValue != roundTo(*p.DefaultValue, p.Precision) {
			return domain.Validationf("默认值精度不符合要求")
		}
	}
	return nil
}

// ===== 布尔字段 =====

// BooleanProperty 布尔字段属性
type BooleanProperty struct {
	Required     bool   `json:"required"`
	TrueLabel    string `json:"true_label"`
	FalseLabel   string `json:"false_label"`
	DefaultValue *bool  `json:"default_value"`
}

func (p *BooleanProperty) Validate() error {
	if p.TrueLabel == "" || p.FalseLabel == "" {
		return domain.Validationf("真值标签和假值标签不能为空")
	}
	if utf8.RuneCountInString(p.TrueLabel) > 20 || utf8.RuneCountInString(p.FalseLabel) > 20 {
		return domain.Validationf("标签长度不能大于 20")
	}
	return nil
}

// ===== 日期字段 =====

// DateProperty 日期字段属性
// DefaultToday 为 true 时，缺省值自动取当日日期
type DateProperty struct {
	Required     bool `json:"required"`
	DefaultToday bool `json:"default_value"`
}

func (p *DateProperty) Validate() error { return nil }

// ===== 时间字段 =====

// TimeProperty 时间字段属性
// DefaultNow 为 true 时，缺省值自动取当前时刻
type TimeProperty struct {
	Required   bool `json:"required"`
	DefaultNow bool `json:"default_value"`
}

func (p *TimeProperty) Validate() error { return nil }

// ===== 列表字段 =====

// ListProperty 列表字段属性
type ListProperty struct {
	Required     bool     `json:"required"`
	MaxLength    int      `json:"max_length"`
	DefaultValue []string `json:"default_value"`
}

func (p *ListProperty) Validate() error {
	if p.MaxLength < 0 || p.MaxLength > 10 {
		return domain.Validationf("最大长度必须在 0 到 10 之间")
	}
	if len(p.DefaultValue) > p.MaxLength {
		return domain.Validationf("默认值长度不能大于最大长度")
	}
	for _, item := range p.DefaultValue {
		if utf8.RuneCountInString(item) > 60 {
			return domain.Validationf("默认值每项长度不能大于 60")
		}
	}
	return nil
}

// ===== 选项字段 =====

// ChoiceOption 单选/多选字段的选项
type ChoiceOption struct {
	Label     string `json:"label"`
	IsDefault bool   `json:"is_default"`
}

func validateOptions(options []ChoiceOption) error {
	if len(options) == 0 {
		return domain.Validationf("选项列表不能为空")
	}
	if len(options) > 10 {
		return domain.Validationf("选项数量不能大于 10")
	}

	seen := make(map[string]bool, len(options))
	defaultCount := 0
	for _, option := range options {
		if option.Label == "" {
			return domain.Validationf("选项标签不能为空")
		}
		if utf8.RuneCountInString(option.Label) > 60 {
			return domain.Validationf("选项标签长度不能大于 60")
		}
		if seen[option.Label] {
			return domain.Validationf("存在重复选项[%s]", option.Label)
		}
		seen[option.Label] = true
		if option.IsDefault {
			defaultCount++
		}
	}
	if defaultCount > 1 {
		return domain.Validationf("最多只能有一个默认选项")
	}
	return nil
}

// SingleChoiceProperty 单选字段属性
type SingleChoiceProperty struct {
	Required    bool           `json:"required"`
	OptionItems []ChoiceOption `json:"option_items"`
}

func (p *SingleChoiceProperty) Validate() error {
	return validateOptions(p.OptionItems)
}

// MultipleChoiceProperty 多选字段属性
// 选项约束与单选一致；缺省值为全部默认选项
type MultipleChoiceProperty struct {
	Required    bool           `json:"required"`
	OptionItems []ChoiceOption `json:"option_items"`
}

func (p *MultipleChoiceProperty) Validate() error {
	return validateOptions(p.OptionItems)
}
