package fieldconf

import (
	"encoding/json"
	"testing"

	"inventory-data/internal/domain"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

func TestTextProperty_Validate(t *testing.T) {
	p := &TextProperty{MaxLength: 60}
	require.NoError(t, p.Validate())

	// 最大长度越界
	p = &TextProperty{MaxLength: 9}
	require.Error(t, p.Validate())
	p = &TextProperty{MaxLength: 241}
	require.Error(t, p.Validate())

	// 默认值超长
	p = &TextProperty{MaxLength: 10, DefaultValue: strPtr("12345678901")}
	require.Error(t, p.Validate())
}

func TestNumberProperty_Validate(t *testing.T) {
	p := &NumberProperty{Precision: 2, MinValue: floatPtr(0), MaxValue: floatPtr(100), DefaultValue: floatPtr(50)}
	require.NoError(t, p.Validate())

	// 最小值大于最大值
	p = &NumberProperty{MinValue: floatPtr(10), MaxValue: floatPtr(1)}
	require.Error(t, p.Validate())

	// 默认值越界
	p = &NumberProperty{MinValue: floatPtr(10), DefaultValue: floatPtr(5)}
	require.Error(t, p.Validate())
	p = &NumberProperty{MaxValue: floatPtr(10), DefaultValue: floatPtr(15)}
	require.Error(t, p.Validate())

	// 默认值精度不符
	p = &NumberProperty{Precision: 1, DefaultValue: floatPtr(1.25)}
	require.Error(t, p.Validate())
}

func TestChoiceProperty_Validate(t *testing.T) {
	p := &SingleChoiceProperty{OptionItems: []ChoiceOption{
		{Label: "红"}, {Label: "绿", IsDefault: true},
	}}
	require.NoError(t, p.Validate())

	// 重复选项
	p = &SingleChoiceProperty{OptionItems: []ChoiceOption{
		{Label: "红"}, {Label: "红"},
	}}
	require.Error(t, p.Validate())

	// 多个默认选项
	p = &SingleChoiceProperty{OptionItems: []ChoiceOption{
		{Label: "红", IsDefault: true}, {Label: "绿", IsDefault: true},
	}}
	require.Error(t, p.Validate())

	// 多选同样约束
	m := &MultipleChoiceProperty{OptionItems: []ChoiceOption{
		{Label: "A", IsDefault: true}, {Label: "B", IsDefault: true},
	}}
	require.Error(t, m.Validate())
	m = &MultipleChoiceProperty{OptionItems: []ChoiceOption{
		{Label: "A"}, {Label: "A"},
	}}
	require.Error(t, m.Validate())

	// 空选项列表
	p = &SingleChoiceProperty{}
	require.Error(t, p.Validate())
}

func TestListProperty_Validate(t *testing.T) {
	p := &ListProperty{MaxLength: 3, DefaultValue: []string{"a", "b"}}
	require.NoError(t, p.Validate())

	p = &ListProperty{MaxLength: 11}
	require.Error(t, p.Validate())

	p = &ListProperty{MaxLength: 1, DefaultValue: []string{"a", "b"}}
	require.Error(t, p.Validate())
}

func TestParseProperty_Dispatch(t *testing.T) {
	doc := json.RawMessage(`{"required":true,"max_length":30,"default_value":"默认"}`)
	prop, err := ParseProperty(domain.FieldTypeText, doc)
	require.NoError(t, err)

	text, ok := prop.(*TextProperty)
	require.True(t, ok)
	require.True(t, text.Required)
	require.Equal(t, 30, text.MaxLength)

	_, err = ParseProperty(domain.FieldType("unknown"), doc)
	require.Error(t, err)
}

func TestValidatePropertyDoc_Normalizes(t *testing.T) {
	doc := json.RawMessage(`{"required":false,"max_length":20}`)
	normalized, err := ValidatePropertyDoc(domain.FieldTypeText, doc)
	require.NoError(t, err)

	var parsed TextProperty
	require.NoError(t, json.Unmarshal(normalized, &parsed))
	require.Equal(t, 20, parsed.MaxLength)
	require.Nil(t, parsed.DefaultValue)
}

// 属性校验通过的默认值，提交值缺失时必须被值校验接受
func TestDefaultAcceptedByValueValidation(t *testing.T) {
	cases := []struct {
		name string
		prop Property
	}{
		{"text", &TextProperty{Required: true, MaxLength: 20, DefaultValue: strPtr("缺省")}},
		{"number", &NumberProperty{Required: true, Precision: 2, MinValue: floatPtr(0), MaxValue: floatPtr(10), DefaultValue: floatPtr(5.25)}},
		{"boolean", &BooleanProperty{Required: true, TrueLabel: "是", FalseLabel: "否", DefaultValue: func() *bool { b := true; return &b }()}},
		{"list", &ListProperty{Required: true, MaxLength: 3, DefaultValue: []string{"x"}}},
		{"single_choice", &SingleChoiceProperty{Required: true, OptionItems: []ChoiceOption{{Label: "红", IsDefault: true}, {Label: "绿"}}}},
		{"multiple_choice", &MultipleChoiceProperty{Required: true, OptionItems: []ChoiceOption{{Label: "红", IsDefault: true}, {Label: "绿"}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.prop.Validate())

			defaulted, err := tc.prop.CleanValue("字段", nil)
			require.NoError(t, err)
			require.NotNil(t, defaulted)

			// 默认值本身再次通过值校验
			_, err = tc.prop.CleanValue("字段", defaulted)
			require.NoError(t, err)
		})
	}
}
