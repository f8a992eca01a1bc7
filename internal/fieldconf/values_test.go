package fieldconf

import (
	"testing"
	"time"

	"inventory-data/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestTextProperty_CleanValue(t *testing.T) {
	p := &TextProperty{Required: true, MaxLength: 10}

	_, err := p.CleanValue("备注", nil)
	require.Error(t, err)
	require.True(t, domain.IsValidation(err))

	_, err = p.CleanValue("备注", 123)
	require.Error(t, err)

	_, err = p.CleanValue("备注", "12345678901")
	require.Error(t, err)

	v, err := p.CleanValue("备注", "正常文本")
	require.NoError(t, err)
	require.Equal(t, "正常文本", v)

	// 非必填缺失
	p = &TextProperty{MaxLength: 10}
	v, err = p.CleanValue("备注", nil)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestNumberProperty_CleanValue(t *testing.T) {
	p := &NumberProperty{Precision: 2, MinValue: floatPtr(0), MaxValue: floatPtr(100)}

	v, err := p.CleanValue("金额", 99.25)
	require.NoError(t, err)
	require.Equal(t, 99.25, v)

	// 精度：四舍五入后与原值不同则失败
	_, err = p.CleanValue("金额", 1.005)
	require.Error(t, err)

	_, err = p.CleanValue("金额", -1.0)
	require.Error(t, err)
	_, err = p.CleanValue("金额", 100.5)
	require.Error(t, err)
	_, err = p.CleanValue("金额", "abc")
	require.Error(t, err)

	// 整数值按 float64 与 int 都接受
	v, err = p.CleanValue("金额", 42)
	require.NoError(t, err)
	require.Equal(t, 42.0, v)
}

func TestBooleanProperty_Display(t *testing.T) {
	p := &BooleanProperty{TrueLabel: "激活", FalseLabel: "冻结"}

	require.Equal(t, "激活", p.Display(true))
	require.Equal(t, "冻结", p.Display(false))
	require.Nil(t, p.Display(nil))
}

func TestDateTimeProperty_CleanValue(t *testing.T) {
	d := &DateProperty{DefaultToday: true}
	v, err := d.CleanValue("日期", nil)
	require.NoError(t, err)
	require.Equal(t, time.Now().Format("2006-01-02"), v)

	_, err = d.CleanValue("日期", "2024/01/01")
	require.Error(t, err)
	v, err = d.CleanValue("日期", "2024-01-01")
	require.NoError(t, err)
	require.Equal(t, "2024-01-01", v)

	tm := &TimeProperty{}
	_, err = tm.CleanValue("时间", "25:00")
	require.Error(t, err)
	v, err = tm.CleanValue("时间", "08:30")
	require.NoError(t, err)
	require.Equal(t, "08:30", v)
}

func TestListProperty_CleanValue(t *testing.T) {
	p := &ListProperty{MaxLength: 2}

	// JSON 解码产生 []any
	v, err := p.CleanValue("标签", []any{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, v)

	_, err = p.CleanValue("标签", []any{"a", "b", "c"})
	require.Error(t, err)

	_, err = p.CleanValue("标签", []any{"a", 1})
	require.Error(t, err)

	// 空列表按缺失处理
	v, err = p.CleanValue("标签", []any{})
	require.NoError(t, err)
	require.Nil(t, v)

	require.Equal(t, "a;b", p.Display([]string{"a", "b"}))
}

func TestSingleChoiceProperty_CleanValue(t *testing.T) {
	p := &SingleChoiceProperty{OptionItems: []ChoiceOption{
		{Label: "红", IsDefault: true}, {Label: "绿"},
	}}

	v, err := p.CleanValue("颜色", nil)
	require.NoError(t, err)
	require.Equal(t, "红", v)

	v, err = p.CleanValue("颜色", "绿")
	require.NoError(t, err)
	require.Equal(t, "绿", v)

	_, err = p.CleanValue("颜色", "蓝")
	require.Error(t, err)
}

func TestMultipleChoiceProperty_CleanValue(t *testing.T) {
	p := &MultipleChoiceProperty{OptionItems: []ChoiceOption{
		{Label: "红", IsDefault: true}, {Label: "绿"}, {Label: "蓝"},
	}}

	v, err := p.CleanValue("颜色", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"红"}, v)

	v, err = p.CleanValue("颜色", []any{"绿", "蓝"})
	require.NoError(t, err)
	require.Equal(t, []string{"绿", "蓝"}, v)

	_, err = p.CleanValue("颜色", []any{"绿", "紫"})
	require.Error(t, err)

	require.Equal(t, "绿;蓝", p.Display([]string{"绿", "蓝"}))
}
