package fieldconf

import (
	"encoding/json"
	"testing"

	"inventory-data/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestParseCellValue(t *testing.T) {
	number := &domain.ModelField{
		Name: "额度", Type: domain.FieldTypeNumber,
		Property: json.RawMessage(`{"required":false,"precision":2,"min_value":null,"max_value":null,"default_value":null}`),
	}
	boolean := &domain.ModelField{
		Name: "对公", Type: domain.FieldTypeBoolean,
		Property: json.RawMessage(`{"required":false,"true_label":"是","false_label":"否","default_value":null}`),
	}
	multi := &domain.ModelField{
		Name: "标签", Type: domain.FieldTypeMultipleChoice,
		Property: json.RawMessage(`{"required":false,"option_items":[{"label":"A"},{"label":"B"},{"label":"C"}]}`),
	}
	text := &domain.ModelField{
		Name: "开户行", Type: domain.FieldTypeText,
		Property: json.RawMessage(`{"required":false,"max_length":60}`),
	}

	// 空单元格视为未提交
	v, err := ParseCellValue(number, "   ")
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = ParseCellValue(number, "12.5")
	require.NoError(t, err)
	require.Equal(t, 12.5, v)

	_, err = ParseCellValue(number, "abc")
	require.EqualError(t, err, "额度 类型错误")

	v, err = ParseCellValue(boolean, "是")
	require.NoError(t, err)
	require.Equal(t, true, v)
	v, err = ParseCellValue(boolean, "否")
	require.NoError(t, err)
	require.Equal(t, false, v)
	_, err = ParseCellValue(boolean, "也许")
	require.Error(t, err)

	v, err = ParseCellValue(multi, "A; B ;C")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, v)

	v, err = ParseCellValue(text, "招商银行")
	require.NoError(t, err)
	require.Equal(t, "招商银行", v)
}
