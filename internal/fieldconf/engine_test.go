package fieldconf

import (
	"context"
	"encoding/json"
	"testing"

	"inventory-data/internal/domain"

	"github.com/stretchr/testify/require"
)

type fakeSchemaProvider struct {
	fields []*domain.ModelField
}

func (f *fakeSchemaProvider) ActiveFields(ctx context.Context, tenantID string, model domain.DataModel) ([]*domain.ModelField, error) {
	return f.fields, nil
}

func testFields() []*domain.ModelField {
	return []*domain.ModelField{
		{
			Number: "F001", Name: "开户行", Model: domain.ModelAccount,
			Type: domain.FieldTypeText, Priority: 10,
			Property: json.RawMessage(`{"required":true,"max_length":60}`),
		},
		{
			Number: "F002", Name: "额度", Model: domain.ModelAccount,
			Type: domain.FieldTypeNumber, Priority: 20,
			Property: json.RawMessage(`{"required":false,"precision":2,"min_value":0,"max_value":null,"default_value":0}`),
		},
		{
			Number: "F003", Name: "对公", Model: domain.ModelAccount,
			Type: domain.FieldTypeBoolean, Priority: 5,
			Property: json.RawMessage(`{"required":false,"true_label":"对公","false_label":"对私","default_value":null}`),
		},
	}
}

func TestEngine_CleanExtensionData(t *testing.T) {
	engine := NewEngine(&fakeSchemaProvider{fields: testFields()})
	ctx := context.Background()

	data := domain.ExtensionData{
		"F001":  "招商银行",
		"F003":  true,
		"F999":  "过期字段",  // 未知字段键被忽略
		"stale": "stale", // 同上
	}
	cleaned, err := engine.CleanExtensionData(ctx, "t1", domain.ModelAccount, data)
	require.NoError(t, err)

	require.Equal(t, "招商银行", cleaned["F001"])
	require.Equal(t, 0.0, cleaned["F002"]) // 缺省值
	require.Equal(t, true, cleaned["F003"])
	_, ok := cleaned["F999"]
	require.False(t, ok)
	_, ok = cleaned["stale"]
	require.False(t, ok)
}

func TestEngine_CleanExtensionData_RequiredMissing(t *testing.T) {
	engine := NewEngine(&fakeSchemaProvider{fields: testFields()})

	_, err := engine.CleanExtensionData(context.Background(), "t1", domain.ModelAccount, domain.ExtensionData{})
	require.Error(t, err)
	require.True(t, domain.IsValidation(err))
	// 校验失败携带字段显示名
	require.Contains(t, err.Error(), "开户行")
}

func TestEngine_ExportExtensionData_OrderAndDisplay(t *testing.T) {
	engine := NewEngine(&fakeSchemaProvider{fields: testFields()})

	data := domain.ExtensionData{"F001": "招商银行", "F002": 12.5, "F003": false}
	columns, err := engine.ExportExtensionData(context.Background(), "t1", domain.ModelAccount, data)
	require.NoError(t, err)
	require.Len(t, columns, 3)

	// 按优先级降序：F002(20) > F001(10) > F003(5)
	require.Equal(t, "额度", columns[0].Name)
	require.Equal(t, "开户行", columns[1].Name)
	require.Equal(t, "对公", columns[2].Name)

	require.Equal(t, 12.5, columns[0].Value)
	require.Equal(t, "招商银行", columns[1].Value)
	require.Equal(t, "对私", columns[2].Value)
}
