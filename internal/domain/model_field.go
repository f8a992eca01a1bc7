package domain

import (
	"encoding/json"
	"time"
)

// DataModel 可扩展自定义字段的业务模型类别
type DataModel string

const (
	ModelAccount   DataModel = "account"
	ModelSupplier  DataModel = "supplier"
	ModelClient    DataModel = "client"
	ModelProduct   DataModel = "product"
	ModelUser      DataModel = "user"
	ModelWarehouse DataModel = "warehouse"
)

// Valid 判断模型类别是否有效
func (m DataModel) Valid() bool {
	switch m {
	case ModelAccount, ModelSupplier, ModelClient, ModelProduct, ModelUser, ModelWarehouse:
		return true
	}
	return false
}

// Display 模型类别显示名
func (m DataModel) Display() string {
	switch m {
	case ModelAccount:
		return "结算账户"
	case ModelSupplier:
		return "供应商"
	case ModelClient:
		return "客户"
	case ModelProduct:
		return "产品"
	case ModelUser:
		return "用户"
	case ModelWarehouse:
		return "仓库"
	}
	return string(m)
}

// FieldType 自定义字段数据类型
type FieldType string

const (
	FieldTypeText           FieldType = "text"
	FieldTypeNumber         FieldType = "number"
	FieldTypeBoolean        FieldType = "boolean"
	FieldTypeDate           FieldType = "date"
	FieldTypeTime           FieldType = "time"
	FieldTypeList           FieldType = "list"
	FieldTypeSingleChoice   FieldType = "single_choice"
	FieldTypeMultipleChoice FieldType = "multiple_choice"
)

// Valid 判断字段类型是否有效
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate,
		FieldTypeTime, FieldTypeList, FieldTypeSingleChoice, FieldTypeMultipleChoice:
		return true
	}
	return false
}

// Display 字段类型显示名
func (t FieldType) Display() string {
	switch t {
	case FieldTypeText:
		return "文本"
	case FieldTypeNumber:
		return "数字"
	case FieldTypeBoolean:
		return "布尔"
	case FieldTypeDate:
		return "日期"
	case FieldTypeTime:
		return "时间"
	case FieldTypeList:
		return "列表"
	case FieldTypeSingleChoice:
		return "单选"
	case FieldTypeMultipleChoice:
		return "多选"
	}
	return string(t)
}

// ModelField 自定义字段定义（对应 model_fields 表）
// 活跃行内 (name, model) 唯一；type 和 model 创建后不可修改
type ModelField struct {
	ID         string          `db:"field_id"`
	TenantID   string          `db:"tenant_id"`
	Number     string          `db:"number"`
	Name       string          `db:"name"`
	Model      DataModel       `db:"model"`
	Type       FieldType       `db:"type"`
	Priority   int             `db:"priority"`
	Remark     string          `db:"remark"`
	Property   json.RawMessage `db:"property"`
	UpdateTime time.Time       `db:"update_time"`
	CreateTime time.Time       `db:"create_time"`
	Archive
}
