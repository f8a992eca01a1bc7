package domain

import "time"

// Supplier 供应商领域模型（对应 suppliers 表）
// 自然键：name（活跃行内唯一）
type Supplier struct {
	ID                   string        `db:"supplier_id"`
	TenantID             string        `db:"tenant_id"`
	Number               string        `db:"number"`
	Name                 string        `db:"name"`
	CategoryID           string        `db:"category_id"`
	Contact              string        `db:"contact"`
	Phone                string        `db:"phone"`
	Address              string        `db:"address"`
	Remark               string        `db:"remark"`
	IsEnabled            bool          `db:"is_enabled"`
	InitialArrearsAmount float64       `db:"initial_arrears_amount"`
	ArrearsAmount        float64       `db:"arrears_amount"`
	ExtensionData        ExtensionData `db:"extension_data"`
	UpdateTime           time.Time     `db:"update_time"`
	CreateTime           time.Time     `db:"create_time"`
	Archive
}
