package domain

import "time"

// Warehouse 仓库领域模型（对应 warehouses 表）
// 自然键：name（活跃行内唯一）；盘点期间锁定，锁定时不允许出入库
type Warehouse struct {
	ID            string        `db:"warehouse_id"`
	TenantID      string        `db:"tenant_id"`
	Number        string        `db:"number"`
	Name          string        `db:"name"`
	Address       string        `db:"address"`
	Remark        string        `db:"remark"`
	IsLocked      bool          `db:"is_locked"`
	IsEnabled     bool          `db:"is_enabled"`
	ExtensionData ExtensionData `db:"extension_data"`
	UpdateTime    time.Time     `db:"update_time"`
	CreateTime    time.Time     `db:"create_time"`
	Archive
}
