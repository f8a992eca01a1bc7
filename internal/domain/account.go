package domain

import "time"

// Account 结算账户领域模型（对应 accounts 表）
// 自然键：name（活跃行内唯一）
type Account struct {
	ID                   string        `db:"account_id"`
	TenantID             string        `db:"tenant_id"`
	Number               string        `db:"number"`
	Name                 string        `db:"name"`
	Remark               string        `db:"remark"`
	IsEnabled            bool          `db:"is_enabled"`
	InitialBalanceAmount float64       `db:"initial_balance_amount"`
	BalanceAmount        float64       `db:"balance_amount"`
	ExtensionData        ExtensionData `db:"extension_data"`
	UpdateTime           time.Time     `db:"update_time"`
	CreateTime           time.Time     `db:"create_time"`
	Archive
}
