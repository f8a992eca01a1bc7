package domain

import "time"

// ClientLevel 客户等级
type ClientLevel string

const (
	ClientLevel0 ClientLevel = "level0"
	ClientLevel1 ClientLevel = "level1"
	ClientLevel2 ClientLevel = "level2"
	ClientLevel3 ClientLevel = "level3"
)

// Valid 判断客户等级是否有效
func (l ClientLevel) Valid() bool {
	switch l {
	case ClientLevel0, ClientLevel1, ClientLevel2, ClientLevel3:
		return true
	}
	return false
}

// Client 客户领域模型（对应 clients 表）
// 自然键：name（活跃行内唯一）
type Client struct {
	ID                   string        `db:"client_id"`
	TenantID             string        `db:"tenant_id"`
	Number               string        `db:"number"`
	Name                 string        `db:"name"`
	CategoryID           string        `db:"category_id"`
	Level                ClientLevel   `db:"level"`
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
