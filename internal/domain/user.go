package domain

import "time"

// Role 角色（对应 roles 表）
// 普通实体，不参与归档；name 在租户内唯一
type Role struct {
	ID          string    `db:"role_id"`
	TenantID    string    `db:"tenant_id"`
	Name        string    `db:"name"`
	Remark      string    `db:"remark"`
	Permissions []string  `db:"permissions"`
	UpdateTime  time.Time `db:"update_time"`
	CreateTime  time.Time `db:"create_time"`
}

// User 用户领域模型（对应 users 表）
// 自然键：username 和 name 各自在活跃行内唯一
type User struct {
	ID            string        `db:"user_id"`
	TenantID      string        `db:"tenant_id"`
	Number        string        `db:"number"`
	Username      string        `db:"username"`
	Password      string        `db:"password"`
	Name          string        `db:"name"`
	Phone         string        `db:"phone"`
	WarehouseIDs  []string      `db:"warehouse_ids"`
	RoleIDs       []string      `db:"role_ids"`
	Permissions   []string      `db:"permissions"`
	Remark        string        `db:"remark"`
	IsManager     bool          `db:"is_manager"`
	IsEnabled     bool          `db:"is_enabled"`
	ExtensionData ExtensionData `db:"extension_data"`
	UpdateTime    time.Time     `db:"update_time"`
	CreateTime    time.Time     `db:"create_time"`
	Archive
}
