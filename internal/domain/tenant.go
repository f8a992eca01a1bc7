package domain

import "time"

// Tenant 租户（对应 tenants 表）
type Tenant struct {
	ID         string    `db:"tenant_id"`
	Number     string    `db:"number"`
	Name       string    `db:"name"`
	ExpiryTime time.Time `db:"expiry_time"`
	UpdateTime time.Time `db:"update_time"`
	CreateTime time.Time `db:"create_time"`
}

// Expired 判断租户是否已到期
func (t *Tenant) Expired(now time.Time) bool {
	return t.ExpiryTime.Before(now)
}
