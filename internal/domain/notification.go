package domain

import "time"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification 站内通知（对应 notifications 表）
// 由后台任务在完成/失败时创建；只通过标记已读和批量清理操作修改
type Notification struct {
	ID             string           `db:"notification_id"`
	TenantID       string           `db:"tenant_id"`
	NotifierID     string           `db:"notifier_id"`
	Type           NotificationType `db:"type"`
	Title          string           `db:"title"`
	Content        string           `db:"content"`
	HasAttachment  bool             `db:"has_attachment"`
	AttachmentPath string           `db:"attachment_path"`
	AttachmentName string           `db:"attachment_name"`
	IsRead         bool             `db:"is_read"`
	CreateTime     time.Time        `db:"create_time"`
}

// ErrorLog 错误日志（对应 error_logs 表）
// 后台任务失败时落库，供排查；不对终端用户展示
type ErrorLog struct {
	ID         string    `db:"log_id"`
	TenantID   string    `db:"tenant_id"`
	Module     string    `db:"module"`
	Content    string    `db:"content"`
	CreateTime time.Time `db:"create_time"`
}
