package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// NotificationsRepository 通知Repository接口
type NotificationsRepository interface {
	GetNotification(ctx context.Context, tenantID, notificationID string) (*domain.Notification, error)
	// ListNotifications 查询指定用户的通知；isRead 为 nil 时不过滤已读状态
	ListNotifications(ctx context.Context, tenantID, notifierID string, isRead *bool, page, size int) ([]*domain.Notification, int, error)
	CreateNotification(ctx context.Context, tenantID string, notification *domain.Notification) (string, error)
	MarkRead(ctx context.Context, tenantID, notifierID, notificationID string) error
	MarkAllRead(ctx context.Context, tenantID, notifierID string) error
	DeleteNotification(ctx context.Context, tenantID, notifierID, notificationID string) error
	DeleteRead(ctx context.Context, tenantID, notifierID string) error
	DeleteUnread(ctx context.Context, tenantID, notifierID string) error
	UnreadCount(ctx context.Context, tenantID, notifierID string) (int, error)
}

// ErrorLogsRepository 错误日志Repository接口
type ErrorLogsRepository interface {
	CreateErrorLog(ctx context.Context, tenantID string, log *domain.ErrorLog) (string, error)
	ListErrorLogs(ctx context.Context, tenantID, module string, page, size int) ([]*domain.ErrorLog, int, error)
}
