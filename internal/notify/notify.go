package notify

import (
	"context"
	"fmt"

	"inventory-data/internal/domain"
	"inventory-data/internal/store"

	"go.uber.org/zap"
)

// Notifier 实时消息推送
// 推送失败只记日志，绝不向调用方返回错误，后台任务不因推送问题中断
type Notifier struct {
	publisher store.Publisher
	logger    *zap.Logger
}

// NewNotifier 创建Notifier
func NewNotifier(publisher store.Publisher, logger *zap.Logger) *Notifier {
	return &Notifier{publisher: publisher, logger: logger}
}

// ProgressData 任务进度帧
type ProgressData struct {
	Status         string `json:"export_status,omitempty"`
	ImportStatus   string `json:"import_status,omitempty"`
	TotalCount     int    `json:"total_count"`
	CompletedCount int    `json:"completed_count"`
}

type frame struct {
	StatusCode int `json:"status_code"`
	Data       any `json:"data"`
}

// PushExportProgress 推送导出任务进度到 export_task.{userID}
func (n *Notifier) PushExportProgress(ctx context.Context, userID string, status domain.TaskStatus, total, completed int) {
	payload := frame{
		StatusCode: 200,
		Data: ProgressData{
			Status:         string(status),
			TotalCount:     total,
			CompletedCount: completed,
		},
	}
	n.publish(ctx, fmt.Sprintf("export_task.%s", userID), payload)
}

// PushImportProgress 推送导入任务进度到 import_task.{userID}
func (n *Notifier) PushImportProgress(ctx context.Context, userID string, status domain.TaskStatus, total, completed int) {
	payload := frame{
		StatusCode: 200,
		Data: ProgressData{
			ImportStatus:   string(status),
			TotalCount:     total,
			CompletedCount: completed,
		},
	}
	n.publish(ctx, fmt.Sprintf("import_task.%s", userID), payload)
}

// NotificationItem 通知列表项，推送帧与查询接口共用
type NotificationItem struct {
	ID             string `json:"notification_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	HasAttachment  bool   `json:"has_attachment"`
	AttachmentName string `json:"attachment_name"`
	IsRead         bool   `json:"is_read"`
	CreateTime     string `json:"create_time"`
}

// NotificationData 通知刷新帧
type NotificationData struct {
	UnreadCount       int                `json:"unread_count"`
	NotificationItems []NotificationItem `json:"notification_items"`
}

// ToNotificationItem 领域模型转推送帧列表项
func ToNotificationItem(n *domain.Notification) NotificationItem {
	return NotificationItem{
		ID:             n.ID,
		Type:           string(n.Type),
		Title:          n.Title,
		Content:        n.Content,
		HasAttachment:  n.HasAttachment,
		AttachmentName: n.AttachmentName,
		IsRead:         n.IsRead,
		CreateTime:     n.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// PushNotification 推送新通知到 notification.{userID}
func (n *Notifier) PushNotification(ctx context.Context, userID string, unreadCount int, items []*domain.Notification) {
	frameItems := make([]NotificationItem, 0, len(items))
	for _, item := range items {
		frameItems = append(frameItems, ToNotificationItem(item))
	}
	payload := frame{
		StatusCode: 200,
		Data: NotificationData{
			UnreadCount:       unreadCount,
			NotificationItems: frameItems,
		},
	}
	n.publish(ctx, fmt.Sprintf("notification.%s", userID), payload)
}

func (n *Notifier) publish(ctx context.Context, channel string, payload any) {
	if err := n.publisher.Publish(ctx, channel, payload); err != nil {
		n.logger.Warn("推送消息失败",
			zap.String("channel", channel),
			zap.Error(err))
	}
}
