package service

import (
	"context"
	"fmt"
	"io"

	"inventory-data/internal/domain"
	"inventory-data/internal/notify"
	"inventory-data/internal/repository"
	"inventory-data/internal/task"

	"go.uber.org/zap"
)

// NotificationService 通知服务
type NotificationService struct {
	repo   repository.NotificationsRepository
	files  *task.FileStore
	logger *zap.Logger
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo repository.NotificationsRepository, files *task.FileStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, files: files, logger: logger}
}

// ListNotificationsRequest 查询通知列表请求
type ListNotificationsRequest struct {
	TenantID string
	UserID   string
	IsRead   *bool
	Page     int
	Size     int
}

// ListNotificationsResponse 查询通知列表响应
// 帧格式与实时推送保持一致
type ListNotificationsResponse struct {
	UnreadCount       int                       `json:"unread_count"`
	NotificationItems []notify.NotificationItem `json:"notification_items"`
	Total             int                       `json:"total"`
}

// ListNotifications 查询当前用户的通知
func (s *NotificationService) ListNotifications(ctx context.Context, req ListNotificationsRequest) (*ListNotificationsResponse, error) {
	if req.TenantID == "" || req.UserID == "" {
		return nil, fmt.Errorf("tenant_id and user_id are required")
	}

	notifications, total, err := s.repo.ListNotifications(ctx, req.TenantID, req.UserID, req.IsRead, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	unread, err := s.repo.UnreadCount(ctx, req.TenantID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread: %w", err)
	}

	items := make([]notify.NotificationItem, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, notify.ToNotificationItem(n))
	}
	return &ListNotificationsResponse{
		UnreadCount:       unread,
		NotificationItems: items,
		Total:             total,
	}, nil
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(ctx context.Context, tenantID, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, tenantID, userID)
}

// MarkRead 标记单条通知已读
func (s *NotificationService) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.repo.MarkRead(ctx, tenantID, userID, notificationID)
}

// MarkAllRead 标记全部通知已读
func (s *NotificationService) MarkAllRead(ctx context.Context, tenantID, userID string) error {
	return s.repo.MarkAllRead(ctx, tenantID, userID)
}

// DeleteNotification 删除单条通知
func (s *NotificationService) DeleteNotification(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.repo.DeleteNotification(ctx, tenantID, userID, notificationID)
}

// DeleteRead 清空已读通知
func (s *NotificationService) DeleteRead(ctx context.Context, tenantID, userID string) error {
	return s.repo.DeleteRead(ctx, tenantID, userID)
}

// DeleteUnread 清空未读通知
func (s *NotificationService) DeleteUnread(ctx context.Context, tenantID, userID string) error {
	return s.repo.DeleteUnread(ctx, tenantID, userID)
}

// Attachment 通知附件内容
type Attachment struct {
	Name    string
	Content io.ReadCloser
}

// DownloadAttachment 下载通知附件
// 只有属于该用户且带附件的通知可以下载
func (s *NotificationService) DownloadAttachment(ctx context.Context, tenantID, userID, notificationID string) (*Attachment, error) {
	n, err := s.repo.GetNotification(ctx, tenantID, notificationID)
	if err != nil {
		return nil, err
	}
	if n.NotifierID != userID {
		return nil, domain.ErrNotFound
	}
	if !n.HasAttachment || n.AttachmentPath == "" {
		return nil, domain.Validationf("该通知没有附件")
	}

	content, err := s.files.Open(tenantID, n.AttachmentPath)
	if err != nil {
		s.logger.Warn("附件文件不可读",
			zap.String("notification_id", notificationID),
			zap.Error(err))
		return nil, domain.ErrNotFound
	}
	return &Attachment{Name: n.AttachmentName, Content: content}, nil
}
