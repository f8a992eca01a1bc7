package httpapi

import (
	"net/http"
	"strings"

	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const notificationsPrefix = "/erp/api/v1/notifications"

// NotificationsHandler 站内通知 Handler
type NotificationsHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

// NewNotificationsHandler 创建通知 Handler
func NewNotificationsHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == notificationsPrefix && r.Method == http.MethodGet:
		h.List(w, r)
	case path == notificationsPrefix+"/unread-count" && r.Method == http.MethodGet:
		h.UnreadCount(w, r)
	case path == notificationsPrefix+"/read-all" && r.Method == http.MethodPost:
		h.MarkAllRead(w, r)
	case path == notificationsPrefix+"/read" && r.Method == http.MethodDelete:
		h.DeleteRead(w, r)
	case path == notificationsPrefix+"/unread" && r.Method == http.MethodDelete:
		h.DeleteUnread(w, r)
	case strings.HasSuffix(path, "/read") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, notificationsPrefix+"/"), "/read")
		h.MarkRead(w, r, id)
	case strings.HasSuffix(path, "/download") && r.Method == http.MethodGet:
		id := strings.TrimSuffix(strings.TrimPrefix(path, notificationsPrefix+"/"), "/download")
		h.Download(w, r, id)
	case strings.HasPrefix(path, notificationsPrefix+"/"):
		id := strings.TrimPrefix(path, notificationsPrefix+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Delete(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// List 查询通知列表
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListNotificationsRequest{
		TenantID: id.TenantID,
		UserID:   id.UserID,
		IsRead:   parseBoolPtr(r.URL.Query().Get("is_read")),
		Page:     parseInt(r.URL.Query().Get("page"), 1),
		Size:     parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.notifications.ListNotifications(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// UnreadCount 查询未读数
func (h *NotificationsHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), id.TenantID, id.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"unread_count": count}))
}

// MarkRead 标记单条通知已读
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request, notificationID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id.TenantID, id.UserID, notificationID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// MarkAllRead 全部标记已读
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), id.TenantID, id.UserID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Delete 删除单条通知
func (h *NotificationsHandler) Delete(w http.ResponseWriter, r *http.Request, notificationID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.notifications.DeleteNotification(r.Context(), id.TenantID, id.UserID, notificationID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// DeleteRead 删除全部已读通知
func (h *NotificationsHandler) DeleteRead(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.notifications.DeleteRead(r.Context(), id.TenantID, id.UserID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// DeleteUnread 删除全部未读通知
func (h *NotificationsHandler) DeleteUnread(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.notifications.DeleteUnread(r.Context(), id.TenantID, id.UserID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Download 下载通知附件
func (h *NotificationsHandler) Download(w http.ResponseWriter, r *http.Request, notificationID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	att, err := h.notifications.DownloadAttachment(r.Context(), id.TenantID, id.UserID, notificationID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	defer att.Content.Close()

	writeAttachment(w, h.logger, att)
}
