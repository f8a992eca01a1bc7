package repository

import (
	"context"
	"database/sql"
	"fmt"

	"inventory-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresNotificationsRepository 通知Repository实现
type PostgresNotificationsRepository struct {
	db *sql.DB
}

// NewPostgresNotificationsRepository 创建通知Repository
func NewPostgresNotificationsRepository(db *sql.DB) *PostgresNotificationsRepository {
	return &PostgresNotificationsRepository{db: db}
}

var _ NotificationsRepository = (*PostgresNotificationsRepository)(nil)

const notificationColumns = `
	notification_id::text,
	tenant_id::text,
	notifier_id::text,
	type,
	title,
	content,
	has_attachment,
	COALESCE(attachment_path, ''),
	COALESCE(attachment_name, ''),
	is_read,
	create_time
`

func scanNotification(row interface{ Scan(...any) error }) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.ID,
		&n.TenantID,
		&n.NotifierID,
		&n.Type,
		&n.Title,
		&n.Content,
		&n.HasAttachment,
		&n.AttachmentPath,
		&n.AttachmentName,
		&n.IsRead,
		&n.CreateTime,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNotification 根据notification_id获取通知
func (r *PostgresNotificationsRepository) GetNotification(ctx context.Context, tenantID, notificationID string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE tenant_id = $1 AND notification_id = $2`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, tenantID, notificationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListNotifications 查询指定用户的通知，按创建时间倒序
func (r *PostgresNotificationsRepository) ListNotifications(ctx context.Context, tenantID, notifierID string, isRead *bool, page, size int) ([]*domain.Notification, int, error) {
	if tenantID == "" || notifierID == "" {
		return nil, 0, fmt.Errorf("tenant_id and notifier_id are required")
	}

	where := "tenant_id = $1 AND notifier_id = $2"
	args := []any{tenantID, notifierID}
	if isRead != nil {
		where += " AND is_read = $3"
		args = append(args, *isRead)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE %s ORDER BY create_time DESC LIMIT $%d OFFSET $%d`,
		notificationColumns, where, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var items []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

// CreateNotification 创建通知
func (r *PostgresNotificationsRepository) CreateNotification(ctx context.Context, tenantID string, notification *domain.Notification) (string, error) {
	notificationID := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (notification_id, tenant_id, notifier_id, type, title, content,
			has_attachment, attachment_path, attachment_name, is_read, create_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, NOW())`,
		notificationID, tenantID, notification.NotifierID, notification.Type,
		notification.Title, notification.Content, notification.HasAttachment,
		notification.AttachmentPath, notification.AttachmentName)
	if err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}

	notification.ID = notificationID
	return notificationID, nil
}

// MarkRead 标记单条通知已读
func (r *PostgresNotificationsRepository) MarkRead(ctx context.Context, tenantID, notifierID, notificationID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE
		 WHERE tenant_id = $1 AND notifier_id = $2 AND notification_id = $3`,
		tenantID, notifierID, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkAllRead 标记用户全部通知已读
func (r *PostgresNotificationsRepository) MarkAllRead(ctx context.Context, tenantID, notifierID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE
		 WHERE tenant_id = $1 AND notifier_id = $2 AND is_read = FALSE`,
		tenantID, notifierID)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}

// DeleteNotification 删除单条通知
func (r *PostgresNotificationsRepository) DeleteNotification(ctx context.Context, tenantID, notifierID, notificationID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications
		 WHERE tenant_id = $1 AND notifier_id = $2 AND notification_id = $3`,
		tenantID, notifierID, notificationID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteRead 清空已读通知
func (r *PostgresNotificationsRepository) DeleteRead(ctx context.Context, tenantID, notifierID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications
		 WHERE tenant_id = $1 AND notifier_id = $2 AND is_read = TRUE`,
		tenantID, notifierID)
	if err != nil {
		return fmt.Errorf("failed to delete read notifications: %w", err)
	}
	return nil
}

// DeleteUnread 清空未读通知
func (r *PostgresNotificationsRepository) DeleteUnread(ctx context.Context, tenantID, notifierID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications
		 WHERE tenant_id = $1 AND notifier_id = $2 AND is_read = FALSE`,
		tenantID, notifierID)
	if err != nil {
		return fmt.Errorf("failed to delete unread notifications: %w", err)
	}
	return nil
}

// UnreadCount 未读通知数
func (r *PostgresNotificationsRepository) UnreadCount(ctx context.Context, tenantID, notifierID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE tenant_id = $1 AND notifier_id = $2 AND is_read = FALSE`,
		tenantID, notifierID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// PostgresErrorLogsRepository 错误日志Repository实现
type PostgresErrorLogsRepository struct {
	db *sql.DB
}

// NewPostgresErrorLogsRepository 创建错误日志Repository
func NewPostgresErrorLogsRepository(db *sql.DB) *PostgresErrorLogsRepository {
	return &PostgresErrorLogsRepository{db: db}
}

var _ ErrorLogsRepository = (*PostgresErrorLogsRepository)(nil)

// CreateErrorLog 记录一条错误日志
func (r *PostgresErrorLogsRepository) CreateErrorLog(ctx context.Context, tenantID string, log *domain.ErrorLog) (string, error) {
	logID := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO error_logs (log_id, tenant_id, module, content, create_time)
		 VALUES ($1, $2, $3, $4, NOW())`,
		logID, tenantID, log.Module, log.Content)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}

	log.ID = logID
	return logID, nil
}

// ListErrorLogs 查询错误日志，按创建时间倒序
func (r *PostgresErrorLogsRepository) ListErrorLogs(ctx context.Context, tenantID, module string, page, size int) ([]*domain.ErrorLog, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	where := "tenant_id = $1 AND ($2 = '' OR module = $2)"
	args := []any{tenantID, module}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM error_logs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count error logs: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := `SELECT log_id::text, tenant_id::text, module, content, create_time
		FROM error_logs WHERE ` + where + ` ORDER BY create_time DESC LIMIT $3 OFFSET $4`
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list error logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.ErrorLog
	for rows.Next() {
		var l domain.ErrorLog
		if err := rows.Scan(&l.ID, &l.TenantID, &l.Module, &l.Content, &l.CreateTime); err != nil {
			return nil, 0, fmt.Errorf("failed to scan error log: %w", err)
		}
		logs = append(logs, &l)
	}
	return logs, total, rows.Err()
}
