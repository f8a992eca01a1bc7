package task

import (
	"context"
	"fmt"
	"time"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"
	"inventory-data/internal/notify"
	"inventory-data/internal/repository"

	"go.uber.org/zap"
)

// ExportWorker 导出任务执行体
// 取数、写xlsx、落终态、发通知；取消通过上下文感知，
// 终态落库受 status=in_progress 条件保护，慢worker追平取消时不覆盖
type ExportWorker struct {
	tasks         repository.ExportTasksRepository
	notifications repository.NotificationsRepository
	errorLogs     repository.ErrorLogsRepository
	engine        *fieldconf.Engine
	notifier      *notify.Notifier
	files         *FileStore
	logger        *zap.Logger
}

// NewExportWorker 创建导出任务执行体
func NewExportWorker(
	tasks repository.ExportTasksRepository,
	notifications repository.NotificationsRepository,
	errorLogs repository.ErrorLogsRepository,
	engine *fieldconf.Engine,
	notifier *notify.Notifier,
	files *FileStore,
	logger *zap.Logger,
) *ExportWorker {
	return &ExportWorker{
		tasks:         tasks,
		notifications: notifications,
		errorLogs:     errorLogs,
		engine:        engine,
		notifier:      notifier,
		files:         files,
		logger:        logger,
	}
}

// Job 构造可投递的导出任务
func (w *ExportWorker) Job(tenantID string, t *domain.ExportTask, exporter Exporter) Job {
	return Job{
		Number: t.Number,
		Run: func(ctx context.Context) {
			w.run(ctx, tenantID, t, exporter)
		},
	}
}

func (w *ExportWorker) run(ctx context.Context, tenantID string, t *domain.ExportTask, exporter Exporter) {
	start := time.Now()
	total := len(t.ExportIDList)
	w.notifier.PushExportProgress(ctx, t.CreatorID, domain.TaskStatusInProgress, total, 0)

	rows, err := exporter.Fetch(ctx, tenantID, t.ExportIDList)
	if err != nil {
		w.fail(ctx, tenantID, t, err, start)
		return
	}
	total = len(rows)

	// 扩展列名在空数据时也要产出，保证表头稳定
	headerColumns, err := w.engine.ExportExtensionData(ctx, tenantID, t.Model, domain.ExtensionData{})
	if err != nil {
		w.fail(ctx, tenantID, t, err, start)
		return
	}
	headers := append([]string{}, exporter.Headers()...)
	for _, col := range headerColumns {
		headers = append(headers, col.Name)
	}

	sheetName := t.Model.Display()
	f, err := newWorkbook(sheetName, headers)
	if err != nil {
		w.fail(ctx, tenantID, t, err, start)
		return
	}
	defer f.Close()

	for i, row := range rows {
		if ctx.Err() != nil {
			w.cancelled(tenantID, t, total, i, start)
			return
		}

		columns, err := w.engine.ExportExtensionData(ctx, tenantID, t.Model, row.Extension)
		if err != nil {
			w.fail(ctx, tenantID, t, err, start)
			return
		}
		cells := append([]any{}, row.Cells...)
		for _, col := range columns {
			cells = append(cells, col.Value)
		}
		if err := appendRow(f, sheetName, i+2, cells); err != nil {
			w.fail(ctx, tenantID, t, err, start)
			return
		}
		w.notifier.PushExportProgress(ctx, t.CreatorID, domain.TaskStatusInProgress, total, i+1)
	}

	fileName := fmt.Sprintf("%s-%s.xlsx", sheetName, t.Number)
	fullPath, err := w.files.FullPath(tenantID, fileName)
	if err != nil {
		w.fail(ctx, tenantID, t, err, start)
		return
	}
	if err := f.SaveAs(fullPath); err != nil {
		w.fail(ctx, tenantID, t, fmt.Errorf("failed to save workbook: %w", err), start)
		return
	}

	duration := int(time.Since(start).Seconds())
	written, err := w.tasks.MarkExportCompleted(context.Background(), tenantID, t.ID, fileName, total, duration)
	if err != nil {
		w.logger.Error("导出任务完成落库失败",
			zap.String("number", t.Number), zap.Error(err))
		return
	}
	if !written {
		// 任务已被取消，产物不再保留
		_ = w.files.Remove(tenantID, fileName)
		w.logger.Info("导出任务已取消，跳过完成写入", zap.String("number", t.Number))
		return
	}

	w.notifier.PushExportProgress(context.Background(), t.CreatorID, domain.TaskStatusCompleted, total, total)
	w.notify(tenantID, t.CreatorID, &domain.Notification{
		NotifierID:     t.CreatorID,
		Type:           domain.NotificationSuccess,
		Title:          fmt.Sprintf("%s导出完成", sheetName),
		Content:        fmt.Sprintf("任务 %s 导出完成，共 %d 条记录", t.Number, total),
		HasAttachment:  true,
		AttachmentPath: fileName,
		AttachmentName: fileName,
	})
}

func (w *ExportWorker) fail(ctx context.Context, tenantID string, t *domain.ExportTask, cause error, start time.Time) {
	if ctx.Err() != nil {
		w.cancelled(tenantID, t, len(t.ExportIDList), 0, start)
		return
	}

	duration := int(time.Since(start).Seconds())
	written, err := w.tasks.MarkExportFailed(context.Background(), tenantID, t.ID, cause.Error(), duration)
	if err != nil {
		w.logger.Error("导出任务失败落库失败",
			zap.String("number", t.Number), zap.Error(err))
		return
	}
	if !written {
		return
	}

	w.logger.Warn("导出任务失败",
		zap.String("number", t.Number), zap.Error(cause))
	if _, err := w.errorLogs.CreateErrorLog(context.Background(), tenantID, &domain.ErrorLog{
		Module:  "export_task",
		Content: fmt.Sprintf("任务 %s 执行失败: %v", t.Number, cause),
	}); err != nil {
		w.logger.Error("写入错误日志失败", zap.Error(err))
	}

	w.notifier.PushExportProgress(context.Background(), t.CreatorID, domain.TaskStatusFailed, len(t.ExportIDList), 0)
	w.notify(tenantID, t.CreatorID, &domain.Notification{
		NotifierID: t.CreatorID,
		Type:       domain.NotificationError,
		Title:      fmt.Sprintf("%s导出失败", t.Model.Display()),
		Content:    fmt.Sprintf("任务 %s 执行失败: %v", t.Number, cause),
	})
}

func (w *ExportWorker) cancelled(tenantID string, t *domain.ExportTask, total, completed int, start time.Time) {
	duration := int(time.Since(start).Seconds())
	written, err := w.tasks.MarkExportCancelled(context.Background(), tenantID, t.ID, duration)
	if err != nil {
		w.logger.Error("导出任务取消落库失败",
			zap.String("number", t.Number), zap.Error(err))
		return
	}
	if written {
		w.notifier.PushExportProgress(context.Background(), t.CreatorID, domain.TaskStatusCancelled, total, completed)
	}
}

// notify 创建站内通知并推送；任何失败只记日志
func (w *ExportWorker) notify(tenantID, userID string, n *domain.Notification) {
	ctx := context.Background()
	if _, err := w.notifications.CreateNotification(ctx, tenantID, n); err != nil {
		w.logger.Error("创建通知失败", zap.Error(err))
		return
	}
	unread, err := w.notifications.UnreadCount(ctx, tenantID, userID)
	if err != nil {
		w.logger.Error("统计未读通知失败", zap.Error(err))
		unread = 0
	}
	w.notifier.PushNotification(ctx, userID, unread, []*domain.Notification{n})
}
