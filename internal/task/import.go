package task

import (
	"context"
	"fmt"
	"time"

	"inventory-data/internal/domain"
	"inventory-data/internal/notify"
	"inventory-data/internal/repository"

	"go.uber.org/zap"
)

// ImportWorker 导入任务执行体
// 逐行应用，单行失败记入行错误列表不中断任务；
// 全部行处理完即 COMPLETED（部分成功也算完成），文件级错误才是 FAILED
type ImportWorker struct {
	tasks         repository.ImportTasksRepository
	notifications repository.NotificationsRepository
	errorLogs     repository.ErrorLogsRepository
	notifier      *notify.Notifier
	files         *FileStore
	logger        *zap.Logger
}

// NewImportWorker 创建导入任务执行体
func NewImportWorker(
	tasks repository.ImportTasksRepository,
	notifications repository.NotificationsRepository,
	errorLogs repository.ErrorLogsRepository,
	notifier *notify.Notifier,
	files *FileStore,
	logger *zap.Logger,
) *ImportWorker {
	return &ImportWorker{
		tasks:         tasks,
		notifications: notifications,
		errorLogs:     errorLogs,
		notifier:      notifier,
		files:         files,
		logger:        logger,
	}
}

// Job 构造可投递的导入任务
func (w *ImportWorker) Job(tenantID string, t *domain.ImportTask, importer Importer) Job {
	return Job{
		Number: t.Number,
		Run: func(ctx context.Context) {
			w.run(ctx, tenantID, t, importer)
		},
	}
}

func (w *ImportWorker) run(ctx context.Context, tenantID string, t *domain.ImportTask, importer Importer) {
	start := time.Now()
	w.notifier.PushImportProgress(ctx, t.CreatorID, domain.TaskStatusInProgress, 0, 0)

	fullPath, err := w.files.FullPath(tenantID, t.ImportFile)
	if err != nil {
		w.fail(ctx, tenantID, t, err, start)
		return
	}
	headers, rows, err := parseWorkbook(fullPath)
	if err != nil {
		w.fail(ctx, tenantID, t, err, start)
		return
	}
	if len(headers) == 0 {
		w.fail(ctx, tenantID, t, fmt.Errorf("导入文件为空"), start)
		return
	}

	total := len(rows)
	succeeded := 0
	var rowErrors []domain.RowError
	for idx, cells := range rows {
		if ctx.Err() != nil {
			w.cancelled(tenantID, t, total, idx, start)
			return
		}

		record := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(cells) {
				record[header] = cells[col]
			}
		}

		// 行号按表格显示计，表头占第 1 行
		if err := importer.Apply(ctx, tenantID, record); err != nil {
			rowErrors = append(rowErrors, domain.RowError{Row: idx + 2, Message: err.Error()})
		} else {
			succeeded++
		}
		w.notifier.PushImportProgress(ctx, t.CreatorID, domain.TaskStatusInProgress, total, idx+1)
	}

	duration := int(time.Since(start).Seconds())

	// 没有任何行成功时整批记为失败，逐行错误保留给前端展示
	if succeeded == 0 && len(rowErrors) > 0 {
		written, err := w.tasks.MarkImportFailedRows(context.Background(), tenantID, t.ID, rowErrors, duration)
		if err != nil {
			w.logger.Error("导入任务失败落库失败",
				zap.String("number", t.Number), zap.Error(err))
			return
		}
		if !written {
			w.logger.Info("导入任务已取消，跳过失败写入", zap.String("number", t.Number))
			return
		}
		w.notifier.PushImportProgress(context.Background(), t.CreatorID, domain.TaskStatusFailed, total, total)
		w.notify(tenantID, t.CreatorID, &domain.Notification{
			NotifierID: t.CreatorID,
			Type:       domain.NotificationError,
			Title:      fmt.Sprintf("%s导入失败", t.Model.Display()),
			Content:    fmt.Sprintf("任务 %s 导入失败，%d 条均未通过", t.Number, len(rowErrors)),
		})
		return
	}

	written, err := w.tasks.MarkImportCompleted(context.Background(), tenantID, t.ID, succeeded, rowErrors, duration)
	if err != nil {
		w.logger.Error("导入任务完成落库失败",
			zap.String("number", t.Number), zap.Error(err))
		return
	}
	if !written {
		w.logger.Info("导入任务已取消，跳过完成写入", zap.String("number", t.Number))
		return
	}

	w.notifier.PushImportProgress(context.Background(), t.CreatorID, domain.TaskStatusCompleted, total, total)

	content := fmt.Sprintf("任务 %s 导入完成，成功 %d 条", t.Number, succeeded)
	notificationType := domain.NotificationSuccess
	if len(rowErrors) > 0 {
		content = fmt.Sprintf("任务 %s 导入完成，成功 %d 条，失败 %d 条", t.Number, succeeded, len(rowErrors))
		notificationType = domain.NotificationWarning
	}
	w.notify(tenantID, t.CreatorID, &domain.Notification{
		NotifierID: t.CreatorID,
		Type:       notificationType,
		Title:      fmt.Sprintf("%s导入完成", t.Model.Display()),
		Content:    content,
	})
}

func (w *ImportWorker) fail(ctx context.Context, tenantID string, t *domain.ImportTask, cause error, start time.Time) {
	if ctx.Err() != nil {
		w.cancelled(tenantID, t, 0, 0, start)
		return
	}

	duration := int(time.Since(start).Seconds())
	written, err := w.tasks.MarkImportFailed(context.Background(), tenantID, t.ID, cause.Error(), duration)
	if err != nil {
		w.logger.Error("导入任务失败落库失败",
			zap.String("number", t.Number), zap.Error(err))
		return
	}
	if !written {
		return
	}

	w.logger.Warn("导入任务失败",
		zap.String("number", t.Number), zap.Error(cause))
	if _, err := w.errorLogs.CreateErrorLog(context.Background(), tenantID, &domain.ErrorLog{
		Module:  "import_task",
		Content: fmt.Sprintf("任务 %s 执行失败: %v", t.Number, cause),
	}); err != nil {
		w.logger.Error("写入错误日志失败", zap.Error(err))
	}

	w.notifier.PushImportProgress(context.Background(), t.CreatorID, domain.TaskStatusFailed, 0, 0)
	w.notify(tenantID, t.CreatorID, &domain.Notification{
		NotifierID: t.CreatorID,
		Type:       domain.NotificationError,
		Title:      fmt.Sprintf("%s导入失败", t.Model.Display()),
		Content:    fmt.Sprintf("任务 %s 执行失败: %v", t.Number, cause),
	})
}

func (w *ImportWorker) cancelled(tenantID string, t *domain.ImportTask, total, completed int, start time.Time) {
	duration := int(time.Since(start).Seconds())
	written, err := w.tasks.MarkImportCancelled(context.Background(), tenantID, t.ID, duration)
	if err != nil {
		w.logger.Error("导入任务取消落库失败",
			zap.String("number", t.Number), zap.Error(err))
		return
	}
	if written {
		w.notifier.PushImportProgress(context.Background(), t.CreatorID, domain.TaskStatusCancelled, total, completed)
	}
}

func (w *ImportWorker) notify(tenantID, userID string, n *domain.Notification) {
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
