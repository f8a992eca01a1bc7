package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// ExportTasksRepository 导出任务Repository接口
// CreateExportTaskExclusive 在同一事务内检查同 (model, creator) 是否已有进行中任务，
// 有则返回冲突错误，保证任一时刻同一用户对同一模型至多一个进行中导出
type ExportTasksRepository interface {
	GetExportTask(ctx context.Context, tenantID, taskID string) (*domain.ExportTask, error)
	GetExportTaskByNumber(ctx context.Context, tenantID, number string) (*domain.ExportTask, error)
	ListExportTasks(ctx context.Context, tenantID string, model domain.DataModel, creatorID string, page, size int) ([]*domain.ExportTask, int, error)
	CreateExportTaskExclusive(ctx context.Context, tenantID string, task *domain.ExportTask) (string, error)
	// MarkExportCompleted 仅当任务仍为 in_progress 时生效，返回是否写入
	MarkExportCompleted(ctx context.Context, tenantID, taskID, exportFile string, exportCount, duration int) (bool, error)
	MarkExportFailed(ctx context.Context, tenantID, taskID, errorMessage string, duration int) (bool, error)
	MarkExportCancelled(ctx context.Context, tenantID, taskID string, duration int) (bool, error)
	DeleteExportTask(ctx context.Context, tenantID, taskID string) error
	// ActiveTaskHoldsRecord 指定记录是否被某个进行中导出任务引用
	ActiveTaskHoldsRecord(ctx context.Context, tenantID string, model domain.DataModel, recordID string) (bool, error)
}

// ImportTasksRepository 导入任务Repository接口
type ImportTasksRepository interface {
	GetImportTask(ctx context.Context, tenantID, taskID string) (*domain.ImportTask, error)
	GetImportTaskByNumber(ctx context.Context, tenantID, number string) (*domain.ImportTask, error)
	ListImportTasks(ctx context.Context, tenantID string, model domain.DataModel, creatorID string, page, size int) ([]*domain.ImportTask, int, error)
	CreateImportTaskExclusive(ctx context.Context, tenantID string, task *domain.ImportTask) (string, error)
	MarkImportCompleted(ctx context.Context, tenantID, taskID string, importCount int, rowErrors []domain.RowError, duration int) (bool, error)
	MarkImportFailed(ctx context.Context, tenantID, taskID, errorMessage string, duration int) (bool, error)
	// MarkImportFailedRows 全部行失败时写入失败终态并保留逐行错误
	MarkImportFailedRows(ctx context.Context, tenantID, taskID string, rowErrors []domain.RowError, duration int) (bool, error)
	MarkImportCancelled(ctx context.Context, tenantID, taskID string, duration int) (bool, error)
	DeleteImportTask(ctx context.Context, tenantID, taskID string) error
}
