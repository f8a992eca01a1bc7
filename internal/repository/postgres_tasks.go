package repository

import (
	"context"
	"database/sql"
	"fmt"

	"inventory-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresExportTasksRepository 导出任务Repository实现
type PostgresExportTasksRepository struct {
	db *sql.DB
}

// NewPostgresExportTasksRepository 创建导出任务Repository
func NewPostgresExportTasksRepository(db *sql.DB) *PostgresExportTasksRepository {
	return &PostgresExportTasksRepository{db: db}
}

var _ ExportTasksRepository = (*PostgresExportTasksRepository)(nil)

const exportTaskColumns = `
	task_id::text,
	tenant_id::text,
	number,
	model,
	export_id_list,
	COALESCE(export_file, ''),
	export_count,
	status,
	COALESCE(error_message, ''),
	duration,
	creator_id::text,
	create_time
`

func scanExportTask(row interface{ Scan(...any) error }) (*domain.ExportTask, error) {
	var task domain.ExportTask
	var idList []byte

	err := row.Scan(
		&task.ID,
		&task.TenantID,
		&task.Number,
		&task.Model,
		&idList,
		&task.ExportFile,
		&task.ExportCount,
		&task.Status,
		&task.ErrorMessage,
		&task.Duration,
		&task.CreatorID,
		&task.CreateTime,
	)
	if err != nil {
		return nil, err
	}

	if task.ExportIDList, err = stringsFromJSON(idList); err != nil {
		return nil, fmt.Errorf("failed to decode export_id_list: %w", err)
	}
	return &task, nil
}

// GetExportTask 根据task_id获取导出任务
func (r *PostgresExportTasksRepository) GetExportTask(ctx context.Context, tenantID, taskID string) (*domain.ExportTask, error) {
	query := `SELECT ` + exportTaskColumns + ` FROM export_tasks WHERE tenant_id = $1 AND task_id = $2`

	task, err := scanExportTask(r.db.QueryRowContext(ctx, query, tenantID, taskID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get export task: %w", err)
	}
	return task, nil
}

// GetExportTaskByNumber 根据任务编号获取导出任务
func (r *PostgresExportTasksRepository) GetExportTaskByNumber(ctx context.Context, tenantID, number string) (*domain.ExportTask, error) {
	query := `SELECT ` + exportTaskColumns + ` FROM export_tasks WHERE tenant_id = $1 AND number = $2`

	task, err := scanExportTask(r.db.QueryRowContext(ctx, query, tenantID, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get export task by number: %w", err)
	}
	return task, nil
}

// ListExportTasks 查询导出任务列表，按创建时间倒序
func (r *PostgresExportTasksRepository) ListExportTasks(ctx context.Context, tenantID string, model domain.DataModel, creatorID string, page, size int) ([]*domain.ExportTask, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	where := "tenant_id = $1 AND ($2 = '' OR model = $2) AND ($3 = '' OR creator_id::text = $3)"
	args := []any{tenantID, string(model), creatorID}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM export_tasks WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count export tasks: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := `SELECT ` + exportTaskColumns + ` FROM export_tasks WHERE ` + where + `
		ORDER BY create_time DESC LIMIT $4 OFFSET $5`
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list export tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.ExportTask
	for rows.Next() {
		task, err := scanExportTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan export task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, total, rows.Err()
}

// CreateExportTaskExclusive 创建导出任务
// 事务内先取 (tenant, model, creator) 的咨询锁再做进行中检查，
// 没有进行中行时行锁锁不住任何东西，并发提交会双双通过检查
func (r *PostgresExportTasksRepository) CreateExportTaskExclusive(ctx context.Context, tenantID string, task *domain.ExportTask) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || ':export:' || $2 || ':' || $3))`,
		tenantID, task.Model, task.CreatorID); err != nil {
		return "", fmt.Errorf("failed to lock export task key: %w", err)
	}

	var busy bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM export_tasks
			WHERE tenant_id = $1 AND model = $2 AND creator_id::text = $3 AND status = 'in_progress'
		)`, tenantID, task.Model, task.CreatorID).Scan(&busy)
	if err != nil {
		return "", fmt.Errorf("failed to check running export task: %w", err)
	}
	if busy {
		return "", domain.Conflictf("当前%s已有进行中的导出任务", task.Model.Display())
	}

	idList, err := stringsToJSON(task.ExportIDList)
	if err != nil {
		return "", fmt.Errorf("failed to encode export_id_list: %w", err)
	}

	taskID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO export_tasks (task_id, tenant_id, number, model, export_id_list,
			export_file, export_count, status, error_message, duration, creator_id, create_time)
		 VALUES ($1, $2, $3, $4, $5, '', 0, $6, '', 0, $7, NOW())`,
		taskID, tenantID, task.Number, task.Model, idList, domain.TaskStatusInProgress, task.CreatorID)
	if err != nil {
		return "", fmt.Errorf("failed to create export task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	task.ID = taskID
	task.Status = domain.TaskStatusInProgress
	return taskID, nil
}

// MarkExportCompleted 写入完成终态，仅当任务仍为进行中
func (r *PostgresExportTasksRepository) MarkExportCompleted(ctx context.Context, tenantID, taskID, exportFile string, exportCount, duration int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE export_tasks
		 SET status = $3, export_file = $4, export_count = $5, duration = $6
		 WHERE tenant_id = $1 AND task_id = $2 AND status = 'in_progress'`,
		tenantID, taskID, domain.TaskStatusCompleted, exportFile, exportCount, duration)
	if err != nil {
		return false, fmt.Errorf("failed to mark export completed: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// MarkExportFailed 写入失败终态
func (r *PostgresExportTasksRepository) MarkExportFailed(ctx context.Context, tenantID, taskID, errorMessage string, duration int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE export_tasks
		 SET status = $3, error_message = $4, duration = $5
		 WHERE tenant_id = $1 AND task_id = $2 AND status = 'in_progress'`,
		tenantID, taskID, domain.TaskStatusFailed, errorMessage, duration)
	if err != nil {
		return false, fmt.Errorf("failed to mark export failed: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// MarkExportCancelled 写入取消终态
func (r *PostgresExportTasksRepository) MarkExportCancelled(ctx context.Context, tenantID, taskID string, duration int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE export_tasks
		 SET status = $3, duration = $4
		 WHERE tenant_id = $1 AND task_id = $2 AND status = 'in_progress'`,
		tenantID, taskID, domain.TaskStatusCancelled, duration)
	if err != nil {
		return false, fmt.Errorf("failed to mark export cancelled: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// DeleteExportTask 删除任务记录（文件另行清理）
func (r *PostgresExportTasksRepository) DeleteExportTask(ctx context.Context, tenantID, taskID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM export_tasks WHERE tenant_id = $1 AND task_id = $2`,
		tenantID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete export task: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ActiveTaskHoldsRecord 指定记录是否被进行中导出任务引用
func (r *PostgresExportTasksRepository) ActiveTaskHoldsRecord(ctx context.Context, tenantID string, model domain.DataModel, recordID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM export_tasks
			WHERE tenant_id = $1 AND model = $2 AND status = 'in_progress'
			  AND export_id_list::jsonb ? $3
		)`

	var held bool
	if err := r.db.QueryRowContext(ctx, query, tenantID, model, recordID).Scan(&held); err != nil {
		return false, fmt.Errorf("failed to check record in active tasks: %w", err)
	}
	return held, nil
}

// PostgresImportTasksRepository 导入任务Repository实现
type PostgresImportTasksRepository struct {
	db *sql.DB
}

// NewPostgresImportTasksRepository 创建导入任务Repository
func NewPostgresImportTasksRepository(db *sql.DB) *PostgresImportTasksRepository {
	return &PostgresImportTasksRepository{db: db}
}

var _ ImportTasksRepository = (*PostgresImportTasksRepository)(nil)

const importTaskColumns = `
	task_id::text,
	tenant_id::text,
	number,
	model,
	COALESCE(import_file, ''),
	import_count,
	status,
	error_message_list,
	duration,
	creator_id::text,
	create_time
`

func scanImportTask(row interface{ Scan(...any) error }) (*domain.ImportTask, error) {
	var task domain.ImportTask
	var rowErrors []byte

	err := row.Scan(
		&task.ID,
		&task.TenantID,
		&task.Number,
		&task.Model,
		&task.ImportFile,
		&task.ImportCount,
		&task.Status,
		&rowErrors,
		&task.Duration,
		&task.CreatorID,
		&task.CreateTime,
	)
	if err != nil {
		return nil, err
	}

	if task.ErrorMessages, err = rowErrorsFromJSON(rowErrors); err != nil {
		return nil, fmt.Errorf("failed to decode error_message_list: %w", err)
	}
	return &task, nil
}

// GetImportTask 根据task_id获取导入任务
func (r *PostgresImportTasksRepository) GetImportTask(ctx context.Context, tenantID, taskID string) (*domain.ImportTask, error) {
	query := `SELECT ` + importTaskColumns + ` FROM import_tasks WHERE tenant_id = $1 AND task_id = $2`

	task, err := scanImportTask(r.db.QueryRowContext(ctx, query, tenantID, taskID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get import task: %w", err)
	}
	return task, nil
}

// GetImportTaskByNumber 根据任务编号获取导入任务
func (r *PostgresImportTasksRepository) GetImportTaskByNumber(ctx context.Context, tenantID, number string) (*domain.ImportTask, error) {
	query := `SELECT ` + importTaskColumns + ` FROM import_tasks WHERE tenant_id = $1 AND number = $2`

	task, err := scanImportTask(r.db.QueryRowContext(ctx, query, tenantID, number))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get import task by number: %w", err)
	}
	return task, nil
}

// ListImportTasks 查询导入任务列表，按创建时间倒序
func (r *PostgresImportTasksRepository) ListImportTasks(ctx context.Context, tenantID string, model domain.DataModel, creatorID string, page, size int) ([]*domain.ImportTask, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	where := "tenant_id = $1 AND ($2 = '' OR model = $2) AND ($3 = '' OR creator_id::text = $3)"
	args := []any{tenantID, string(model), creatorID}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM import_tasks WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count import tasks: %w", err)
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	query := `SELECT ` + importTaskColumns + ` FROM import_tasks WHERE ` + where + `
		ORDER BY create_time DESC LIMIT $4 OFFSET $5`
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list import tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.ImportTask
	for rows.Next() {
		task, err := scanImportTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan import task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, total, rows.Err()
}

// CreateImportTaskExclusive 创建导入任务
// 咨询锁 + 进行中检查，与导出侧同一套互斥策略
func (r *PostgresImportTasksRepository) CreateImportTaskExclusive(ctx context.Context, tenantID string, task *domain.ImportTask) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1 || ':import:' || $2 || ':' || $3))`,
		tenantID, task.Model, task.CreatorID); err != nil {
		return "", fmt.Errorf("failed to lock import task key: %w", err)
	}

	var busy bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM import_tasks
			WHERE tenant_id = $1 AND model = $2 AND creator_id::text = $3 AND status = 'in_progress'
		)`, tenantID, task.Model, task.CreatorID).Scan(&busy)
	if err != nil {
		return "", fmt.Errorf("failed to check running import task: %w", err)
	}
	if busy {
		return "", domain.Conflictf("当前%s已有进行中的导入任务", task.Model.Display())
	}

	taskID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO import_tasks (task_id, tenant_id, number, model, import_file,
			import_count, status, error_message_list, duration, creator_id, create_time)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, '[]', 0, $7, NOW())`,
		taskID, tenantID, task.Number, task.Model, task.ImportFile, domain.TaskStatusInProgress, task.CreatorID)
	if err != nil {
		return "", fmt.Errorf("failed to create import task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	task.ID = taskID
	task.Status = domain.TaskStatusInProgress
	return taskID, nil
}

// MarkImportCompleted 写入完成终态，可携带部分行错误
func (r *PostgresImportTasksRepository) MarkImportCompleted(ctx context.Context, tenantID, taskID string, importCount int, rowErrors []domain.RowError, duration int) (bool, error) {
	encoded, err := rowErrorsToJSON(rowErrors)
	if err != nil {
		return false, fmt.Errorf("failed to encode error_message_list: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE import_tasks
		 SET status = $3, import_count = $4, error_message_list = $5, duration = $6
		 WHERE tenant_id = $1 AND task_id = $2 AND status = 'in_progress'`,
		tenantID, taskID, domain.TaskStatusCompleted, importCount, encoded, duration)
	if err != nil {
		return false, fmt.Errorf("failed to mark import completed: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// MarkImportFailed 写入失败终态
func (r *PostgresImportTasksRepository) MarkImportFailed(ctx context.Context, tenantID, taskID, errorMessage string, duration int) (bool, error) {
	encoded, err := rowErrorsToJSON([]domain.RowError{{Row: 0, Message: errorMessage}})
	if err != nil {
		return false, fmt.Errorf("failed to encode error_message_list: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE import_tasks
		 SET status = $3, error_message_list = $4, duration = $5
		 WHERE tenant_id = $1 AND task_id = $2 AND status = 'in_progress'`,
		tenantID, taskID, domain.TaskStatusFailed, encoded, duration)
	if err != nil {
		return false, fmt.Errorf("failed to mark import failed: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// MarkImportFailedRows 写入失败终态，保留逐行错误列表
func (r *PostgresImportTasksRepository) MarkImportFailedRows(ctx context.Context, tenantID, taskID string, rowErrors []domain.RowError, duration int) (bool, error) {
	encoded, err := rowErrorsToJSON(rowErrors)
	if err != nil {
		return false, fmt.Errorf("failed to encode error_message_list: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE import_tasks
		 SET status = $3, error_message_list = $4, duration = $5
		 WHERE tenant_id = $1 AND task_id = $2 AND status = 'in_progress'`,
		tenantID, taskID, domain.TaskStatusFailed, encoded, duration)
	if err != nil {
		return false, fmt.Errorf("failed to mark import failed: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// MarkImportCancelled 写入取消终态
func (r *PostgresImportTasksRepository) MarkImportCancelled(ctx context.Context, tenantID, taskID string, duration int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE import_tasks
		 SET status = $3, duration = $4
		 WHERE tenant_id = $1 AND task_id = $2 AND status = 'in_progress'`,
		tenantID, taskID, domain.TaskStatusCancelled, duration)
	if err != nil {
		return false, fmt.Errorf("failed to mark import cancelled: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// DeleteImportTask 删除任务记录
func (r *PostgresImportTasksRepository) DeleteImportTask(ctx context.Context, tenantID, taskID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM import_tasks WHERE tenant_id = $1 AND task_id = $2`,
		tenantID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete import task: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
