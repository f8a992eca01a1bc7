package service

import (
	"context"
	"fmt"
	"io"

	"inventory-data/internal/domain"
	"inventory-data/internal/repository"
	"inventory-data/internal/task"

	"go.uber.org/zap"
)

// TaskService 导出/导入任务服务
// 创建走事务排他检查，执行投递到 Runner，取消经由取消注册表，
// 终态一律由条件更新裁决
type TaskService struct {
	exports   repository.ExportTasksRepository
	imports   repository.ImportTasksRepository
	runner    *task.Runner
	exporter  *task.ExporterRegistry
	importer  *task.ImporterRegistry
	exportJob *task.ExportWorker
	importJob *task.ImportWorker
	files     *task.FileStore
	numbers   *task.NumberGenerator
	logger    *zap.Logger
}

// NewTaskService 创建任务服务
func NewTaskService(
	exports repository.ExportTasksRepository,
	imports repository.ImportTasksRepository,
	runner *task.Runner,
	exporter *task.ExporterRegistry,
	importer *task.ImporterRegistry,
	exportJob *task.ExportWorker,
	importJob *task.ImportWorker,
	files *task.FileStore,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		exports:   exports,
		imports:   imports,
		runner:    runner,
		exporter:  exporter,
		importer:  importer,
		exportJob: exportJob,
		importJob: importJob,
		files:     files,
		numbers:   task.NewNumberGenerator(),
		logger:    logger,
	}
}

// ExportTaskItem 导出任务项（前端格式）
type ExportTaskItem struct {
	TaskID       string `json:"task_id"`
	Number       string `json:"number"`
	Model        string `json:"model"`
	ModelText    string `json:"model_text"`
	ExportCount  int    `json:"export_count"`
	ExportFile   string `json:"export_file,omitempty"`
	Status       string `json:"status"`
	StatusText   string `json:"status_text"`
	ErrorMessage string `json:"error_message,omitempty"`
	Duration     int    `json:"duration"`
	CreatorID    string `json:"creator_id"`
	CreateTime   string `json:"create_time"`
}

func toExportTaskItem(t *domain.ExportTask) ExportTaskItem {
	return ExportTaskItem{
		TaskID:       t.ID,
		Number:       t.Number,
		Model:        string(t.Model),
		ModelText:    t.Model.Display(),
		ExportCount:  t.ExportCount,
		ExportFile:   t.ExportFile,
		Status:       string(t.Status),
		StatusText:   t.Status.Display(),
		ErrorMessage: t.ErrorMessage,
		Duration:     t.Duration,
		CreatorID:    t.CreatorID,
		CreateTime:   t.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ImportTaskItem 导入任务项（前端格式）
type ImportTaskItem struct {
	TaskID        string            `json:"task_id"`
	Number        string            `json:"number"`
	Model         string            `json:"model"`
	ModelText     string            `json:"model_text"`
	ImportCount   int               `json:"import_count"`
	Status        string            `json:"status"`
	StatusText    string            `json:"status_text"`
	ErrorMessages []domain.RowError `json:"error_message_list"`
	Duration      int               `json:"duration"`
	CreatorID     string            `json:"creator_id"`
	CreateTime    string            `json:"create_time"`
}

func toImportTaskItem(t *domain.ImportTask) ImportTaskItem {
	return ImportTaskItem{
		TaskID:        t.ID,
		Number:        t.Number,
		Model:         string(t.Model),
		ModelText:     t.Model.Display(),
		ImportCount:   t.ImportCount,
		Status:        string(t.Status),
		StatusText:    t.Status.Display(),
		ErrorMessages: t.ErrorMessages,
		Duration:      t.Duration,
		CreatorID:     t.CreatorID,
		CreateTime:    t.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// CreateExportTaskRequest 创建导出任务请求
type CreateExportTaskRequest struct {
	TenantID  string
	CreatorID string
	Model     string   `json:"model"`
	IDList    []string `json:"id_list"`
}

// CreateExportTask 创建并投递导出任务
func (s *TaskService) CreateExportTask(ctx context.Context, req CreateExportTaskRequest) (*ExportTaskItem, error) {
	model := domain.DataModel(req.Model)
	if !model.Valid() {
		return nil, domain.Validationf("模型类别无效")
	}
	exporter, ok := s.exporter.Lookup(model)
	if !ok {
		return nil, domain.Validationf("%s不支持导出", model.Display())
	}
	if len(req.IDList) == 0 {
		return nil, domain.Validationf("请选择要导出的记录")
	}

	// 选中的记录必须全部存在，缺失的 id 不允许悄悄缩小导出范围
	rows, err := exporter.Fetch(ctx, req.TenantID, req.IDList)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.Validationf("空数据无法导出")
	}
	if len(rows) != len(req.IDList) {
		return nil, domain.Validationf("导出数据不存在")
	}

	t := &domain.ExportTask{
		Number:       s.numbers.Next("EX"),
		Model:        model,
		ExportIDList: req.IDList,
		CreatorID:    req.CreatorID,
	}
	if _, err := s.exports.CreateExportTaskExclusive(ctx, req.TenantID, t); err != nil {
		return nil, err
	}

	if err := s.runner.Submit(s.exportJob.Job(req.TenantID, t, exporter)); err != nil {
		// 投递失败直接落失败终态，不留僵尸进行中任务
		if _, markErr := s.exports.MarkExportFailed(ctx, req.TenantID, t.ID, err.Error(), 0); markErr != nil {
			s.logger.Error("任务投递失败后落库失败",
				zap.String("number", t.Number), zap.Error(markErr))
		}
		return nil, err
	}

	s.logger.Info("导出任务已创建",
		zap.String("tenant_id", req.TenantID),
		zap.String("number", t.Number),
		zap.String("model", string(model)))
	item := toExportTaskItem(t)
	return &item, nil
}

// ListExportTasksRequest 查询导出任务列表请求
type ListExportTasksRequest struct {
	TenantID  string
	Model     string
	CreatorID string
	Page      int
	Size      int
}

// ListExportTasksResponse 查询导出任务列表响应
type ListExportTasksResponse struct {
	Items []ExportTaskItem `json:"items"`
	Total int              `json:"total"`
}

// ListExportTasks 查询导出任务列表
func (s *TaskService) ListExportTasks(ctx context.Context, req ListExportTasksRequest) (*ListExportTasksResponse, error) {
	if req.Model != "" && !domain.DataModel(req.Model).Valid() {
		return nil, domain.Validationf("模型类别无效")
	}
	tasks, total, err := s.exports.ListExportTasks(ctx, req.TenantID, domain.DataModel(req.Model), req.CreatorID, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list export tasks: %w", err)
	}

	items := make([]ExportTaskItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, toExportTaskItem(t))
	}
	return &ListExportTasksResponse{Items: items, Total: total}, nil
}

// GetExportTask 查询导出任务详情
func (s *TaskService) GetExportTask(ctx context.Context, tenantID, taskID string) (*ExportTaskItem, error) {
	t, err := s.exports.GetExportTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	item := toExportTaskItem(t)
	return &item, nil
}

// CancelExportTask 取消导出任务
// 仅进行中任务可取消；worker 未在执行时直接条件更新落取消终态
func (s *TaskService) CancelExportTask(ctx context.Context, tenantID, taskID string) error {
	t, err := s.exports.GetExportTask(ctx, tenantID, taskID)
	if err != nil {
		return err
	}
	if t.Status.Terminal() {
		return domain.Conflictf("任务%s，不能取消", t.Status.Display())
	}

	if s.runner.Cancel(t.Number) {
		return nil
	}
	written, err := s.exports.MarkExportCancelled(ctx, tenantID, taskID, t.Duration)
	if err != nil {
		return fmt.Errorf("failed to cancel export task: %w", err)
	}
	if !written {
		return domain.Conflictf("任务已结束，不能取消")
	}
	return nil
}

// DeleteExportTask 删除导出任务
// 仅终态任务可删除，产物文件一并清理
func (s *TaskService) DeleteExportTask(ctx context.Context, tenantID, taskID string) error {
	t, err := s.exports.GetExportTask(ctx, tenantID, taskID)
	if err != nil {
		return err
	}
	if !t.Status.Terminal() {
		return domain.Conflictf("进行中的任务不能删除")
	}

	if t.ExportFile != "" {
		if err := s.files.Remove(tenantID, t.ExportFile); err != nil {
			s.logger.Warn("删除任务产物失败",
				zap.String("number", t.Number), zap.Error(err))
		}
	}
	return s.exports.DeleteExportTask(ctx, tenantID, taskID)
}

// DownloadExportFile 下载导出产物，仅已完成任务可下载
func (s *TaskService) DownloadExportFile(ctx context.Context, tenantID, taskID string) (*Attachment, error) {
	t, err := s.exports.GetExportTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TaskStatusCompleted {
		return nil, domain.Conflictf("任务未完成，不能下载")
	}

	content, err := s.files.Open(tenantID, t.ExportFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	return &Attachment{Name: t.ExportFile, Content: content}, nil
}

// CreateImportTaskRequest 创建导入任务请求
type CreateImportTaskRequest struct {
	TenantID  string
	CreatorID string
	Model     string
	FileName  string
	File      io.Reader
}

// CreateImportTask 保存上传文件、创建并投递导入任务
func (s *TaskService) CreateImportTask(ctx context.Context, req CreateImportTaskRequest) (*ImportTaskItem, error) {
	model := domain.DataModel(req.Model)
	if !model.Valid() {
		return nil, domain.Validationf("模型类别无效")
	}
	importer, ok := s.importer.Lookup(model)
	if !ok {
		return nil, domain.Validationf("%s不支持导入", model.Display())
	}
	if req.File == nil {
		return nil, domain.Validationf("请上传导入文件")
	}

	number := s.numbers.Next("IM")
	fileName := fmt.Sprintf("%s-%s.xlsx", model.Display(), number)
	if _, err := s.files.Save(req.TenantID, fileName, req.File); err != nil {
		return nil, fmt.Errorf("failed to save import file: %w", err)
	}

	t := &domain.ImportTask{
		Number:     number,
		Model:      model,
		ImportFile: fileName,
		CreatorID:  req.CreatorID,
	}
	if _, err := s.imports.CreateImportTaskExclusive(ctx, req.TenantID, t); err != nil {
		_ = s.files.Remove(req.TenantID, fileName)
		return nil, err
	}

	if err := s.runner.Submit(s.importJob.Job(req.TenantID, t, importer)); err != nil {
		if _, markErr := s.imports.MarkImportFailed(ctx, req.TenantID, t.ID, err.Error(), 0); markErr != nil {
			s.logger.Error("任务投递失败后落库失败",
				zap.String("number", t.Number), zap.Error(markErr))
		}
		return nil, err
	}

	s.logger.Info("导入任务已创建",
		zap.String("tenant_id", req.TenantID),
		zap.String("number", t.Number),
		zap.String("model", string(model)))
	item := toImportTaskItem(t)
	return &item, nil
}

// ListImportTasksRequest 查询导入任务列表请求
type ListImportTasksRequest struct {
	TenantID  string
	Model     string
	CreatorID string
	Page      int
	Size      int
}

// ListImportTasksResponse 查询导入任务列表响应
type ListImportTasksResponse struct {
	Items []ImportTaskItem `json:"items"`
	Total int              `json:"total"`
}

// ListImportTasks 查询导入任务列表
func (s *TaskService) ListImportTasks(ctx context.Context, req ListImportTasksRequest) (*ListImportTasksResponse, error) {
	if req.Model != "" && !domain.DataModel(req.Model).Valid() {
		return nil, domain.Validationf("模型类别无效")
	}
	tasks, total, err := s.imports.ListImportTasks(ctx, req.TenantID, domain.DataModel(req.Model), req.CreatorID, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list import tasks: %w", err)
	}

	items := make([]ImportTaskItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, toImportTaskItem(t))
	}
	return &ListImportTasksResponse{Items: items, Total: total}, nil
}

// GetImportTask 查询导入任务详情
func (s *TaskService) GetImportTask(ctx context.Context, tenantID, taskID string) (*ImportTaskItem, error) {
	t, err := s.imports.GetImportTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	item := toImportTaskItem(t)
	return &item, nil
}

// CancelImportTask 取消导入任务
func (s *TaskService) CancelImportTask(ctx context.Context, tenantID, taskID string) error {
	t, err := s.imports.GetImportTask(ctx, tenantID, taskID)
	if err != nil {
		return err
	}
	if t.Status.Terminal() {
		return domain.Conflictf("任务%s，不能取消", t.Status.Display())
	}

	if s.runner.Cancel(t.Number) {
		return nil
	}
	written, err := s.imports.MarkImportCancelled(ctx, tenantID, taskID, t.Duration)
	if err != nil {
		return fmt.Errorf("failed to cancel import task: %w", err)
	}
	if !written {
		return domain.Conflictf("任务已结束，不能取消")
	}
	return nil
}

// DeleteImportTask 删除导入任务
func (s *TaskService) DeleteImportTask(ctx context.Context, tenantID, taskID string) error {
	t, err := s.imports.GetImportTask(ctx, tenantID, taskID)
	if err != nil {
		return err
	}
	if !t.Status.Terminal() {
		return domain.Conflictf("进行中的任务不能删除")
	}

	if t.ImportFile != "" {
		if err := s.files.Remove(tenantID, t.ImportFile); err != nil {
			s.logger.Warn("删除任务文件失败",
				zap.String("number", t.Number), zap.Error(err))
		}
	}
	return s.imports.DeleteImportTask(ctx, tenantID, taskID)
}
