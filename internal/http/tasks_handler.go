package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const (
	exportTasksPrefix = "/erp/api/v1/export-tasks"
	importTasksPrefix = "/erp/api/v1/import-tasks"
)

// TasksHandler 导出、导入任务 Handler
type TasksHandler struct {
	tasks  *service.TaskService
	logger *zap.Logger
}

// NewTasksHandler 创建任务 Handler
func NewTasksHandler(tasks *service.TaskService, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{tasks: tasks, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *TasksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, exportTasksPrefix):
		h.serveExport(w, r, path)
	case strings.HasPrefix(path, importTasksPrefix):
		h.serveImport(w, r, path)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *TasksHandler) serveExport(w http.ResponseWriter, r *http.Request, path string) {
	switch {
	case path == exportTasksPrefix && r.Method == http.MethodGet:
		h.ListExport(w, r)
	case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, exportTasksPrefix+"/"), "/cancel")
		h.CancelExport(w, r, id)
	case strings.HasSuffix(path, "/download") && r.Method == http.MethodGet:
		id := strings.TrimSuffix(strings.TrimPrefix(path, exportTasksPrefix+"/"), "/download")
		h.DownloadExport(w, r, id)
	case strings.HasPrefix(path, exportTasksPrefix+"/"):
		id := strings.TrimPrefix(path, exportTasksPrefix+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.GetExport(w, r, id)
		case http.MethodDelete:
			h.DeleteExport(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *TasksHandler) serveImport(w http.ResponseWriter, r *http.Request, path string) {
	switch {
	case path == importTasksPrefix && r.Method == http.MethodGet:
		h.ListImport(w, r)
	case path == importTasksPrefix && r.Method == http.MethodPost:
		h.CreateImport(w, r)
	case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, importTasksPrefix+"/"), "/cancel")
		h.CancelImport(w, r, id)
	case strings.HasPrefix(path, importTasksPrefix+"/"):
		id := strings.TrimPrefix(path, importTasksPrefix+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.GetImport(w, r, id)
		case http.MethodDelete:
			h.DeleteImport(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListExport 查询导出任务列表
func (h *TasksHandler) ListExport(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListExportTasksRequest{
		TenantID:  id.TenantID,
		Model:     r.URL.Query().Get("model"),
		CreatorID: r.URL.Query().Get("creator_id"),
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.tasks.ListExportTasks(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GetExport 查询导出任务详情
func (h *TasksHandler) GetExport(w http.ResponseWriter, r *http.Request, taskID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.tasks.GetExportTask(r.Context(), id.TenantID, taskID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// CancelExport 取消导出任务
func (h *TasksHandler) CancelExport(w http.ResponseWriter, r *http.Request, taskID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.tasks.CancelExportTask(r.Context(), id.TenantID, taskID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// DeleteExport 删除导出任务及其导出文件
func (h *TasksHandler) DeleteExport(w http.ResponseWriter, r *http.Request, taskID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.tasks.DeleteExportTask(r.Context(), id.TenantID, taskID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// DownloadExport 下载导出文件
func (h *TasksHandler) DownloadExport(w http.ResponseWriter, r *http.Request, taskID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	att, err := h.tasks.DownloadExportFile(r.Context(), id.TenantID, taskID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	defer att.Content.Close()

	writeAttachment(w, h.logger, att)
}

// CreateImport 上传文件并创建导入任务
// 请求为 multipart 表单，model 字段指定模型，file 字段携带 xlsx 文件
func (h *TasksHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("缺少上传文件"))
		return
	}
	defer file.Close()

	item, err := h.tasks.CreateImportTask(r.Context(), service.CreateImportTaskRequest{
		TenantID:  id.TenantID,
		CreatorID: id.UserID,
		Model:     r.FormValue("model"),
		FileName:  header.Filename,
		File:      file,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// ListImport 查询导入任务列表
func (h *TasksHandler) ListImport(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListImportTasksRequest{
		TenantID:  id.TenantID,
		Model:     r.URL.Query().Get("model"),
		CreatorID: r.URL.Query().Get("creator_id"),
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.tasks.ListImportTasks(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GetImport 查询导入任务详情
func (h *TasksHandler) GetImport(w http.ResponseWriter, r *http.Request, taskID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.tasks.GetImportTask(r.Context(), id.TenantID, taskID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// CancelImport 取消导入任务
func (h *TasksHandler) CancelImport(w http.ResponseWriter, r *http.Request, taskID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.tasks.CancelImportTask(r.Context(), id.TenantID, taskID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// DeleteImport 删除导入任务及其上传文件
func (h *TasksHandler) DeleteImport(w http.ResponseWriter, r *http.Request, taskID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.tasks.DeleteImportTask(r.Context(), id.TenantID, taskID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// writeAttachment 以附件形式输出文件流
func writeAttachment(w http.ResponseWriter, logger *zap.Logger, att *service.Attachment) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(att.Name)))
	if _, err := io.Copy(w, att.Content); err != nil {
		logger.Warn("发送附件失败", zap.String("file", att.Name), zap.Error(err))
	}
}
