package httpapi

import (
	"net/http"
	"strings"

	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const (
	modelFieldsPrefix = "/erp/api/v1/model-fields"
	fieldConfigPath   = "/erp/api/v1/system/field-config"
)

// ModelFieldsHandler 自定义字段管理 Handler
type ModelFieldsHandler struct {
	fields *service.ModelFieldService
	logger *zap.Logger
}

// NewModelFieldsHandler 创建字段定义 Handler
func NewModelFieldsHandler(fields *service.ModelFieldService, logger *zap.Logger) *ModelFieldsHandler {
	return &ModelFieldsHandler{fields: fields, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ModelFieldsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == fieldConfigPath && r.Method == http.MethodGet:
		h.FieldConfig(w, r)
	case path == modelFieldsPrefix && r.Method == http.MethodGet:
		h.List(w, r)
	case path == modelFieldsPrefix && r.Method == http.MethodPost:
		h.Create(w, r)
	case strings.HasSuffix(path, "/undo-delete") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, modelFieldsPrefix+"/"), "/undo-delete")
		h.UndoDelete(w, r, id)
	case strings.HasPrefix(path, modelFieldsPrefix+"/"):
		id := strings.TrimPrefix(path, modelFieldsPrefix+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.Get(w, r, id)
		case http.MethodPut:
			h.Update(w, r, id)
		case http.MethodDelete:
			h.Delete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// List 查询字段定义列表
func (h *ModelFieldsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListModelFieldsRequest{
		TenantID:  id.TenantID,
		Model:     r.URL.Query().Get("model"),
		IsDeleted: parseBoolPtr(r.URL.Query().Get("is_deleted")),
		Search:    r.URL.Query().Get("search"),
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.fields.ListModelFields(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Get 查询字段定义详情
func (h *ModelFieldsHandler) Get(w http.ResponseWriter, r *http.Request, fieldID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.fields.GetModelField(r.Context(), id.TenantID, fieldID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Create 创建字段定义
func (h *ModelFieldsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var req service.CreateModelFieldRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.TenantID = id.TenantID

	item, err := h.fields.CreateModelField(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Update 更新字段定义
func (h *ModelFieldsHandler) Update(w http.ResponseWriter, r *http.Request, fieldID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var req service.UpdateModelFieldRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.TenantID = id.TenantID
	req.FieldID = fieldID

	item, err := h.fields.UpdateModelField(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Delete 逻辑删除字段定义
func (h *ModelFieldsHandler) Delete(w http.ResponseWriter, r *http.Request, fieldID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.fields.DeleteModelField(r.Context(), id.TenantID, fieldID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// UndoDelete 恢复删除
func (h *ModelFieldsHandler) UndoDelete(w http.ResponseWriter, r *http.Request, fieldID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.fields.UndoDeleteModelField(r.Context(), id.TenantID, fieldID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// FieldConfig 前端表单渲染用的字段配置
// 支持 ?models=account,client 过滤，不传时返回全部模型
func (h *ModelFieldsHandler) FieldConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var models []string
	if raw := r.URL.Query().Get("models"); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
	}

	resp, err := h.fields.FieldConfig(r.Context(), id.TenantID, models)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
