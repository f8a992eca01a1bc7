package httpapi

import (
	"net/http"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const suppliersPrefix = "/erp/api/v1/suppliers"

// SuppliersHandler 供应商管理 Handler
type SuppliersHandler struct {
	suppliers *service.SupplierService
	tasks     *service.TaskService
	logger    *zap.Logger
}

// NewSuppliersHandler 创建供应商 Handler
func NewSuppliersHandler(suppliers *service.SupplierService, tasks *service.TaskService, logger *zap.Logger) *SuppliersHandler {
	return &SuppliersHandler{suppliers: suppliers, tasks: tasks, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *SuppliersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == suppliersPrefix && r.Method == http.MethodGet:
		h.List(w, r)
	case path == suppliersPrefix && r.Method == http.MethodPost:
		h.Create(w, r)
	case path == suppliersPrefix+"/export" && r.Method == http.MethodPost:
		h.Export(w, r)
	case strings.HasSuffix(path, "/undo-delete") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, suppliersPrefix+"/"), "/undo-delete")
		h.UndoDelete(w, r, id)
	case strings.HasPrefix(path, suppliersPrefix+"/"):
		id := strings.TrimPrefix(path, suppliersPrefix+"/")
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

// List 查询供应商列表
func (h *SuppliersHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListSuppliersRequest{
		TenantID:  id.TenantID,
		IsDeleted: parseBoolPtr(r.URL.Query().Get("is_deleted")),
		IsEnabled: parseBoolPtr(r.URL.Query().Get("is_enabled")),
		Search:    r.URL.Query().Get("search"),
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.suppliers.ListSuppliers(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Get 查询供应商详情
func (h *SuppliersHandler) Get(w http.ResponseWriter, r *http.Request, supplierID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.suppliers.GetSupplier(r.Context(), id.TenantID, supplierID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Create 创建供应商
func (h *SuppliersHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.SupplierPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.suppliers.CreateSupplier(r.Context(), id.TenantID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Update 更新供应商
func (h *SuppliersHandler) Update(w http.ResponseWriter, r *http.Request, supplierID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.SupplierPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.suppliers.UpdateSupplier(r.Context(), id.TenantID, supplierID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Delete 逻辑删除供应商
func (h *SuppliersHandler) Delete(w http.ResponseWriter, r *http.Request, supplierID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.suppliers.DeleteSupplier(r.Context(), id.TenantID, supplierID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// UndoDelete 恢复删除
func (h *SuppliersHandler) UndoDelete(w http.ResponseWriter, r *http.Request, supplierID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.suppliers.UndoDeleteSupplier(r.Context(), id.TenantID, supplierID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Export 触发供应商导出任务
func (h *SuppliersHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var body struct {
		IDList []string `json:"id_list"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.tasks.CreateExportTask(r.Context(), service.CreateExportTaskRequest{
		TenantID:  id.TenantID,
		CreatorID: id.UserID,
		Model:     string(domain.ModelSupplier),
		IDList:    body.IDList,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}
