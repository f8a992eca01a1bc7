package httpapi

import (
	"net/http"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const warehousesPrefix = "/erp/api/v1/warehouses"

// WarehousesHandler 仓库管理 Handler
// 除常规增删改查外还提供盘点锁定、解锁接口
type WarehousesHandler struct {
	warehouses *service.WarehouseService
	tasks      *service.TaskService
	logger     *zap.Logger
}

// NewWarehousesHandler 创建仓库 Handler
func NewWarehousesHandler(warehouses *service.WarehouseService, tasks *service.TaskService, logger *zap.Logger) *WarehousesHandler {
	return &WarehousesHandler{warehouses: warehouses, tasks: tasks, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *WarehousesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == warehousesPrefix && r.Method == http.MethodGet:
		h.List(w, r)
	case path == warehousesPrefix && r.Method == http.MethodPost:
		h.Create(w, r)
	case path == warehousesPrefix+"/export" && r.Method == http.MethodPost:
		h.Export(w, r)
	case strings.HasSuffix(path, "/undo-delete") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, warehousesPrefix+"/"), "/undo-delete")
		h.UndoDelete(w, r, id)
	case strings.HasSuffix(path, "/lock") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, warehousesPrefix+"/"), "/lock")
		h.Lock(w, r, id)
	case strings.HasSuffix(path, "/unlock") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, warehousesPrefix+"/"), "/unlock")
		h.Unlock(w, r, id)
	case strings.HasPrefix(path, warehousesPrefix+"/"):
		id := strings.TrimPrefix(path, warehousesPrefix+"/")
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

// List 查询仓库列表
func (h *WarehousesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListWarehousesRequest{
		TenantID:  id.TenantID,
		IsDeleted: parseBoolPtr(r.URL.Query().Get("is_deleted")),
		IsEnabled: parseBoolPtr(r.URL.Query().Get("is_enabled")),
		Search:    r.URL.Query().Get("search"),
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.warehouses.ListWarehouses(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Get 查询仓库详情
func (h *WarehousesHandler) Get(w http.ResponseWriter, r *http.Request, warehouseID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.warehouses.GetWarehouse(r.Context(), id.TenantID, warehouseID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Create 创建仓库
func (h *WarehousesHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.WarehousePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.warehouses.CreateWarehouse(r.Context(), id.TenantID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Update 更新仓库
func (h *WarehousesHandler) Update(w http.ResponseWriter, r *http.Request, warehouseID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.WarehousePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.warehouses.UpdateWarehouse(r.Context(), id.TenantID, warehouseID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Lock 盘点锁定仓库
func (h *WarehousesHandler) Lock(w http.ResponseWriter, r *http.Request, warehouseID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.warehouses.LockWarehouse(r.Context(), id.TenantID, warehouseID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Unlock 解除盘点锁定
func (h *WarehousesHandler) Unlock(w http.ResponseWriter, r *http.Request, warehouseID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.warehouses.UnlockWarehouse(r.Context(), id.TenantID, warehouseID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Delete 逻辑删除仓库
func (h *WarehousesHandler) Delete(w http.ResponseWriter, r *http.Request, warehouseID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.warehouses.DeleteWarehouse(r.Context(), id.TenantID, warehouseID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// UndoDelete 恢复删除
func (h *WarehousesHandler) UndoDelete(w http.ResponseWriter, r *http.Request, warehouseID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.warehouses.UndoDeleteWarehouse(r.Context(), id.TenantID, warehouseID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Export 触发仓库导出任务
func (h *WarehousesHandler) Export(w http.ResponseWriter, r *http.Request) {
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
		Model:     string(domain.ModelWarehouse),
		IDList:    body.IDList,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}
