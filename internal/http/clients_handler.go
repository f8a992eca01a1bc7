package httpapi

import (
	"net/http"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const clientsPrefix = "/erp/api/v1/clients"

// ClientsHandler 客户管理 Handler
type ClientsHandler struct {
	clients *service.ClientService
	tasks   *service.TaskService
	logger  *zap.Logger
}

// NewClientsHandler 创建客户 Handler
func NewClientsHandler(clients *service.ClientService, tasks *service.TaskService, logger *zap.Logger) *ClientsHandler {
	return &ClientsHandler{clients: clients, tasks: tasks, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ClientsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == clientsPrefix && r.Method == http.MethodGet:
		h.List(w, r)
	case path == clientsPrefix && r.Method == http.MethodPost:
		h.Create(w, r)
	case path == clientsPrefix+"/export" && r.Method == http.MethodPost:
		h.Export(w, r)
	case strings.HasSuffix(path, "/undo-delete") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, clientsPrefix+"/"), "/undo-delete")
		h.UndoDelete(w, r, id)
	case strings.HasPrefix(path, clientsPrefix+"/"):
		id := strings.TrimPrefix(path, clientsPrefix+"/")
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

// List 查询客户列表
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListClientsRequest{
		TenantID:  id.TenantID,
		IsDeleted: parseBoolPtr(r.URL.Query().Get("is_deleted")),
		IsEnabled: parseBoolPtr(r.URL.Query().Get("is_enabled")),
		Search:    r.URL.Query().Get("search"),
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.clients.ListClients(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Get 查询客户详情
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request, clientID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.clients.GetClient(r.Context(), id.TenantID, clientID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Create 创建客户
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.ClientPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.clients.CreateClient(r.Context(), id.TenantID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Update 更新客户
func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request, clientID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.ClientPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.clients.UpdateClient(r.Context(), id.TenantID, clientID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Delete 逻辑删除客户
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request, clientID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.clients.DeleteClient(r.Context(), id.TenantID, clientID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// UndoDelete 恢复删除
func (h *ClientsHandler) UndoDelete(w http.ResponseWriter, r *http.Request, clientID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.clients.UndoDeleteClient(r.Context(), id.TenantID, clientID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Export 触发客户导出任务
func (h *ClientsHandler) Export(w http.ResponseWriter, r *http.Request) {
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
		Model:     string(domain.ModelClient),
		IDList:    body.IDList,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}
