package httpapi

import (
	"net/http"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const usersPrefix = "/erp/api/v1/users"

// UsersHandler 用户管理 Handler
type UsersHandler struct {
	users  *service.UserService
	tasks  *service.TaskService
	logger *zap.Logger
}

// NewUsersHandler 创建用户 Handler
func NewUsersHandler(users *service.UserService, tasks *service.TaskService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, tasks: tasks, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == usersPrefix && r.Method == http.MethodGet:
		h.List(w, r)
	case path == usersPrefix && r.Method == http.MethodPost:
		h.Create(w, r)
	case path == usersPrefix+"/export" && r.Method == http.MethodPost:
		h.Export(w, r)
	case strings.HasSuffix(path, "/undo-delete") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, usersPrefix+"/"), "/undo-delete")
		h.UndoDelete(w, r, id)
	case strings.HasSuffix(path, "/reset-password") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, usersPrefix+"/"), "/reset-password")
		h.ResetPassword(w, r, id)
	case strings.HasPrefix(path, usersPrefix+"/"):
		id := strings.TrimPrefix(path, usersPrefix+"/")
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

// List 查询用户列表
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListUsersRequest{
		TenantID:  id.TenantID,
		IsDeleted: parseBoolPtr(r.URL.Query().Get("is_deleted")),
		IsEnabled: parseBoolPtr(r.URL.Query().Get("is_enabled")),
		Search:    r.URL.Query().Get("search"),
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.users.ListUsers(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Get 查询用户详情
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.users.GetUser(r.Context(), id.TenantID, userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Create 创建用户
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.UserPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.users.CreateUser(r.Context(), id.TenantID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Update 更新用户
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.UserPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.users.UpdateUser(r.Context(), id.TenantID, userID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// ResetPassword 重置用户密码为初始密码
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.users.ResetPassword(r.Context(), id.TenantID, userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Delete 逻辑删除用户
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), id.TenantID, userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// UndoDelete 恢复删除
func (h *UsersHandler) UndoDelete(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.users.UndoDeleteUser(r.Context(), id.TenantID, userID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Export 触发用户导出任务
func (h *UsersHandler) Export(w http.ResponseWriter, r *http.Request) {
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
		Model:     string(domain.ModelUser),
		IDList:    body.IDList,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}
