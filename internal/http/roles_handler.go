package httpapi

import (
	"net/http"
	"strings"

	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const rolesPrefix = "/erp/api/v1/roles"

// RolesHandler 角色管理 Handler
// 角色是硬删除资源，没有恢复和导出接口
type RolesHandler struct {
	roles  *service.RoleService
	logger *zap.Logger
}

// NewRolesHandler 创建角色 Handler
func NewRolesHandler(roles *service.RoleService, logger *zap.Logger) *RolesHandler {
	return &RolesHandler{roles: roles, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *RolesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == rolesPrefix && r.Method == http.MethodGet:
		h.List(w, r)
	case path == rolesPrefix && r.Method == http.MethodPost:
		h.Create(w, r)
	case strings.HasPrefix(path, rolesPrefix+"/"):
		id := strings.TrimPrefix(path, rolesPrefix+"/")
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

// List 查询角色列表
func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	page := parseInt(r.URL.Query().Get("page"), 1)
	size := parseInt(r.URL.Query().Get("size"), 20)
	resp, err := h.roles.ListRoles(r.Context(), id.TenantID, page, size)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Get 查询角色详情
func (h *RolesHandler) Get(w http.ResponseWriter, r *http.Request, roleID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.roles.GetRole(r.Context(), id.TenantID, roleID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Create 创建角色
func (h *RolesHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.RolePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.roles.CreateRole(r.Context(), id.TenantID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Update 更新角色
func (h *RolesHandler) Update(w http.ResponseWriter, r *http.Request, roleID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var payload service.RolePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	item, err := h.roles.UpdateRole(r.Context(), id.TenantID, roleID, payload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Delete 删除角色
func (h *RolesHandler) Delete(w http.ResponseWriter, r *http.Request, roleID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.roles.DeleteRole(r.Context(), id.TenantID, roleID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}
