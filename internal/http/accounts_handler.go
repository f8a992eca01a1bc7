package httpapi

import (
	"net/http"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/service"

	"go.uber.org/zap"
)

const accountsPrefix = "/erp/api/v1/accounts"

// AccountsHandler 结算账户管理 Handler
type AccountsHandler struct {
	accounts *service.AccountService
	tasks    *service.TaskService
	logger   *zap.Logger
}

// NewAccountsHandler 创建结算账户 Handler
func NewAccountsHandler(accounts *service.AccountService, tasks *service.TaskService, logger *zap.Logger) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, tasks: tasks, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *AccountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == accountsPrefix && r.Method == http.MethodGet:
		h.List(w, r)
	case path == accountsPrefix && r.Method == http.MethodPost:
		h.Create(w, r)
	case path == accountsPrefix+"/export" && r.Method == http.MethodPost:
		h.Export(w, r)
	case strings.HasSuffix(path, "/undo-delete") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, accountsPrefix+"/"), "/undo-delete")
		h.UndoDelete(w, r, id)
	case strings.HasPrefix(path, accountsPrefix+"/"):
		id := strings.TrimPrefix(path, accountsPrefix+"/")
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

// List 查询账户列表
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListAccountsRequest{
		TenantID:  id.TenantID,
		IsDeleted: parseBoolPtr(r.URL.Query().Get("is_deleted")),
		IsEnabled: parseBoolPtr(r.URL.Query().Get("is_enabled")),
		Search:    r.URL.Query().Get("search"),
		Page:      parseInt(r.URL.Query().Get("page"), 1),
		Size:      parseInt(r.URL.Query().Get("size"), 20),
	}
	resp, err := h.accounts.ListAccounts(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Get 查询账户详情
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request, accountID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	item, err := h.accounts.GetAccount(r.Context(), id.TenantID, accountID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Create 创建账户
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var req service.CreateAccountRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.TenantID = id.TenantID

	item, err := h.accounts.CreateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Update 更新账户
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request, accountID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	var req service.UpdateAccountRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	req.TenantID = id.TenantID
	req.AccountID = accountID

	item, err := h.accounts.UpdateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// Delete 逻辑删除账户
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request, accountID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), id.TenantID, accountID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// UndoDelete 恢复删除
func (h *AccountsHandler) UndoDelete(w http.ResponseWriter, r *http.Request, accountID string) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}

	if err := h.accounts.UndoDeleteAccount(r.Context(), id.TenantID, accountID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(any(nil)))
}

// Export 触发账户导出任务
func (h *AccountsHandler) Export(w http.ResponseWriter, r *http.Request) {
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
		Model:     string(domain.ModelAccount),
		IDList:    body.IDList,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}
