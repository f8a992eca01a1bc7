package httpapi

import (
	"net/http"
	"strings"
	"time"

	"inventory-data/internal/domain"
	"inventory-data/internal/repository"

	"go.uber.org/zap"
)

const tenantsPrefix = "/erp/api/v1/tenants"

// TenantsHandler 租户管理 Handler（平台级，不走租户头）
type TenantsHandler struct {
	repo   repository.TenantsRepository
	logger *zap.Logger
}

// NewTenantsHandler 创建租户 Handler
func NewTenantsHandler(repo repository.TenantsRepository, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{repo: repo, logger: logger}
}

// TenantItem 租户项（前端格式）
type TenantItem struct {
	TenantID   string `json:"tenant_id"`
	Number     string `json:"number"`
	Name       string `json:"name"`
	ExpiryTime string `json:"expiry_time"`
	Expired    bool   `json:"expired"`
	CreateTime string `json:"create_time"`
}

func toTenantItem(t *domain.Tenant) TenantItem {
	return TenantItem{
		TenantID:   t.ID,
		Number:     t.Number,
		Name:       t.Name,
		ExpiryTime: t.ExpiryTime.Format("2006-01-02 15:04:05"),
		Expired:    t.Expired(time.Now()),
		CreateTime: t.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *TenantsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == tenantsPrefix && r.Method == http.MethodPost:
		h.Create(w, r)
	case strings.HasPrefix(path, tenantsPrefix+"/") && r.Method == http.MethodGet:
		id := strings.TrimPrefix(path, tenantsPrefix+"/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Get(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Get 查询租户
func (h *TenantsHandler) Get(w http.ResponseWriter, r *http.Request, tenantID string) {
	t, err := h.repo.GetTenant(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(toTenantItem(t)))
}

// Create 开通租户
func (h *TenantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name       string `json:"name"`
		ExpiryTime string `json:"expiry_time"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeJSON(w, http.StatusOK, Fail("名称不能为空"))
		return
	}
	expiry, err := time.ParseInLocation("2006-01-02 15:04:05", body.ExpiryTime, time.Local)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("到期时间格式错误"))
		return
	}

	tenant := &domain.Tenant{Name: strings.TrimSpace(body.Name), ExpiryTime: expiry}
	id, err := h.repo.CreateTenant(r.Context(), tenant)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	t, err := h.repo.GetTenant(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(toTenantItem(t)))
}
