package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"inventory-data/internal/domain"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBoolPtr(s string) *bool {
	switch s {
	case "true", "1":
		b := true
		return &b
	case "false", "0":
		b := false
		return &b
	}
	return nil
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// identity 请求身份，由平台网关在转发时注入头部
type identity struct {
	TenantID string
	UserID   string
}

func identityFromReq(w http.ResponseWriter, r *http.Request) (identity, bool) {
	id := identity{
		TenantID: r.Header.Get("X-Tenant-ID"),
		UserID:   r.Header.Get("X-User-ID"),
	}
	if id.TenantID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("missing X-Tenant-ID"))
		return identity{}, false
	}
	return id, true
}

// writeServiceError 服务层错误统一落到响应信封
// 业务错误（校验/冲突/不存在）消息直接透给前端；其它错误只记日志不泄露细节
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case domain.IsValidation(err), domain.IsConflict(err), domain.IsNotFound(err):
		writeJSON(w, http.StatusOK, Fail(err.Error()))
	default:
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("服务器内部错误"))
	}
}
