package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"
	"inventory-data/internal/repository"
	"inventory-data/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 内存版账户 Repository，覆盖 Handler 测试用到的路径
type stubAccountsRepo struct {
	accounts map[string]*domain.Account
	seq      int
}

func newStubAccountsRepo() *stubAccountsRepo {
	return &stubAccountsRepo{accounts: make(map[string]*domain.Account)}
}

func (r *stubAccountsRepo) GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	a, ok := r.accounts[accountID]
	if !ok || a.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (r *stubAccountsRepo) ListAccounts(ctx context.Context, tenantID string, filter repository.ArchiveFilter, page, size int) ([]*domain.Account, int, error) {
	var out []*domain.Account
	for _, a := range r.accounts {
		if a.TenantID == tenantID && !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (r *stubAccountsRepo) GetAccountsByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Account, error) {
	return nil, nil
}

func (r *stubAccountsRepo) CreateAccount(ctx context.Context, tenantID string, account *domain.Account) (string, error) {
	r.seq++
	account.ID = fmt.Sprintf("acct-%d", r.seq)
	account.TenantID = tenantID
	account.Number = fmt.Sprintf("A%03d", r.seq)
	account.CreateTime = time.Now()
	account.UpdateTime = account.CreateTime
	r.accounts[account.ID] = account
	return account.ID, nil
}

func (r *stubAccountsRepo) UpdateAccount(ctx context.Context, tenantID string, account *domain.Account) error {
	return nil
}

func (r *stubAccountsRepo) SoftDeleteAccount(ctx context.Context, tenantID, accountID string) error {
	a, ok := r.accounts[accountID]
	if !ok || a.TenantID != tenantID {
		return domain.ErrNotFound
	}
	a.IsDeleted = true
	return nil
}

func (r *stubAccountsRepo) UndoDeleteAccount(ctx context.Context, tenantID, accountID string) error {
	return nil
}

func (r *stubAccountsRepo) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	for _, a := range r.accounts {
		if a.TenantID == tenantID && !a.IsDeleted && a.Name == name && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// 没有任何进行中任务的导出任务 Repository
type stubExportTasksRepo struct{}

func (stubExportTasksRepo) GetExportTask(ctx context.Context, tenantID, taskID string) (*domain.ExportTask, error) {
	return nil, domain.ErrNotFound
}

func (stubExportTasksRepo) GetExportTaskByNumber(ctx context.Context, tenantID, number string) (*domain.ExportTask, error) {
	return nil, domain.ErrNotFound
}

func (stubExportTasksRepo) ListExportTasks(ctx context.Context, tenantID string, model domain.DataModel, creatorID string, page, size int) ([]*domain.ExportTask, int, error) {
	return nil, 0, nil
}

func (stubExportTasksRepo) CreateExportTaskExclusive(ctx context.Context, tenantID string, task *domain.ExportTask) (string, error) {
	return "", domain.Conflictf("not supported")
}

func (stubExportTasksRepo) MarkExportCompleted(ctx context.Context, tenantID, taskID, exportFile string, exportCount, duration int) (bool, error) {
	return false, nil
}

func (stubExportTasksRepo) MarkExportFailed(ctx context.Context, tenantID, taskID, errorMessage string, duration int) (bool, error) {
	return false, nil
}

func (stubExportTasksRepo) MarkExportCancelled(ctx context.Context, tenantID, taskID string, duration int) (bool, error) {
	return false, nil
}

func (stubExportTasksRepo) DeleteExportTask(ctx context.Context, tenantID, taskID string) error {
	return domain.ErrNotFound
}

func (stubExportTasksRepo) ActiveTaskHoldsRecord(ctx context.Context, tenantID string, model domain.DataModel, recordID string) (bool, error) {
	return false, nil
}

type emptyProvider struct{}

func (emptyProvider) ActiveFields(ctx context.Context, tenantID string, model domain.DataModel) ([]*domain.ModelField, error) {
	return nil, nil
}

func newTestAccountsHandler() (*AccountsHandler, *stubAccountsRepo) {
	repo := newStubAccountsRepo()
	logger := zap.NewNop()
	svc := service.NewAccountService(repo, stubExportTasksRepo{}, fieldconf.NewEngine(emptyProvider{}), logger)
	return NewAccountsHandler(svc, nil, logger), repo
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func tenantHeaders() map[string]string {
	return map[string]string{"X-Tenant-ID": "tenant-1", "X-User-ID": "user-1"}
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Result[json.RawMessage] {
	t.Helper()
	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestAccountsHandler_RequiresTenantHeader(t *testing.T) {
	h, _ := newTestAccountsHandler()

	rec := doJSON(t, h, http.MethodGet, "/erp/api/v1/accounts", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeResult(t, rec)
	require.Equal(t, ResultError, res.Code)
}

func TestAccountsHandler_CreateGetList(t *testing.T) {
	h, _ := newTestAccountsHandler()

	rec := doJSON(t, h, http.MethodPost, "/erp/api/v1/accounts",
		`{"name":"现金账户","initial_balance_amount":100}`, tenantHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	require.Equal(t, ResultSuccess, res.Code)

	var created service.AccountItem
	require.NoError(t, json.Unmarshal(res.Result, &created))
	require.Equal(t, "A001", created.Number)

	rec = doJSON(t, h, http.MethodGet, "/erp/api/v1/accounts/"+created.AccountID, "", tenantHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, ResultSuccess, decodeResult(t, rec).Code)

	rec = doJSON(t, h, http.MethodGet, "/erp/api/v1/accounts", "", tenantHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	var list Result[service.ListAccountsResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Result.Total)

	// 同名重复创建返回业务错误信封
	rec = doJSON(t, h, http.MethodPost, "/erp/api/v1/accounts",
		`{"name":"现金账户"}`, tenantHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	require.Equal(t, ResultError, res.Code)
	require.Equal(t, "名称 现金账户 已存在", res.Message)
}

func TestAccountsHandler_NotFoundAndMethods(t *testing.T) {
	h, _ := newTestAccountsHandler()

	rec := doJSON(t, h, http.MethodGet, "/erp/api/v1/accounts/missing", "", tenantHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	require.Equal(t, ResultError, res.Code)
	require.Equal(t, "记录不存在", res.Message)

	rec = doJSON(t, h, http.MethodPatch, "/erp/api/v1/accounts/some-id", "", tenantHeaders())
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
