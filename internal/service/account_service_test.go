package service

import (
	"context"
	"testing"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTenant = "tenant-1"

func newAccountService(repo *fakeAccountsRepo, exports *fakeExportTasksRepo) *AccountService {
	return NewAccountService(repo, exports, fieldconf.NewEngine(noFieldsProvider{}), zap.NewNop())
}

func TestAccountService_Create(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountsRepo()
	svc := newAccountService(repo, newFakeExportTasksRepo())

	item, err := svc.CreateAccount(ctx, CreateAccountRequest{
		TenantID:             testTenant,
		Name:                 "现金账户",
		InitialBalanceAmount: 1000,
	})
	require.NoError(t, err)
	require.Equal(t, "A001", item.Number)
	require.True(t, item.IsEnabled) // 未指定时默认启用
	require.Equal(t, float64(1000), item.BalanceAmount)

	_, err = svc.CreateAccount(ctx, CreateAccountRequest{TenantID: testTenant, Name: "现金账户"})
	require.True(t, domain.IsValidation(err))
	require.EqualError(t, err, "名称 现金账户 已存在")

	_, err = svc.CreateAccount(ctx, CreateAccountRequest{TenantID: testTenant, Name: "   "})
	require.True(t, domain.IsValidation(err))
}

func TestAccountService_UpdateAdjustsBalance(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountsRepo()
	svc := newAccountService(repo, newFakeExportTasksRepo())

	item, err := svc.CreateAccount(ctx, CreateAccountRequest{
		TenantID:             testTenant,
		Name:                 "银行账户",
		InitialBalanceAmount: 500,
	})
	require.NoError(t, err)

	// 模拟业务发生后的余额变动
	account, err := repo.GetAccount(ctx, testTenant, item.AccountID)
	require.NoError(t, err)
	account.BalanceAmount = 800
	require.NoError(t, repo.UpdateAccount(ctx, testTenant, account))

	// 期初余额 500 -> 700，当前余额应同步 +200
	newInitial := float64(700)
	updated, err := svc.UpdateAccount(ctx, UpdateAccountRequest{
		TenantID:             testTenant,
		AccountID:            item.AccountID,
		Name:                 "银行账户",
		InitialBalanceAmount: &newInitial,
	})
	require.NoError(t, err)
	require.Equal(t, float64(700), updated.InitialBalanceAmount)
	require.Equal(t, float64(1000), updated.BalanceAmount)

	// 调整后的余额必须落库，重新读取与响应一致
	got, err := svc.GetAccount(ctx, testTenant, item.AccountID)
	require.NoError(t, err)
	require.Equal(t, float64(700), got.InitialBalanceAmount)
	require.Equal(t, float64(1000), got.BalanceAmount)
}

func TestAccountService_DeleteUndoDelete(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountsRepo()
	svc := newAccountService(repo, newFakeExportTasksRepo())

	item, err := svc.CreateAccount(ctx, CreateAccountRequest{TenantID: testTenant, Name: "备用金"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, testTenant, item.AccountID))
	// 重复删除是无操作
	require.NoError(t, svc.DeleteAccount(ctx, testTenant, item.AccountID))

	// 删除后同名可以重建，两行共存
	again, err := svc.CreateAccount(ctx, CreateAccountRequest{TenantID: testTenant, Name: "备用金"})
	require.NoError(t, err)
	require.NotEqual(t, item.AccountID, again.AccountID)

	// 活跃行占用名称时不允许恢复
	err = svc.UndoDeleteAccount(ctx, testTenant, item.AccountID)
	require.True(t, domain.IsValidation(err))
	require.EqualError(t, err, "名称 备用金 已存在，无法恢复")

	// 腾出名称后恢复成功，且保留原编号
	require.NoError(t, svc.DeleteAccount(ctx, testTenant, again.AccountID))
	require.NoError(t, svc.UndoDeleteAccount(ctx, testTenant, item.AccountID))
	restored, err := svc.GetAccount(ctx, testTenant, item.AccountID)
	require.NoError(t, err)
	require.False(t, restored.IsDeleted)
	require.Equal(t, item.Number, restored.Number)

	// 未删除的行不能恢复
	err = svc.UndoDeleteAccount(ctx, testTenant, item.AccountID)
	require.True(t, domain.IsConflict(err))
}

func TestAccountService_DeleteBlockedByActiveExport(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountsRepo()
	exports := newFakeExportTasksRepo()
	svc := newAccountService(repo, exports)

	item, err := svc.CreateAccount(ctx, CreateAccountRequest{TenantID: testTenant, Name: "工资账户"})
	require.NoError(t, err)

	_, err = exports.CreateExportTaskExclusive(ctx, testTenant, &domain.ExportTask{
		Number:       "EX20260901-120000-0001",
		Model:        domain.ModelAccount,
		ExportIDList: []string{item.AccountID},
		CreatorID:    "user-1",
	})
	require.NoError(t, err)

	err = svc.DeleteAccount(ctx, testTenant, item.AccountID)
	require.True(t, domain.IsConflict(err))
	require.EqualError(t, err, "该账户有进行中的导出任务，暂不能删除")
}

func TestAccountService_UpdateDeletedNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountsRepo()
	svc := newAccountService(repo, newFakeExportTasksRepo())

	item, err := svc.CreateAccount(ctx, CreateAccountRequest{TenantID: testTenant, Name: "过期账户"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAccount(ctx, testTenant, item.AccountID))

	_, err = svc.UpdateAccount(ctx, UpdateAccountRequest{
		TenantID:  testTenant,
		AccountID: item.AccountID,
		Name:      "过期账户",
	})
	require.True(t, domain.IsNotFound(err))
}
