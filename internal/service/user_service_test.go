package service

import (
	"context"
	"testing"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserFixture() (*UserService, *fakeUsersRepo, *fakeRolesRepo, *fakeWarehousesRepo, *fakeExportTasksRepo) {
	users := newFakeUsersRepo()
	roles := newFakeRolesRepo()
	warehouses := newFakeWarehousesRepo()
	exports := newFakeExportTasksRepo()
	svc := NewUserService(users, roles, warehouses, exports, fieldconf.NewEngine(noFieldsProvider{}), zap.NewNop())
	return svc, users, roles, warehouses, exports
}

func TestUserService_CreatePermissionAggregation(t *testing.T) {
	ctx := context.Background()
	svc, _, roles, warehouses, _ := newUserFixture()

	saleID, err := roles.CreateRole(ctx, testTenant, &domain.Role{
		Name: "销售", Permissions: []string{"client.read", "client.write"},
	})
	require.NoError(t, err)
	stockID, err := roles.CreateRole(ctx, testTenant, &domain.Role{
		Name: "库管", Permissions: []string{"warehouse.read", "client.read"},
	})
	require.NoError(t, err)
	whID, err := warehouses.CreateWarehouse(ctx, testTenant, &domain.Warehouse{Name: "一号仓", IsEnabled: true})
	require.NoError(t, err)

	item, err := svc.CreateUser(ctx, testTenant, UserPayload{
		Username:     "zhangsan",
		Name:         "张三",
		WarehouseIDs: []string{whID},
		RoleIDs:      []string{saleID, stockID},
	})
	require.NoError(t, err)
	require.Equal(t, "U001", item.Number)
	// 权限按角色汇总，去重后排序
	require.Equal(t, []string{"client.read", "client.write", "warehouse.read"}, item.Permissions)

	// 初始密码与用户名相同，存储为带盐摘要
	stored, err := svc.repo.GetUser(ctx, testTenant, item.UserID)
	require.NoError(t, err)
	require.NotEqual(t, "zhangsan", stored.Password)
	require.True(t, CheckPassword(stored.Password, "zhangsan"))

	// 不存在的角色被拒绝
	_, err = svc.CreateUser(ctx, testTenant, UserPayload{
		Username: "lisi", Name: "李四", RoleIDs: []string{"role-missing"},
	})
	require.True(t, domain.IsValidation(err))
	require.EqualError(t, err, "角色不存在")

	// 不存在的仓库被拒绝
	_, err = svc.CreateUser(ctx, testTenant, UserPayload{
		Username: "lisi", Name: "李四", WarehouseIDs: []string{"wh-missing"},
	})
	require.True(t, domain.IsValidation(err))
	require.EqualError(t, err, "仓库不存在")
}

func TestUserService_ManagerRules(t *testing.T) {
	ctx := context.Background()
	svc, users, roles, _, _ := newUserFixture()

	managerID, err := users.CreateUser(ctx, testTenant, &domain.User{
		Username: "admin", Name: "管理员", IsManager: true, IsEnabled: true,
	})
	require.NoError(t, err)
	roleID, err := roles.CreateRole(ctx, testTenant, &domain.Role{Name: "销售", Permissions: []string{"client.read"}})
	require.NoError(t, err)

	// 管理员更新时忽略仓库/角色/禁用，强制保持启用
	disabled := false
	item, err := svc.UpdateUser(ctx, testTenant, managerID, UserPayload{
		Name:      "管理员",
		RoleIDs:   []string{roleID},
		IsEnabled: &disabled,
	})
	require.NoError(t, err)
	require.Empty(t, item.RoleIDs)
	require.Empty(t, item.Permissions)
	require.True(t, item.IsEnabled)

	// 管理员不允许删除
	err = svc.DeleteUser(ctx, testTenant, managerID)
	require.True(t, domain.IsConflict(err))
	require.EqualError(t, err, "管理员用户不允许删除")
}

func TestUserService_UndoDeleteChecksBothNaturalKeys(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newUserFixture()

	first, err := svc.CreateUser(ctx, testTenant, UserPayload{Username: "wangwu", Name: "王五"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteUser(ctx, testTenant, first.UserID))

	// 占用用户名后无法恢复
	_, err = svc.CreateUser(ctx, testTenant, UserPayload{Username: "wangwu", Name: "王五二号"})
	require.NoError(t, err)
	err = svc.UndoDeleteUser(ctx, testTenant, first.UserID)
	require.True(t, domain.IsValidation(err))
}

func TestUserService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _, _ := newUserFixture()

	item, err := svc.CreateUser(ctx, testTenant, UserPayload{Username: "zhaoliu", Name: "赵六"})
	require.NoError(t, err)

	// 改掉密码后重置应回到初始密码
	changed, err := HashPassword("changed")
	require.NoError(t, err)
	require.NoError(t, users.UpdatePassword(ctx, testTenant, item.UserID, changed))
	require.NoError(t, svc.ResetPassword(ctx, testTenant, item.UserID))

	stored, err := users.GetUser(ctx, testTenant, item.UserID)
	require.NoError(t, err)
	require.False(t, CheckPassword(stored.Password, "changed"))
	require.True(t, CheckPassword(stored.Password, "zhaoliu"))
}
