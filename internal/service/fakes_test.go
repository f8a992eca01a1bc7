package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"inventory-data/internal/domain"
	"inventory-data/internal/repository"
)

// 内存版 Repository，行为与 Postgres 实现的归档/状态机语义对齐

type fakeAccountsRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	seq      int
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountsRepo) GetAccount(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok || a.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAccountsRepo) ListAccounts(ctx context.Context, tenantID string, filter repository.ArchiveFilter, page, size int) ([]*domain.Account, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Account
	for _, a := range r.accounts {
		if a.TenantID != tenantID {
			continue
		}
		if filter.IsDeleted != nil {
			if a.IsDeleted != *filter.IsDeleted {
				continue
			}
		} else if a.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.IsEnabled != nil && a.IsEnabled != *filter.IsEnabled {
			continue
		}
		if filter.Search != "" && !strings.Contains(a.Name, filter.Search) && !strings.Contains(a.Number, filter.Search) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeAccountsRepo) GetAccountsByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Account
	for _, id := range ids {
		if a, ok := r.accounts[id]; ok && a.TenantID == tenantID && !a.IsDeleted {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAccountsRepo) CreateAccount(ctx context.Context, tenantID string, account *domain.Account) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	account.ID = fmt.Sprintf("acct-%d", r.seq)
	account.TenantID = tenantID
	account.Number = fmt.Sprintf("A%03d", r.seq)
	account.CreateTime = time.Now()
	account.UpdateTime = account.CreateTime
	cp := *account
	r.accounts[account.ID] = &cp
	return account.ID, nil
}

func (r *fakeAccountsRepo) UpdateAccount(ctx context.Context, tenantID string, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[account.ID]
	if !ok || stored.TenantID != tenantID || stored.IsDeleted {
		return domain.ErrNotFound
	}
	// 与 SQL UPDATE 的列集合保持一致，编号/创建时间不随更新改变
	stored.Name = account.Name
	stored.Remark = account.Remark
	stored.IsEnabled = account.IsEnabled
	stored.InitialBalanceAmount = account.InitialBalanceAmount
	stored.BalanceAmount = account.BalanceAmount
	stored.ExtensionData = account.ExtensionData
	stored.UpdateTime = time.Now()
	return nil
}

func (r *fakeAccountsRepo) SoftDeleteAccount(ctx context.Context, tenantID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok || a.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if a.IsDeleted {
		return nil // 重复删除不生效也不报错
	}
	now := time.Now()
	a.IsDeleted = true
	a.DeleteTime = &now
	return nil
}

func (r *fakeAccountsRepo) UndoDeleteAccount(ctx context.Context, tenantID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok || a.TenantID != tenantID || !a.IsDeleted {
		return domain.ErrNotFound
	}
	a.IsDeleted = false
	a.DeleteTime = nil
	return nil
}

func (r *fakeAccountsRepo) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.TenantID == tenantID && !a.IsDeleted && a.Name == name && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeExportTasksRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.ExportTask
	seq   int
}

func newFakeExportTasksRepo() *fakeExportTasksRepo {
	return &fakeExportTasksRepo{tasks: make(map[string]*domain.ExportTask)}
}

func (r *fakeExportTasksRepo) GetExportTask(ctx context.Context, tenantID, taskID string) (*domain.ExportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeExportTasksRepo) GetExportTaskByNumber(ctx context.Context, tenantID, number string) (*domain.ExportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.TenantID == tenantID && t.Number == number {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeExportTasksRepo) ListExportTasks(ctx context.Context, tenantID string, model domain.DataModel, creatorID string, page, size int) ([]*domain.ExportTask, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ExportTask
	for _, t := range r.tasks {
		if t.TenantID != tenantID {
			continue
		}
		if model != "" && t.Model != model {
			continue
		}
		if creatorID != "" && t.CreatorID != creatorID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeExportTasksRepo) CreateExportTaskExclusive(ctx context.Context, tenantID string, task *domain.ExportTask) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.TenantID == tenantID && t.Model == task.Model && t.CreatorID == task.CreatorID && t.Status == domain.TaskStatusInProgress {
			return "", domain.Conflictf("当前%s已有进行中的导出任务", task.Model.Display())
		}
	}
	r.seq++
	task.ID = fmt.Sprintf("et-%d", r.seq)
	task.TenantID = tenantID
	task.Status = domain.TaskStatusInProgress
	task.CreateTime = time.Now()
	cp := *task
	r.tasks[task.ID] = &cp
	return task.ID, nil
}

func (r *fakeExportTasksRepo) markExport(tenantID, taskID string, apply func(*domain.ExportTask)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.TenantID != tenantID || t.Status != domain.TaskStatusInProgress {
		return false, nil
	}
	apply(t)
	return true, nil
}

func (r *fakeExportTasksRepo) MarkExportCompleted(ctx context.Context, tenantID, taskID, exportFile string, exportCount, duration int) (bool, error) {
	return r.markExport(tenantID, taskID, func(t *domain.ExportTask) {
		t.Status = domain.TaskStatusCompleted
		t.ExportFile = exportFile
		t.ExportCount = exportCount
		t.Duration = duration
	})
}

func (r *fakeExportTasksRepo) MarkExportFailed(ctx context.Context, tenantID, taskID, errorMessage string, duration int) (bool, error) {
	return r.markExport(tenantID, taskID, func(t *domain.ExportTask) {
		t.Status = domain.TaskStatusFailed
		t.ErrorMessage = errorMessage
		t.Duration = duration
	})
}

func (r *fakeExportTasksRepo) MarkExportCancelled(ctx context.Context, tenantID, taskID string, duration int) (bool, error) {
	return r.markExport(tenantID, taskID, func(t *domain.ExportTask) {
		t.Status = domain.TaskStatusCancelled
		t.Duration = duration
	})
}

func (r *fakeExportTasksRepo) DeleteExportTask(ctx context.Context, tenantID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

func (r *fakeExportTasksRepo) ActiveTaskHoldsRecord(ctx context.Context, tenantID string, model domain.DataModel, recordID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.TenantID != tenantID || t.Model != model || t.Status != domain.TaskStatusInProgress {
			continue
		}
		for _, id := range t.ExportIDList {
			if id == recordID {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeImportTasksRepo struct {
	mu    sync.Mutex
	tasks map[string]*domain.ImportTask
	seq   int
}

func newFakeImportTasksRepo() *fakeImportTasksRepo {
	return &fakeImportTasksRepo{tasks: make(map[string]*domain.ImportTask)}
}

func (r *fakeImportTasksRepo) GetImportTask(ctx context.Context, tenantID, taskID string) (*domain.ImportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeImportTasksRepo) GetImportTaskByNumber(ctx context.Context, tenantID, number string) (*domain.ImportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.TenantID == tenantID && t.Number == number {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeImportTasksRepo) ListImportTasks(ctx context.Context, tenantID string, model domain.DataModel, creatorID string, page, size int) ([]*domain.ImportTask, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ImportTask
	for _, t := range r.tasks {
		if t.TenantID != tenantID {
			continue
		}
		if model != "" && t.Model != model {
			continue
		}
		if creatorID != "" && t.CreatorID != creatorID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeImportTasksRepo) CreateImportTaskExclusive(ctx context.Context, tenantID string, task *domain.ImportTask) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.TenantID == tenantID && t.Model == task.Model && t.CreatorID == task.CreatorID && t.Status == domain.TaskStatusInProgress {
			return "", domain.Conflictf("当前%s已有进行中的导入任务", task.Model.Display())
		}
	}
	r.seq++
	task.ID = fmt.Sprintf("it-%d", r.seq)
	task.TenantID = tenantID
	task.Status = domain.TaskStatusInProgress
	task.CreateTime = time.Now()
	cp := *task
	r.tasks[task.ID] = &cp
	return task.ID, nil
}

func (r *fakeImportTasksRepo) markImport(tenantID, taskID string, apply func(*domain.ImportTask)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.TenantID != tenantID || t.Status != domain.TaskStatusInProgress {
		return false, nil
	}
	apply(t)
	return true, nil
}

func (r *fakeImportTasksRepo) MarkImportCompleted(ctx context.Context, tenantID, taskID string, importCount int, rowErrors []domain.RowError, duration int) (bool, error) {
	return r.markImport(tenantID, taskID, func(t *domain.ImportTask) {
		t.Status = domain.TaskStatusCompleted
		t.ImportCount = importCount
		t.ErrorMessages = rowErrors
		t.Duration = duration
	})
}

func (r *fakeImportTasksRepo) MarkImportFailed(ctx context.Context, tenantID, taskID, errorMessage string, duration int) (bool, error) {
	return r.markImport(tenantID, taskID, func(t *domain.ImportTask) {
		t.Status = domain.TaskStatusFailed
		t.ErrorMessages = []domain.RowError{{Row: 0, Message: errorMessage}}
		t.Duration = duration
	})
}

func (r *fakeImportTasksRepo) MarkImportFailedRows(ctx context.Context, tenantID, taskID string, rowErrors []domain.RowError, duration int) (bool, error) {
	return r.markImport(tenantID, taskID, func(t *domain.ImportTask) {
		t.Status = domain.TaskStatusFailed
		t.ErrorMessages = rowErrors
		t.Duration = duration
	})
}

func (r *fakeImportTasksRepo) MarkImportCancelled(ctx context.Context, tenantID, taskID string, duration int) (bool, error) {
	return r.markImport(tenantID, taskID, func(t *domain.ImportTask) {
		t.Status = domain.TaskStatusCancelled
		t.Duration = duration
	})
}

func (r *fakeImportTasksRepo) DeleteImportTask(ctx context.Context, tenantID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok || t.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(r.tasks, taskID)
	return nil
}

type fakeNotificationsRepo struct {
	mu            sync.Mutex
	notifications map[string]*domain.Notification
	seq           int
}

func newFakeNotificationsRepo() *fakeNotificationsRepo {
	return &fakeNotificationsRepo{notifications: make(map[string]*domain.Notification)}
}

func (r *fakeNotificationsRepo) GetNotification(ctx context.Context, tenantID, notificationID string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[notificationID]
	if !ok || n.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNotificationsRepo) ListNotifications(ctx context.Context, tenantID, notifierID string, isRead *bool, page, size int) ([]*domain.Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for _, n := range r.notifications {
		if n.TenantID != tenantID || n.NotifierID != notifierID {
			continue
		}
		if isRead != nil && n.IsRead != *isRead {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeNotificationsRepo) CreateNotification(ctx context.Context, tenantID string, notification *domain.Notification) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	notification.ID = fmt.Sprintf("ntf-%d", r.seq)
	notification.TenantID = tenantID
	notification.CreateTime = time.Now()
	cp := *notification
	r.notifications[notification.ID] = &cp
	return notification.ID, nil
}

func (r *fakeNotificationsRepo) MarkRead(ctx context.Context, tenantID, notifierID, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[notificationID]
	if !ok || n.TenantID != tenantID || n.NotifierID != notifierID {
		return domain.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *fakeNotificationsRepo) MarkAllRead(ctx context.Context, tenantID, notifierID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.TenantID == tenantID && n.NotifierID == notifierID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationsRepo) DeleteNotification(ctx context.Context, tenantID, notifierID, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[notificationID]
	if !ok || n.TenantID != tenantID || n.NotifierID != notifierID {
		return domain.ErrNotFound
	}
	delete(r.notifications, notificationID)
	return nil
}

func (r *fakeNotificationsRepo) deleteWhere(tenantID, notifierID string, isRead bool) {
	for id, n := range r.notifications {
		if n.TenantID == tenantID && n.NotifierID == notifierID && n.IsRead == isRead {
			delete(r.notifications, id)
		}
	}
}

func (r *fakeNotificationsRepo) DeleteRead(ctx context.Context, tenantID, notifierID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteWhere(tenantID, notifierID, true)
	return nil
}

func (r *fakeNotificationsRepo) DeleteUnread(ctx context.Context, tenantID, notifierID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteWhere(tenantID, notifierID, false)
	return nil
}

func (r *fakeNotificationsRepo) UnreadCount(ctx context.Context, tenantID, notifierID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.TenantID == tenantID && n.NotifierID == notifierID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type fakeErrorLogsRepo struct {
	mu   sync.Mutex
	logs []*domain.ErrorLog
}

func newFakeErrorLogsRepo() *fakeErrorLogsRepo { return &fakeErrorLogsRepo{} }

func (r *fakeErrorLogsRepo) CreateErrorLog(ctx context.Context, tenantID string, log *domain.ErrorLog) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = fmt.Sprintf("el-%d", len(r.logs)+1)
	log.TenantID = tenantID
	log.CreateTime = time.Now()
	cp := *log
	r.logs = append(r.logs, &cp)
	return log.ID, nil
}

func (r *fakeErrorLogsRepo) ListErrorLogs(ctx context.Context, tenantID, module string, page, size int) ([]*domain.ErrorLog, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ErrorLog
	for _, l := range r.logs {
		if l.TenantID != tenantID {
			continue
		}
		if module != "" && l.Module != module {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, len(out), nil
}

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUsersRepo) GetUser(ctx context.Context, tenantID, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) GetUserByUsername(ctx context.Context, tenantID, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TenantID == tenantID && u.Username == username && !u.IsDeleted {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUsersRepo) ListUsers(ctx context.Context, tenantID string, filter repository.ArchiveFilter, page, size int) ([]*domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.TenantID != tenantID {
			continue
		}
		if filter.IsDeleted != nil {
			if u.IsDeleted != *filter.IsDeleted {
				continue
			}
		} else if u.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeUsersRepo) GetUsersByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok && u.TenantID == tenantID && !u.IsDeleted {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUsersRepo) CreateUser(ctx context.Context, tenantID string, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.TenantID = tenantID
	user.Number = fmt.Sprintf("U%03d", r.seq)
	user.CreateTime = time.Now()
	user.UpdateTime = user.CreateTime
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUsersRepo) UpdateUser(ctx context.Context, tenantID string, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[user.ID]
	if !ok || stored.TenantID != tenantID || stored.IsDeleted {
		return domain.ErrNotFound
	}
	cp := *user
	cp.TenantID = tenantID
	cp.Username = stored.Username // username 不可修改
	cp.Password = stored.Password
	cp.UpdateTime = time.Now()
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUsersRepo) UpdatePassword(ctx context.Context, tenantID, userID, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.TenantID != tenantID || u.IsDeleted {
		return domain.ErrNotFound
	}
	u.Password = password
	return nil
}

func (r *fakeUsersRepo) SoftDeleteUser(ctx context.Context, tenantID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if u.IsDeleted {
		return nil
	}
	now := time.Now()
	u.IsDeleted = true
	u.DeleteTime = &now
	return nil
}

func (r *fakeUsersRepo) UndoDeleteUser(ctx context.Context, tenantID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.TenantID != tenantID || !u.IsDeleted {
		return domain.ErrNotFound
	}
	u.IsDeleted = false
	u.DeleteTime = nil
	return nil
}

func (r *fakeUsersRepo) ExistsActiveUsername(ctx context.Context, tenantID, username, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TenantID == tenantID && !u.IsDeleted && u.Username == username && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUsersRepo) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TenantID == tenantID && !u.IsDeleted && u.Name == name && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeRolesRepo struct {
	mu    sync.Mutex
	roles map[string]*domain.Role
	seq   int
}

func newFakeRolesRepo() *fakeRolesRepo {
	return &fakeRolesRepo{roles: make(map[string]*domain.Role)}
}

func (r *fakeRolesRepo) GetRole(ctx context.Context, tenantID, roleID string) (*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[roleID]
	if !ok || role.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *fakeRolesRepo) GetRolesByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Role
	for _, id := range ids {
		if role, ok := r.roles[id]; ok && role.TenantID == tenantID {
			cp := *role
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRolesRepo) ListRoles(ctx context.Context, tenantID string, page, size int) ([]*domain.Role, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Role
	for _, role := range r.roles {
		if role.TenantID == tenantID {
			cp := *role
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *fakeRolesRepo) CreateRole(ctx context.Context, tenantID string, role *domain.Role) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	role.ID = fmt.Sprintf("role-%d", r.seq)
	role.TenantID = tenantID
	role.CreateTime = time.Now()
	cp := *role
	r.roles[role.ID] = &cp
	return role.ID, nil
}

func (r *fakeRolesRepo) UpdateRole(ctx context.Context, tenantID string, role *domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.roles[role.ID]
	if !ok || stored.TenantID != tenantID {
		return domain.ErrNotFound
	}
	cp := *role
	cp.TenantID = tenantID
	r.roles[role.ID] = &cp
	return nil
}

func (r *fakeRolesRepo) DeleteRole(ctx context.Context, tenantID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[roleID]
	if !ok || role.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(r.roles, roleID)
	return nil
}

func (r *fakeRolesRepo) ExistsName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if role.TenantID == tenantID && role.Name == name && role.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeWarehousesRepo struct {
	mu         sync.Mutex
	warehouses map[string]*domain.Warehouse
	seq        int
}

func newFakeWarehousesRepo() *fakeWarehousesRepo {
	return &fakeWarehousesRepo{warehouses: make(map[string]*domain.Warehouse)}
}

func (r *fakeWarehousesRepo) GetWarehouse(ctx context.Context, tenantID, warehouseID string) (*domain.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[warehouseID]
	if !ok || w.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWarehousesRepo) ListWarehouses(ctx context.Context, tenantID string, filter repository.ArchiveFilter, page, size int) ([]*domain.Warehouse, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Warehouse
	for _, w := range r.warehouses {
		if w.TenantID != tenantID {
			continue
		}
		if filter.IsDeleted != nil {
			if w.IsDeleted != *filter.IsDeleted {
				continue
			}
		} else if w.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		cp := *w
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (r *fakeWarehousesRepo) GetWarehousesByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Warehouse
	for _, id := range ids {
		if w, ok := r.warehouses[id]; ok && w.TenantID == tenantID && !w.IsDeleted {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeWarehousesRepo) CreateWarehouse(ctx context.Context, tenantID string, warehouse *domain.Warehouse) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	warehouse.ID = fmt.Sprintf("wh-%d", r.seq)
	warehouse.TenantID = tenantID
	warehouse.Number = fmt.Sprintf("W%03d", r.seq)
	warehouse.CreateTime = time.Now()
	warehouse.UpdateTime = warehouse.CreateTime
	cp := *warehouse
	r.warehouses[warehouse.ID] = &cp
	return warehouse.ID, nil
}

func (r *fakeWarehousesRepo) UpdateWarehouse(ctx context.Context, tenantID string, warehouse *domain.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.warehouses[warehouse.ID]
	if !ok || stored.TenantID != tenantID || stored.IsDeleted {
		return domain.ErrNotFound
	}
	cp := *warehouse
	cp.TenantID = tenantID
	r.warehouses[warehouse.ID] = &cp
	return nil
}

func (r *fakeWarehousesRepo) SetLocked(ctx context.Context, tenantID, warehouseID string, locked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[warehouseID]
	if !ok || w.TenantID != tenantID || w.IsDeleted {
		return domain.ErrNotFound
	}
	w.IsLocked = locked
	return nil
}

func (r *fakeWarehousesRepo) SoftDeleteWarehouse(ctx context.Context, tenantID, warehouseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[warehouseID]
	if !ok || w.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if w.IsDeleted {
		return nil
	}
	now := time.Now()
	w.IsDeleted = true
	w.DeleteTime = &now
	return nil
}

func (r *fakeWarehousesRepo) UndoDeleteWarehouse(ctx context.Context, tenantID, warehouseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.warehouses[warehouseID]
	if !ok || w.TenantID != tenantID || !w.IsDeleted {
		return domain.ErrNotFound
	}
	w.IsDeleted = false
	w.DeleteTime = nil
	return nil
}

func (r *fakeWarehousesRepo) ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.warehouses {
		if w.TenantID == tenantID && !w.IsDeleted && w.Name == name && w.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// noFieldsProvider 没有任何自定义字段的 SchemaProvider
type noFieldsProvider struct{}

func (noFieldsProvider) ActiveFields(ctx context.Context, tenantID string, model domain.DataModel) ([]*domain.ModelField, error) {
	return nil, nil
}

// capturePublisher 捕获发布帧的 Publisher
type capturePublisher struct {
	mu       sync.Mutex
	messages []capturedMessage
}

type capturedMessage struct {
	Channel string
	Payload any
}

func (p *capturePublisher) Publish(ctx context.Context, channel string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, capturedMessage{Channel: channel, Payload: payload})
	return nil
}

func (p *capturePublisher) byChannel(channel string) []capturedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []capturedMessage
	for _, m := range p.messages {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}
