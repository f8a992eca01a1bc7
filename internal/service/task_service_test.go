package service

import (
	"context"
	"testing"
	"time"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"
	"inventory-data/internal/notify"
	"inventory-data/internal/repository"
	"inventory-data/internal/task"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type taskFixture struct {
	svc           *TaskService
	accounts      *fakeAccountsRepo
	exports       *fakeExportTasksRepo
	imports       *fakeImportTasksRepo
	notifications *fakeNotificationsRepo
	publisher     *capturePublisher
	files         *task.FileStore
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	accounts := newFakeAccountsRepo()
	exports := newFakeExportTasksRepo()
	imports := newFakeImportTasksRepo()
	notifications := newFakeNotificationsRepo()
	errorLogs := newFakeErrorLogsRepo()
	publisher := &capturePublisher{}

	logger := zap.NewNop()
	engine := fieldconf.NewEngine(noFieldsProvider{})
	notifier := notify.NewNotifier(publisher, logger)
	files, err := task.NewFileStore(t.TempDir())
	require.NoError(t, err)

	exportWorker := task.NewExportWorker(exports, notifications, errorLogs, engine, notifier, files, logger)
	importWorker := task.NewImportWorker(imports, notifications, errorLogs, notifier, files, logger)
	exporters := task.NewExporterRegistry(task.NewAccountExporter(accounts))
	importers := task.NewImporterRegistry(task.NewAccountImporter(accounts, engine))

	runner := task.NewRunner(2, 8, logger)
	runner.Start()
	t.Cleanup(runner.Stop)

	svc := NewTaskService(exports, imports, runner, exporters, importers, exportWorker, importWorker, files, logger)
	return &taskFixture{
		svc:           svc,
		accounts:      accounts,
		exports:       exports,
		imports:       imports,
		notifications: notifications,
		publisher:     publisher,
		files:         files,
	}
}

func waitExportTerminal(t *testing.T, f *taskFixture, taskID string) *ExportTaskItem {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		item, err := f.svc.GetExportTask(context.Background(), testTenant, taskID)
		require.NoError(t, err)
		if domain.TaskStatus(item.Status).Terminal() {
			return item
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("导出任务未在限期内结束")
	return nil
}

func waitImportTerminal(t *testing.T, f *taskFixture, taskID string) *ImportTaskItem {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		item, err := f.svc.GetImportTask(context.Background(), testTenant, taskID)
		require.NoError(t, err)
		if domain.TaskStatus(item.Status).Terminal() {
			return item
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("导入任务未在限期内结束")
	return nil
}

func TestTaskService_ExportEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	var ids []string
	for _, name := range []string{"现金账户", "银行账户"} {
		id, err := f.accounts.CreateAccount(ctx, testTenant, &domain.Account{Name: name, IsEnabled: true})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	item, err := f.svc.CreateExportTask(ctx, CreateExportTaskRequest{
		TenantID:  testTenant,
		CreatorID: "user-1",
		Model:     string(domain.ModelAccount),
		IDList:    ids,
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.TaskStatusInProgress), item.Status)

	done := waitExportTerminal(t, f, item.TaskID)
	require.Equal(t, string(domain.TaskStatusCompleted), done.Status)
	require.Equal(t, 2, done.ExportCount)
	require.NotEmpty(t, done.ExportFile)

	// 产物可下载且是合法工作簿
	att, err := f.svc.DownloadExportFile(ctx, testTenant, item.TaskID)
	require.NoError(t, err)
	defer att.Content.Close()
	wb, err := excelize.OpenReader(att.Content)
	require.NoError(t, err)
	rows, err := wb.GetRows(domain.ModelAccount.Display())
	require.NoError(t, err)
	require.Len(t, rows, 3) // 表头 + 2 行数据
	require.NoError(t, wb.Close())

	// 恰好一条带附件的成功通知
	ntfs, _, err := f.notifications.ListNotifications(ctx, testTenant, "user-1", nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, ntfs, 1)
	require.Equal(t, domain.NotificationSuccess, ntfs[0].Type)
	require.True(t, ntfs[0].HasAttachment)
	require.Equal(t, done.ExportFile, ntfs[0].AttachmentName)

	// 进度帧推送到 export_task.{userID}，通知帧推送到 notification.{userID}
	require.NotEmpty(t, f.publisher.byChannel("export_task.user-1"))
	require.Len(t, f.publisher.byChannel("notification.user-1"), 1)
}

func TestTaskService_ExportExclusivePerModelAndCreator(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	acctID, err := f.accounts.CreateAccount(ctx, testTenant, &domain.Account{Name: "现金账户", IsEnabled: true})
	require.NoError(t, err)

	_, err = f.exports.CreateExportTaskExclusive(ctx, testTenant, &domain.ExportTask{
		Number:       "EX20260901-100000-0001",
		Model:        domain.ModelAccount,
		ExportIDList: []string{acctID},
		CreatorID:    "user-1",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateExportTask(ctx, CreateExportTaskRequest{
		TenantID:  testTenant,
		CreatorID: "user-1",
		Model:     string(domain.ModelAccount),
		IDList:    []string{acctID},
	})
	require.True(t, domain.IsConflict(err))
}

func TestTaskService_CreateExportValidation(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	_, err := f.svc.CreateExportTask(ctx, CreateExportTaskRequest{
		TenantID: testTenant, CreatorID: "user-1", Model: "unknown", IDList: []string{"x"},
	})
	require.True(t, domain.IsValidation(err))

	_, err = f.svc.CreateExportTask(ctx, CreateExportTaskRequest{
		TenantID: testTenant, CreatorID: "user-1", Model: string(domain.ModelAccount),
	})
	require.True(t, domain.IsValidation(err))
	require.EqualError(t, err, "请选择要导出的记录")

	// 注册表之外的模型不支持导出
	_, err = f.svc.CreateExportTask(ctx, CreateExportTaskRequest{
		TenantID: testTenant, CreatorID: "user-1", Model: string(domain.ModelSupplier), IDList: []string{"x"},
	})
	require.True(t, domain.IsValidation(err))

	// 选中的 id 全部不存在
	_, err = f.svc.CreateExportTask(ctx, CreateExportTaskRequest{
		TenantID: testTenant, CreatorID: "user-1", Model: string(domain.ModelAccount), IDList: []string{"acct-missing"},
	})
	require.True(t, domain.IsValidation(err))
	require.EqualError(t, err, "空数据无法导出")

	// 部分 id 不存在时拒绝，不允许缩小导出范围
	acctID, err := f.accounts.CreateAccount(ctx, testTenant, &domain.Account{Name: "现金账户", IsEnabled: true})
	require.NoError(t, err)
	_, err = f.svc.CreateExportTask(ctx, CreateExportTaskRequest{
		TenantID: testTenant, CreatorID: "user-1", Model: string(domain.ModelAccount), IDList: []string{acctID, "acct-missing"},
	})
	require.True(t, domain.IsValidation(err))
	require.EqualError(t, err, "导出数据不存在")
}

func TestTaskService_CancelAndDeleteStateMachine(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	// worker 未在执行的进行中任务：取消直接落终态
	id, err := f.exports.CreateExportTaskExclusive(ctx, testTenant, &domain.ExportTask{
		Number: "EX20260901-110000-0001", Model: domain.ModelAccount, CreatorID: "user-2",
	})
	require.NoError(t, err)

	// 进行中任务不能删除
	err = f.svc.DeleteExportTask(ctx, testTenant, id)
	require.True(t, domain.IsConflict(err))

	// 未完成任务不能下载
	_, err = f.svc.DownloadExportFile(ctx, testTenant, id)
	require.True(t, domain.IsConflict(err))

	require.NoError(t, f.svc.CancelExportTask(ctx, testTenant, id))
	item, err := f.svc.GetExportTask(ctx, testTenant, id)
	require.NoError(t, err)
	require.Equal(t, string(domain.TaskStatusCancelled), item.Status)

	// 终态任务不能再取消
	err = f.svc.CancelExportTask(ctx, testTenant, id)
	require.True(t, domain.IsConflict(err))
	require.EqualError(t, err, "任务已取消，不能取消")

	// 终态任务可以删除
	require.NoError(t, f.svc.DeleteExportTask(ctx, testTenant, id))
	_, err = f.svc.GetExportTask(ctx, testTenant, id)
	require.True(t, domain.IsNotFound(err))
}

func buildImportWorkbook(t *testing.T, headers []string, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	sheet := domain.ModelAccount.Display()
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	cells := make([]any, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	start, err := excelize.CoordinatesToCellName(1, 1)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, start, &cells))
	for i, row := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, start, &row))
	}
	return f
}

func TestTaskService_ImportEndToEndPartialSuccess(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	// 第二行与第一行同名，应记为行错误但不中断整批
	wb := buildImportWorkbook(t,
		[]string{"名称", "期初余额", "状态", "备注"},
		[][]any{
			{"现金账户", "1000", "启用", ""},
			{"现金账户", "500", "启用", ""},
			{"银行账户", "2000", "", "对公"},
		})
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	item, err := f.svc.CreateImportTask(ctx, CreateImportTaskRequest{
		TenantID:  testTenant,
		CreatorID: "user-1",
		Model:     string(domain.ModelAccount),
		FileName:  "accounts.xlsx",
		File:      buf,
	})
	require.NoError(t, err)

	done := waitImportTerminal(t, f, item.TaskID)
	require.Equal(t, string(domain.TaskStatusCompleted), done.Status)
	require.Equal(t, 2, done.ImportCount)
	require.Len(t, done.ErrorMessages, 1)
	require.Equal(t, 3, done.ErrorMessages[0].Row) // 表头占第 1 行

	accounts, _, err := f.accounts.ListAccounts(ctx, testTenant, repository.ArchiveFilter{}, 1, 20)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	// 部分失败产生警告通知
	ntfs, _, err := f.notifications.ListNotifications(ctx, testTenant, "user-1", nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, ntfs, 1)
	require.Equal(t, domain.NotificationWarning, ntfs[0].Type)
}

func TestTaskService_ImportAllRowsFailedMarksFailed(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	// 两行全部缺少名称，整批应记为失败且保留逐行错误
	wb := buildImportWorkbook(t,
		[]string{"名称", "期初余额", "状态", "备注"},
		[][]any{
			{"", "1000", "启用", ""},
			{"", "500", "启用", ""},
		})
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	item, err := f.svc.CreateImportTask(ctx, CreateImportTaskRequest{
		TenantID:  testTenant,
		CreatorID: "user-1",
		Model:     string(domain.ModelAccount),
		FileName:  "accounts.xlsx",
		File:      buf,
	})
	require.NoError(t, err)

	done := waitImportTerminal(t, f, item.TaskID)
	require.Equal(t, string(domain.TaskStatusFailed), done.Status)
	require.Equal(t, 0, done.ImportCount)
	require.Len(t, done.ErrorMessages, 2)
	require.Equal(t, 2, done.ErrorMessages[0].Row)
	require.Equal(t, 3, done.ErrorMessages[1].Row)

	accounts, _, err := f.accounts.ListAccounts(ctx, testTenant, repository.ArchiveFilter{}, 1, 20)
	require.NoError(t, err)
	require.Empty(t, accounts)

	ntfs, _, err := f.notifications.ListNotifications(ctx, testTenant, "user-1", nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, ntfs, 1)
	require.Equal(t, domain.NotificationError, ntfs[0].Type)
}
