package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-data/internal/config"
	"inventory-data/internal/database"
	"inventory-data/internal/fieldconf"
	httpapi "inventory-data/internal/http"
	"inventory-data/internal/logger"
	"inventory-data/internal/notify"
	"inventory-data/internal/repository"
	"inventory-data/internal/service"
	"inventory-data/internal/store"
	"inventory-data/internal/task"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "inventory-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	publisher := store.NewRedisPublisher(redisClient)
	notifier := notify.NewNotifier(publisher, log)

	files, err := task.NewFileStore(cfg.File.Dir)
	if err != nil {
		log.Fatal("初始化文件目录失败", zap.Error(err))
	}

	// repositories
	accountsRepo := repository.NewPostgresAccountsRepository(db)
	suppliersRepo := repository.NewPostgresSuppliersRepository(db)
	clientsRepo := repository.NewPostgresClientsRepository(db)
	warehousesRepo := repository.NewPostgresWarehousesRepository(db)
	usersRepo := repository.NewPostgresUsersRepository(db)
	rolesRepo := repository.NewPostgresRolesRepository(db)
	modelFieldsRepo := repository.NewPostgresModelFieldsRepository(db)
	exportTasksRepo := repository.NewPostgresExportTasksRepository(db)
	importTasksRepo := repository.NewPostgresImportTasksRepository(db)
	tenantsRepo := repository.NewPostgresTenantsRepository(db)
	notificationsRepo := repository.NewPostgresNotificationsRepository(db)
	errorLogsRepo := repository.NewPostgresErrorLogsRepository(db)

	engine := fieldconf.NewEngine(modelFieldsRepo)

	// 后台任务执行体与队列
	exportWorker := task.NewExportWorker(exportTasksRepo, notificationsRepo, errorLogsRepo, engine, notifier, files, log)
	importWorker := task.NewImportWorker(importTasksRepo, notificationsRepo, errorLogsRepo, notifier, files, log)
	exporters := task.NewExporterRegistry(
		task.NewAccountExporter(accountsRepo),
		task.NewSupplierExporter(suppliersRepo),
		task.NewClientExporter(clientsRepo),
		task.NewWarehouseExporter(warehousesRepo),
		task.NewUserExporter(usersRepo),
	)
	importers := task.NewImporterRegistry(
		task.NewAccountImporter(accountsRepo, engine),
	)
	runner := task.NewRunner(cfg.Task.Workers, cfg.Task.QueueSize, log)
	runner.Start()

	// services
	accountSvc := service.NewAccountService(accountsRepo, exportTasksRepo, engine, log)
	supplierSvc := service.NewSupplierService(suppliersRepo, exportTasksRepo, engine, log)
	clientSvc := service.NewClientService(clientsRepo, exportTasksRepo, engine, log)
	warehouseSvc := service.NewWarehouseService(warehousesRepo, exportTasksRepo, engine, log)
	userSvc := service.NewUserService(usersRepo, rolesRepo, warehousesRepo, exportTasksRepo, engine, log)
	roleSvc := service.NewRoleService(rolesRepo, log)
	modelFieldSvc := service.NewModelFieldService(modelFieldsRepo, log)
	notificationSvc := service.NewNotificationService(notificationsRepo, files, log)
	taskSvc := service.NewTaskService(exportTasksRepo, importTasksRepo, runner, exporters, importers, exportWorker, importWorker, files, log)

	// handlers + routes
	router := httpapi.NewRouter(log)
	router.RegisterArchiveRoutes(
		httpapi.NewAccountsHandler(accountSvc, taskSvc, log),
		httpapi.NewSuppliersHandler(supplierSvc, taskSvc, log),
		httpapi.NewClientsHandler(clientSvc, taskSvc, log),
		httpapi.NewWarehousesHandler(warehouseSvc, taskSvc, log),
	)
	router.RegisterIdentityRoutes(
		httpapi.NewUsersHandler(userSvc, taskSvc, log),
		httpapi.NewRolesHandler(roleSvc, log),
	)
	router.RegisterModelFieldRoutes(httpapi.NewModelFieldsHandler(modelFieldSvc, log))
	router.RegisterTaskRoutes(httpapi.NewTasksHandler(taskSvc, log))
	router.RegisterNotificationRoutes(httpapi.NewNotificationsHandler(notificationSvc, log))
	router.RegisterTenantRoutes(httpapi.NewTenantsHandler(tenantsRepo, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP服务异常退出", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	runner.Stop()
}
