package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 pprof 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterArchiveRoutes 注册基础档案路由（账户、供应商、客户、仓库）
func (r *Router) RegisterArchiveRoutes(accounts *AccountsHandler, suppliers *SuppliersHandler, clients *ClientsHandler, warehouses *WarehousesHandler) {
	r.HandleHandler(accountsPrefix, accounts)
	r.HandleHandler(accountsPrefix+"/", accounts)

	r.HandleHandler(suppliersPrefix, suppliers)
	r.HandleHandler(suppliersPrefix+"/", suppliers)

	r.HandleHandler(clientsPrefix, clients)
	r.HandleHandler(clientsPrefix+"/", clients)

	r.HandleHandler(warehousesPrefix, warehouses)
	r.HandleHandler(warehousesPrefix+"/", warehouses)
}

// RegisterIdentityRoutes 注册用户与角色路由
func (r *Router) RegisterIdentityRoutes(users *UsersHandler, roles *RolesHandler) {
	r.HandleHandler(usersPrefix, users)
	r.HandleHandler(usersPrefix+"/", users)

	r.HandleHandler(rolesPrefix, roles)
	r.HandleHandler(rolesPrefix+"/", roles)
}

// RegisterModelFieldRoutes 注册自定义字段路由
func (r *Router) RegisterModelFieldRoutes(fields *ModelFieldsHandler) {
	r.HandleHandler(modelFieldsPrefix, fields)
	r.HandleHandler(modelFieldsPrefix+"/", fields)
	r.HandleHandler(fieldConfigPath, fields)
}

// RegisterTaskRoutes 注册导出、导入任务路由
func (r *Router) RegisterTaskRoutes(tasks *TasksHandler) {
	r.HandleHandler(exportTasksPrefix, tasks)
	r.HandleHandler(exportTasksPrefix+"/", tasks)

	r.HandleHandler(importTasksPrefix, tasks)
	r.HandleHandler(importTasksPrefix+"/", tasks)
}

// RegisterTenantRoutes 注册租户管理路由（平台级）
func (r *Router) RegisterTenantRoutes(tenants *TenantsHandler) {
	r.HandleHandler(tenantsPrefix, tenants)
	r.HandleHandler(tenantsPrefix+"/", tenants)
}

// RegisterNotificationRoutes 注册站内通知路由
func (r *Router) RegisterNotificationRoutes(notifications *NotificationsHandler) {
	r.HandleHandler(notificationsPrefix, notifications)
	r.HandleHandler(notificationsPrefix+"/", notifications)
}
