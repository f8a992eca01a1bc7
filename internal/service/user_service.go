package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"
	"inventory-data/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService 用户服务
type UserService struct {
	repo       repository.UsersRepository
	roles      repository.RolesRepository
	warehouses repository.WarehousesRepository
	exports    repository.ExportTasksRepository
	engine     *fieldconf.Engine
	logger     *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(
	repo repository.UsersRepository,
	roles repository.RolesRepository,
	warehouses repository.WarehousesRepository,
	exports repository.ExportTasksRepository,
	engine *fieldconf.Engine,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		repo:       repo,
		roles:      roles,
		warehouses: warehouses,
		exports:    exports,
		engine:     engine,
		logger:     logger,
	}
}

// HashPassword 生成带盐的密码摘要
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword 校验明文密码与存储摘要是否匹配
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// UserItem 用户项（前端格式，不含密码）
type UserItem struct {
	UserID        string         `json:"user_id"`
	Number        string         `json:"number"`
	Username      string         `json:"username"`
	Name          string         `json:"name"`
	Phone         string         `json:"phone"`
	WarehouseIDs  []string       `json:"warehouse_ids"`
	RoleIDs       []string       `json:"role_ids"`
	Permissions   []string       `json:"permissions"`
	Remark        string         `json:"remark"`
	IsManager     bool           `json:"is_manager"`
	IsEnabled     bool           `json:"is_enabled"`
	ExtensionData map[string]any `json:"extension_data"`
	IsDeleted     bool           `json:"is_deleted"`
	UpdateTime    string         `json:"update_time"`
	CreateTime    string         `json:"create_time"`
}

func toUserItem(u *domain.User) UserItem {
	return UserItem{
		UserID:        u.ID,
		Number:        u.Number,
		Username:      u.Username,
		Name:          u.Name,
		Phone:         u.Phone,
		WarehouseIDs:  u.WarehouseIDs,
		RoleIDs:       u.RoleIDs,
		Permissions:   u.Permissions,
		Remark:        u.Remark,
		IsManager:     u.IsManager,
		IsEnabled:     u.IsEnabled,
		ExtensionData: u.ExtensionData,
		IsDeleted:     u.IsDeleted,
		UpdateTime:    u.UpdateTime.Format("2006-01-02 15:04:05"),
		CreateTime:    u.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ListUsersRequest 查询用户列表请求
type ListUsersRequest struct {
	TenantID  string
	IsDeleted *bool
	IsEnabled *bool
	Search    string
	Page      int
	Size      int
}

// ListUsersResponse 查询用户列表响应
type ListUsersResponse struct {
	Items []UserItem `json:"items"`
	Total int        `json:"total"`
}

// ListUsers 查询用户列表
func (s *UserService) ListUsers(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	filter := repository.ArchiveFilter{
		IsDeleted: req.IsDeleted,
		IsEnabled: req.IsEnabled,
		Search:    strings.TrimSpace(req.Search),
	}
	users, total, err := s.repo.ListUsers(ctx, req.TenantID, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	items := make([]UserItem, 0, len(users))
	for _, u := range users {
		items = append(items, toUserItem(u))
	}
	return &ListUsersResponse{Items: items, Total: total}, nil
}

// GetUser 查询用户详情
func (s *UserService) GetUser(ctx context.Context, tenantID, userID string) (*UserItem, error) {
	user, err := s.repo.GetUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	item := toUserItem(user)
	return &item, nil
}

// UserPayload 创建/更新用户载荷
type UserPayload struct {
	Username      string         `json:"username"`
	Name          string         `json:"name"`
	Phone         string         `json:"phone"`
	WarehouseIDs  []string       `json:"warehouse_ids"`
	RoleIDs       []string       `json:"role_ids"`
	Remark        string         `json:"remark"`
	IsEnabled     *bool          `json:"is_enabled"`
	ExtensionData map[string]any `json:"extension_data"`
}

// aggregatePermissions 按角色汇总权限，去重排序
func (s *UserService) aggregatePermissions(ctx context.Context, tenantID string, roleIDs []string) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	roles, err := s.roles.GetRolesByIDs(ctx, tenantID, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	if len(roles) != len(roleIDs) {
		return nil, domain.Validationf("角色不存在")
	}

	seen := make(map[string]bool)
	var permissions []string
	for _, role := range roles {
		for _, p := range role.Permissions {
			if !seen[p] {
				seen[p] = true
				permissions = append(permissions, p)
			}
		}
	}
	sort.Strings(permissions)
	return permissions, nil
}

func (s *UserService) checkWarehouses(ctx context.Context, tenantID string, warehouseIDs []string) error {
	if len(warehouseIDs) == 0 {
		return nil
	}
	warehouses, err := s.warehouses.GetWarehousesByIDs(ctx, tenantID, warehouseIDs)
	if err != nil {
		return fmt.Errorf("failed to load warehouses: %w", err)
	}
	if len(warehouses) != len(warehouseIDs) {
		return domain.Validationf("仓库不存在")
	}
	return nil
}

// CreateUser 创建用户
// 初始密码为用户名的哈希；权限从角色汇总写到用户行
func (s *UserService) CreateUser(ctx context.Context, tenantID string, payload UserPayload) (*UserItem, error) {
	username := strings.TrimSpace(payload.Username)
	name := strings.TrimSpace(payload.Name)
	if username == "" {
		return nil, domain.Validationf("用户名不能为空")
	}
	if name == "" {
		return nil, domain.Validationf("姓名不能为空")
	}

	usernameExists, err := s.repo.ExistsActiveUsername(ctx, tenantID, username, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if usernameExists {
		return nil, domain.Validationf("用户名 %s 已存在", username)
	}
	nameExists, err := s.repo.ExistsActiveName(ctx, tenantID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check user name: %w", err)
	}
	if nameExists {
		return nil, domain.Validationf("姓名 %s 已存在", name)
	}

	if err := s.checkWarehouses(ctx, tenantID, payload.WarehouseIDs); err != nil {
		return nil, err
	}
	permissions, err := s.aggregatePermissions(ctx, tenantID, payload.RoleIDs)
	if err != nil {
		return nil, err
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, tenantID, domain.ModelUser, payload.ExtensionData)
	if err != nil {
		return nil, err
	}

	// 初始密码与用户名相同
	hashed, err := HashPassword(username)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:      username,
		Password:      hashed,
		Name:          name,
		Phone:         payload.Phone,
		WarehouseIDs:  payload.WarehouseIDs,
		RoleIDs:       payload.RoleIDs,
		Permissions:   permissions,
		Remark:        payload.Remark,
		IsEnabled:     payload.IsEnabled == nil || *payload.IsEnabled,
		ExtensionData: cleaned,
	}
	if _, err := s.repo.CreateUser(ctx, tenantID, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("用户已创建",
		zap.String("tenant_id", tenantID),
		zap.String("number", user.Number))
	item := toUserItem(user)
	return &item, nil
}

// UpdateUser 更新用户
// 管理员用户不挂仓库/角色、不允许禁用；用户名创建后不可修改
func (s *UserService) UpdateUser(ctx context.Context, tenantID, userID string, payload UserPayload) (*UserItem, error) {
	user, err := s.repo.GetUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted {
		return nil, domain.ErrNotFound
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("姓名不能为空")
	}
	nameExists, err := s.repo.ExistsActiveName(ctx, tenantID, name, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user name: %w", err)
	}
	if nameExists {
		return nil, domain.Validationf("姓名 %s 已存在", name)
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, tenantID, domain.ModelUser, payload.ExtensionData)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Phone = payload.Phone
	user.Remark = payload.Remark
	user.ExtensionData = cleaned

	if user.IsManager {
		user.WarehouseIDs = nil
		user.RoleIDs = nil
		user.Permissions = nil
		user.IsEnabled = true
	} else {
		if err := s.checkWarehouses(ctx, tenantID, payload.WarehouseIDs); err != nil {
			return nil, err
		}
		permissions, err := s.aggregatePermissions(ctx, tenantID, payload.RoleIDs)
		if err != nil {
			return nil, err
		}
		user.WarehouseIDs = payload.WarehouseIDs
		user.RoleIDs = payload.RoleIDs
		user.Permissions = permissions
		if payload.IsEnabled != nil {
			user.IsEnabled = *payload.IsEnabled
		}
	}

	if err := s.repo.UpdateUser(ctx, tenantID, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	item := toUserItem(user)
	return &item, nil
}

// DeleteUser 逻辑删除用户
// 管理员用户不允许删除
func (s *UserService) DeleteUser(ctx context.Context, tenantID, userID string) error {
	user, err := s.repo.GetUser(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if user.IsManager {
		return domain.Conflictf("管理员用户不允许删除")
	}

	held, err := s.exports.ActiveTaskHoldsRecord(ctx, tenantID, domain.ModelUser, userID)
	if err != nil {
		return fmt.Errorf("failed to check active tasks: %w", err)
	}
	if held {
		return domain.Conflictf("该用户有进行中的导出任务，暂不能删除")
	}
	return s.repo.SoftDeleteUser(ctx, tenantID, userID)
}

// UndoDeleteUser 恢复删除
// 用户名和姓名都要重新通过唯一性校验
func (s *UserService) UndoDeleteUser(ctx context.Context, tenantID, userID string) error {
	user, err := s.repo.GetUser(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if !user.IsDeleted {
		return domain.Conflictf("该用户未被删除")
	}

	usernameExists, err := s.repo.ExistsActiveUsername(ctx, tenantID, user.Username, userID)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if usernameExists {
		return domain.Validationf("用户名 %s 已存在，无法恢复", user.Username)
	}
	nameExists, err := s.repo.ExistsActiveName(ctx, tenantID, user.Name, userID)
	if err != nil {
		return fmt.Errorf("failed to check user name: %w", err)
	}
	if nameExists {
		return domain.Validationf("姓名 %s 已存在，无法恢复", user.Name)
	}
	return s.repo.UndoDeleteUser(ctx, tenantID, userID)
}

// ResetPassword 重置密码为用户名的哈希
func (s *UserService) ResetPassword(ctx context.Context, tenantID, userID string) error {
	user, err := s.repo.GetUser(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if user.IsDeleted {
		return domain.ErrNotFound
	}

	hashed, err := HashPassword(user.Username)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, tenantID, userID, hashed); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}
