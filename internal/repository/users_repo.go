package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// UsersRepository 用户Repository接口
// username 和 name 各自在活跃行内唯一
type UsersRepository interface {
	GetUser(ctx context.Context, tenantID, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, tenantID, username string) (*domain.User, error)
	ListUsers(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.User, int, error)
	GetUsersByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.User, error)
	CreateUser(ctx context.Context, tenantID string, user *domain.User) (string, error)
	UpdateUser(ctx context.Context, tenantID string, user *domain.User) error
	UpdatePassword(ctx context.Context, tenantID, userID, password string) error
	SoftDeleteUser(ctx context.Context, tenantID, userID string) error
	UndoDeleteUser(ctx context.Context, tenantID, userID string) error
	ExistsActiveUsername(ctx context.Context, tenantID, username, excludeID string) (bool, error)
	ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error)
}

// RolesRepository 角色Repository接口
type RolesRepository interface {
	GetRole(ctx context.Context, tenantID, roleID string) (*domain.Role, error)
	GetRolesByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Role, error)
	ListRoles(ctx context.Context, tenantID string, page, size int) ([]*domain.Role, int, error)
	CreateRole(ctx context.Context, tenantID string, role *domain.Role) (string, error)
	UpdateRole(ctx context.Context, tenantID string, role *domain.Role) error
	DeleteRole(ctx context.Context, tenantID, roleID string) error
	ExistsName(ctx context.Context, tenantID, name, excludeID string) (bool, error)
}
