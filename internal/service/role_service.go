package service

import (
	"context"
	"fmt"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/repository"

	"go.uber.org/zap"
)

// RoleService 角色服务
type RoleService struct {
	repo   repository.RolesRepository
	logger *zap.Logger
}

// NewRoleService 创建角色服务
func NewRoleService(repo repository.RolesRepository, logger *zap.Logger) *RoleService {
	return &RoleService{repo: repo, logger: logger}
}

// RoleItem 角色项（前端格式）
type RoleItem struct {
	RoleID      string   `json:"role_id"`
	Name        string   `json:"name"`
	Remark      string   `json:"remark"`
	Permissions []string `json:"permissions"`
	UpdateTime  string   `json:"update_time"`
	CreateTime  string   `json:"create_time"`
}

func toRoleItem(r *domain.Role) RoleItem {
	return RoleItem{
		RoleID:      r.ID,
		Name:        r.Name,
		Remark:      r.Remark,
		Permissions: r.Permissions,
		UpdateTime:  r.UpdateTime.Format("2006-01-02 15:04:05"),
		CreateTime:  r.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ListRolesResponse 查询角色列表响应
type ListRolesResponse struct {
	Items []RoleItem `json:"items"`
	Total int        `json:"total"`
}

// ListRoles 查询角色列表
func (s *RoleService) ListRoles(ctx context.Context, tenantID string, page, size int) (*ListRolesResponse, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	roles, total, err := s.repo.ListRoles(ctx, tenantID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	items := make([]RoleItem, 0, len(roles))
	for _, r := range roles {
		items = append(items, toRoleItem(r))
	}
	return &ListRolesResponse{Items: items, Total: total}, nil
}

// GetRole 查询角色详情
func (s *RoleService) GetRole(ctx context.Context, tenantID, roleID string) (*RoleItem, error) {
	role, err := s.repo.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return nil, err
	}
	item := toRoleItem(role)
	return &item, nil
}

// RolePayload 创建/更新角色载荷
type RolePayload struct {
	Name        string   `json:"name"`
	Remark      string   `json:"remark"`
	Permissions []string `json:"permissions"`
}

// CreateRole 创建角色
func (s *RoleService) CreateRole(ctx context.Context, tenantID string, payload RolePayload) (*RoleItem, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}

	exists, err := s.repo.ExistsName(ctx, tenantID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	role := &domain.Role{
		Name:        name,
		Remark:      payload.Remark,
		Permissions: payload.Permissions,
	}
	if _, err := s.repo.CreateRole(ctx, tenantID, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.logger.Info("角色已创建",
		zap.String("tenant_id", tenantID),
		zap.String("role_id", role.ID))
	item := toRoleItem(role)
	return &item, nil
}

// UpdateRole 更新角色
// 权限变更不回写已有用户，用户权限在下次保存时按角色重新汇总
func (s *RoleService) UpdateRole(ctx context.Context, tenantID, roleID string, payload RolePayload) (*RoleItem, error) {
	role, err := s.repo.GetRole(ctx, tenantID, roleID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}
	exists, err := s.repo.ExistsName(ctx, tenantID, name, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	role.Name = name
	role.Remark = payload.Remark
	role.Permissions = payload.Permissions
	if err := s.repo.UpdateRole(ctx, tenantID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	item := toRoleItem(role)
	return &item, nil
}

// DeleteRole 删除角色
func (s *RoleService) DeleteRole(ctx context.Context, tenantID, roleID string) error {
	return s.repo.DeleteRole(ctx, tenantID, roleID)
}
