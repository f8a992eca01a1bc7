package service

import (
	"context"
	"fmt"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"
	"inventory-data/internal/repository"

	"go.uber.org/zap"
)

// ClientService 客户服务
type ClientService struct {
	repo    repository.ClientsRepository
	exports repository.ExportTasksRepository
	engine  *fieldconf.Engine
	logger  *zap.Logger
}

// NewClientService 创建客户服务
func NewClientService(
	repo repository.ClientsRepository,
	exports repository.ExportTasksRepository,
	engine *fieldconf.Engine,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{repo: repo, exports: exports, engine: engine, logger: logger}
}

// ClientItem 客户项（前端格式）
type ClientItem struct {
	ClientID             string         `json:"client_id"`
	Number               string         `json:"number"`
	Name                 string         `json:"name"`
	CategoryID           string         `json:"category_id,omitempty"`
	Level                string         `json:"level"`
	Contact              string         `json:"contact"`
	Phone                string         `json:"phone"`
	Address              string         `json:"address"`
	Remark               string         `json:"remark"`
	IsEnabled            bool           `json:"is_enabled"`
	InitialArrearsAmount float64        `json:"initial_arrears_amount"`
	ArrearsAmount        float64        `json:"arrears_amount"`
	ExtensionData        map[string]any `json:"extension_data"`
	IsDeleted            bool           `json:"is_deleted"`
	UpdateTime           string         `json:"update_time"`
	CreateTime           string         `json:"create_time"`
}

func toClientItem(c *domain.Client) ClientItem {
	return ClientItem{
		ClientID:             c.ID,
		Number:               c.Number,
		Name:                 c.Name,
		CategoryID:           c.CategoryID,
		Level:                string(c.Level),
		Contact:              c.Contact,
		Phone:                c.Phone,
		Address:              c.Address,
		Remark:               c.Remark,
		IsEnabled:            c.IsEnabled,
		InitialArrearsAmount: c.InitialArrearsAmount,
		ArrearsAmount:        c.ArrearsAmount,
		ExtensionData:        c.ExtensionData,
		IsDeleted:            c.IsDeleted,
		UpdateTime:           c.UpdateTime.Format("2006-01-02 15:04:05"),
		CreateTime:           c.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ListClientsRequest 查询客户列表请求
type ListClientsRequest struct {
	TenantID  string
	IsDeleted *bool
	IsEnabled *bool
	Search    string
	Page      int
	Size      int
}

// ListClientsResponse 查询客户列表响应
type ListClientsResponse struct {
	Items []ClientItem `json:"items"`
	Total int          `json:"total"`
}

// ListClients 查询客户列表
func (s *ClientService) ListClients(ctx context.Context, req ListClientsRequest) (*ListClientsResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	filter := repository.ArchiveFilter{
		IsDeleted: req.IsDeleted,
		IsEnabled: req.IsEnabled,
		Search:    strings.TrimSpace(req.Search),
	}
	clients, total, err := s.repo.ListClients(ctx, req.TenantID, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	items := make([]ClientItem, 0, len(clients))
	for _, c := range clients {
		items = append(items, toClientItem(c))
	}
	return &ListClientsResponse{Items: items, Total: total}, nil
}

// GetClient 查询客户详情
func (s *ClientService) GetClient(ctx context.Context, tenantID, clientID string) (*ClientItem, error) {
	client, err := s.repo.GetClient(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	item := toClientItem(client)
	return &item, nil
}

// ClientPayload 创建/更新客户载荷
type ClientPayload struct {
	Name                 string         `json:"name"`
	CategoryID           string         `json:"category_id"`
	Level                string         `json:"level"`
	Contact              string         `json:"contact"`
	Phone                string         `json:"phone"`
	Address              string         `json:"address"`
	Remark               string         `json:"remark"`
	IsEnabled            *bool          `json:"is_enabled"`
	InitialArrearsAmount *float64       `json:"initial_arrears_amount"`
	ExtensionData        map[string]any `json:"extension_data"`
}

// CreateClient 创建客户
func (s *ClientService) CreateClient(ctx context.Context, tenantID string, payload ClientPayload) (*ClientItem, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}

	level := domain.ClientLevel(payload.Level)
	if payload.Level == "" {
		level = domain.ClientLevel0
	}
	if !level.Valid() {
		return nil, domain.Validationf("客户等级无效")
	}

	exists, err := s.repo.ExistsActiveName(ctx, tenantID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check client name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, tenantID, domain.ModelClient, payload.ExtensionData)
	if err != nil {
		return nil, err
	}

	var initialArrears float64
	if payload.InitialArrearsAmount != nil {
		initialArrears = *payload.InitialArrearsAmount
	}
	client := &domain.Client{
		Name:                 name,
		CategoryID:           payload.CategoryID,
		Level:                level,
		Contact:              payload.Contact,
		Phone:                payload.Phone,
		Address:              payload.Address,
		Remark:               payload.Remark,
		IsEnabled:            payload.IsEnabled == nil || *payload.IsEnabled,
		InitialArrearsAmount: initialArrears,
		ArrearsAmount:        initialArrears,
		ExtensionData:        cleaned,
	}
	if _, err := s.repo.CreateClient(ctx, tenantID, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.logger.Info("客户已创建",
		zap.String("tenant_id", tenantID),
		zap.String("number", client.Number))
	item := toClientItem(client)
	return &item, nil
}

// UpdateClient 更新客户
func (s *ClientService) UpdateClient(ctx context.Context, tenantID, clientID string, payload ClientPayload) (*ClientItem, error) {
	client, err := s.repo.GetClient(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	if client.IsDeleted {
		return nil, domain.ErrNotFound
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}
	exists, err := s.repo.ExistsActiveName(ctx, tenantID, name, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check client name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	if payload.Level != "" {
		level := domain.ClientLevel(payload.Level)
		if !level.Valid() {
			return nil, domain.Validationf("客户等级无效")
		}
		client.Level = level
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, tenantID, domain.ModelClient, payload.ExtensionData)
	if err != nil {
		return nil, err
	}

	client.Name = name
	client.CategoryID = payload.CategoryID
	client.Contact = payload.Contact
	client.Phone = payload.Phone
	client.Address = payload.Address
	client.Remark = payload.Remark
	if payload.IsEnabled != nil {
		client.IsEnabled = *payload.IsEnabled
	}
	if payload.InitialArrearsAmount != nil {
		client.ArrearsAmount += *payload.InitialArrearsAmount - client.InitialArrearsAmount
		client.InitialArrearsAmount = *payload.InitialArrearsAmount
	}
	client.ExtensionData = cleaned

	if err := s.repo.UpdateClient(ctx, tenantID, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	item := toClientItem(client)
	return &item, nil
}

// DeleteClient 逻辑删除客户
func (s *ClientService) DeleteClient(ctx context.Context, tenantID, clientID string) error {
	held, err := s.exports.ActiveTaskHoldsRecord(ctx, tenantID, domain.ModelClient, clientID)
	if err != nil {
		return fmt.Errorf("failed to check active tasks: %w", err)
	}
	if held {
		return domain.Conflictf("该客户有进行中的导出任务，暂不能删除")
	}
	return s.repo.SoftDeleteClient(ctx, tenantID, clientID)
}

// UndoDeleteClient 恢复删除
func (s *ClientService) UndoDeleteClient(ctx context.Context, tenantID, clientID string) error {
	client, err := s.repo.GetClient(ctx, tenantID, clientID)
	if err != nil {
		return err
	}
	if !client.IsDeleted {
		return domain.Conflictf("该客户未被删除")
	}

	exists, err := s.repo.ExistsActiveName(ctx, tenantID, client.Name, clientID)
	if err != nil {
		return fmt.Errorf("failed to check client name: %w", err)
	}
	if exists {
		return domain.Validationf("名称 %s 已存在，无法恢复", client.Name)
	}
	return s.repo.UndoDeleteClient(ctx, tenantID, clientID)
}
