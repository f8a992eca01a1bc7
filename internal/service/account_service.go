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

// AccountService 结算账户服务
type AccountService struct {
	repo    repository.AccountsRepository
	exports repository.ExportTasksRepository
	engine  *fieldconf.Engine
	logger  *zap.Logger
}

// NewAccountService 创建结算账户服务
func NewAccountService(
	repo repository.AccountsRepository,
	exports repository.ExportTasksRepository,
	engine *fieldconf.Engine,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{repo: repo, exports: exports, engine: engine, logger: logger}
}

// AccountItem 账户项（前端格式）
type AccountItem struct {
	AccountID            string         `json:"account_id"`
	Number               string         `json:"number"`
	Name                 string         `json:"name"`
	Remark               string         `json:"remark"`
	IsEnabled            bool           `json:"is_enabled"`
	InitialBalanceAmount float64        `json:"initial_balance_amount"`
	BalanceAmount        float64        `json:"balance_amount"`
	ExtensionData        map[string]any `json:"extension_data"`
	IsDeleted            bool           `json:"is_deleted"`
	UpdateTime           string         `json:"update_time"`
	CreateTime           string         `json:"create_time"`
}

func toAccountItem(a *domain.Account) AccountItem {
	return AccountItem{
		AccountID:            a.ID,
		Number:               a.Number,
		Name:                 a.Name,
		Remark:               a.Remark,
		IsEnabled:            a.IsEnabled,
		InitialBalanceAmount: a.InitialBalanceAmount,
		BalanceAmount:        a.BalanceAmount,
		ExtensionData:        a.ExtensionData,
		IsDeleted:            a.IsDeleted,
		UpdateTime:           a.UpdateTime.Format("2006-01-02 15:04:05"),
		CreateTime:           a.CreateTime.Format("2006-01-02 15:04:05"),
	}
}

// ListAccountsRequest 查询账户列表请求
type ListAccountsRequest struct {
	TenantID  string
	IsDeleted *bool
	IsEnabled *bool
	Search    string
	Page      int
	Size      int
}

// ListAccountsResponse 查询账户列表响应
type ListAccountsResponse struct {
	Items []AccountItem `json:"items"`
	Total int           `json:"total"`
}

// ListAccounts 查询账户列表
func (s *AccountService) ListAccounts(ctx context.Context, req ListAccountsRequest) (*ListAccountsResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	filter := repository.ArchiveFilter{
		IsDeleted: req.IsDeleted,
		IsEnabled: req.IsEnabled,
		Search:    strings.TrimSpace(req.Search),
	}
	accounts, total, err := s.repo.ListAccounts(ctx, req.TenantID, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	items := make([]AccountItem, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, toAccountItem(a))
	}
	return &ListAccountsResponse{Items: items, Total: total}, nil
}

// GetAccount 查询账户详情
func (s *AccountService) GetAccount(ctx context.Context, tenantID, accountID string) (*AccountItem, error) {
	account, err := s.repo.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	item := toAccountItem(account)
	return &item, nil
}

// CreateAccountRequest 创建账户请求
type CreateAccountRequest struct {
	TenantID             string
	Name                 string         `json:"name"`
	Remark               string         `json:"remark"`
	IsEnabled            *bool          `json:"is_enabled"`
	InitialBalanceAmount float64        `json:"initial_balance_amount"`
	ExtensionData        map[string]any `json:"extension_data"`
}

// CreateAccount 创建账户
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*AccountItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}

	exists, err := s.repo.ExistsActiveName(ctx, req.TenantID, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check account name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, req.TenantID, domain.ModelAccount, req.ExtensionData)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Name:                 name,
		Remark:               req.Remark,
		IsEnabled:            req.IsEnabled == nil || *req.IsEnabled,
		InitialBalanceAmount: req.InitialBalanceAmount,
		BalanceAmount:        req.InitialBalanceAmount,
		ExtensionData:        cleaned,
	}
	if _, err := s.repo.CreateAccount(ctx, req.TenantID, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("账户已创建",
		zap.String("tenant_id", req.TenantID),
		zap.String("number", account.Number))
	item := toAccountItem(account)
	return &item, nil
}

// UpdateAccountRequest 更新账户请求
type UpdateAccountRequest struct {
	TenantID             string
	AccountID            string
	Name                 string         `json:"name"`
	Remark               string         `json:"remark"`
	IsEnabled            *bool          `json:"is_enabled"`
	InitialBalanceAmount *float64       `json:"initial_balance_amount"`
	ExtensionData        map[string]any `json:"extension_data"`
}

// UpdateAccount 更新账户
func (s *AccountService) UpdateAccount(ctx context.Context, req UpdateAccountRequest) (*AccountItem, error) {
	account, err := s.repo.GetAccount(ctx, req.TenantID, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account.IsDeleted {
		return nil, domain.ErrNotFound
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Validationf("名称不能为空")
	}
	exists, err := s.repo.ExistsActiveName(ctx, req.TenantID, name, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check account name: %w", err)
	}
	if exists {
		return nil, domain.Validationf("名称 %s 已存在", name)
	}

	cleaned, err := s.engine.CleanExtensionData(ctx, req.TenantID, domain.ModelAccount, req.ExtensionData)
	if err != nil {
		return nil, err
	}

	account.Name = name
	account.Remark = req.Remark
	if req.IsEnabled != nil {
		account.IsEnabled = *req.IsEnabled
	}
	if req.InitialBalanceAmount != nil {
		// 期初余额调整同步修正当前余额
		account.BalanceAmount += *req.InitialBalanceAmount - account.InitialBalanceAmount
		account.InitialBalanceAmount = *req.InitialBalanceAmount
	}
	account.ExtensionData = cleaned

	if err := s.repo.UpdateAccount(ctx, req.TenantID, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	item := toAccountItem(account)
	return &item, nil
}

// DeleteAccount 逻辑删除账户
// 被进行中导出任务引用的账户不允许删除；重复删除不报错
func (s *AccountService) DeleteAccount(ctx context.Context, tenantID, accountID string) error {
	held, err := s.exports.ActiveTaskHoldsRecord(ctx, tenantID, domain.ModelAccount, accountID)
	if err != nil {
		return fmt.Errorf("failed to check active tasks: %w", err)
	}
	if held {
		return domain.Conflictf("该账户有进行中的导出任务，暂不能删除")
	}
	return s.repo.SoftDeleteAccount(ctx, tenantID, accountID)
}

// UndoDeleteAccount 恢复删除
// 恢复前重新校验名称唯一性，活跃行已有同名账户时拒绝恢复
func (s *AccountService) UndoDeleteAccount(ctx context.Context, tenantID, accountID string) error {
	account, err := s.repo.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	if !account.IsDeleted {
		return domain.Conflictf("该账户未被删除")
	}

	exists, err := s.repo.ExistsActiveName(ctx, tenantID, account.Name, accountID)
	if err != nil {
		return fmt.Errorf("failed to check account name: %w", err)
	}
	if exists {
		return domain.Validationf("名称 %s 已存在，无法恢复", account.Name)
	}
	return s.repo.UndoDeleteAccount(ctx, tenantID, accountID)
}
