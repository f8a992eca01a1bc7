package task

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"inventory-data/internal/domain"
	"inventory-data/internal/fieldconf"
	"inventory-data/internal/repository"
)

// Importer 某个模型类别的导入行应用器
// Apply 处理一行数据，返回的错误作为该行的 RowError 记录，不中断整个任务
type Importer interface {
	Model() domain.DataModel
	Headers() []string
	Apply(ctx context.Context, tenantID string, record map[string]string) error
}

// parseBoolCell 解析布尔单元格，支持中文启用/禁用写法
func parseBoolCell(value string, trueLabel string) bool {
	value = strings.TrimSpace(value)
	return value == trueLabel || value == "是" || strings.EqualFold(value, "true")
}

func parseAmountCell(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("金额格式错误: %q", value)
	}
	return amount, nil
}

// AccountImporter 结算账户导入
type AccountImporter struct {
	repo   repository.AccountsRepository
	engine *fieldconf.Engine
}

func NewAccountImporter(repo repository.AccountsRepository, engine *fieldconf.Engine) *AccountImporter {
	return &AccountImporter{repo: repo, engine: engine}
}

func (i *AccountImporter) Model() domain.DataModel { return domain.ModelAccount }

func (i *AccountImporter) Headers() []string {
	return []string{"名称", "期初余额", "状态", "备注"}
}

func (i *AccountImporter) Apply(ctx context.Context, tenantID string, record map[string]string) error {
	name := strings.TrimSpace(record["名称"])
	if name == "" {
		return domain.Validationf("名称不能为空")
	}

	exists, err := i.repo.ExistsActiveName(ctx, tenantID, name, "")
	if err != nil {
		return err
	}
	if exists {
		return domain.Conflictf("名称 %s 已存在", name)
	}

	initial, err := parseAmountCell(record["期初余额"])
	if err != nil {
		return domain.Validationf("期初余额错误: %v", err)
	}

	// 基础列之外的表头按自定义字段名匹配
	extension := domain.ExtensionData{}
	fields, err := i.engine.Provider().ActiveFields(ctx, tenantID, domain.ModelAccount)
	if err != nil {
		return err
	}
	for _, field := range fields {
		value, err := fieldconf.ParseCellValue(field, record[field.Name])
		if err != nil {
			return err
		}
		if value != nil {
			extension[field.Number] = value
		}
	}
	cleaned, err := i.engine.CleanExtensionData(ctx, tenantID, domain.ModelAccount, extension)
	if err != nil {
		return err
	}

	account := &domain.Account{
		Name:                 name,
		Remark:               strings.TrimSpace(record["备注"]),
		IsEnabled:            record["状态"] == "" || parseBoolCell(record["状态"], "启用"),
		InitialBalanceAmount: initial,
		BalanceAmount:        initial,
		ExtensionData:        cleaned,
	}
	if _, err := i.repo.CreateAccount(ctx, tenantID, account); err != nil {
		return err
	}
	return nil
}

// ImporterRegistry 按模型类别查找导入行应用器
type ImporterRegistry struct {
	importers map[domain.DataModel]Importer
}

func NewImporterRegistry(importers ...Importer) *ImporterRegistry {
	m := make(map[domain.DataModel]Importer, len(importers))
	for _, i := range importers {
		m[i.Model()] = i
	}
	return &ImporterRegistry{importers: m}
}

// Lookup 查找模型对应的导入行应用器
func (r *ImporterRegistry) Lookup(model domain.DataModel) (Importer, bool) {
	i, ok := r.importers[model]
	return i, ok
}
