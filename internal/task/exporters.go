package task

import (
	"context"
	"fmt"

	"inventory-data/internal/domain"
	"inventory-data/internal/repository"
)

// ExportRow 一行导出数据：基础列单元格 + 扩展数据
type ExportRow struct {
	Cells     []any
	Extension domain.ExtensionData
}

// Exporter 某个模型类别的导出数据源
type Exporter interface {
	Model() domain.DataModel
	Headers() []string
	Fetch(ctx context.Context, tenantID string, ids []string) ([]ExportRow, error)
}

func boolDisplay(b bool, trueLabel, falseLabel string) string {
	if b {
		return trueLabel
	}
	return falseLabel
}

// AccountExporter 结算账户导出
type AccountExporter struct {
	repo repository.AccountsRepository
}

func NewAccountExporter(repo repository.AccountsRepository) *AccountExporter {
	return &AccountExporter{repo: repo}
}

func (e *AccountExporter) Model() domain.DataModel { return domain.ModelAccount }

func (e *AccountExporter) Headers() []string {
	return []string{"编号", "名称", "期初余额", "余额", "状态", "备注"}
}

func (e *AccountExporter) Fetch(ctx context.Context, tenantID string, ids []string) ([]ExportRow, error) {
	accounts, err := e.repo.GetAccountsByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	rows := make([]ExportRow, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, ExportRow{
			Cells: []any{
				a.Number, a.Name, a.InitialBalanceAmount, a.BalanceAmount,
				boolDisplay(a.IsEnabled, "启用", "禁用"), a.Remark,
			},
			Extension: a.ExtensionData,
		})
	}
	return rows, nil
}

// SupplierExporter 供应商导出
type SupplierExporter struct {
	repo repository.SuppliersRepository
}

func NewSupplierExporter(repo repository.SuppliersRepository) *SupplierExporter {
	return &SupplierExporter{repo: repo}
}

func (e *SupplierExporter) Model() domain.DataModel { return domain.ModelSupplier }

func (e *SupplierExporter) Headers() []string {
	return []string{"编号", "名称", "联系人", "电话", "地址", "期初欠款", "欠款", "状态", "备注"}
}

func (e *SupplierExporter) Fetch(ctx context.Context, tenantID string, ids []string) ([]ExportRow, error) {
	suppliers, err := e.repo.GetSuppliersByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch suppliers: %w", err)
	}

	rows := make([]ExportRow, 0, len(suppliers))
	for _, s := range suppliers {
		rows = append(rows, ExportRow{
			Cells: []any{
				s.Number, s.Name, s.Contact, s.Phone, s.Address,
				s.InitialArrearsAmount, s.ArrearsAmount,
				boolDisplay(s.IsEnabled, "启用", "禁用"), s.Remark,
			},
			Extension: s.ExtensionData,
		})
	}
	return rows, nil
}

// ClientExporter 客户导出
type ClientExporter struct {
	repo repository.ClientsRepository
}

func NewClientExporter(repo repository.ClientsRepository) *ClientExporter {
	return &ClientExporter{repo: repo}
}

func (e *ClientExporter) Model() domain.DataModel { return domain.ModelClient }

func (e *ClientExporter) Headers() []string {
	return []string{"编号", "名称", "等级", "联系人", "电话", "地址", "期初欠款", "欠款", "状态", "备注"}
}

func (e *ClientExporter) Fetch(ctx context.Context, tenantID string, ids []string) ([]ExportRow, error) {
	clients, err := e.repo.GetClientsByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clients: %w", err)
	}

	rows := make([]ExportRow, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, ExportRow{
			Cells: []any{
				c.Number, c.Name, string(c.Level), c.Contact, c.Phone, c.Address,
				c.InitialArrearsAmount, c.ArrearsAmount,
				boolDisplay(c.IsEnabled, "启用", "禁用"), c.Remark,
			},
			Extension: c.ExtensionData,
		})
	}
	return rows, nil
}

// WarehouseExporter 仓库导出
type WarehouseExporter struct {
	repo repository.WarehousesRepository
}

func NewWarehouseExporter(repo repository.WarehousesRepository) *WarehouseExporter {
	return &WarehouseExporter{repo: repo}
}

func (e *WarehouseExporter) Model() domain.DataModel { return domain.ModelWarehouse }

func (e *WarehouseExporter) Headers() []string {
	return []string{"编号", "名称", "地址", "盘点锁定", "状态", "备注"}
}

func (e *WarehouseExporter) Fetch(ctx context.Context, tenantID string, ids []string) ([]ExportRow, error) {
	warehouses, err := e.repo.GetWarehousesByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch warehouses: %w", err)
	}

	rows := make([]ExportRow, 0, len(warehouses))
	for _, w := range warehouses {
		rows = append(rows, ExportRow{
			Cells: []any{
				w.Number, w.Name, w.Address,
				boolDisplay(w.IsLocked, "锁定", "正常"),
				boolDisplay(w.IsEnabled, "启用", "禁用"), w.Remark,
			},
			Extension: w.ExtensionData,
		})
	}
	return rows, nil
}

// UserExporter 用户导出
type UserExporter struct {
	repo repository.UsersRepository
}

func NewUserExporter(repo repository.UsersRepository) *UserExporter {
	return &UserExporter{repo: repo}
}

func (e *UserExporter) Model() domain.DataModel { return domain.ModelUser }

func (e *UserExporter) Headers() []string {
	return []string{"编号", "用户名", "姓名", "电话", "管理员", "状态", "备注"}
}

func (e *UserExporter) Fetch(ctx context.Context, tenantID string, ids []string) ([]ExportRow, error) {
	users, err := e.repo.GetUsersByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	rows := make([]ExportRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, ExportRow{
			Cells: []any{
				u.Number, u.Username, u.Name, u.Phone,
				boolDisplay(u.IsManager, "是", "否"),
				boolDisplay(u.IsEnabled, "启用", "禁用"), u.Remark,
			},
			Extension: u.ExtensionData,
		})
	}
	return rows, nil
}

// ExporterRegistry 按模型类别查找导出数据源
type ExporterRegistry struct {
	exporters map[domain.DataModel]Exporter
}

func NewExporterRegistry(exporters ...Exporter) *ExporterRegistry {
	m := make(map[domain.DataModel]Exporter, len(exporters))
	for _, e := range exporters {
		m[e.Model()] = e
	}
	return &ExporterRegistry{exporters: m}
}

// Lookup 查找模型对应的导出数据源
func (r *ExporterRegistry) Lookup(model domain.DataModel) (Exporter, bool) {
	e, ok := r.exporters[model]
	return e, ok
}
