package repository

import (
	"context"

	"inventory-data/internal/domain"
)

// ClientsRepository 客户Repository接口
type ClientsRepository interface {
	GetClient(ctx context.Context, tenantID, clientID string) (*domain.Client, error)
	ListClients(ctx context.Context, tenantID string, filter ArchiveFilter, page, size int) ([]*domain.Client, int, error)
	GetClientsByIDs(ctx context.Context, tenantID string, ids []string) ([]*domain.Client, error)
	CreateClient(ctx context.Context, tenantID string, client *domain.Client) (string, error)
	UpdateClient(ctx context.Context, tenantID string, client *domain.Client) error
	SoftDeleteClient(ctx context.Context, tenantID, clientID string) error
	UndoDeleteClient(ctx context.Context, tenantID, clientID string) error
	ExistsActiveName(ctx context.Context, tenantID, name, excludeID string) (bool, error)
}
