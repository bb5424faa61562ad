package trade

import (
	"context"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// SalesOrderRepository defines the interface for sales order persistence
type SalesOrderRepository interface {
	// FindByID finds a sales order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindByExternalOrder finds the sale created for a marketplace order
	FindByExternalOrder(ctx context.Context, channel, externalOrderID string) (*SalesOrder, error)

	// ExistsByExternalOrder checks if a marketplace order was already sold
	ExistsByExternalOrder(ctx context.Context, channel, externalOrderID string) (bool, error)

	// FindAll finds sales orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesOrder, error)

	// Create inserts a new sales order with its lines
	Create(ctx context.Context, order *SalesOrder) error
}
