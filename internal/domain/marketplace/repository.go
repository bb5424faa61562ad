package marketplace

import (
	"context"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportBatchRepository defines the interface for import batch persistence
type ImportBatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ImportBatch, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ImportBatch, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, batch *ImportBatch) error
}

// StagedOrderFilter narrows staged order queries
type StagedOrderFilter struct {
	shared.Filter
	Status  *StagedOrderStatus
	BatchID *uuid.UUID
	// Query matches external order id, buyer name or a line SKU
	Query string
}

// StagedOrderRepository defines the interface for staged order persistence.
// Loaded orders always include their lines ordered by line number.
type StagedOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StagedOrder, error)

	// FindByIDForUpdate loads the order with a row lock held until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StagedOrder, error)

	FindAll(ctx context.Context, filter StagedOrderFilter) ([]StagedOrder, error)
	Count(ctx context.Context, filter StagedOrderFilter) (int64, error)

	// FindByBatch returns every order of a batch in creation order
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]StagedOrder, error)

	// FindIDsByBatchAndStatus returns order ids of a batch in creation order
	FindIDsByBatchAndStatus(ctx context.Context, batchID uuid.UUID, status StagedOrderStatus) ([]uuid.UUID, error)

	// CountByBatchGroupedByStatus returns per-status counts for a batch
	CountByBatchGroupedByStatus(ctx context.Context, batchID uuid.UUID) (map[StagedOrderStatus]int64, error)

	// FindAppliedKeys reports which of keys already exist as APPLIED orders
	FindAppliedKeys(ctx context.Context, keys []OrderKey) (map[OrderKey]bool, error)

	// CreateAll inserts new orders together with their lines
	CreateAll(ctx context.Context, orders []*StagedOrder) error

	// SaveWithLock updates the order header and lines, failing with
	// shared.ErrConcurrencyConflict if the stored version moved on
	SaveWithLock(ctx context.Context, order *StagedOrder) error

	// Delete removes an order and its lines
	Delete(ctx context.Context, id uuid.UUID) error
}
