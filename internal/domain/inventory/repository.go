package inventory

import (
	"context"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// InventoryItemRepository defines the interface for inventory unit persistence
type InventoryItemRepository interface {
	// FindByID finds an inventory item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// FindByIDs finds multiple inventory items by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]InventoryItem, error)

	// FindByItemCode finds a unit by its item code
	FindByItemCode(ctx context.Context, code string) (*InventoryItem, error)

	// FindByItemCodes finds all units whose code is in codes
	FindByItemCodes(ctx context.Context, codes []string) ([]InventoryItem, error)

	// FindAvailableByMasterProducts returns AVAILABLE units of the given master
	// products ordered by acquired_at, then item_code
	FindAvailableByMasterProducts(ctx context.Context, masterProductIDs []uuid.UUID) ([]InventoryItem, error)

	// FindAll finds inventory items matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryItem, error)

	// LockByIDs loads the units with a row lock held until the surrounding
	// transaction ends. Rows are locked in id order.
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]InventoryItem, error)

	// Save creates or updates an inventory item
	Save(ctx context.Context, item *InventoryItem) error

	// SaveWithLock updates an item only if its stored version is the one it was loaded with
	SaveWithLock(ctx context.Context, item *InventoryItem) error
}
