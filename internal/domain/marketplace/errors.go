package marketplace

import (
	"fmt"
	"strings"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// Apply conflict reasons
const (
	ConflictItemNotAvailable = "inventory item is no longer available"
	ConflictItemMissing      = "inventory item no longer exists"
	ConflictItemClaimedInRun = "inventory item was already sold by another order in this run"
	ConflictAlreadySold      = "order was already applied in another batch"
	ConflictOrderNotReady    = "staged order is not READY"
	ConflictConcurrentUpdate = "inventory item was modified concurrently"
)

// ApplyConflictError reports why a READY staged order could not be applied.
// The order stays READY and can be retried after the cause is fixed.
type ApplyConflictError struct {
	StagedOrderID uuid.UUID
	Reason        string
	ItemIDs       []uuid.UUID
}

// NewApplyConflictError creates a new ApplyConflictError
func NewApplyConflictError(stagedOrderID uuid.UUID, reason string, itemIDs ...uuid.UUID) *ApplyConflictError {
	return &ApplyConflictError{
		StagedOrderID: stagedOrderID,
		Reason:        reason,
		ItemIDs:       itemIDs,
	}
}

// Error implements the error interface
func (e *ApplyConflictError) Error() string {
	if len(e.ItemIDs) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, joinIDs(e.ItemIDs))
}

// Unwrap allows errors.Is(err, shared.ErrApplyConflict)
func (e *ApplyConflictError) Unwrap() error {
	return shared.ErrApplyConflict
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
