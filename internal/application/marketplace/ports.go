package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportArchive stores raw import files for later audit
type ImportArchive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
}

// OrderArchiveKey returns the object key a batch's raw order CSV is stored under
func OrderArchiveKey(batchID uuid.UUID) string {
	return fmt.Sprintf("imports/orders/%s.csv", batchID)
}

// BatchLocker serializes apply runs of the same batch across processes
type BatchLocker interface {
	// Lock acquires the apply lock of a batch. It fails with
	// shared.ErrApplyInProgress when another run holds it.
	// The returned function releases the lock.
	Lock(ctx context.Context, batchID uuid.UUID) (unlock func(), err error)
}

// ApplyMetrics records apply run outcomes
type ApplyMetrics interface {
	RecordApplyConflict(ctx context.Context, conflictType string)
	RecordApplyDuration(ctx context.Context, d time.Duration)
}
