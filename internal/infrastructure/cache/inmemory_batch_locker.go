package cache

import (
	"context"
	"sync"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// InMemoryBatchLocker serializes apply runs within one process.
// It does not coordinate across instances.
type InMemoryBatchLocker struct {
	mu     sync.Mutex
	locked map[uuid.UUID]struct{}
}

// NewInMemoryBatchLocker creates a new in-process batch locker
func NewInMemoryBatchLocker() *InMemoryBatchLocker {
	return &InMemoryBatchLocker{locked: make(map[uuid.UUID]struct{})}
}

// Lock marks the batch as being applied; a second caller fails with
// shared.ErrApplyInProgress until the first one unlocks
func (l *InMemoryBatchLocker) Lock(_ context.Context, batchID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.locked[batchID]; held {
		return nil, shared.ErrApplyInProgress
	}
	l.locked[batchID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.locked, batchID)
			l.mu.Unlock()
		})
	}, nil
}

// IsLocked reports whether an apply run currently holds the batch
func (l *InMemoryBatchLocker) IsLocked(batchID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.locked[batchID]
	return held
}
