package marketplace

import (
	"strings"

	"github.com/erp/resale/internal/domain/shared"
)

// BatchKind identifies what an import batch contains
type BatchKind string

const (
	BatchKindOrders BatchKind = "ORDERS"
)

// ImportBatch groups all staged orders produced by one order CSV import
type ImportBatch struct {
	shared.BaseAggregateRoot
	Kind        BatchKind
	SourceLabel string
	Delimiter   string
	TotalRows   int
	FailedCount int
	ArchiveKey  string
}

// NewImportBatch creates a new order import batch
func NewImportBatch(sourceLabel string, delimiter rune) *ImportBatch {
	label := strings.TrimSpace(sourceLabel)
	if len(label) > 200 {
		label = label[:200]
	}
	return &ImportBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              BatchKindOrders,
		SourceLabel:       label,
		Delimiter:         string(delimiter),
	}
}

// RecordRowCounts stores the parse outcome of the batch's CSV
func (b *ImportBatch) RecordRowCounts(totalRows, failedCount int) {
	b.TotalRows = totalRows
	b.FailedCount = failedCount
	b.Touch()
}

// SetArchiveKey records where the raw CSV was archived
func (b *ImportBatch) SetArchiveKey(key string) {
	b.ArchiveKey = key
	b.Touch()
}

// BatchSummary is an import batch with its staged order counts per status
type BatchSummary struct {
	Batch               ImportBatch
	StagedOrdersCount   int64
	ReadyCount          int64
	NeedsAttentionCount int64
	AppliedCount        int64
}
