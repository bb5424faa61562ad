package event

import (
	"context"

	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
)

// MarketplaceRecorder receives marketplace measurements
type MarketplaceRecorder interface {
	RecordOrderImport(ctx context.Context, totalRows, failedRows, ready, needsAttention, skipped int)
	RecordOrderApplied(ctx context.Context, channel string, saleGrossCents int64)
	RecordItemSold(ctx context.Context)
	RecordPayoutImport(ctx context.Context, imported, skipped, failed int)
}

// MetricsHandler turns marketplace domain events into metrics
type MetricsHandler struct {
	recorder MarketplaceRecorder
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(recorder MarketplaceRecorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// EventTypes returns the event types this handler records
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		marketplace.EventTypeOrdersImported,
		marketplace.EventTypeStagedOrderApplied,
		marketplace.EventTypePayoutsImported,
		inventory.EventTypeItemSold,
	}
}

// Handle records the measurement carried by one event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *marketplace.OrdersImportedEvent:
		h.recorder.RecordOrderImport(ctx, e.TotalRows, e.FailedRows, e.ReadyOrders, e.NeedsAttention, e.SkippedOrders)
	case *marketplace.StagedOrderAppliedEvent:
		h.recorder.RecordOrderApplied(ctx, string(e.Channel), e.SaleGrossCents)
	case *marketplace.PayoutsImportedEvent:
		h.recorder.RecordPayoutImport(ctx, e.Imported, e.Skipped, e.Failed)
	case *inventory.ItemSoldEvent:
		h.recorder.RecordItemSold(ctx)
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
