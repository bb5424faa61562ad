package marketplace

import (
	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeStagedOrder = "StagedOrder"
	AggregateTypeImportBatch = "ImportBatch"
)

// Event type constants
const (
	EventTypeStagedOrderApplied = "marketplace.staged_order.applied"
	EventTypeOrdersImported     = "marketplace.orders.imported"
	EventTypePayoutsImported    = "marketplace.payouts.imported"
)

// StagedOrderAppliedEvent is raised when a staged order became a finalized sale
type StagedOrderAppliedEvent struct {
	shared.BaseDomainEvent
	BatchID         uuid.UUID `json:"batch_id"`
	SalesOrderID    uuid.UUID `json:"sales_order_id"`
	Channel         Channel   `json:"channel"`
	ExternalOrderID string    `json:"external_order_id"`
	LineCount       int       `json:"line_count"`
	SaleGrossCents  int64     `json:"sale_gross_cents"`
}

// NewStagedOrderAppliedEvent creates a new StagedOrderAppliedEvent
func NewStagedOrderAppliedEvent(order *StagedOrder) *StagedOrderAppliedEvent {
	var salesOrderID uuid.UUID
	if order.SalesOrderID != nil {
		salesOrderID = *order.SalesOrderID
	}
	return &StagedOrderAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStagedOrderApplied, AggregateTypeStagedOrder, order.ID),
		BatchID:         order.BatchID,
		SalesOrderID:    salesOrderID,
		Channel:         order.Channel,
		ExternalOrderID: order.ExternalOrderID,
		LineCount:       len(order.Lines),
		SaleGrossCents:  order.SaleGrossCents,
	}
}

// OrdersImportedEvent is raised after an order CSV was staged
type OrdersImportedEvent struct {
	shared.BaseDomainEvent
	TotalRows      int `json:"total_rows"`
	StagedOrders   int `json:"staged_orders"`
	ReadyOrders    int `json:"ready_orders"`
	NeedsAttention int `json:"needs_attention_orders"`
	SkippedOrders  int `json:"skipped_orders"`
	FailedRows     int `json:"failed_rows"`
}

// NewOrdersImportedEvent creates a new OrdersImportedEvent
func NewOrdersImportedEvent(batch *ImportBatch, staged, ready, needsAttention, skipped int) *OrdersImportedEvent {
	return &OrdersImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrdersImported, AggregateTypeImportBatch, batch.ID),
		TotalRows:       batch.TotalRows,
		StagedOrders:    staged,
		ReadyOrders:     ready,
		NeedsAttention:  needsAttention,
		SkippedOrders:   skipped,
		FailedRows:      batch.FailedCount,
	}
}

// PayoutsImportedEvent is raised after a payout CSV was processed
type PayoutsImportedEvent struct {
	shared.BaseDomainEvent
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// NewPayoutsImportedEvent creates a new PayoutsImportedEvent
func NewPayoutsImportedEvent(imported, skipped, failed int) *PayoutsImportedEvent {
	return &PayoutsImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutsImported, "Payout", uuid.Nil),
		Imported:        imported,
		Skipped:         skipped,
		Failed:          failed,
	}
}
