package trade

import (
	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeSalesOrder = "SalesOrder"

// Event type constants
const (
	EventTypeSalesOrderFinalized = "trade.sales_order.finalized"
)

// SalesOrderFinalizedEvent is raised when a sale is finalized
type SalesOrderFinalizedEvent struct {
	shared.BaseDomainEvent
	OrderNumber     string          `json:"order_number"`
	Channel         string          `json:"channel"`
	CashRecognition CashRecognition `json:"cash_recognition"`
	TotalGrossCents int64           `json:"total_gross_cents"`
	InventoryItems  []uuid.UUID     `json:"inventory_item_ids"`
}

// NewSalesOrderFinalizedEvent creates a new SalesOrderFinalizedEvent
func NewSalesOrderFinalizedEvent(order *SalesOrder) *SalesOrderFinalizedEvent {
	return &SalesOrderFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderFinalized, AggregateTypeSalesOrder, order.ID),
		OrderNumber:     order.OrderNumber,
		Channel:         order.Channel,
		CashRecognition: order.CashRecognition,
		TotalGrossCents: order.TotalGrossCents,
		InventoryItems:  order.InventoryItemIDs(),
	}
}
