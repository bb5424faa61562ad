package inventory

import (
	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeInventoryItem = "InventoryItem"

// Event type constants
const (
	EventTypeItemSold      = "inventory.item.sold"
	EventTypeItemRestocked = "inventory.item.restocked"
)

// ItemSoldEvent is raised when a unit is retired by a finalized sale
type ItemSoldEvent struct {
	shared.BaseDomainEvent
	ItemCode        string    `json:"item_code"`
	MasterProductID uuid.UUID `json:"master_product_id"`
	SalesOrderID    uuid.UUID `json:"sales_order_id"`
}

// NewItemSoldEvent creates a new ItemSoldEvent
func NewItemSoldEvent(item *InventoryItem, salesOrderID uuid.UUID) *ItemSoldEvent {
	return &ItemSoldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemSold, AggregateTypeInventoryItem, item.ID),
		ItemCode:        item.ItemCode,
		MasterProductID: item.MasterProductID,
		SalesOrderID:    salesOrderID,
	}
}

// ItemRestockedEvent is raised when a sold unit becomes available again
type ItemRestockedEvent struct {
	shared.BaseDomainEvent
	ItemCode string `json:"item_code"`
}

// NewItemRestockedEvent creates a new ItemRestockedEvent
func NewItemRestockedEvent(item *InventoryItem) *ItemRestockedEvent {
	return &ItemRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemRestocked, AggregateTypeInventoryItem, item.ID),
		ItemCode:        item.ItemCode,
	}
}
