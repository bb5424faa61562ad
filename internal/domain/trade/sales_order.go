package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderStatus represents the status of a sales order
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusFinalized OrderStatus = "FINALIZED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusFinalized, OrderStatusCancelled:
		return true
	}
	return false
}

// CashRecognition controls when the sale's cash is booked
type CashRecognition string

const (
	// CashRecognitionAtSale books cash when the sale is finalized
	CashRecognitionAtSale CashRecognition = "AT_SALE"
	// CashRecognitionAtPayout books cash when the marketplace pays out
	CashRecognitionAtPayout CashRecognition = "AT_PAYOUT"
)

// SalesOrderLine is one sold inventory unit
type SalesOrderLine struct {
	ID                 uuid.UUID
	SalesOrderID       uuid.UUID
	LineNo             int
	InventoryItemID    uuid.UUID
	SKU                string
	Title              string
	SaleGrossCents     int64
	ShippingGrossCents int64
	CreatedAt          time.Time
}

// SalesOrder is a sale of one or more inventory units
type SalesOrder struct {
	shared.BaseAggregateRoot
	OrderNumber        string
	Channel            string
	ExternalOrderID    string
	StagedOrderID      *uuid.UUID
	OrderDate          time.Time
	BuyerName          string
	BuyerAddress       string
	Status             OrderStatus
	CashRecognition    CashRecognition
	SaleGrossCents     int64
	ShippingGrossCents int64
	TotalGrossCents    int64
	FinalizedAt        *time.Time
	Lines              []SalesOrderLine
}

// MarketplaceSale carries what is needed to finalize a marketplace order
type MarketplaceSale struct {
	Channel         string
	ExternalOrderID string
	StagedOrderID   uuid.UUID
	OrderDate       time.Time
	BuyerName       string
	BuyerAddress    string
	Lines           []MarketplaceSaleLine
}

// MarketplaceSaleLine is one unit sold on a marketplace
type MarketplaceSaleLine struct {
	InventoryItemID    uuid.UUID
	SKU                string
	Title              string
	SaleGrossCents     int64
	ShippingGrossCents int64
}

// MarketplaceOrderNumber builds the sales order number of a marketplace order
func MarketplaceOrderNumber(channel, externalOrderID string) string {
	number := fmt.Sprintf("SO-%s-%s", strings.ToUpper(channel), strings.TrimSpace(externalOrderID))
	if len(number) > 100 {
		number = number[:100]
	}
	return number
}

// NewFinalizedMarketplaceSale creates a FINALIZED sales order whose cash is
// recognized at payout time. Every line must reference an inventory unit.
func NewFinalizedMarketplaceSale(sale MarketplaceSale) (*SalesOrder, error) {
	if strings.TrimSpace(sale.Channel) == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel cannot be empty")
	}
	if strings.TrimSpace(sale.ExternalOrderID) == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ORDER_ID", "External order ID cannot be empty")
	}
	if len(sale.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "Sales order must have at least one line")
	}

	now := time.Now()
	order := &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       MarketplaceOrderNumber(sale.Channel, sale.ExternalOrderID),
		Channel:           sale.Channel,
		ExternalOrderID:   sale.ExternalOrderID,
		OrderDate:         sale.OrderDate,
		BuyerName:         sale.BuyerName,
		BuyerAddress:      sale.BuyerAddress,
		Status:            OrderStatusFinalized,
		CashRecognition:   CashRecognitionAtPayout,
		FinalizedAt:       &now,
		Lines:             make([]SalesOrderLine, 0, len(sale.Lines)),
	}
	if sale.StagedOrderID != uuid.Nil {
		stagedID := sale.StagedOrderID
		order.StagedOrderID = &stagedID
	}

	seen := make(map[uuid.UUID]bool, len(sale.Lines))
	for i, line := range sale.Lines {
		if line.InventoryItemID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Line %d has no inventory item", i+1))
		}
		if seen[line.InventoryItemID] {
			return nil, shared.NewDomainError("INVALID_LINE", fmt.Sprintf("Inventory item %s is sold twice", line.InventoryItemID))
		}
		if line.SaleGrossCents < 0 || line.ShippingGrossCents < 0 {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Line amounts cannot be negative")
		}
		seen[line.InventoryItemID] = true

		order.Lines = append(order.Lines, SalesOrderLine{
			ID:                 uuid.New(),
			SalesOrderID:       order.ID,
			LineNo:             i + 1,
			InventoryItemID:    line.InventoryItemID,
			SKU:                line.SKU,
			Title:              line.Title,
			SaleGrossCents:     line.SaleGrossCents,
			ShippingGrossCents: line.ShippingGrossCents,
			CreatedAt:          now,
		})
		order.SaleGrossCents += line.SaleGrossCents
		order.ShippingGrossCents += line.ShippingGrossCents
	}
	order.TotalGrossCents = order.SaleGrossCents + order.ShippingGrossCents

	order.AddDomainEvent(NewSalesOrderFinalizedEvent(order))
	return order, nil
}

// IsFinalized returns true if the order is finalized
func (o *SalesOrder) IsFinalized() bool {
	return o.Status == OrderStatusFinalized
}

// InventoryItemIDs returns the units sold by this order
func (o *SalesOrder) InventoryItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(o.Lines))
	for i, l := range o.Lines {
		ids[i] = l.InventoryItemID
	}
	return ids
}
