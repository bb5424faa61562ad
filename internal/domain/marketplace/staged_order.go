package marketplace

import (
	"strings"
	"time"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// StagedOrderStatus is the reconciliation state of an imported order
type StagedOrderStatus string

const (
	StagedOrderStatusReady          StagedOrderStatus = "READY"
	StagedOrderStatusNeedsAttention StagedOrderStatus = "NEEDS_ATTENTION"
	StagedOrderStatusApplied        StagedOrderStatus = "APPLIED"
)

// IsValid checks if the status is a known value
func (s StagedOrderStatus) IsValid() bool {
	switch s {
	case StagedOrderStatusReady, StagedOrderStatusNeedsAttention, StagedOrderStatusApplied:
		return true
	}
	return false
}

// StagedOrderLine is one sold line of a staged order and its match outcome
type StagedOrderLine struct {
	shared.BaseEntity
	StagedOrderID          uuid.UUID
	LineNo                 int
	RowNumber              int
	SKU                    string
	Title                  string
	SaleGrossCents         int64
	ShippingGrossCents     int64
	MatchedInventoryItemID *uuid.UUID
	MatchStrategy          MatchStrategy
	MatchError             *string
}

// IsMatched returns true if the line resolved to an inventory unit
func (l *StagedOrderLine) IsMatched() bool {
	return l.MatchedInventoryItemID != nil
}

// SetMatch stores a match outcome, keeping strategy, item and error consistent
func (l *StagedOrderLine) SetMatch(result MatchResult) {
	l.UpdatedAt = time.Now()
	if result.Matched() {
		id := *result.ItemID
		l.MatchedInventoryItemID = &id
		l.MatchStrategy = result.Strategy
		l.MatchError = nil
		return
	}

	reason := MatchReasonNoAvailableInventory
	if result.Err != nil && result.Err.Reason != "" {
		reason = result.Err.Reason
	}
	l.MatchedInventoryItemID = nil
	l.MatchStrategy = MatchStrategyNone
	l.MatchError = &reason
}

// StagedOrder is an imported marketplace order awaiting or having completed
// reconciliation. It is the aggregate root for its lines.
type StagedOrder struct {
	shared.BaseAggregateRoot
	BatchID            uuid.UUID
	Channel            Channel
	ExternalOrderID    string
	OrderDate          time.Time
	BuyerName          string
	BuyerAddress       string
	SaleGrossCents     int64
	ShippingGrossCents int64
	Status             StagedOrderStatus
	SalesOrderID       *uuid.UUID
	AppliedAt          *time.Time
	Lines              []StagedOrderLine
}

// NewStagedOrder creates a staged order from a grouped order and its allocated
// shipping shares (one per row). Lines start unmatched until matched.
func NewStagedOrder(batchID uuid.UUID, group OrderGroup, shippingShares []int64) (*StagedOrder, error) {
	if batchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BATCH", "Batch ID cannot be empty")
	}
	if strings.TrimSpace(group.Key.ExternalOrderID) == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ORDER_ID", "External order ID cannot be empty")
	}
	if len(group.Rows) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "Staged order must have at least one line")
	}
	if len(shippingShares) != len(group.Rows) {
		return nil, shared.NewDomainError("INVALID_ORDER", "Shipping shares do not match order lines")
	}

	order := &StagedOrder{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		BatchID:            batchID,
		Channel:            group.Key.Channel,
		ExternalOrderID:    group.Key.ExternalOrderID,
		OrderDate:          group.OrderDate,
		BuyerName:          group.BuyerName,
		BuyerAddress:       group.BuyerAddress,
		ShippingGrossCents: group.ShippingGrossCents(),
		Status:             StagedOrderStatusNeedsAttention,
		Lines:              make([]StagedOrderLine, 0, len(group.Rows)),
	}

	for i, row := range group.Rows {
		order.SaleGrossCents += row.SaleGrossCents
		reason := "not matched"
		order.Lines = append(order.Lines, StagedOrderLine{
			BaseEntity:         shared.NewBaseEntity(),
			StagedOrderID:      order.ID,
			LineNo:             i + 1,
			RowNumber:          row.RowNumber,
			SKU:                strings.TrimSpace(row.SKU),
			Title:              row.Title,
			SaleGrossCents:     row.SaleGrossCents,
			ShippingGrossCents: shippingShares[i],
			MatchStrategy:      MatchStrategyNone,
			MatchError:         &reason,
		})
	}

	return order, nil
}

// MatchLines resolves every unmatched line against the index and claims the
// units it takes, then re-classifies the order. Already matched lines keep
// their unit. Applied orders are left untouched.
func (o *StagedOrder) MatchLines(index InventoryIndex, claims ClaimSet) {
	if o.IsApplied() {
		return
	}
	for i := range o.Lines {
		line := &o.Lines[i]
		if line.IsMatched() {
			continue
		}
		result := Match(line.SKU, index, claims)
		if result.Matched() {
			claims.Claim(*result.ItemID)
		}
		line.SetMatch(result)
	}
	o.Classify()
}

// Classify derives the status from the lines: READY iff every line matched.
// APPLIED is terminal and never reclassified.
func (o *StagedOrder) Classify() {
	if o.IsApplied() {
		return
	}
	status := StagedOrderStatusReady
	for i := range o.Lines {
		if !o.Lines[i].IsMatched() {
			status = StagedOrderStatusNeedsAttention
			break
		}
	}
	if status != o.Status {
		o.Status = status
		o.Touch()
	}
}

// IsReady returns true if the order can be applied
func (o *StagedOrder) IsReady() bool {
	return o.Status == StagedOrderStatusReady
}

// IsApplied returns true once the order was turned into a sale
func (o *StagedOrder) IsApplied() bool {
	return o.Status == StagedOrderStatusApplied
}

// Key returns the marketplace identity of the order
func (o *StagedOrder) Key() OrderKey {
	return OrderKey{Channel: o.Channel, ExternalOrderID: o.ExternalOrderID}
}

// MatchedItemIDs returns the inventory units claimed by the order's lines
func (o *StagedOrder) MatchedItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Lines))
	for i := range o.Lines {
		if o.Lines[i].MatchedInventoryItemID != nil {
			ids = append(ids, *o.Lines[i].MatchedInventoryItemID)
		}
	}
	return ids
}

// MatchedLineCount returns how many lines resolved to a unit
func (o *StagedOrder) MatchedLineCount() int {
	return len(o.MatchedItemIDs())
}

// MarkApplied records the sale created for this order.
// Applying an already applied order is a no-op.
func (o *StagedOrder) MarkApplied(salesOrderID uuid.UUID) error {
	if o.IsApplied() {
		return nil
	}
	if !o.IsReady() {
		return shared.NewDomainError("INVALID_STATE", "Only READY staged orders can be applied")
	}
	if salesOrderID == uuid.Nil {
		return shared.NewDomainError("INVALID_SALES_ORDER", "Sales order ID cannot be empty")
	}

	now := time.Now()
	o.Status = StagedOrderStatusApplied
	o.SalesOrderID = &salesOrderID
	o.AppliedAt = &now
	o.MarkModified()
	o.AddDomainEvent(NewStagedOrderAppliedEvent(o))
	return nil
}

// CanDiscard returns true if the order may be removed from its batch
func (o *StagedOrder) CanDiscard() bool {
	return !o.IsApplied()
}
