package inventory

import (
	"strings"
	"time"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemStatus is the lifecycle state of a single physical inventory unit
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "AVAILABLE"
	ItemStatusSold      ItemStatus = "SOLD"
)

// IsValid checks if the status is a known value
func (s ItemStatus) IsValid() bool {
	return s == ItemStatusAvailable || s == ItemStatusSold
}

// InventoryItem is one physical unit in the warehouse.
// Each unit carries its own item code and belongs to a master product;
// FIFO matching orders units of a master product by AcquiredAt.
type InventoryItem struct {
	shared.BaseAggregateRoot
	ItemCode          string
	MasterProductID   uuid.UUID
	Status            ItemStatus
	AcquiredAt        time.Time
	PurchaseCostCents int64
	Title             string
}

// NewInventoryItem creates a new AVAILABLE unit with a freshly generated item code
func NewInventoryItem(masterProductID uuid.UUID, acquiredAt time.Time, purchaseCostCents int64) (*InventoryItem, error) {
	code, err := GenerateItemCode()
	if err != nil {
		return nil, err
	}
	return NewInventoryItemWithCode(code, masterProductID, acquiredAt, purchaseCostCents)
}

// NewInventoryItemWithCode creates a new AVAILABLE unit with an existing item code
func NewInventoryItemWithCode(code string, masterProductID uuid.UUID, acquiredAt time.Time, purchaseCostCents int64) (*InventoryItem, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !IsItemCode(code) {
		return nil, shared.NewDomainError("INVALID_ITEM_CODE", "Item code must match IT- followed by 12 base36 characters")
	}
	if masterProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MASTER_PRODUCT", "Master product ID cannot be empty")
	}
	if acquiredAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_ACQUIRED_AT", "Acquisition date is required")
	}
	if purchaseCostCents < 0 {
		return nil, shared.NewDomainError("INVALID_COST", "Purchase cost cannot be negative")
	}

	item := &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemCode:          code,
		MasterProductID:   masterProductID,
		Status:            ItemStatusAvailable,
		AcquiredAt:        acquiredAt,
		PurchaseCostCents: purchaseCostCents,
	}
	return item, nil
}

// IsAvailable returns true if the unit can be sold
func (i *InventoryItem) IsAvailable() bool {
	return i.Status == ItemStatusAvailable
}

// MarkSold retires the unit after a finalized sale
func (i *InventoryItem) MarkSold(salesOrderID uuid.UUID) error {
	if i.Status != ItemStatusAvailable {
		return shared.ErrItemNotAvailable
	}
	i.Status = ItemStatusSold
	i.MarkModified()
	i.AddDomainEvent(NewItemSoldEvent(i, salesOrderID))
	return nil
}

// Restock returns a sold unit to AVAILABLE, e.g. after a sale return
func (i *InventoryItem) Restock() error {
	if i.Status != ItemStatusSold {
		return shared.NewDomainError("INVALID_STATE", "Only sold items can be restocked")
	}
	i.Status = ItemStatusAvailable
	i.MarkModified()
	i.AddDomainEvent(NewItemRestockedEvent(i))
	return nil
}
