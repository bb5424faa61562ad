package models

import (
	"time"

	"github.com/erp/resale/internal/domain/inventory"
	"github.com/google/uuid"
)

// InventoryItemModel is the persistence model for the InventoryItem aggregate root.
type InventoryItemModel struct {
	AggregateModel
	ItemCode          string               `gorm:"type:varchar(20);not null;uniqueIndex:idx_inventory_item_code"`
	MasterProductID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_inventory_item_fifo,priority:1"`
	Status            inventory.ItemStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE';index:idx_inventory_item_fifo,priority:2"`
	AcquiredAt        time.Time            `gorm:"not null;index:idx_inventory_item_fifo,priority:3"`
	PurchaseCostCents int64                `gorm:"not null;default:0"`
	Title             string               `gorm:"type:varchar(300)"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}

// ToDomain converts the persistence model to a domain InventoryItem entity.
func (m *InventoryItemModel) ToDomain() *inventory.InventoryItem {
	return &inventory.InventoryItem{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ItemCode:          m.ItemCode,
		MasterProductID:   m.MasterProductID,
		Status:            m.Status,
		AcquiredAt:        m.AcquiredAt,
		PurchaseCostCents: m.PurchaseCostCents,
		Title:             m.Title,
	}
}

// FromDomain populates the persistence model from a domain InventoryItem entity.
func (m *InventoryItemModel) FromDomain(i *inventory.InventoryItem) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.ItemCode = i.ItemCode
	m.MasterProductID = i.MasterProductID
	m.Status = i.Status
	m.AcquiredAt = i.AcquiredAt
	m.PurchaseCostCents = i.PurchaseCostCents
	m.Title = i.Title
}

// InventoryItemModelFromDomain creates a new persistence model from a domain InventoryItem entity.
func InventoryItemModelFromDomain(i *inventory.InventoryItem) *InventoryItemModel {
	m := &InventoryItemModel{}
	m.FromDomain(i)
	return m
}
