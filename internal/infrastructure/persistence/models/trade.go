package models

import (
	"time"

	"github.com/erp/resale/internal/domain/trade"
	"github.com/google/uuid"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	AggregateModel
	OrderNumber        string                `gorm:"type:varchar(100);not null;uniqueIndex:idx_sales_order_number"`
	Channel            string                `gorm:"type:varchar(20);not null;uniqueIndex:idx_sales_order_external,priority:1"`
	ExternalOrderID    string                `gorm:"type:varchar(100);not null;uniqueIndex:idx_sales_order_external,priority:2"`
	StagedOrderID      *uuid.UUID            `gorm:"type:uuid;index"`
	OrderDate          time.Time             `gorm:"type:date;not null"`
	BuyerName          string                `gorm:"type:varchar(200)"`
	BuyerAddress       string                `gorm:"type:text"`
	Status             trade.OrderStatus     `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	CashRecognition    trade.CashRecognition `gorm:"type:varchar(20);not null"`
	SaleGrossCents     int64                 `gorm:"not null;default:0"`
	ShippingGrossCents int64                 `gorm:"not null;default:0"`
	TotalGrossCents    int64                 `gorm:"not null;default:0"`
	FinalizedAt        *time.Time
	Lines              []SalesOrderLineModel `gorm:"foreignKey:SalesOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder entity.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	order := &trade.SalesOrder{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		OrderNumber:        m.OrderNumber,
		Channel:            m.Channel,
		ExternalOrderID:    m.ExternalOrderID,
		StagedOrderID:      m.StagedOrderID,
		OrderDate:          m.OrderDate,
		BuyerName:          m.BuyerName,
		BuyerAddress:       m.BuyerAddress,
		Status:             m.Status,
		CashRecognition:    m.CashRecognition,
		SaleGrossCents:     m.SaleGrossCents,
		ShippingGrossCents: m.ShippingGrossCents,
		TotalGrossCents:    m.TotalGrossCents,
		FinalizedAt:        m.FinalizedAt,
		Lines:              make([]trade.SalesOrderLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		order.Lines[i] = *line.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain SalesOrder entity.
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.Channel = o.Channel
	m.ExternalOrderID = o.ExternalOrderID
	m.StagedOrderID = o.StagedOrderID
	m.OrderDate = o.OrderDate
	m.BuyerName = o.BuyerName
	m.BuyerAddress = o.BuyerAddress
	m.Status = o.Status
	m.CashRecognition = o.CashRecognition
	m.SaleGrossCents = o.SaleGrossCents
	m.ShippingGrossCents = o.ShippingGrossCents
	m.TotalGrossCents = o.TotalGrossCents
	m.FinalizedAt = o.FinalizedAt
	m.Lines = make([]SalesOrderLineModel, len(o.Lines))
	for i := range o.Lines {
		m.Lines[i] = *SalesOrderLineModelFromDomain(&o.Lines[i])
	}
}

// SalesOrderModelFromDomain creates a new persistence model from a domain SalesOrder entity.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}

// SalesOrderLineModel is the persistence model for the SalesOrderLine entity.
type SalesOrderLineModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key"`
	SalesOrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	LineNo             int       `gorm:"not null"`
	InventoryItemID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sales_order_line_item"`
	SKU                string    `gorm:"column:sku;type:varchar(100)"`
	Title              string    `gorm:"type:varchar(300)"`
	SaleGrossCents     int64     `gorm:"not null;default:0"`
	ShippingGrossCents int64     `gorm:"not null;default:0"`
	CreatedAt          time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain SalesOrderLine entity.
func (m *SalesOrderLineModel) ToDomain() *trade.SalesOrderLine {
	return &trade.SalesOrderLine{
		ID:                 m.ID,
		SalesOrderID:       m.SalesOrderID,
		LineNo:             m.LineNo,
		InventoryItemID:    m.InventoryItemID,
		SKU:                m.SKU,
		Title:              m.Title,
		SaleGrossCents:     m.SaleGrossCents,
		ShippingGrossCents: m.ShippingGrossCents,
		CreatedAt:          m.CreatedAt,
	}
}

// SalesOrderLineModelFromDomain creates a new persistence model from a domain SalesOrderLine entity.
func SalesOrderLineModelFromDomain(l *trade.SalesOrderLine) *SalesOrderLineModel {
	return &SalesOrderLineModel{
		ID:                 l.ID,
		SalesOrderID:       l.SalesOrderID,
		LineNo:             l.LineNo,
		InventoryItemID:    l.InventoryItemID,
		SKU:                l.SKU,
		Title:              l.Title,
		SaleGrossCents:     l.SaleGrossCents,
		ShippingGrossCents: l.ShippingGrossCents,
		CreatedAt:          l.CreatedAt,
	}
}
