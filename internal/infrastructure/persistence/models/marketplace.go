package models

import (
	"time"

	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportBatchModel is the persistence model for the ImportBatch aggregate root.
type ImportBatchModel struct {
	AggregateModel
	Kind        marketplace.BatchKind `gorm:"type:varchar(20);not null;default:'ORDERS'"`
	SourceLabel string                `gorm:"type:varchar(200)"`
	Delimiter   string                `gorm:"type:varchar(1);not null;default:','"`
	TotalRows   int                   `gorm:"not null;default:0"`
	FailedCount int                   `gorm:"not null;default:0"`
	ArchiveKey  string                `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ImportBatchModel) TableName() string {
	return "import_batches"
}

// ToDomain converts the persistence model to a domain ImportBatch entity.
func (m *ImportBatchModel) ToDomain() *marketplace.ImportBatch {
	return &marketplace.ImportBatch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Kind:              m.Kind,
		SourceLabel:       m.SourceLabel,
		Delimiter:         m.Delimiter,
		TotalRows:         m.TotalRows,
		FailedCount:       m.FailedCount,
		ArchiveKey:        m.ArchiveKey,
	}
}

// FromDomain populates the persistence model from a domain ImportBatch entity.
func (m *ImportBatchModel) FromDomain(b *marketplace.ImportBatch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Kind = b.Kind
	m.SourceLabel = b.SourceLabel
	m.Delimiter = b.Delimiter
	m.TotalRows = b.TotalRows
	m.FailedCount = b.FailedCount
	m.ArchiveKey = b.ArchiveKey
}

// ImportBatchModelFromDomain creates a new persistence model from a domain ImportBatch entity.
func ImportBatchModelFromDomain(b *marketplace.ImportBatch) *ImportBatchModel {
	m := &ImportBatchModel{}
	m.FromDomain(b)
	return m
}

// StagedOrderModel is the persistence model for the StagedOrder aggregate root.
type StagedOrderModel struct {
	AggregateModel
	BatchID            uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_staged_order_batch_key,priority:1"`
	Channel            marketplace.Channel           `gorm:"type:varchar(20);not null;uniqueIndex:idx_staged_order_batch_key,priority:2;index:idx_staged_order_key,priority:1"`
	ExternalOrderID    string                        `gorm:"type:varchar(100);not null;uniqueIndex:idx_staged_order_batch_key,priority:3;index:idx_staged_order_key,priority:2"`
	OrderDate          time.Time                     `gorm:"type:date;not null"`
	BuyerName          string                        `gorm:"type:varchar(200)"`
	BuyerAddress       string                        `gorm:"type:text"`
	SaleGrossCents     int64                         `gorm:"not null;default:0"`
	ShippingGrossCents int64                         `gorm:"not null;default:0"`
	Status             marketplace.StagedOrderStatus `gorm:"type:varchar(20);not null;index"`
	SalesOrderID       *uuid.UUID                    `gorm:"type:uuid"`
	AppliedAt          *time.Time
	Lines              []StagedOrderLineModel `gorm:"foreignKey:StagedOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (StagedOrderModel) TableName() string {
	return "staged_orders"
}

// ToDomain converts the persistence model to a domain StagedOrder entity.
func (m *StagedOrderModel) ToDomain() *marketplace.StagedOrder {
	order := &marketplace.StagedOrder{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		BatchID:            m.BatchID,
		Channel:            m.Channel,
		ExternalOrderID:    m.ExternalOrderID,
		OrderDate:          m.OrderDate,
		BuyerName:          m.BuyerName,
		BuyerAddress:       m.BuyerAddress,
		SaleGrossCents:     m.SaleGrossCents,
		ShippingGrossCents: m.ShippingGrossCents,
		Status:             m.Status,
		SalesOrderID:       m.SalesOrderID,
		AppliedAt:          m.AppliedAt,
		Lines:              make([]marketplace.StagedOrderLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		order.Lines[i] = *line.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain StagedOrder entity.
func (m *StagedOrderModel) FromDomain(o *marketplace.StagedOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.BatchID = o.BatchID
	m.Channel = o.Channel
	m.ExternalOrderID = o.ExternalOrderID
	m.OrderDate = o.OrderDate
	m.BuyerName = o.BuyerName
	m.BuyerAddress = o.BuyerAddress
	m.SaleGrossCents = o.SaleGrossCents
	m.ShippingGrossCents = o.ShippingGrossCents
	m.Status = o.Status
	m.SalesOrderID = o.SalesOrderID
	m.AppliedAt = o.AppliedAt
	m.Lines = make([]StagedOrderLineModel, len(o.Lines))
	for i := range o.Lines {
		m.Lines[i] = *StagedOrderLineModelFromDomain(&o.Lines[i])
	}
}

// StagedOrderModelFromDomain creates a new persistence model from a domain StagedOrder entity.
func StagedOrderModelFromDomain(o *marketplace.StagedOrder) *StagedOrderModel {
	m := &StagedOrderModel{}
	m.FromDomain(o)
	return m
}

// StagedOrderLineModel is the persistence model for the StagedOrderLine entity.
type StagedOrderLineModel struct {
	BaseModel
	StagedOrderID          uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_staged_order_line_no,priority:1"`
	LineNo                 int                       `gorm:"not null;uniqueIndex:idx_staged_order_line_no,priority:2"`
	RowNumber              int                       `gorm:"not null;default:0"`
	SKU                    string                    `gorm:"column:sku;type:varchar(100);not null;index"`
	Title                  string                    `gorm:"type:varchar(300)"`
	SaleGrossCents         int64                     `gorm:"not null;default:0"`
	ShippingGrossCents     int64                     `gorm:"not null;default:0"`
	MatchedInventoryItemID *uuid.UUID                `gorm:"type:uuid;index"`
	MatchStrategy          marketplace.MatchStrategy `gorm:"type:varchar(20);not null;default:'NONE'"`
	MatchError             *string                   `gorm:"type:varchar(300)"`
}

// TableName returns the table name for GORM
func (StagedOrderLineModel) TableName() string {
	return "staged_order_lines"
}

// ToDomain converts the persistence model to a domain StagedOrderLine entity.
func (m *StagedOrderLineModel) ToDomain() *marketplace.StagedOrderLine {
	return &marketplace.StagedOrderLine{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		StagedOrderID:          m.StagedOrderID,
		LineNo:                 m.LineNo,
		RowNumber:              m.RowNumber,
		SKU:                    m.SKU,
		Title:                  m.Title,
		SaleGrossCents:         m.SaleGrossCents,
		ShippingGrossCents:     m.ShippingGrossCents,
		MatchedInventoryItemID: m.MatchedInventoryItemID,
		MatchStrategy:          m.MatchStrategy,
		MatchError:             m.MatchError,
	}
}

// StagedOrderLineModelFromDomain creates a new persistence model from a domain StagedOrderLine entity.
func StagedOrderLineModelFromDomain(l *marketplace.StagedOrderLine) *StagedOrderLineModel {
	m := &StagedOrderLineModel{
		StagedOrderID:          l.StagedOrderID,
		LineNo:                 l.LineNo,
		RowNumber:              l.RowNumber,
		SKU:                    l.SKU,
		Title:                  l.Title,
		SaleGrossCents:         l.SaleGrossCents,
		ShippingGrossCents:     l.ShippingGrossCents,
		MatchedInventoryItemID: l.MatchedInventoryItemID,
		MatchStrategy:          l.MatchStrategy,
		MatchError:             l.MatchError,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}
