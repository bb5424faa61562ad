package models

import (
	"github.com/erp/resale/internal/domain/catalog"
)

// MasterProductModel is the persistence model for the MasterProduct aggregate root.
type MasterProductModel struct {
	AggregateModel
	SKU  string `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_master_product_sku"`
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (MasterProductModel) TableName() string {
	return "master_products"
}

// ToDomain converts the persistence model to a domain MasterProduct entity.
func (m *MasterProductModel) ToDomain() *catalog.MasterProduct {
	return &catalog.MasterProduct{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SKU:               m.SKU,
		Name:              m.Name,
	}
}

// FromDomain populates the persistence model from a domain MasterProduct entity.
func (m *MasterProductModel) FromDomain(p *catalog.MasterProduct) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
}

// MasterProductModelFromDomain creates a new persistence model from a domain MasterProduct entity.
func MasterProductModelFromDomain(p *catalog.MasterProduct) *MasterProductModel {
	m := &MasterProductModel{}
	m.FromDomain(p)
	return m
}
