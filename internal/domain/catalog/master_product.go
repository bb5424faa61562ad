package catalog

import (
	"strings"

	"github.com/erp/resale/internal/domain/shared"
)

// MasterProduct is the catalog entry shared by all physical units of one
// product/condition family. Its SKU is what marketplace listings refer to
// when no unit-level item code is given.
type MasterProduct struct {
	shared.BaseAggregateRoot
	SKU  string
	Name string
}

// NewMasterProduct creates a new master product
func NewMasterProduct(sku, name string) (*MasterProduct, error) {
	sku = NormalizeSKU(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 100 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &MasterProduct{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
	}, nil
}

// NormalizeSKU trims and upper-cases a SKU for lookups
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
