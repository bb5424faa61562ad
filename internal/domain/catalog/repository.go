package catalog

import (
	"context"

	"github.com/google/uuid"
)

// MasterProductRepository defines the interface for master product persistence
type MasterProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*MasterProduct, error)
	// FindBySKU looks up a master product by normalized SKU
	FindBySKU(ctx context.Context, sku string) (*MasterProduct, error)
	// FindBySKUs returns every master product whose SKU is in skus
	FindBySKUs(ctx context.Context, skus []string) ([]MasterProduct, error)
	Save(ctx context.Context, product *MasterProduct) error
}
