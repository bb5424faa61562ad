package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/erp/resale/internal/domain/catalog"
	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SeedMasterProduct inserts a master product
func SeedMasterProduct(t *testing.T, db *gorm.DB, sku, name string) *catalog.MasterProduct {
	t.Helper()

	product, err := catalog.NewMasterProduct(sku, name)
	require.NoError(t, err)
	require.NoError(t, db.WithContext(context.Background()).
		Create(models.MasterProductModelFromDomain(product)).Error)
	return product
}

// SeedInventoryItem inserts an AVAILABLE unit with the given item code
func SeedInventoryItem(t *testing.T, db *gorm.DB, code string, masterProductID uuid.UUID, acquiredAt time.Time) *inventory.InventoryItem {
	t.Helper()

	item, err := inventory.NewInventoryItemWithCode(code, masterProductID, acquiredAt, 1000)
	require.NoError(t, err)
	require.NoError(t, db.WithContext(context.Background()).
		Create(models.InventoryItemModelFromDomain(item)).Error)
	return item
}

// LoadInventoryItem reads a unit back from the database
func LoadInventoryItem(t *testing.T, db *gorm.DB, id uuid.UUID) *inventory.InventoryItem {
	t.Helper()

	var model models.InventoryItemModel
	require.NoError(t, db.First(&model, "id = ?", id).Error)
	return model.ToDomain()
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
