package testutil

import (
	"testing"
	"time"

	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	mockDB.ExpectationsWereMet(t)
}

func TestNewTestDB(t *testing.T) {
	db := NewTestDB(t)

	product := SeedMasterProduct(t, db, "sku-1", "Product")
	item := SeedInventoryItem(t, db, "IT-000000000001", product.ID, Date(2025, time.January, 2))

	loaded := LoadInventoryItem(t, db, item.ID)
	assert.Equal(t, "IT-000000000001", loaded.ItemCode)
	assert.Equal(t, product.ID, loaded.MasterProductID)
	assert.Equal(t, inventory.ItemStatusAvailable, loaded.Status)
}

func TestNewTestDB_IsolatedPerTest(t *testing.T) {
	first := NewTestDB(t)
	second := NewTestDB(t)

	SeedMasterProduct(t, first, "sku-1", "Product")

	var count int64
	require.NoError(t, second.Model(&models.MasterProductModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDate(t *testing.T) {
	d := Date(2026, time.March, 4)
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, "2026-03-04T00:00:00Z", d.Format(time.RFC3339))
}
