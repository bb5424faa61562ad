package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInventoryItemRepository_FindAvailableByMasterProducts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	ctx := context.Background()

	product := testutil.SeedMasterProduct(t, db, "SKU-A", "Widget")
	other := testutil.SeedMasterProduct(t, db, "SKU-B", "Gadget")

	late := testutil.SeedInventoryItem(t, db, "IT-000000000003", product.ID, testutil.Date(2026, time.March, 1))
	tieB := testutil.SeedInventoryItem(t, db, "IT-000000000002", product.ID, testutil.Date(2026, time.January, 1))
	tieA := testutil.SeedInventoryItem(t, db, "IT-000000000001", product.ID, testutil.Date(2026, time.January, 1))
	sold := testutil.SeedInventoryItem(t, db, "IT-000000000004", product.ID, testutil.Date(2025, time.December, 1))
	testutil.SeedInventoryItem(t, db, "IT-000000000005", other.ID, testutil.Date(2025, time.December, 1))

	require.NoError(t, sold.MarkSold(uuid.New()))
	require.NoError(t, repo.SaveWithLock(ctx, sold))

	items, err := repo.FindAvailableByMasterProducts(ctx, []uuid.UUID{product.ID})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, tieA.ID, items[0].ID)
	assert.Equal(t, tieB.ID, items[1].ID)
	assert.Equal(t, late.ID, items[2].ID)

	items, err = repo.FindAvailableByMasterProducts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGormInventoryItemRepository_Lookups(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	ctx := context.Background()

	product := testutil.SeedMasterProduct(t, db, "SKU-A", "Widget")
	first := testutil.SeedInventoryItem(t, db, "IT-000000000001", product.ID, testutil.Date(2026, time.January, 1))
	second := testutil.SeedInventoryItem(t, db, "IT-000000000002", product.ID, testutil.Date(2026, time.January, 2))

	t.Run("by item code", func(t *testing.T) {
		item, err := repo.FindByItemCode(ctx, "IT-000000000002")
		require.NoError(t, err)
		assert.Equal(t, second.ID, item.ID)

		_, err = repo.FindByItemCode(ctx, "IT-999999999999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("by item codes", func(t *testing.T) {
		items, err := repo.FindByItemCodes(ctx, []string{"IT-000000000001", "IT-999999999999"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, first.ID, items[0].ID)
	})

	t.Run("lock by ids", func(t *testing.T) {
		items, err := repo.LockByIDs(ctx, []uuid.UUID{second.ID, first.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("find all searches item code", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "000000000002"
		items, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, second.ID, items[0].ID)
	})
}

func TestGormInventoryItemRepository_SaveWithLock(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	ctx := context.Background()

	product := testutil.SeedMasterProduct(t, db, "SKU-A", "Widget")
	item := testutil.SeedInventoryItem(t, db, "IT-000000000001", product.ID, testutil.Date(2026, time.January, 1))
	stale := testutil.LoadInventoryItem(t, db, item.ID)

	require.NoError(t, item.MarkSold(uuid.New()))
	require.NoError(t, repo.SaveWithLock(ctx, item))

	stored := testutil.LoadInventoryItem(t, db, item.ID)
	assert.Equal(t, inventory.ItemStatusSold, stored.Status)
	assert.Equal(t, item.Version, stored.Version)

	require.NoError(t, stale.MarkSold(uuid.New()))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)
}

func TestGormInventoryItemRepository_SaveWithLockSQL(t *testing.T) {
	mockDB := testutil.NewMockDB(t)

	item := &inventory.InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ItemCode:          "IT-000000000001",
		Status:            inventory.ItemStatusSold,
	}
	item.MarkModified()

	mockDB.Mock.ExpectExec(regexp.QuoteMeta(`UPDATE "inventory_items" SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewGormInventoryItemRepository(mockDB.DB).SaveWithLock(context.Background(), item)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	mockDB.ExpectationsWereMet(t)
}
