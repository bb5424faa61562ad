package inventory

import (
	"strings"
	"testing"
	"time"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateItemCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateItemCode()
		require.NoError(t, err)
		assert.True(t, IsItemCode(code), "generated code %q must match the item code format", code)
		assert.False(t, seen[code], "generated code %q must be unique", code)
		seen[code] = true
	}
}

func TestIsItemCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"IT-3F2504E04F89", true},
		{"IT-000000000000", true},
		{"IT-ZZZZZZZZZZZZ", true},
		{"it-3f2504e04f89", false},
		{"IT-3F2504E04F8", false},
		{"IT-3F2504E04F890", false},
		{"IT_3F2504E04F89", false},
		{"XX-3F2504E04F89", false},
		{"IT-3F2504E04F8!", false},
		{"SKU-IPHONE-12", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, IsItemCode(tt.code))
		})
	}
}

func TestNewInventoryItemWithCode(t *testing.T) {
	masterID := uuid.New()
	acquired := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("normalizes code and starts available", func(t *testing.T) {
		item, err := NewInventoryItemWithCode(" it-3f2504e04f89 ", masterID, acquired, 1500)
		require.NoError(t, err)

		assert.Equal(t, "IT-3F2504E04F89", item.ItemCode)
		assert.Equal(t, ItemStatusAvailable, item.Status)
		assert.Equal(t, 1, item.Version)
		assert.True(t, item.IsAvailable())
	})

	t.Run("rejects malformed code", func(t *testing.T) {
		_, err := NewInventoryItemWithCode("IT-123", masterID, acquired, 0)
		assert.Error(t, err)
	})

	t.Run("rejects missing master product", func(t *testing.T) {
		_, err := NewInventoryItemWithCode("IT-3F2504E04F89", uuid.Nil, acquired, 0)
		assert.Error(t, err)
	})

	t.Run("rejects negative cost", func(t *testing.T) {
		_, err := NewInventoryItemWithCode("IT-3F2504E04F89", masterID, acquired, -1)
		assert.Error(t, err)
	})
}

func TestInventoryItem_MarkSold(t *testing.T) {
	item, err := NewInventoryItem(uuid.New(), time.Now(), 1000)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(item.ItemCode, "IT-"))

	salesOrderID := uuid.New()
	require.NoError(t, item.MarkSold(salesOrderID))

	assert.Equal(t, ItemStatusSold, item.Status)
	assert.Equal(t, 2, item.Version)
	require.Len(t, item.DomainEvents(), 1)

	event, ok := item.DomainEvents()[0].(*ItemSoldEvent)
	require.True(t, ok)
	assert.Equal(t, salesOrderID, event.SalesOrderID)
	assert.Equal(t, EventTypeItemSold, event.EventType())

	err = item.MarkSold(uuid.New())
	assert.ErrorIs(t, err, shared.ErrItemNotAvailable)
}

func TestInventoryItem_Restock(t *testing.T) {
	item, err := NewInventoryItem(uuid.New(), time.Now(), 1000)
	require.NoError(t, err)

	assert.Error(t, item.Restock(), "available item cannot be restocked")

	require.NoError(t, item.MarkSold(uuid.New()))
	require.NoError(t, item.Restock())
	assert.Equal(t, ItemStatusAvailable, item.Status)
	assert.Equal(t, 3, item.Version)
}
