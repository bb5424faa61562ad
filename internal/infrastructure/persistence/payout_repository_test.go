package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/resale/internal/domain/finance"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPayoutRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewGormPayoutRepository(db)
	ctx := context.Background()

	payout, err := finance.NewPayout("AMAZON", "P-1", testutil.Date(2026, time.March, 1), 12345)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, payout))

	t.Run("existing keys", func(t *testing.T) {
		keys := []finance.PayoutKey{
			{Channel: "AMAZON", ExternalPayoutID: "P-1"},
			{Channel: "AMAZON", ExternalPayoutID: "P-2"},
			{Channel: "EBAY", ExternalPayoutID: "P-1"},
		}
		found, err := repo.FindExistingKeys(ctx, keys)
		require.NoError(t, err)
		assert.Equal(t, map[finance.PayoutKey]bool{keys[0]: true}, found)
	})

	t.Run("duplicate payout", func(t *testing.T) {
		dup, err := finance.NewPayout("AMAZON", "P-1", testutil.Date(2026, time.March, 2), 1)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})
}

func TestGormLedgerEntryRepository_Append(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	payout, err := finance.NewPayout("EBAY", "P-9", testutil.Date(2026, time.March, 1), -500)
	require.NoError(t, err)
	require.NoError(t, NewGormPayoutRepository(db).Create(ctx, payout))
	require.NoError(t, NewGormLedgerEntryRepository(db).Append(ctx, payout.BankEntry()))

	var amount int64
	require.NoError(t, db.Table("ledger_entries").Where("source_id = ?", payout.ID).Select("amount_cents").Scan(&amount).Error)
	assert.Equal(t, int64(-500), amount)
}
