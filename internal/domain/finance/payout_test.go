package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayout(t *testing.T) {
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("creates payout and its bank entry", func(t *testing.T) {
		payout, err := NewPayout("AMAZON", " PO-1 ", date, 12345)
		require.NoError(t, err)
		assert.Equal(t, "PO-1", payout.ExternalPayoutID)

		entry := payout.BankEntry()
		assert.Equal(t, AccountBank, entry.Account)
		assert.Equal(t, int64(12345), entry.AmountCents)
		assert.Equal(t, date, entry.EntryDate)
		assert.Equal(t, SourceTypePayout, entry.SourceType)
		assert.Equal(t, payout.ID, entry.SourceID)
		assert.Equal(t, "Payout AMAZON PO-1", entry.Description)
	})

	t.Run("negative net amount is allowed", func(t *testing.T) {
		payout, err := NewPayout("EBAY", "PO-2", date, -500)
		require.NoError(t, err)
		assert.Equal(t, int64(-500), payout.BankEntry().AmountCents)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewPayout("", "PO-1", date, 1)
		assert.Error(t, err)
		_, err = NewPayout("AMAZON", "", date, 1)
		assert.Error(t, err)
		_, err = NewPayout("AMAZON", "PO-1", time.Time{}, 1)
		assert.Error(t, err)
	})
}
