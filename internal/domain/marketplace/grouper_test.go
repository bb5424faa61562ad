package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRows(t *testing.T) {
	rows := []OrderRow{
		{RowNumber: 2, Channel: ChannelAmazon, ExternalOrderID: "AO-1", OrderDate: day(1), SKU: "A", SaleGrossCents: 1000, ShippingGrossCents: 300},
		{RowNumber: 3, Channel: ChannelEbay, ExternalOrderID: "AO-1", OrderDate: day(2), SKU: "B", BuyerName: "Eve"},
		{RowNumber: 4, Channel: ChannelAmazon, ExternalOrderID: "AO-1", OrderDate: day(9), SKU: "C", BuyerName: "Max", BuyerAddress: "Wien", SaleGrossCents: 500, ShippingGrossCents: 200},
		{RowNumber: 5, Channel: ChannelAmazon, ExternalOrderID: "AO-2", OrderDate: day(3), SKU: "D"},
		{RowNumber: 6, Channel: ChannelAmazon, ExternalOrderID: "AO-1", OrderDate: day(4), SKU: "E", BuyerName: "Ignored"},
	}

	groups := GroupRows(rows)
	require.Len(t, groups, 3)

	amazon := groups[0]
	assert.Equal(t, OrderKey{Channel: ChannelAmazon, ExternalOrderID: "AO-1"}, amazon.Key)
	assert.Equal(t, day(1), amazon.OrderDate, "first-seen order date wins")
	assert.Equal(t, "Max", amazon.BuyerName, "first non-empty buyer name wins")
	assert.Equal(t, "Wien", amazon.BuyerAddress)
	require.Len(t, amazon.Rows, 3)
	assert.Equal(t, []int{2, 4, 6}, []int{amazon.Rows[0].RowNumber, amazon.Rows[1].RowNumber, amazon.Rows[2].RowNumber})
	assert.Equal(t, int64(500), amazon.ShippingGrossCents())
	assert.Equal(t, []int64{1000, 500, 0}, amazon.SaleGrossWeights())

	assert.Equal(t, ChannelEbay, groups[1].Key.Channel, "same external id on another channel is a different order")
	assert.Equal(t, "AO-2", groups[2].Key.ExternalOrderID)
}

func TestGroupRows_Empty(t *testing.T) {
	assert.Empty(t, GroupRows(nil))
}

func TestPartitionApplied(t *testing.T) {
	groups := GroupRows([]OrderRow{
		{Channel: ChannelAmazon, ExternalOrderID: "AO-1", SKU: "A"},
		{Channel: ChannelAmazon, ExternalOrderID: "AO-2", SKU: "B"},
		{Channel: ChannelEbay, ExternalOrderID: "AO-1", SKU: "C"},
	})
	applied := map[OrderKey]bool{
		{Channel: ChannelAmazon, ExternalOrderID: "AO-1"}: true,
	}

	toStage, skipped := PartitionApplied(groups, applied)

	require.Len(t, skipped, 1)
	assert.Equal(t, "AO-1", skipped[0].Key.ExternalOrderID)
	require.Len(t, toStage, 2)
	assert.Equal(t, "AO-2", toStage[0].Key.ExternalOrderID)
	assert.Equal(t, ChannelEbay, toStage[1].Key.Channel)
}
