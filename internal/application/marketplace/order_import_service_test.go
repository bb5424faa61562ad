package marketplace_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appmarketplace "github.com/erp/resale/internal/application/marketplace"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderImportService_ImportOrders(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	product := testutil.SeedMasterProduct(t, env.db, "SKU-A", "Widget")
	testutil.SeedInventoryItem(t, env.db, "IT-000000000001", product.ID, testutil.Date(2026, time.January, 1))
	testutil.SeedInventoryItem(t, env.db, "IT-000000000002", product.ID, testutil.Date(2026, time.January, 2))
	direct := testutil.SeedInventoryItem(t, env.db, "IT-3F2504E04F89", product.ID, testutil.Date(2026, time.January, 3))

	csvText := orderHeader +
		"AMAZON,AO-1,2026-02-15,it-3f2504e04f89,29.99,0\n" +
		"EBAY,EB-7,2026-02-16,SKU-A,10.00,4.99\n" +
		"EBAY,EB-7,2026-02-16,sku-a,20.00,\n" +
		"EBAY,EB-8,2026-02-16,SKU-A,5.00,0\n" +
		"WILLHABEN,W-1,2026-02-17,UNKNOWN-SKU,5.00,0\n" +
		"ETSY,E-1,2026-02-17,SKU-A,5.00,0\n" +
		"AMAZON,AO-2,not-a-date,SKU-A,-1,0\n"

	result := env.importOrders(t, csvText)

	assert.Equal(t, 7, result.TotalRows)
	assert.Equal(t, 4, result.StagedOrdersCount)
	assert.Equal(t, 5, result.StagedLinesCount)
	assert.Equal(t, 2, result.ReadyOrdersCount)
	assert.Equal(t, 2, result.NeedsAttentionOrdersCount)
	assert.Equal(t, 0, result.SkippedOrdersCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, ",", result.Delimiter)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 7, result.Errors[0].RowNumber)
	assert.Equal(t, "E-1", result.Errors[0].ExternalOrderID)
	assert.Equal(t, 8, result.Errors[1].RowNumber)

	orders, err := env.staged.ListStagedOrders(ctx, appmarketplace.StagedOrderListFilter{BatchID: &result.BatchID, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(4), orders.Total)

	byExternal := make(map[string]appmarketplace.StagedOrderResponse)
	for _, o := range orders.Items {
		byExternal[o.ExternalOrderID] = o
	}

	amazon := byExternal["AO-1"]
	assert.Equal(t, string(marketplace.StagedOrderStatusReady), amazon.Status)
	require.Len(t, amazon.Lines, 1)
	assert.Equal(t, "IT-3F2504E04F89", amazon.Lines[0].SKU)
	require.NotNil(t, amazon.Lines[0].MatchedInventoryItemID)
	assert.Equal(t, direct.ID, *amazon.Lines[0].MatchedInventoryItemID)
	assert.Equal(t, string(marketplace.MatchStrategyItemCode), amazon.Lines[0].MatchStrategy)

	// Both EB-7 lines take the two oldest units; shipping goes by sale share
	ebay := byExternal["EB-7"]
	assert.Equal(t, string(marketplace.StagedOrderStatusReady), ebay.Status)
	assert.Equal(t, int64(3000), ebay.SaleGrossCents)
	assert.Equal(t, int64(499), ebay.ShippingGrossCents)
	require.Len(t, ebay.Lines, 2)
	assert.Equal(t, int64(166), ebay.Lines[0].ShippingGrossCents)
	assert.Equal(t, int64(333), ebay.Lines[1].ShippingGrossCents)
	assert.Equal(t, string(marketplace.MatchStrategyMasterSKUFIFO), ebay.Lines[0].MatchStrategy)

	// The only remaining unit went to IT-3F2504E04F89, so EB-8 has nothing left
	starved := byExternal["EB-8"]
	assert.Equal(t, string(marketplace.StagedOrderStatusNeedsAttention), starved.Status)
	require.NotNil(t, starved.Lines[0].MatchError)
	assert.Nil(t, starved.Lines[0].MatchedInventoryItemID)

	unknown := byExternal["W-1"]
	assert.Equal(t, string(marketplace.StagedOrderStatusNeedsAttention), unknown.Status)

	assert.Contains(t, env.events.types(), marketplace.EventTypeOrdersImported)
}

func TestOrderRowParser_UnknownChannelAsOther(t *testing.T) {
	parser := appmarketplace.NewOrderRowParser(appmarketplace.RowParserConfig{
		UnknownChannelPolicy: marketplace.UnknownChannelAsOther,
	})

	parsed, err := parser.Parse(orderHeader+"ETSY,E-1,2026-02-17,SKU-A,5.00,0\n", "")
	require.NoError(t, err)
	require.Len(t, parsed.ValidRows, 1)
	assert.Equal(t, marketplace.ChannelOther, parsed.ValidRows[0].Channel)
	assert.Zero(t, parsed.FailedCount)
}

func TestOrderImportService_FileErrors(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		text      string
		delimiter string
		code      string
	}{
		{name: "empty input", text: "", code: "ERR_IMPORT_EMPTY_FILE"},
		{name: "missing column", text: "channel,external_order_id,order_date,sku\nAMAZON,AO-1,2026-02-15,SKU-A\n", code: "ERR_IMPORT_MISSING_HEADER"},
		{name: "unsupported delimiter", text: orderHeader, delimiter: "|", code: "ERR_IMPORT_INVALID_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.imports.ImportOrders(ctx, appmarketplace.ImportOrdersRequest{CSVText: tt.text, Delimiter: tt.delimiter})
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.code, domainErr.Code)
		})
	}

	batches, err := env.staged.ListImportBatches(ctx, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, batches.Total)
}

func TestOrderImportService_SemicolonDelimiter(t *testing.T) {
	env := newServiceEnv(t)

	result := env.importOrders(t, "channel;external_order_id;order_date;sku;sale_gross_eur;shipping_gross_eur\n"+
		"AMAZON;AO-1;2026-02-15;SKU-A;29,99;0\n")

	assert.Equal(t, ";", result.Delimiter)
	assert.Equal(t, 1, result.StagedOrdersCount)
	assert.Equal(t, 1, result.NeedsAttentionOrdersCount)
	assert.Zero(t, result.FailedCount)
}

func TestOrderImportService_SkipsAppliedOrders(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	product := testutil.SeedMasterProduct(t, env.db, "SKU-A", "Widget")
	testutil.SeedInventoryItem(t, env.db, "IT-000000000001", product.ID, testutil.Date(2026, time.January, 1))
	testutil.SeedInventoryItem(t, env.db, "IT-000000000002", product.ID, testutil.Date(2026, time.January, 2))

	first := env.importOrders(t, orderHeader+"AMAZON,AO-1,2026-02-15,SKU-A,29.99,0\n")
	_, err := env.apply.Apply(ctx, first.BatchID)
	require.NoError(t, err)

	second := env.importOrders(t, orderHeader+
		"AMAZON,AO-1,2026-02-15,SKU-A,29.99,0\n"+
		"EBAY,AO-1,2026-02-15,SKU-A,29.99,0\n")

	assert.Equal(t, 1, second.SkippedOrdersCount)
	assert.Equal(t, 1, second.StagedOrdersCount)
	assert.Equal(t, 1, second.ReadyOrdersCount)
}
