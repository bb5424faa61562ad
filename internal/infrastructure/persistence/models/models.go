package models

// AllModels returns every persistence model, in dependency order, for
// AutoMigrate in tests
func AllModels() []any {
	return []any{
		&MasterProductModel{},
		&InventoryItemModel{},
		&ImportBatchModel{},
		&StagedOrderModel{},
		&StagedOrderLineModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&PayoutModel{},
		&LedgerEntryModel{},
	}
}
