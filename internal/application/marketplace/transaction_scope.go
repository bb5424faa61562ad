package marketplace

import (
	"context"

	"github.com/erp/resale/internal/domain/finance"
	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories the
// reconciliation engine writes through.
// All repository operations inside fn share one database transaction and are
// committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	// BatchRepo returns the import batch repository scoped to the current transaction
	BatchRepo() marketplace.ImportBatchRepository
	// StagedOrderRepo returns the staged order repository scoped to the current transaction
	StagedOrderRepo() marketplace.StagedOrderRepository
	// InventoryRepo returns the inventory unit repository scoped to the current transaction
	InventoryRepo() inventory.InventoryItemRepository
	// SalesOrderRepo returns the sales order repository scoped to the current transaction
	SalesOrderRepo() trade.SalesOrderRepository
	// PayoutRepo returns the payout repository scoped to the current transaction
	PayoutRepo() finance.PayoutRepository
	// LedgerRepo returns the ledger repository scoped to the current transaction
	LedgerRepo() finance.LedgerEntryRepository
}
