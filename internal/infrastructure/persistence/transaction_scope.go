package persistence

import (
	"context"

	appmarketplace "github.com/erp/resale/internal/application/marketplace"
	"github.com/erp/resale/internal/domain/finance"
	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appmarketplace.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// BatchRepo returns the import batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BatchRepo() marketplace.ImportBatchRepository {
	return NewGormImportBatchRepository(r.tx)
}

// StagedOrderRepo returns the staged order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StagedOrderRepo() marketplace.StagedOrderRepository {
	return NewGormStagedOrderRepository(r.tx)
}

// InventoryRepo returns the inventory item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InventoryRepo() inventory.InventoryItemRepository {
	return NewGormInventoryItemRepository(r.tx)
}

// SalesOrderRepo returns the sales order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SalesOrderRepo() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.tx)
}

// PayoutRepo returns the payout repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PayoutRepo() finance.PayoutRepository {
	return NewGormPayoutRepository(r.tx)
}

// LedgerRepo returns the ledger entry repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LedgerRepo() finance.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appmarketplace.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appmarketplace.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
