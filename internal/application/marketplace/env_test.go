package marketplace_test

import (
	"context"
	"sync"
	"testing"

	appmarketplace "github.com/erp/resale/internal/application/marketplace"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/infrastructure/persistence"
	"github.com/erp/resale/tests/testutil"
	"gorm.io/gorm"
)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

type serviceEnv struct {
	db        *gorm.DB
	events    *recordingPublisher
	imports   *appmarketplace.OrderImportService
	staged    *appmarketplace.StagedOrderService
	apply     *appmarketplace.ApplyService
	payouts   *appmarketplace.PayoutImportService
	txScope   *persistence.GormTransactionScope
	batchRep  *persistence.GormImportBatchRepository
	stagedRep *persistence.GormStagedOrderRepository
	salesRep  *persistence.GormSalesOrderRepository
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	txScope := persistence.NewGormTransactionScope(db)
	batchRepo := persistence.NewGormImportBatchRepository(db)
	stagedRepo := persistence.NewGormStagedOrderRepository(db)
	salesRepo := persistence.NewGormSalesOrderRepository(db)
	itemRepo := persistence.NewGormInventoryItemRepository(db)
	productRepo := persistence.NewGormMasterProductRepository(db)
	payoutRepo := persistence.NewGormPayoutRepository(db)
	events := &recordingPublisher{}

	imports := appmarketplace.NewOrderImportService(txScope, stagedRepo, salesRepo, itemRepo, productRepo, nil, nil)
	imports.SetEventPublisher(events)
	apply := appmarketplace.NewApplyService(txScope, batchRepo, stagedRepo, nil, nil)
	apply.SetEventPublisher(events)
	payouts := appmarketplace.NewPayoutImportService(txScope, payoutRepo, nil, nil)
	payouts.SetEventPublisher(events)

	return &serviceEnv{
		db:        db,
		events:    events,
		imports:   imports,
		staged:    appmarketplace.NewStagedOrderService(txScope, batchRepo, stagedRepo, itemRepo, productRepo, nil),
		apply:     apply,
		payouts:   payouts,
		txScope:   txScope,
		batchRep:  batchRepo,
		stagedRep: stagedRepo,
		salesRep:  salesRepo,
	}
}

func (e *serviceEnv) applyDeps() (appmarketplace.TransactionScope, marketplace.ImportBatchRepository, marketplace.StagedOrderRepository) {
	return e.txScope, e.batchRep, e.stagedRep
}

func (e *serviceEnv) importOrders(t *testing.T, csvText string) *appmarketplace.ImportOrdersResult {
	t.Helper()

	result, err := e.imports.ImportOrders(context.Background(), appmarketplace.ImportOrdersRequest{CSVText: csvText})
	if err != nil {
		t.Fatalf("import orders: %v", err)
	}
	return result
}

const orderHeader = "channel,external_order_id,order_date,sku,sale_gross_eur,shipping_gross_eur\n"
