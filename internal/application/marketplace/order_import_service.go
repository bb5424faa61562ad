package marketplace

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/resale/internal/domain/catalog"
	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/domain/shared/service"
	"github.com/erp/resale/internal/domain/trade"
	"github.com/erp/resale/internal/infrastructure/logger"
	"github.com/erp/resale/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderImportService stages marketplace order CSVs into import batches
type OrderImportService struct {
	txScope        TransactionScope
	stagedRepo     marketplace.StagedOrderRepository
	salesRepo      trade.SalesOrderRepository
	itemRepo       inventory.InventoryItemRepository
	productRepo    catalog.MasterProductRepository
	rowParser      *OrderRowParser
	stager         *marketplace.OrderStager
	archive        ImportArchive
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderImportService creates a new OrderImportService
func NewOrderImportService(
	txScope TransactionScope,
	stagedRepo marketplace.StagedOrderRepository,
	salesRepo trade.SalesOrderRepository,
	itemRepo inventory.InventoryItemRepository,
	productRepo catalog.MasterProductRepository,
	rowParser *OrderRowParser,
	logger *zap.Logger,
) *OrderImportService {
	if rowParser == nil {
		rowParser = NewOrderRowParser(RowParserConfig{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderImportService{
		txScope:     txScope,
		stagedRepo:  stagedRepo,
		salesRepo:   salesRepo,
		itemRepo:    itemRepo,
		productRepo: productRepo,
		rowParser:   rowParser,
		stager:      marketplace.NewOrderStager(service.NewCostAllocator()),
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for import notifications
func (s *OrderImportService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetArchive enables archival of raw order CSVs
func (s *OrderImportService) SetArchive(archive ImportArchive) {
	s.archive = archive
}

// ImportOrders parses an order CSV, groups its rows into orders, matches
// every line to inventory and persists the classified orders as a new batch.
//
// Orders already applied in an earlier batch (or already sold) are skipped.
// The batch, its orders and their lines are written in one transaction.
func (s *OrderImportService) ImportOrders(ctx context.Context, req ImportOrdersRequest) (*ImportOrdersResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "marketplace_import", "import_orders",
		telemetry.AttrSourceLabel.String(req.SourceLabel),
	)
	defer span.End()

	parsed, err := s.rowParser.Parse(req.CSVText, req.Delimiter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	batch := marketplace.NewImportBatch(req.SourceLabel, parsed.Delimiter)
	batch.RecordRowCounts(parsed.TotalRows, parsed.FailedCount)

	groups := marketplace.GroupRows(parsed.ValidRows)
	toStage, skipped, err := s.partitionAlreadyApplied(ctx, groups)
	if err != nil {
		return nil, err
	}

	index, err := s.loadInventoryIndex(ctx, toStage)
	if err != nil {
		return nil, err
	}

	// The claim set lives only for this staging pass
	claims := marketplace.NewClaimSet()
	orders := make([]*marketplace.StagedOrder, 0, len(toStage))
	for _, group := range toStage {
		order, err := s.stager.Stage(batch.ID, group, index, claims)
		if err != nil {
			var allocErr *service.AllocationInputError
			if errors.As(err, &allocErr) {
				logger.For(ctx, s.logger).Error("shipping allocation rejected its input",
					zap.String("channel", string(group.Key.Channel)),
					zap.String("external_order_id", group.Key.ExternalOrderID),
					zap.Error(err),
				)
			}
			return nil, fmt.Errorf("failed to stage order %s/%s: %w", group.Key.Channel, group.Key.ExternalOrderID, err)
		}
		orders = append(orders, order)
	}

	s.archiveRawCSV(ctx, batch, req.CSVText)

	if err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return err
		}
		return repos.StagedOrderRepo().CreateAll(ctx, orders)
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to persist import batch: %w", err)
	}

	result := &ImportOrdersResult{
		BatchID:            batch.ID,
		TotalRows:          parsed.TotalRows,
		StagedOrdersCount:  len(orders),
		SkippedOrdersCount: len(skipped),
		FailedCount:        parsed.FailedCount,
		Errors:             parsed.Errors,
		ErrorsTruncated:    parsed.ErrorsTruncated,
		Delimiter:          batch.Delimiter,
		ArchiveKey:         batch.ArchiveKey,
	}
	for _, order := range orders {
		result.StagedLinesCount += len(order.Lines)
		if order.IsReady() {
			result.ReadyOrdersCount++
		} else {
			result.NeedsAttentionOrdersCount++
		}
	}

	span.SetAttributes(
		telemetry.AttrBatchID.String(batch.ID.String()),
		telemetry.AttrRowCount.Int(result.TotalRows),
		telemetry.AttrOrderCount.Int(result.StagedOrdersCount),
		telemetry.AttrSkippedCount.Int(result.SkippedOrdersCount),
		telemetry.AttrFailedCount.Int(result.FailedCount),
	)
	telemetry.SetOK(span)

	logger.For(ctx, s.logger).Info("marketplace orders imported",
		zap.String("batch_id", batch.ID.String()),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("staged_orders", result.StagedOrdersCount),
		zap.Int("ready_orders", result.ReadyOrdersCount),
		zap.Int("needs_attention_orders", result.NeedsAttentionOrdersCount),
		zap.Int("skipped_orders", result.SkippedOrdersCount),
		zap.Int("failed_rows", result.FailedCount),
	)

	s.publish(ctx, marketplace.NewOrdersImportedEvent(batch,
		result.StagedOrdersCount, result.ReadyOrdersCount, result.NeedsAttentionOrdersCount, result.SkippedOrdersCount))

	return result, nil
}

// partitionAlreadyApplied separates groups that were applied before, either
// as an APPLIED staged order of any batch or as an existing sale
func (s *OrderImportService) partitionAlreadyApplied(ctx context.Context, groups []marketplace.OrderGroup) (toStage, skipped []marketplace.OrderGroup, err error) {
	if len(groups) == 0 {
		return nil, nil, nil
	}

	keys := make([]marketplace.OrderKey, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	applied, err := s.stagedRepo.FindAppliedKeys(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up applied orders: %w", err)
	}
	if applied == nil {
		applied = make(map[marketplace.OrderKey]bool)
	}

	for _, key := range keys {
		if applied[key] {
			continue
		}
		sold, err := s.salesRepo.ExistsByExternalOrder(ctx, string(key.Channel), key.ExternalOrderID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to look up sales orders: %w", err)
		}
		if sold {
			applied[key] = true
		}
	}

	toStage, skipped = marketplace.PartitionApplied(groups, applied)
	return toStage, skipped, nil
}

// loadInventoryIndex loads every unit the groups' SKUs can resolve to:
// units addressed by item code, and the AVAILABLE units of master SKUs
func (s *OrderImportService) loadInventoryIndex(ctx context.Context, groups []marketplace.OrderGroup) (*marketplace.MemoryInventoryIndex, error) {
	var skus []string
	for _, g := range groups {
		for _, r := range g.Rows {
			skus = append(skus, r.SKU)
		}
	}
	return buildInventoryIndex(ctx, s.itemRepo, s.productRepo, skus)
}

func (s *OrderImportService) archiveRawCSV(ctx context.Context, batch *marketplace.ImportBatch, text string) {
	if s.archive == nil {
		return
	}
	key := OrderArchiveKey(batch.ID)
	if err := s.archive.Store(ctx, key, []byte(text), "text/csv"); err != nil {
		logger.For(ctx, s.logger).Warn("failed to archive order CSV",
			zap.String("batch_id", batch.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	batch.SetArchiveKey(key)
}

func (s *OrderImportService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.For(ctx, s.logger).Warn("failed to publish events", zap.Error(err))
	}
}

// buildInventoryIndex loads the inventory snapshot needed to match skus
func buildInventoryIndex(
	ctx context.Context,
	itemRepo inventory.InventoryItemRepository,
	productRepo catalog.MasterProductRepository,
	skus []string,
) (*marketplace.MemoryInventoryIndex, error) {
	codeSet := make(map[string]bool)
	masterSet := make(map[string]bool)
	var codes, masterSKUs []string
	for _, raw := range skus {
		sku := catalog.NormalizeSKU(raw)
		switch {
		case sku == "":
			continue
		case inventory.IsItemCode(sku):
			if !codeSet[sku] {
				codeSet[sku] = true
				codes = append(codes, sku)
			}
		default:
			if !masterSet[sku] {
				masterSet[sku] = true
				masterSKUs = append(masterSKUs, sku)
			}
		}
	}

	var items []inventory.InventoryItem
	if len(codes) > 0 {
		byCode, err := itemRepo.FindByItemCodes(ctx, codes)
		if err != nil {
			return nil, fmt.Errorf("failed to load inventory by item code: %w", err)
		}
		items = append(items, byCode...)
	}

	var products []catalog.MasterProduct
	if len(masterSKUs) > 0 {
		var err error
		products, err = productRepo.FindBySKUs(ctx, masterSKUs)
		if err != nil {
			return nil, fmt.Errorf("failed to load master products: %w", err)
		}
		if len(products) > 0 {
			ids := make([]uuid.UUID, 0, len(products))
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			available, err := itemRepo.FindAvailableByMasterProducts(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("failed to load available inventory: %w", err)
			}
			items = append(items, available...)
		}
	}

	return marketplace.NewInventoryIndex(products, items), nil
}
