package marketplace

import (
	"context"
	"fmt"

	"github.com/erp/resale/internal/domain/catalog"
	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StagedOrderService serves staged order and batch queries and the manual
// review operations (rematch, discard)
type StagedOrderService struct {
	txScope     TransactionScope
	batchRepo   marketplace.ImportBatchRepository
	stagedRepo  marketplace.StagedOrderRepository
	itemRepo    inventory.InventoryItemRepository
	productRepo catalog.MasterProductRepository
	logger      *zap.Logger
}

// NewStagedOrderService creates a new StagedOrderService
func NewStagedOrderService(
	txScope TransactionScope,
	batchRepo marketplace.ImportBatchRepository,
	stagedRepo marketplace.StagedOrderRepository,
	itemRepo inventory.InventoryItemRepository,
	productRepo catalog.MasterProductRepository,
	logger *zap.Logger,
) *StagedOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StagedOrderService{
		txScope:     txScope,
		batchRepo:   batchRepo,
		stagedRepo:  stagedRepo,
		itemRepo:    itemRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// ListStagedOrders returns staged orders with their lines, newest first
func (s *StagedOrderService) ListStagedOrders(ctx context.Context, f StagedOrderListFilter) (shared.Paginated[StagedOrderResponse], error) {
	filter := marketplace.StagedOrderFilter{
		Filter:  pageFilter(f.Page, f.PageSize),
		Status:  f.Status,
		BatchID: f.BatchID,
		Query:   f.Query,
	}

	orders, err := s.stagedRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[StagedOrderResponse]{}, err
	}
	total, err := s.stagedRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[StagedOrderResponse]{}, err
	}

	return shared.NewPaginated(ToStagedOrderResponses(orders), total, filter.Page, filter.PageSize), nil
}

// GetStagedOrder returns one staged order with its lines
func (s *StagedOrderService) GetStagedOrder(ctx context.Context, id uuid.UUID) (*StagedOrderResponse, error) {
	order, err := s.stagedRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToStagedOrderResponse(order)
	return &resp, nil
}

// ListImportBatches returns import batches with their per-status counts
func (s *StagedOrderService) ListImportBatches(ctx context.Context, page, pageSize int) (shared.Paginated[ImportBatchResponse], error) {
	filter := pageFilter(page, pageSize)

	batches, err := s.batchRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ImportBatchResponse]{}, err
	}
	total, err := s.batchRepo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[ImportBatchResponse]{}, err
	}

	responses := make([]ImportBatchResponse, len(batches))
	for i := range batches {
		summary, err := s.summarize(ctx, batches[i])
		if err != nil {
			return shared.Paginated[ImportBatchResponse]{}, err
		}
		responses[i] = ToImportBatchResponse(summary)
	}
	return shared.NewPaginated(responses, total, filter.Page, filter.PageSize), nil
}

// GetImportBatch returns one batch with its per-status counts
func (s *StagedOrderService) GetImportBatch(ctx context.Context, id uuid.UUID) (*ImportBatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarize(ctx, *batch)
	if err != nil {
		return nil, err
	}
	resp := ToImportBatchResponse(summary)
	return &resp, nil
}

func (s *StagedOrderService) summarize(ctx context.Context, batch marketplace.ImportBatch) (marketplace.BatchSummary, error) {
	counts, err := s.stagedRepo.CountByBatchGroupedByStatus(ctx, batch.ID)
	if err != nil {
		return marketplace.BatchSummary{}, fmt.Errorf("failed to count staged orders: %w", err)
	}
	summary := marketplace.BatchSummary{
		Batch:               batch,
		ReadyCount:          counts[marketplace.StagedOrderStatusReady],
		NeedsAttentionCount: counts[marketplace.StagedOrderStatusNeedsAttention],
		AppliedCount:        counts[marketplace.StagedOrderStatusApplied],
	}
	summary.StagedOrdersCount = summary.ReadyCount + summary.NeedsAttentionCount + summary.AppliedCount
	return summary, nil
}

// RematchBatch re-runs line matching for the batch's NEEDS_ATTENTION orders
// against current inventory. Units already matched by the batch's other
// unapplied orders stay claimed, so the batch never matches a unit twice.
func (s *StagedOrderService) RematchBatch(ctx context.Context, batchID uuid.UUID) (*RematchResult, error) {
	ctx, _ = logger.WithFields(ctx, s.logger, logger.Fields{BatchID: batchID.String()})
	if _, err := s.batchRepo.FindByID(ctx, batchID); err != nil {
		return nil, err
	}

	result := &RematchResult{BatchID: batchID}
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders, err := repos.StagedOrderRepo().FindByBatch(ctx, batchID)
		if err != nil {
			return err
		}

		claims := marketplace.NewClaimSet()
		var pending []*marketplace.StagedOrder
		var skus []string
		for i := range orders {
			order := &orders[i]
			if order.IsApplied() {
				continue
			}
			for _, id := range order.MatchedItemIDs() {
				claims.Claim(id)
			}
			if order.Status != marketplace.StagedOrderStatusNeedsAttention {
				continue
			}
			pending = append(pending, order)
			for _, line := range order.Lines {
				if !line.IsMatched() {
					skus = append(skus, line.SKU)
				}
			}
		}
		result.ExaminedCount = len(pending)
		if len(pending) == 0 {
			return nil
		}

		index, err := buildInventoryIndex(ctx, repos.InventoryRepo(), s.productRepo, skus)
		if err != nil {
			return err
		}

		for _, order := range pending {
			before := order.MatchedLineCount()
			order.MatchLines(index, claims)
			if order.IsReady() {
				result.NowReadyCount++
			} else {
				result.NeedsAttentionOrdersCount++
			}
			if order.MatchedLineCount() == before {
				continue
			}
			order.MarkModified()
			if err := repos.StagedOrderRepo().SaveWithLock(ctx, order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("staged orders rematched",
		zap.Int("examined", result.ExaminedCount),
		zap.Int("now_ready", result.NowReadyCount),
	)
	return result, nil
}

// DiscardStagedOrder removes a staged order that was not applied, releasing
// the units its lines matched
func (s *StagedOrderService) DiscardStagedOrder(ctx context.Context, id uuid.UUID) error {
	ctx, _ = logger.WithFields(ctx, s.logger, logger.Fields{StagedOrderID: id.String()})
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.StagedOrderRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !order.CanDiscard() {
			return shared.NewDomainError("INVALID_STATE", "Applied staged orders cannot be discarded")
		}
		if err := repos.StagedOrderRepo().Delete(ctx, id); err != nil {
			return err
		}
		logger.For(ctx, s.logger).Info("staged order discarded",
			zap.String("batch_id", order.BatchID.String()),
		)
		return nil
	})
}

func pageFilter(page, pageSize int) shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = page
	filter.PageSize = pageSize
	return filter.Normalize()
}
