package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/domain/trade"
	"github.com/erp/resale/internal/infrastructure/logger"
	"github.com/erp/resale/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplyService turns READY staged orders into finalized sales
type ApplyService struct {
	txScope        TransactionScope
	batchRepo      marketplace.ImportBatchRepository
	stagedRepo     marketplace.StagedOrderRepository
	locker         BatchLocker
	eventPublisher shared.EventPublisher
	metrics        ApplyMetrics
	logger         *zap.Logger
}

// NewApplyService creates a new ApplyService. A nil locker disables the
// per-batch apply lock.
func NewApplyService(
	txScope TransactionScope,
	batchRepo marketplace.ImportBatchRepository,
	stagedRepo marketplace.StagedOrderRepository,
	locker BatchLocker,
	logger *zap.Logger,
) *ApplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplyService{
		txScope:    txScope,
		batchRepo:  batchRepo,
		stagedRepo: stagedRepo,
		locker:     locker,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ApplyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the recorder for apply run metrics
func (s *ApplyService) SetMetrics(metrics ApplyMetrics) {
	s.metrics = metrics
}

// Apply finalizes every READY staged order of a batch.
//
// Orders are processed one after another, each in its own transaction, so a
// failing order never undoes an earlier success. Per-order failures are
// reported in the results; only infrastructure errors abort the run.
func (s *ApplyService) Apply(ctx context.Context, batchID uuid.UUID) (*ApplyBatchResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "marketplace_apply", "apply",
		telemetry.AttrBatchID.String(batchID.String()),
	)
	defer span.End()
	ctx, _ = logger.WithFields(ctx, s.logger, logger.Fields{BatchID: batchID.String()})
	log := logger.For(ctx, s.logger)

	if _, err := s.batchRepo.FindByID(ctx, batchID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, batchID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		defer unlock()
	}

	started := time.Now()

	ids, err := s.stagedRepo.FindIDsByBatchAndStatus(ctx, batchID, marketplace.StagedOrderStatusReady)
	if err != nil {
		return nil, fmt.Errorf("failed to load ready staged orders: %w", err)
	}

	result := &ApplyBatchResult{
		BatchID: batchID,
		Results: make([]ApplyOrderResult, 0, len(ids)),
	}
	soldInRun := marketplace.NewClaimSet()

	for i := range ids {
		orderResult, events, err := s.applyOrder(ctx, ids[i], soldInRun)
		if err != nil {
			log.Error("apply aborted",
				zap.String("staged_order_id", ids[i].String()),
				zap.Error(err),
			)
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to apply staged order %s: %w", ids[i], err)
		}

		if orderResult.OK {
			result.AppliedCount++
			s.publish(ctx, events...)
		} else {
			result.FailedCount++
			if s.metrics != nil {
				s.metrics.RecordApplyConflict(ctx, orderResult.ErrorCode)
			}
			telemetry.AddEvent(span, "staged_order_rejected",
				telemetry.AttrStagedOrderID.String(ids[i].String()),
				telemetry.AttrExternalOrderID.String(orderResult.ExternalOrderID),
				telemetry.AttrErrorCode.String(orderResult.ErrorCode),
			)
			log.Warn("staged order not applied",
				zap.String("staged_order_id", ids[i].String()),
				zap.String("external_order_id", orderResult.ExternalOrderID),
				zap.String("error_code", orderResult.ErrorCode),
				zap.String("error", orderResult.Error),
			)
		}
		result.Results = append(result.Results, orderResult)
	}

	if s.metrics != nil {
		s.metrics.RecordApplyDuration(ctx, time.Since(started))
	}
	span.SetAttributes(
		telemetry.AttrOrderCount.Int(len(ids)),
		telemetry.AttrAppliedCount.Int(result.AppliedCount),
		telemetry.AttrFailedCount.Int(result.FailedCount),
	)
	telemetry.SetOK(span)

	log.Info("batch applied",
		zap.Int("ready_orders", len(ids)),
		zap.Int("applied", result.AppliedCount),
		zap.Int("failed", result.FailedCount),
	)
	return result, nil
}

// applyOrder runs one staged order through its own transaction. Domain
// failures become a failed result; any other error is returned.
func (s *ApplyService) applyOrder(ctx context.Context, id uuid.UUID, soldInRun marketplace.ClaimSet) (ApplyOrderResult, []shared.DomainEvent, error) {
	res := ApplyOrderResult{StagedOrderID: id}
	var events []shared.DomainEvent
	var sold []uuid.UUID

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		events = nil
		sold = nil

		order, err := repos.StagedOrderRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		res.ExternalOrderID = order.ExternalOrderID

		if order.IsApplied() {
			res.AlreadyApplied = true
			res.SalesOrderID = order.SalesOrderID
			return nil
		}
		if !order.IsReady() || order.MatchedLineCount() != len(order.Lines) {
			return marketplace.NewApplyConflictError(id, marketplace.ConflictOrderNotReady)
		}

		items, err := s.lockAvailableItems(ctx, repos.InventoryRepo(), order, soldInRun)
		if err != nil {
			return err
		}

		exists, err := repos.SalesOrderRepo().ExistsByExternalOrder(ctx, string(order.Channel), order.ExternalOrderID)
		if err != nil {
			return err
		}
		if exists {
			return marketplace.NewApplyConflictError(id, marketplace.ConflictAlreadySold)
		}

		sale, err := trade.NewFinalizedMarketplaceSale(saleFromStagedOrder(order))
		if err != nil {
			return err
		}
		if err := repos.SalesOrderRepo().Create(ctx, sale); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return marketplace.NewApplyConflictError(id, marketplace.ConflictAlreadySold)
			}
			return err
		}
		events = append(events, sale.PullDomainEvents()...)

		for _, item := range items {
			if err := item.MarkSold(sale.ID); err != nil {
				return marketplace.NewApplyConflictError(id, marketplace.ConflictItemNotAvailable, item.ID)
			}
			if err := repos.InventoryRepo().SaveWithLock(ctx, item); err != nil {
				if errors.Is(err, shared.ErrConcurrencyConflict) {
					return marketplace.NewApplyConflictError(id, marketplace.ConflictConcurrentUpdate, item.ID)
				}
				return err
			}
			events = append(events, item.PullDomainEvents()...)
			sold = append(sold, item.ID)
		}

		if err := order.MarkApplied(sale.ID); err != nil {
			return err
		}
		if err := repos.StagedOrderRepo().SaveWithLock(ctx, order); err != nil {
			return err
		}
		events = append(events, order.PullDomainEvents()...)

		res.SalesOrderID = &sale.ID
		return nil
	})

	if err != nil {
		res.SalesOrderID = nil
		res.AlreadyApplied = false

		var conflict *marketplace.ApplyConflictError
		var domainErr *shared.DomainError
		switch {
		case errors.As(err, &conflict):
			res.ErrorCode = shared.ErrApplyConflict.Code
			res.Error = conflict.Error()
		case errors.As(err, &domainErr):
			res.ErrorCode = domainErr.Code
			res.Error = domainErr.Message
		default:
			return res, nil, err
		}
		return res, nil, nil
	}

	res.OK = true
	for _, itemID := range sold {
		soldInRun.Claim(itemID)
	}
	return res, events, nil
}

// lockAvailableItems locks the order's matched units and checks they can
// still be sold. Units are returned in line order.
func (s *ApplyService) lockAvailableItems(
	ctx context.Context,
	repo inventory.InventoryItemRepository,
	order *marketplace.StagedOrder,
	soldInRun marketplace.ClaimSet,
) ([]*inventory.InventoryItem, error) {
	ids := order.MatchedItemIDs()

	var claimed []uuid.UUID
	for _, itemID := range ids {
		if soldInRun.IsClaimed(itemID) {
			claimed = append(claimed, itemID)
		}
	}
	if len(claimed) > 0 {
		return nil, marketplace.NewApplyConflictError(order.ID, marketplace.ConflictItemClaimedInRun, claimed...)
	}

	locked, err := repo.LockByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*inventory.InventoryItem, len(locked))
	for i := range locked {
		byID[locked[i].ID] = &locked[i]
	}

	items := make([]*inventory.InventoryItem, 0, len(ids))
	var missing, unavailable []uuid.UUID
	for _, itemID := range ids {
		item, ok := byID[itemID]
		switch {
		case !ok:
			missing = append(missing, itemID)
		case !item.IsAvailable():
			unavailable = append(unavailable, itemID)
		default:
			items = append(items, item)
		}
	}
	if len(missing) > 0 {
		return nil, marketplace.NewApplyConflictError(order.ID, marketplace.ConflictItemMissing, missing...)
	}
	if len(unavailable) > 0 {
		return nil, marketplace.NewApplyConflictError(order.ID, marketplace.ConflictItemNotAvailable, unavailable...)
	}
	return items, nil
}

func saleFromStagedOrder(order *marketplace.StagedOrder) trade.MarketplaceSale {
	sale := trade.MarketplaceSale{
		Channel:         string(order.Channel),
		ExternalOrderID: order.ExternalOrderID,
		StagedOrderID:   order.ID,
		OrderDate:       order.OrderDate,
		BuyerName:       order.BuyerName,
		BuyerAddress:    order.BuyerAddress,
		Lines:           make([]trade.MarketplaceSaleLine, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		sale.Lines = append(sale.Lines, trade.MarketplaceSaleLine{
			InventoryItemID:    *line.MatchedInventoryItemID,
			SKU:                line.SKU,
			Title:              line.Title,
			SaleGrossCents:     line.SaleGrossCents,
			ShippingGrossCents: line.ShippingGrossCents,
		})
	}
	return sale
}

func (s *ApplyService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.For(ctx, s.logger).Warn("failed to publish events", zap.Error(err))
	}
}
