package persistence

import (
	"context"

	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStagedOrderRepository implements StagedOrderRepository using GORM
type GormStagedOrderRepository struct {
	db *gorm.DB
}

// NewGormStagedOrderRepository creates a new GormStagedOrderRepository
func NewGormStagedOrderRepository(db *gorm.DB) *GormStagedOrderRepository {
	return &GormStagedOrderRepository{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds a staged order with its lines
func (r *GormStagedOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.StagedOrder, error) {
	var model models.StagedOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the staged order row, then loads its lines
func (r *GormStagedOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*marketplace.StagedOrder, error) {
	var model models.StagedOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	if err := r.db.WithContext(ctx).
		Where("staged_order_id = ?", id).
		Order("line_no ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns staged orders matching the filter with their lines
func (r *GormStagedOrderRepository) FindAll(ctx context.Context, filter marketplace.StagedOrderFilter) ([]marketplace.StagedOrder, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StagedOrderModel{}), filter)
	query = paginate(query, filter.Filter).
		Order(stagedOrderSort.clause(filter.OrderBy, filter.OrderDir))

	var rows []models.StagedOrderModel
	if err := query.Preload("Lines", preloadLines).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStagedOrders(rows), nil
}

// Count counts staged orders matching the filter
func (r *GormStagedOrderRepository) Count(ctx context.Context, filter marketplace.StagedOrderFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.StagedOrderModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByBatch returns every order of a batch in creation order
func (r *GormStagedOrderRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]marketplace.StagedOrder, error) {
	var rows []models.StagedOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toStagedOrders(rows), nil
}

// FindIDsByBatchAndStatus returns order ids of a batch in creation order
func (r *GormStagedOrderRepository) FindIDsByBatchAndStatus(ctx context.Context, batchID uuid.UUID, status marketplace.StagedOrderStatus) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.StagedOrderModel{}).
		Where("batch_id = ? AND status = ?", batchID, status).
		Order("created_at ASC, id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountByBatchGroupedByStatus returns per-status counts for a batch
func (r *GormStagedOrderRepository) CountByBatchGroupedByStatus(ctx context.Context, batchID uuid.UUID) (map[marketplace.StagedOrderStatus]int64, error) {
	var rows []struct {
		Status marketplace.StagedOrderStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StagedOrderModel{}).
		Select("status, COUNT(*) AS count").
		Where("batch_id = ?", batchID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[marketplace.StagedOrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// FindAppliedKeys reports which of keys already exist as APPLIED orders
func (r *GormStagedOrderRepository) FindAppliedKeys(ctx context.Context, keys []marketplace.OrderKey) (map[marketplace.OrderKey]bool, error) {
	result := make(map[marketplace.OrderKey]bool)
	if len(keys) == 0 {
		return result, nil
	}

	byChannel := make(map[marketplace.Channel][]string)
	for _, k := range keys {
		byChannel[k.Channel] = append(byChannel[k.Channel], k.ExternalOrderID)
	}

	for channel, externalIDs := range byChannel {
		var found []string
		if err := r.db.WithContext(ctx).
			Model(&models.StagedOrderModel{}).
			Where("channel = ? AND external_order_id IN ? AND status = ?", channel, externalIDs, marketplace.StagedOrderStatusApplied).
			Distinct().
			Pluck("external_order_id", &found).Error; err != nil {
			return nil, err
		}
		for _, id := range found {
			result[marketplace.OrderKey{Channel: channel, ExternalOrderID: id}] = true
		}
	}
	return result, nil
}

// CreateAll inserts new orders together with their lines
func (r *GormStagedOrderRepository) CreateAll(ctx context.Context, orders []*marketplace.StagedOrder) error {
	if len(orders) == 0 {
		return nil
	}
	rows := make([]*models.StagedOrderModel, len(orders))
	for i, o := range orders {
		rows[i] = models.StagedOrderModelFromDomain(o)
	}
	return translateError(r.db.WithContext(ctx).Create(rows).Error)
}

// SaveWithLock updates the order header and its lines. The domain has
// already incremented the version, so the stored row must hold Version-1.
func (r *GormStagedOrderRepository) SaveWithLock(ctx context.Context, order *marketplace.StagedOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.StagedOrderModel{}).
			Where("id = ? AND version = ?", order.ID, order.Version-1).
			Updates(map[string]interface{}{
				"status":         order.Status,
				"sales_order_id": order.SalesOrderID,
				"applied_at":     order.AppliedAt,
				"version":        order.Version,
				"updated_at":     order.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range order.Lines {
			line := &order.Lines[i]
			if err := tx.Model(&models.StagedOrderLineModel{}).
				Where("id = ?", line.ID).
				Updates(map[string]interface{}{
					"matched_inventory_item_id": line.MatchedInventoryItemID,
					"match_strategy":            line.MatchStrategy,
					"match_error":               line.MatchError,
					"updated_at":                line.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes an order and its lines
func (r *GormStagedOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("staged_order_id = ?", id).
			Delete(&models.StagedOrderLineModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.StagedOrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *GormStagedOrderRepository) applyFilter(query *gorm.DB, filter marketplace.StagedOrderFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where(
			"LOWER(external_order_id) LIKE ? OR LOWER(buyer_name) LIKE ? OR id IN (?)",
			pattern, pattern,
			r.db.Model(&models.StagedOrderLineModel{}).
				Select("staged_order_id").
				Where("LOWER(sku) LIKE ?", pattern),
		)
	}
	return query
}

func toStagedOrders(rows []models.StagedOrderModel) []marketplace.StagedOrder {
	orders := make([]marketplace.StagedOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

// Ensure GormStagedOrderRepository implements StagedOrderRepository
var _ marketplace.StagedOrderRepository = (*GormStagedOrderRepository)(nil)
