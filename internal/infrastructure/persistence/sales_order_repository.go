package persistence

import (
	"context"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/domain/trade"
	"github.com/erp/resale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

func preloadSalesLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadSalesLines).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByExternalOrder finds the sale created for a marketplace order
func (r *GormSalesOrderRepository) FindByExternalOrder(ctx context.Context, channel, externalOrderID string) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", preloadSalesLines).
		Where("channel = ? AND external_order_id = ?", channel, externalOrderID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ExistsByExternalOrder checks if a marketplace order was already sold
func (r *GormSalesOrderRepository) ExistsByExternalOrder(ctx context.Context, channel, externalOrderID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SalesOrderModel{}).
		Where("channel = ? AND external_order_id = ?", channel, externalOrderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll finds sales orders matching the filter.
// Supported filters: "status", "channel".
func (r *GormSalesOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.SalesOrder, error) {
	query := r.db.WithContext(ctx).Model(&models.SalesOrderModel{})
	for key, value := range filter.Where {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "channel":
			query = query.Where("channel = ?", value)
		}
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(buyer_name) LIKE ?", pattern, pattern)
	}
	query = paginate(query, filter).Order(salesOrderSort.clause(filter.OrderBy, filter.OrderDir))

	var rows []models.SalesOrderModel
	if err := query.Preload("Lines", preloadSalesLines).Find(&rows).Error; err != nil {
		return nil, err
	}

	orders := make([]trade.SalesOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

// Create inserts a new sales order with its lines. A second sale for the
// same marketplace order, or a unit sold twice, fails with
// shared.ErrAlreadyExists.
func (r *GormSalesOrderRepository) Create(ctx context.Context, order *trade.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
