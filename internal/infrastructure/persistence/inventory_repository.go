package persistence

import (
	"context"
	"strings"

	"github.com/erp/resale/internal/domain/inventory"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryItemRepository implements InventoryItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// FindByID finds an inventory item by its ID
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple inventory items by their IDs
func (r *GormInventoryItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	if len(ids) == 0 {
		return []inventory.InventoryItem{}, nil
	}

	var rows []models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInventoryItems(rows), nil
}

// FindByItemCode finds a unit by its item code
func (r *GormInventoryItemRepository) FindByItemCode(ctx context.Context, code string) (*inventory.InventoryItem, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Where("item_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByItemCodes finds all units whose code is in codes, whatever their status
func (r *GormInventoryItemRepository) FindByItemCodes(ctx context.Context, codes []string) ([]inventory.InventoryItem, error) {
	if len(codes) == 0 {
		return []inventory.InventoryItem{}, nil
	}

	var rows []models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Where("item_code IN ?", codes).
		Order("item_code").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInventoryItems(rows), nil
}

// FindAvailableByMasterProducts returns AVAILABLE units of the given master
// products ordered by acquired_at, then item_code
func (r *GormInventoryItemRepository) FindAvailableByMasterProducts(ctx context.Context, masterProductIDs []uuid.UUID) ([]inventory.InventoryItem, error) {
	if len(masterProductIDs) == 0 {
		return []inventory.InventoryItem{}, nil
	}

	var rows []models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Where("master_product_id IN ? AND status = ?", masterProductIDs, inventory.ItemStatusAvailable).
		Order("acquired_at ASC, item_code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInventoryItems(rows), nil
}

// FindAll finds inventory items matching the filter.
// Supported filters: "status", "master_product_id".
func (r *GormInventoryItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.InventoryItem, error) {
	query := r.db.WithContext(ctx).Model(&models.InventoryItemModel{})
	for key, value := range filter.Where {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "master_product_id":
			query = query.Where("master_product_id = ?", value)
		}
	}
	if filter.Search != "" {
		query = query.Where("LOWER(item_code) LIKE ? OR LOWER(title) LIKE ?",
			likePattern(filter.Search), likePattern(filter.Search))
	}
	query = paginate(query, filter).Order(inventorySort.clause(filter.OrderBy, filter.OrderDir))

	var rows []models.InventoryItemModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInventoryItems(rows), nil
}

// LockByIDs loads the units with FOR UPDATE row locks held until the
// surrounding transaction ends. Rows are locked in id order so concurrent
// applies touching the same units cannot deadlock.
func (r *GormInventoryItemRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.InventoryItem, error) {
	if len(ids) == 0 {
		return []inventory.InventoryItem{}, nil
	}

	var rows []models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInventoryItems(rows), nil
}

// Save creates or updates an inventory item
func (r *GormInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	model := models.InventoryItemModelFromDomain(item)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// SaveWithLock saves with optimistic locking. The domain has already
// incremented the version, so the stored row must still hold Version-1.
func (r *GormInventoryItemRepository) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.InventoryItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(map[string]interface{}{
			"status":     item.Status,
			"title":      item.Title,
			"version":    item.Version,
			"updated_at": item.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func toInventoryItems(rows []models.InventoryItemModel) []inventory.InventoryItem {
	items := make([]inventory.InventoryItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// Ensure GormInventoryItemRepository implements InventoryItemRepository
var _ inventory.InventoryItemRepository = (*GormInventoryItemRepository)(nil)
