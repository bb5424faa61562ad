package persistence

import (
	"context"

	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportBatchRepository implements ImportBatchRepository using GORM
type GormImportBatchRepository struct {
	db *gorm.DB
}

// NewGormImportBatchRepository creates a new GormImportBatchRepository
func NewGormImportBatchRepository(db *gorm.DB) *GormImportBatchRepository {
	return &GormImportBatchRepository{db: db}
}

// FindByID finds an import batch by ID
func (r *GormImportBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.ImportBatch, error) {
	var model models.ImportBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns import batches, most recent first unless the filter orders otherwise
func (r *GormImportBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]marketplace.ImportBatch, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ImportBatchModel{}), filter)
	query = paginate(query, filter).Order(importBatchSort.clause(filter.OrderBy, filter.OrderDir))

	var rows []models.ImportBatchModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	batches := make([]marketplace.ImportBatch, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches, nil
}

// Count counts import batches matching the filter
func (r *GormImportBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ImportBatchModel{}), filter).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an import batch
func (r *GormImportBatchRepository) Save(ctx context.Context, batch *marketplace.ImportBatch) error {
	model := models.ImportBatchModelFromDomain(batch)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

func (r *GormImportBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(source_label) LIKE ?", likePattern(filter.Search))
	}
	return query
}

// Ensure GormImportBatchRepository implements ImportBatchRepository
var _ marketplace.ImportBatchRepository = (*GormImportBatchRepository)(nil)
