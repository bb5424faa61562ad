package persistence

import (
	"context"

	"github.com/erp/resale/internal/domain/catalog"
	"github.com/erp/resale/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMasterProductRepository implements MasterProductRepository using GORM
type GormMasterProductRepository struct {
	db *gorm.DB
}

// NewGormMasterProductRepository creates a new GormMasterProductRepository
func NewGormMasterProductRepository(db *gorm.DB) *GormMasterProductRepository {
	return &GormMasterProductRepository{db: db}
}

// FindByID finds a master product by its ID
func (r *GormMasterProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.MasterProduct, error) {
	var model models.MasterProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a master product by normalized SKU
func (r *GormMasterProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.MasterProduct, error) {
	var model models.MasterProductModel
	if err := r.db.WithContext(ctx).
		Where("sku = ?", catalog.NormalizeSKU(sku)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySKUs returns every master product whose SKU is in skus
func (r *GormMasterProductRepository) FindBySKUs(ctx context.Context, skus []string) ([]catalog.MasterProduct, error) {
	if len(skus) == 0 {
		return []catalog.MasterProduct{}, nil
	}
	normalized := make([]string, len(skus))
	for i, sku := range skus {
		normalized[i] = catalog.NormalizeSKU(sku)
	}

	var rows []models.MasterProductModel
	if err := r.db.WithContext(ctx).
		Where("sku IN ?", normalized).
		Order("sku").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.MasterProduct, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Save creates or updates a master product
func (r *GormMasterProductRepository) Save(ctx context.Context, product *catalog.MasterProduct) error {
	model := models.MasterProductModelFromDomain(product)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// Ensure GormMasterProductRepository implements MasterProductRepository
var _ catalog.MasterProductRepository = (*GormMasterProductRepository)(nil)
