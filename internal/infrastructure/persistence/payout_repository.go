package persistence

import (
	"context"

	"github.com/erp/resale/internal/domain/finance"
	"github.com/erp/resale/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPayoutRepository implements PayoutRepository using GORM
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewGormPayoutRepository creates a new GormPayoutRepository
func NewGormPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// FindExistingKeys reports which of keys were already imported
func (r *GormPayoutRepository) FindExistingKeys(ctx context.Context, keys []finance.PayoutKey) (map[finance.PayoutKey]bool, error) {
	result := make(map[finance.PayoutKey]bool)
	if len(keys) == 0 {
		return result, nil
	}

	byChannel := make(map[string][]string)
	for _, k := range keys {
		byChannel[k.Channel] = append(byChannel[k.Channel], k.ExternalPayoutID)
	}

	for channel, externalIDs := range byChannel {
		var found []string
		if err := r.db.WithContext(ctx).
			Model(&models.PayoutModel{}).
			Where("channel = ? AND external_payout_id IN ?", channel, externalIDs).
			Pluck("external_payout_id", &found).Error; err != nil {
			return nil, err
		}
		for _, id := range found {
			result[finance.PayoutKey{Channel: channel, ExternalPayoutID: id}] = true
		}
	}
	return result, nil
}

// Create inserts a payout; a payout imported before fails with shared.ErrAlreadyExists
func (r *GormPayoutRepository) Create(ctx context.Context, payout *finance.Payout) error {
	model := models.PayoutModelFromDomain(payout)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Ensure GormPayoutRepository implements PayoutRepository
var _ finance.PayoutRepository = (*GormPayoutRepository)(nil)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append books a new ledger entry
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entry *finance.LedgerEntry) error {
	model := models.LedgerEntryModelFromDomain(entry)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ finance.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
