package models

import (
	"time"

	"github.com/erp/resale/internal/domain/finance"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// PayoutModel is the persistence model for the Payout aggregate root.
type PayoutModel struct {
	AggregateModel
	Channel          string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_payout_external,priority:1"`
	ExternalPayoutID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_payout_external,priority:2"`
	PayoutDate       time.Time `gorm:"type:date;not null"`
	NetAmountCents   int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PayoutModel) TableName() string {
	return "payouts"
}

// ToDomain converts the persistence model to a domain Payout entity.
func (m *PayoutModel) ToDomain() *finance.Payout {
	return &finance.Payout{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Channel:           m.Channel,
		ExternalPayoutID:  m.ExternalPayoutID,
		PayoutDate:        m.PayoutDate,
		NetAmountCents:    m.NetAmountCents,
	}
}

// FromDomain populates the persistence model from a domain Payout entity.
func (m *PayoutModel) FromDomain(p *finance.Payout) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Channel = p.Channel
	m.ExternalPayoutID = p.ExternalPayoutID
	m.PayoutDate = p.PayoutDate
	m.NetAmountCents = p.NetAmountCents
}

// PayoutModelFromDomain creates a new persistence model from a domain Payout entity.
func PayoutModelFromDomain(p *finance.Payout) *PayoutModel {
	m := &PayoutModel{}
	m.FromDomain(p)
	return m
}

// LedgerEntryModel is the persistence model for the LedgerEntry entity.
type LedgerEntryModel struct {
	BaseModel
	Account     finance.Account    `gorm:"type:varchar(20);not null;index:idx_ledger_account_date,priority:1"`
	EntryDate   time.Time          `gorm:"type:date;not null;index:idx_ledger_account_date,priority:2"`
	AmountCents int64              `gorm:"not null"`
	Description string             `gorm:"type:varchar(300)"`
	SourceType  finance.SourceType `gorm:"type:varchar(20);not null;index:idx_ledger_source,priority:1"`
	SourceID    uuid.UUID          `gorm:"type:uuid;not null;index:idx_ledger_source,priority:2"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry entity.
func (m *LedgerEntryModel) ToDomain() *finance.LedgerEntry {
	return &finance.LedgerEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Account:     m.Account,
		EntryDate:   m.EntryDate,
		AmountCents: m.AmountCents,
		Description: m.Description,
		SourceType:  m.SourceType,
		SourceID:    m.SourceID,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry entity.
func LedgerEntryModelFromDomain(e *finance.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{
		Account:     e.Account,
		EntryDate:   e.EntryDate,
		AmountCents: e.AmountCents,
		Description: e.Description,
		SourceType:  e.SourceType,
		SourceID:    e.SourceID,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
