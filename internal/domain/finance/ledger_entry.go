package finance

import (
	"time"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/google/uuid"
)

// Account identifies a ledger account
type Account string

const (
	AccountBank Account = "BANK"
)

// SourceType identifies what produced a ledger entry
type SourceType string

const (
	SourceTypePayout SourceType = "PAYOUT"
)

// LedgerEntry is an append-only booking on an account.
// Positive amounts are inflows, negative amounts outflows.
type LedgerEntry struct {
	shared.BaseEntity
	Account     Account
	EntryDate   time.Time
	AmountCents int64
	Description string
	SourceType  SourceType
	SourceID    uuid.UUID
}

// NewLedgerEntry creates a new ledger entry
func NewLedgerEntry(account Account, entryDate time.Time, amountCents int64, description string, sourceType SourceType, sourceID uuid.UUID) *LedgerEntry {
	return &LedgerEntry{
		BaseEntity:  shared.NewBaseEntity(),
		Account:     account,
		EntryDate:   entryDate,
		AmountCents: amountCents,
		Description: description,
		SourceType:  sourceType,
		SourceID:    sourceID,
	}
}
