package finance

import (
	"context"
)

// PayoutKey identifies a marketplace payout across imports
type PayoutKey struct {
	Channel          string
	ExternalPayoutID string
}

// PayoutRepository defines the interface for payout persistence
type PayoutRepository interface {
	// FindExistingKeys reports which of keys were already imported
	FindExistingKeys(ctx context.Context, keys []PayoutKey) (map[PayoutKey]bool, error)
	Create(ctx context.Context, payout *Payout) error
}

// LedgerEntryRepository defines the interface for ledger persistence
type LedgerEntryRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
}
