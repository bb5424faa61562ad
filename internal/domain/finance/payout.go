package finance

import (
	"strings"
	"time"

	"github.com/erp/resale/internal/domain/shared"
)

// Payout is a settlement paid out by a marketplace to the bank account
type Payout struct {
	shared.BaseAggregateRoot
	Channel          string
	ExternalPayoutID string
	PayoutDate       time.Time
	NetAmountCents   int64
}

// NewPayout creates a new payout. The net amount may be negative when
// marketplace fees exceed the settled sales.
func NewPayout(channel, externalPayoutID string, payoutDate time.Time, netAmountCents int64) (*Payout, error) {
	channel = strings.TrimSpace(channel)
	externalPayoutID = strings.TrimSpace(externalPayoutID)
	if channel == "" {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel cannot be empty")
	}
	if externalPayoutID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_PAYOUT_ID", "External payout ID cannot be empty")
	}
	if len(externalPayoutID) > 100 {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_PAYOUT_ID", "External payout ID cannot exceed 100 characters")
	}
	if payoutDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PAYOUT_DATE", "Payout date is required")
	}

	return &Payout{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Channel:           channel,
		ExternalPayoutID:  externalPayoutID,
		PayoutDate:        payoutDate,
		NetAmountCents:    netAmountCents,
	}, nil
}

// BankEntry builds the bank ledger entry booking this payout
func (p *Payout) BankEntry() *LedgerEntry {
	return NewLedgerEntry(
		AccountBank,
		p.PayoutDate,
		p.NetAmountCents,
		"Payout "+p.Channel+" "+p.ExternalPayoutID,
		SourceTypePayout,
		p.ID,
	)
}
