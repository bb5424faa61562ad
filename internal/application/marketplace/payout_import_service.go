package marketplace

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/resale/internal/domain/finance"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/infrastructure/logger"
	"github.com/erp/resale/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PayoutImportService books marketplace payout CSVs into the ledger
type PayoutImportService struct {
	txScope        TransactionScope
	payoutRepo     finance.PayoutRepository
	rowParser      *PayoutRowParser
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPayoutImportService creates a new PayoutImportService
func NewPayoutImportService(
	txScope TransactionScope,
	payoutRepo finance.PayoutRepository,
	rowParser *PayoutRowParser,
	logger *zap.Logger,
) *PayoutImportService {
	if rowParser == nil {
		rowParser = NewPayoutRowParser(RowParserConfig{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayoutImportService{
		txScope:    txScope,
		payoutRepo: payoutRepo,
		rowParser:  rowParser,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for import notifications
func (s *PayoutImportService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ImportPayouts creates one payout and one bank ledger entry per valid row.
// Payouts imported before, or repeated within the file, are skipped.
func (s *PayoutImportService) ImportPayouts(ctx context.Context, req ImportPayoutsRequest) (*ImportPayoutsResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "marketplace_import", "import_payouts")
	defer span.End()

	parsed, err := s.rowParser.Parse(req.CSVText, req.Delimiter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &ImportPayoutsResult{
		TotalRows:       parsed.TotalRows,
		FailedCount:     parsed.FailedCount,
		Errors:          parsed.Errors,
		ErrorsTruncated: parsed.ErrorsTruncated,
	}

	existing, err := s.findExisting(ctx, parsed.ValidRows)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	seen := make(map[finance.PayoutKey]bool, len(parsed.ValidRows))
	for _, row := range parsed.ValidRows {
		key := payoutKey(row)
		if existing[key] || seen[key] {
			result.SkippedCount++
			continue
		}
		seen[key] = true

		payout, err := finance.NewPayout(string(row.Channel), row.ExternalPayoutID, row.PayoutDate, row.NetAmountCents)
		if err != nil {
			result.addError(ImportRowError{
				RowNumber:        row.RowNumber,
				Message:          err.Error(),
				ExternalPayoutID: row.ExternalPayoutID,
			}, s.rowParser.cfg.MaxErrors)
			continue
		}

		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := repos.PayoutRepo().Create(ctx, payout); err != nil {
				return err
			}
			return repos.LedgerRepo().Append(ctx, payout.BankEntry())
		})
		if errors.Is(err, shared.ErrAlreadyExists) {
			result.SkippedCount++
			continue
		}
		if err != nil {
			err = fmt.Errorf("failed to import payout %s: %w", row.ExternalPayoutID, err)
			telemetry.RecordError(span, err)
			return nil, err
		}
		result.ImportedCount++
	}

	span.SetAttributes(
		telemetry.AttrRowCount.Int(result.TotalRows),
		telemetry.AttrAppliedCount.Int(result.ImportedCount),
		telemetry.AttrSkippedCount.Int(result.SkippedCount),
		telemetry.AttrFailedCount.Int(result.FailedCount),
	)
	telemetry.SetOK(span)

	logger.For(ctx, s.logger).Info("marketplace payouts imported",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("imported", result.ImportedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("failed_rows", result.FailedCount),
	)

	if s.eventPublisher != nil {
		event := marketplace.NewPayoutsImportedEvent(result.ImportedCount, result.SkippedCount, result.FailedCount)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			logger.For(ctx, s.logger).Warn("failed to publish events", zap.Error(err))
		}
	}
	return result, nil
}

func (s *PayoutImportService) findExisting(ctx context.Context, rows []PayoutRow) (map[finance.PayoutKey]bool, error) {
	if len(rows) == 0 {
		return map[finance.PayoutKey]bool{}, nil
	}
	keys := make([]finance.PayoutKey, len(rows))
	for i, row := range rows {
		keys[i] = payoutKey(row)
	}
	existing, err := s.payoutRepo.FindExistingKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to look up imported payouts: %w", err)
	}
	if existing == nil {
		existing = map[finance.PayoutKey]bool{}
	}
	return existing, nil
}

func payoutKey(row PayoutRow) finance.PayoutKey {
	return finance.PayoutKey{Channel: string(row.Channel), ExternalPayoutID: row.ExternalPayoutID}
}

func (r *ImportPayoutsResult) addError(e ImportRowError, maxErrors int) {
	r.FailedCount++
	if maxErrors > 0 && len(r.Errors) >= maxErrors {
		r.ErrorsTruncated = true
		return
	}
	r.Errors = append(r.Errors, e)
}
