package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ImportKind labels which CSV an import processed.
type ImportKind string

const (
	ImportKindOrders  ImportKind = "orders"
	ImportKindPayouts ImportKind = "payouts"
)

// MarketplaceMetrics tracks marketplace imports, apply runs and payouts.
type MarketplaceMetrics struct {
	logger *zap.Logger

	importRowsTotal    *Counter
	stagedOrdersTotal  *Counter
	appliedOrdersTotal *Counter
	appliedGrossCents  *Counter
	applyConflicts     *Counter
	itemsSoldTotal     *Counter
	payoutsTotal       *Counter
	applyDuration      *Histogram
}

// NewMarketplaceMetrics creates all marketplace instruments from a meter.
func NewMarketplaceMetrics(meter metric.Meter, logger *zap.Logger) (*MarketplaceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &MarketplaceMetrics{logger: logger}
	var err error

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&m.importRowsTotal, "marketplace_import_rows_total", "CSV rows processed by imports", "{rows}"},
		{&m.stagedOrdersTotal, "marketplace_staged_orders_total", "Orders staged by imports", "{orders}"},
		{&m.appliedOrdersTotal, "marketplace_applied_orders_total", "Staged orders turned into finalized sales", "{orders}"},
		{&m.appliedGrossCents, "marketplace_applied_gross_cents_total", "Sale gross of applied orders in cents", "{cents}"},
		{&m.applyConflicts, "marketplace_apply_conflicts_total", "Staged orders rejected during apply", "{orders}"},
		{&m.itemsSoldTotal, "marketplace_items_sold_total", "Inventory units retired by sales", "{units}"},
		{&m.payoutsTotal, "marketplace_payouts_total", "Payout rows by outcome", "{payouts}"},
	}
	for _, c := range counters {
		*c.target, err = NewCounter(meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
	}

	m.applyDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "marketplace_apply_duration_seconds",
		Description: "Duration of batch apply runs",
		Unit:        "s",
		Boundaries:  []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordOrderImport records the outcome of one order CSV import.
func (m *MarketplaceMetrics) RecordOrderImport(ctx context.Context, totalRows, failedRows, ready, needsAttention, skipped int) {
	kind := AttrImportKind.String(string(ImportKindOrders))
	m.importRowsTotal.Add(ctx, int64(totalRows-failedRows), kind, AttrOutcome.String("accepted"))
	m.importRowsTotal.Add(ctx, int64(failedRows), kind, AttrOutcome.String("failed"))
	m.stagedOrdersTotal.Add(ctx, int64(ready), AttrOrderStatus.String("READY"))
	m.stagedOrdersTotal.Add(ctx, int64(needsAttention), AttrOrderStatus.String("NEEDS_ATTENTION"))
	m.stagedOrdersTotal.Add(ctx, int64(skipped), AttrOrderStatus.String("SKIPPED"))
}

// RecordOrderApplied records one staged order that became a sale.
func (m *MarketplaceMetrics) RecordOrderApplied(ctx context.Context, channel string, saleGrossCents int64) {
	m.appliedOrdersTotal.Inc(ctx, AttrChannel.String(channel))
	m.appliedGrossCents.Add(ctx, saleGrossCents, AttrChannel.String(channel))
}

// RecordApplyConflict records one staged order rejected by apply.
func (m *MarketplaceMetrics) RecordApplyConflict(ctx context.Context, conflictType string) {
	m.applyConflicts.Inc(ctx, AttrConflictType.String(conflictType))
}

// RecordItemSold records one inventory unit retired by a sale.
func (m *MarketplaceMetrics) RecordItemSold(ctx context.Context) {
	m.itemsSoldTotal.Inc(ctx)
}

// RecordPayoutImport records the outcome of one payout CSV import.
func (m *MarketplaceMetrics) RecordPayoutImport(ctx context.Context, imported, skipped, failed int) {
	kind := AttrImportKind.String(string(ImportKindPayouts))
	m.importRowsTotal.Add(ctx, int64(imported+skipped), kind, AttrOutcome.String("accepted"))
	m.importRowsTotal.Add(ctx, int64(failed), kind, AttrOutcome.String("failed"))
	m.payoutsTotal.Add(ctx, int64(imported), AttrOutcome.String("imported"))
	m.payoutsTotal.Add(ctx, int64(skipped), AttrOutcome.String("skipped"))
	m.payoutsTotal.Add(ctx, int64(failed), AttrOutcome.String("failed"))
}

// RecordApplyDuration records the duration of one apply run.
func (m *MarketplaceMetrics) RecordApplyDuration(ctx context.Context, d time.Duration) {
	m.applyDuration.RecordDuration(ctx, d)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewMarketplaceMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
