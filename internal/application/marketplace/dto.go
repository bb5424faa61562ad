package marketplace

import (
	"time"

	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/google/uuid"
)

// ==================== Import DTOs ====================

// ImportOrdersRequest carries an order CSV to stage
type ImportOrdersRequest struct {
	CSVText     string
	Delimiter   string
	SourceLabel string
}

// ImportPayoutsRequest carries a payout CSV to import
type ImportPayoutsRequest struct {
	CSVText   string
	Delimiter string
}

// ImportRowError describes why a CSV row was excluded.
// All problems of one row are joined into a single message.
type ImportRowError struct {
	RowNumber        int    `json:"row_number"`
	Message          string `json:"message"`
	ExternalOrderID  string `json:"external_order_id,omitempty"`
	ExternalPayoutID string `json:"external_payout_id,omitempty"`
	SKU              string `json:"sku,omitempty"`
}

// ImportOrdersResult summarizes an order CSV import
type ImportOrdersResult struct {
	BatchID                   uuid.UUID        `json:"batch_id"`
	TotalRows                 int              `json:"total_rows"`
	StagedOrdersCount         int              `json:"staged_orders_count"`
	StagedLinesCount          int              `json:"staged_lines_count"`
	ReadyOrdersCount          int              `json:"ready_orders_count"`
	NeedsAttentionOrdersCount int              `json:"needs_attention_orders_count"`
	SkippedOrdersCount        int              `json:"skipped_orders_count"`
	FailedCount               int              `json:"failed_count"`
	Errors                    []ImportRowError `json:"errors"`
	ErrorsTruncated           bool             `json:"errors_truncated,omitempty"`
	Delimiter                 string           `json:"delimiter"`
	ArchiveKey                string           `json:"archive_key,omitempty"`
}

// ImportPayoutsResult summarizes a payout CSV import
type ImportPayoutsResult struct {
	TotalRows       int              `json:"total_rows"`
	ImportedCount   int              `json:"imported_count"`
	SkippedCount    int              `json:"skipped_count"`
	FailedCount     int              `json:"failed_count"`
	Errors          []ImportRowError `json:"errors"`
	ErrorsTruncated bool             `json:"errors_truncated,omitempty"`
}

// ==================== Staged Order DTOs ====================

// StagedOrderListFilter narrows a staged order listing
type StagedOrderListFilter struct {
	Status   *marketplace.StagedOrderStatus
	BatchID  *uuid.UUID
	Query    string
	Page     int
	PageSize int
}

// StagedOrderLineResponse is the read projection of a staged order line
type StagedOrderLineResponse struct {
	ID                     uuid.UUID  `json:"id"`
	LineNo                 int        `json:"line_no"`
	RowNumber              int        `json:"row_number"`
	SKU                    string     `json:"sku"`
	Title                  string     `json:"title,omitempty"`
	SaleGrossCents         int64      `json:"sale_gross_cents"`
	ShippingGrossCents     int64      `json:"shipping_gross_cents"`
	MatchedInventoryItemID *uuid.UUID `json:"matched_inventory_item_id"`
	MatchStrategy          string     `json:"match_strategy"`
	MatchError             *string    `json:"match_error"`
}

// StagedOrderResponse is the read projection of a staged order and its lines
type StagedOrderResponse struct {
	ID                 uuid.UUID                 `json:"id"`
	BatchID            uuid.UUID                 `json:"batch_id"`
	Channel            string                    `json:"channel"`
	ExternalOrderID    string                    `json:"external_order_id"`
	OrderDate          string                    `json:"order_date"`
	BuyerName          string                    `json:"buyer_name,omitempty"`
	BuyerAddress       string                    `json:"buyer_address,omitempty"`
	SaleGrossCents     int64                     `json:"sale_gross_cents"`
	ShippingGrossCents int64                     `json:"shipping_gross_cents"`
	Status             string                    `json:"status"`
	SalesOrderID       *uuid.UUID                `json:"sales_order_id"`
	AppliedAt          *time.Time                `json:"applied_at"`
	Lines              []StagedOrderLineResponse `json:"lines"`
	Version            int                       `json:"version"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
}

// ToStagedOrderResponse converts a domain StagedOrder to a response DTO
func ToStagedOrderResponse(o *marketplace.StagedOrder) StagedOrderResponse {
	resp := StagedOrderResponse{
		ID:                 o.ID,
		BatchID:            o.BatchID,
		Channel:            string(o.Channel),
		ExternalOrderID:    o.ExternalOrderID,
		OrderDate:          o.OrderDate.Format("2006-01-02"),
		BuyerName:          o.BuyerName,
		BuyerAddress:       o.BuyerAddress,
		SaleGrossCents:     o.SaleGrossCents,
		ShippingGrossCents: o.ShippingGrossCents,
		Status:             string(o.Status),
		SalesOrderID:       o.SalesOrderID,
		AppliedAt:          o.AppliedAt,
		Lines:              make([]StagedOrderLineResponse, len(o.Lines)),
		Version:            o.Version,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	for i, l := range o.Lines {
		resp.Lines[i] = StagedOrderLineResponse{
			ID:                     l.ID,
			LineNo:                 l.LineNo,
			RowNumber:              l.RowNumber,
			SKU:                    l.SKU,
			Title:                  l.Title,
			SaleGrossCents:         l.SaleGrossCents,
			ShippingGrossCents:     l.ShippingGrossCents,
			MatchedInventoryItemID: l.MatchedInventoryItemID,
			MatchStrategy:          string(l.MatchStrategy),
			MatchError:             l.MatchError,
		}
	}
	return resp
}

// ToStagedOrderResponses converts a slice of domain StagedOrders to responses
func ToStagedOrderResponses(orders []marketplace.StagedOrder) []StagedOrderResponse {
	responses := make([]StagedOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToStagedOrderResponse(&orders[i])
	}
	return responses
}

// ==================== Batch DTOs ====================

// ImportBatchResponse is the read projection of an import batch with its counts
type ImportBatchResponse struct {
	ID                        uuid.UUID `json:"id"`
	Kind                      string    `json:"kind"`
	SourceLabel               string    `json:"source_label,omitempty"`
	Delimiter                 string    `json:"delimiter"`
	TotalRows                 int       `json:"total_rows"`
	FailedCount               int       `json:"failed_count"`
	ArchiveKey                string    `json:"archive_key,omitempty"`
	StagedOrdersCount         int64     `json:"staged_orders_count"`
	ReadyOrdersCount          int64     `json:"ready_orders_count"`
	NeedsAttentionOrdersCount int64     `json:"needs_attention_orders_count"`
	AppliedOrdersCount        int64     `json:"applied_orders_count"`
	CreatedAt                 time.Time `json:"created_at"`
}

// ToImportBatchResponse converts a batch summary to a response DTO
func ToImportBatchResponse(s marketplace.BatchSummary) ImportBatchResponse {
	return ImportBatchResponse{
		ID:                        s.Batch.ID,
		Kind:                      string(s.Batch.Kind),
		SourceLabel:               s.Batch.SourceLabel,
		Delimiter:                 s.Batch.Delimiter,
		TotalRows:                 s.Batch.TotalRows,
		FailedCount:               s.Batch.FailedCount,
		ArchiveKey:                s.Batch.ArchiveKey,
		StagedOrdersCount:         s.StagedOrdersCount,
		ReadyOrdersCount:          s.ReadyCount,
		NeedsAttentionOrdersCount: s.NeedsAttentionCount,
		AppliedOrdersCount:        s.AppliedCount,
		CreatedAt:                 s.Batch.CreatedAt,
	}
}

// RematchResult summarizes a rematch run over a batch
type RematchResult struct {
	BatchID                   uuid.UUID `json:"batch_id"`
	ExaminedCount             int       `json:"examined_count"`
	NowReadyCount             int       `json:"now_ready_count"`
	NeedsAttentionOrdersCount int       `json:"needs_attention_orders_count"`
}

// ==================== Apply DTOs ====================

// ApplyOrderResult is the outcome of applying one staged order
type ApplyOrderResult struct {
	StagedOrderID   uuid.UUID  `json:"staged_order_id"`
	ExternalOrderID string     `json:"external_order_id"`
	OK              bool       `json:"ok"`
	SalesOrderID    *uuid.UUID `json:"sales_order_id,omitempty"`
	AlreadyApplied  bool       `json:"already_applied,omitempty"`
	ErrorCode       string     `json:"error_code,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// ApplyBatchResult is the outcome of applying a batch
type ApplyBatchResult struct {
	BatchID      uuid.UUID          `json:"batch_id"`
	Results      []ApplyOrderResult `json:"results"`
	AppliedCount int                `json:"applied_count"`
	FailedCount  int                `json:"failed_count"`
}
