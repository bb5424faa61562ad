package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	marketplaceapp "github.com/erp/resale/internal/application/marketplace"
	"github.com/erp/resale/internal/domain/marketplace"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	csvimport "github.com/erp/resale/internal/infrastructure/import"
)

// DefaultMaxUploadSize caps CSV uploads when no limit is configured (10MB)
const DefaultMaxUploadSize int64 = 10 << 20

// OrderImporter stages order CSVs
type OrderImporter interface {
	ImportOrders(ctx context.Context, req marketplaceapp.ImportOrdersRequest) (*marketplaceapp.ImportOrdersResult, error)
}

// PayoutImporter imports payout CSVs
type PayoutImporter interface {
	ImportPayouts(ctx context.Context, req marketplaceapp.ImportPayoutsRequest) (*marketplaceapp.ImportPayoutsResult, error)
}

// BatchApplier applies the READY orders of a batch
type BatchApplier interface {
	Apply(ctx context.Context, batchID uuid.UUID) (*marketplaceapp.ApplyBatchResult, error)
}

// StagedOrderQueries reads and maintains staged orders and their batches
type StagedOrderQueries interface {
	ListStagedOrders(ctx context.Context, filter marketplaceapp.StagedOrderListFilter) (shared.Paginated[marketplaceapp.StagedOrderResponse], error)
	GetStagedOrder(ctx context.Context, id uuid.UUID) (*marketplaceapp.StagedOrderResponse, error)
	ListImportBatches(ctx context.Context, page, pageSize int) (shared.Paginated[marketplaceapp.ImportBatchResponse], error)
	GetImportBatch(ctx context.Context, id uuid.UUID) (*marketplaceapp.ImportBatchResponse, error)
	RematchBatch(ctx context.Context, batchID uuid.UUID) (*marketplaceapp.RematchResult, error)
	DiscardStagedOrder(ctx context.Context, id uuid.UUID) error
}

// MarketplaceHandler handles marketplace reconciliation endpoints
type MarketplaceHandler struct {
	BaseHandler
	orderImporter  OrderImporter
	payoutImporter PayoutImporter
	applier        BatchApplier
	stagedOrders   StagedOrderQueries
	maxUploadSize  int64
}

// NewMarketplaceHandler creates a new MarketplaceHandler.
// maxUploadSize <= 0 selects DefaultMaxUploadSize.
func NewMarketplaceHandler(
	orderImporter OrderImporter,
	payoutImporter PayoutImporter,
	applier BatchApplier,
	stagedOrders StagedOrderQueries,
	maxUploadSize int64,
) *MarketplaceHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &MarketplaceHandler{
		orderImporter:  orderImporter,
		payoutImporter: payoutImporter,
		applier:        applier,
		stagedOrders:   stagedOrders,
		maxUploadSize:  maxUploadSize,
	}
}

var errUploadTooLarge = errors.New("upload exceeds maximum size")

// ImportOrders godoc
// @ID           importMarketplaceOrders
// @Summary      Import a marketplace order CSV
// @Description  Stages the orders of a CSV export into a new import batch and matches their lines to inventory
// @Tags         marketplace
// @Accept       multipart/form-data,text/csv
// @Produce      json
// @Param        file formData file false "Order CSV (or send the CSV as a text/csv body)"
// @Param        delimiter query string false "Field delimiter" Enums(comma, semicolon)
// @Param        source_label query string false "Free-form label stored on the batch"
// @Success      201 {object} APIResponse[marketplaceapp.ImportOrdersResult]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Router       /marketplace/orders/import [post]
func (h *MarketplaceHandler) ImportOrders(c *gin.Context) {
	var query dto.ImportQuery
	text, ok := h.readUpload(c, &query)
	if !ok {
		return
	}

	result, err := h.orderImporter.ImportOrders(c.Request.Context(), marketplaceapp.ImportOrdersRequest{
		CSVText:     text,
		Delimiter:   query.Delimiter,
		SourceLabel: query.SourceLabel,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ImportPayouts godoc
// @ID           importMarketplacePayouts
// @Summary      Import a marketplace payout CSV
// @Description  Books payouts into the bank ledger, skipping payouts imported before
// @Tags         marketplace
// @Accept       multipart/form-data,text/csv
// @Produce      json
// @Param        file formData file false "Payout CSV (or send the CSV as a text/csv body)"
// @Param        delimiter query string false "Field delimiter" Enums(comma, semicolon)
// @Success      200 {object} APIResponse[marketplaceapp.ImportPayoutsResult]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Router       /marketplace/payouts/import [post]
func (h *MarketplaceHandler) ImportPayouts(c *gin.Context) {
	var query dto.ImportQuery
	text, ok := h.readUpload(c, &query)
	if !ok {
		return
	}

	result, err := h.payoutImporter.ImportPayouts(c.Request.Context(), marketplaceapp.ImportPayoutsRequest{
		CSVText:   text,
		Delimiter: query.Delimiter,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListStagedOrders godoc
// @ID           listStagedOrders
// @Summary      List staged orders
// @Tags         marketplace
// @Produce      json
// @Param        status query string false "Status" Enums(READY, NEEDS_ATTENTION, APPLIED)
// @Param        batch_id query string false "Import batch ID" format(uuid)
// @Param        q query string false "Search external order ID, buyer name or SKU"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(200)
// @Success      200 {object} APIResponse[[]marketplaceapp.StagedOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /marketplace/staged-orders [get]
func (h *MarketplaceHandler) ListStagedOrders(c *gin.Context) {
	var query dto.StagedOrderListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}
	query.Normalize()

	filter := marketplaceapp.StagedOrderListFilter{
		Query:    strings.TrimSpace(query.Q),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Status != "" {
		status := marketplace.StagedOrderStatus(query.Status)
		filter.Status = &status
	}
	if query.BatchID != "" {
		batchID := uuid.MustParse(query.BatchID)
		filter.BatchID = &batchID
	}

	page, err := h.stagedOrders.ListStagedOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetStagedOrder godoc
// @ID           getStagedOrder
// @Summary      Get a staged order with its lines
// @Tags         marketplace
// @Produce      json
// @Param        id path string true "Staged order ID" format(uuid)
// @Success      200 {object} APIResponse[marketplaceapp.StagedOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /marketplace/staged-orders/{id} [get]
func (h *MarketplaceHandler) GetStagedOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid staged order ID format")
		return
	}

	order, err := h.stagedOrders.GetStagedOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// DiscardStagedOrder godoc
// @ID           discardStagedOrder
// @Summary      Discard a staged order
// @Description  Deletes a staged order that has not been applied and releases its matched items
// @Tags         marketplace
// @Param        id path string true "Staged order ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /marketplace/staged-orders/{id} [delete]
func (h *MarketplaceHandler) DiscardStagedOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid staged order ID format")
		return
	}

	if err := h.stagedOrders.DiscardStagedOrder(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListBatches godoc
// @ID           listImportBatches
// @Summary      List import batches, newest first
// @Tags         marketplace
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(200)
// @Success      200 {object} APIResponse[[]marketplaceapp.ImportBatchResponse]
// @Router       /marketplace/batches [get]
func (h *MarketplaceHandler) ListBatches(c *gin.Context) {
	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}
	query.Normalize()

	page, err := h.stagedOrders.ListImportBatches(c.Request.Context(), query.Page, query.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetBatch godoc
// @ID           getImportBatch
// @Summary      Get an import batch with per-status order counts
// @Tags         marketplace
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[marketplaceapp.ImportBatchResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /marketplace/batches/{id} [get]
func (h *MarketplaceHandler) GetBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	batch, err := h.stagedOrders.GetImportBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// ApplyBatch godoc
// @ID           applyImportBatch
// @Summary      Apply the READY orders of a batch
// @Description  Finalizes one sales order per READY staged order. Per-order failures are reported in the result.
// @Tags         marketplace
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[marketplaceapp.ApplyBatchResult]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /marketplace/batches/{id}/apply [post]
func (h *MarketplaceHandler) ApplyBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	result, err := h.applier.Apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RematchBatch godoc
// @ID           rematchImportBatch
// @Summary      Re-run line matching for the NEEDS_ATTENTION orders of a batch
// @Tags         marketplace
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} APIResponse[marketplaceapp.RematchResult]
// @Failure      404 {object} ErrorResponse
// @Router       /marketplace/batches/{id}/rematch [post]
func (h *MarketplaceHandler) RematchBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	result, err := h.stagedOrders.RematchBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// readUpload binds the import options from the query string (multipart form
// fields win) and returns the CSV text, taken from the multipart "file" field
// or else from the raw request body. It writes the
// error response itself and returns false on failure.
func (h *MarketplaceHandler) readUpload(c *gin.Context, query *dto.ImportQuery) (string, bool) {
	if err := c.ShouldBindQuery(query); err != nil {
		h.ValidationError(c, err)
		return "", false
	}

	contentType := c.ContentType()
	if contentType == binding.MIMEMultipartPOSTForm {
		var form dto.ImportQuery
		if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.uploadTooLarge(c)
				return "", false
			}
			h.ValidationError(c, err)
			return "", false
		}
		if form.Delimiter != "" {
			query.Delimiter = form.Delimiter
		}
		if form.SourceLabel != "" {
			query.SourceLabel = form.SourceLabel
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			h.BadRequest(c, "file is required")
			return "", false
		}
		defer file.Close()

		if header.Size > h.maxUploadSize {
			h.uploadTooLarge(c)
			return "", false
		}
		text, err := h.readLimited(file)
		if err != nil {
			h.uploadReadFailed(c, err)
			return "", false
		}
		return text, true
	}

	switch contentType {
	case "", "text/csv", "text/plain", "application/octet-stream", "application/vnd.ms-excel":
	default:
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeUnsupportedMedia,
			"Send the CSV as multipart/form-data or text/csv")
		return "", false
	}

	text, err := h.readLimited(c.Request.Body)
	if err != nil {
		h.uploadReadFailed(c, err)
		return "", false
	}
	return text, true
}

func (h *MarketplaceHandler) readLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, h.maxUploadSize+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > h.maxUploadSize {
		return "", errUploadTooLarge
	}
	return string(data), nil
}

func (h *MarketplaceHandler) uploadReadFailed(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.Is(err, errUploadTooLarge) || errors.As(err, &maxBytesErr) {
		h.uploadTooLarge(c)
		return
	}
	h.BadRequest(c, "Failed to read upload")
}

func (h *MarketplaceHandler) uploadTooLarge(c *gin.Context) {
	h.ErrorWithCode(c, csvimport.ErrCodeImportFileTooLarge,
		fmt.Sprintf("File exceeds maximum size of %d bytes", h.maxUploadSize))
}
