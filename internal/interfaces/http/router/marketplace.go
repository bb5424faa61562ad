package router

import (
	"net/http"

	"github.com/erp/resale/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// NewMarketplaceRoutes builds the /marketplace routes. uploadMiddleware,
// such as the upload size limit, runs on the two import endpoints only.
func NewMarketplaceRoutes(h *handler.MarketplaceHandler, uploadMiddleware ...gin.HandlerFunc) Group {
	return Group{
		Prefix: "/marketplace",
		Routes: []Route{
			Handle(http.MethodGet, "/staged-orders", h.ListStagedOrders),
			Handle(http.MethodGet, "/staged-orders/:id", h.GetStagedOrder),
			Handle(http.MethodDelete, "/staged-orders/:id", h.DiscardStagedOrder),
			Handle(http.MethodGet, "/batches", h.ListBatches),
			Handle(http.MethodGet, "/batches/:id", h.GetBatch),
			Handle(http.MethodPost, "/batches/:id/apply", h.ApplyBatch),
			Handle(http.MethodPost, "/batches/:id/rematch", h.RematchBatch),
		},
		Groups: []Group{{
			Middleware: uploadMiddleware,
			Routes: []Route{
				Handle(http.MethodPost, "/orders/import", h.ImportOrders),
				Handle(http.MethodPost, "/payouts/import", h.ImportPayouts),
			},
		}},
	}
}
