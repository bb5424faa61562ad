package event

import (
	"context"
	"encoding/json"

	"github.com/erp/resale/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event to the log as one structured
// entry carrying the event payload
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns nil so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
