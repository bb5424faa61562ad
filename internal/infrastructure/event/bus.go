package event

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/resale/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultHandlerTimeout bounds a single handler invocation
const DefaultHandlerTimeout = 5 * time.Second

// InMemoryEventBus delivers domain events synchronously to subscribed
// handlers. Events are published after commit, so delivery runs on a context
// detached from the request's cancellation; a failing or panicking handler
// is logged and never affects the publisher.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler

	handlerTimeout time.Duration
	closed         atomic.Bool
	logger         *zap.Logger
}

// BusOption configures an InMemoryEventBus
type BusOption func(*InMemoryEventBus)

// WithHandlerTimeout overrides DefaultHandlerTimeout; 0 disables the bound
func WithHandlerTimeout(d time.Duration) BusOption {
	return func(b *InMemoryEventBus) {
		b.handlerTimeout = d
	}
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger, opts ...BusOption) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &InMemoryEventBus{
		byType:         make(map[string][]shared.EventHandler),
		handlerTimeout: DefaultHandlerTimeout,
		logger:         logger.Named("events"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for eventTypes, or for the handler's own
// EventTypes when none are given. A handler with no types receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventTypes) == 0 {
		b.wildcard = append(b.wildcard, handler)
	}
	for _, eventType := range eventTypes {
		b.byType[eventType] = append(b.byType[eventType], handler)
	}
	b.logger.Debug("handler subscribed",
		zap.String("handler", fmt.Sprintf("%T", handler)),
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes handler from every event type it was registered for
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	isTarget := func(h shared.EventHandler) bool { return h == handler }
	b.wildcard = slices.DeleteFunc(b.wildcard, isTarget)
	for eventType, handlers := range b.byType {
		handlers = slices.DeleteFunc(handlers, isTarget)
		if len(handlers) == 0 {
			delete(b.byType, eventType)
			continue
		}
		b.byType[eventType] = handlers
	}
}

// Handlers returns the handlers an event of eventType is delivered to,
// type-specific handlers first
func (b *InMemoryEventBus) Handlers(eventType string) []shared.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	typed := b.byType[eventType]
	result := make([]shared.EventHandler, 0, len(typed)+len(b.wildcard))
	result = append(result, typed...)
	return append(result, b.wildcard...)
}

// Publish delivers events in order. It always returns nil; handler failures
// are logged. After Close, events are dropped.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.closed.Load() {
		b.logger.Warn("event bus closed, dropping events", zap.Int("count", len(events)))
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	for _, event := range events {
		for _, handler := range b.Handlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("handler", fmt.Sprintf("%T", handler)),
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("aggregate_id", event.AggregateID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Close stops delivery. It is safe to call more than once.
func (b *InMemoryEventBus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		b.logger.Info("event bus closed")
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	if b.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.handlerTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventPublisher = (*InMemoryEventBus)(nil)
