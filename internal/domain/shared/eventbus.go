package shared

import "context"

// EventHandler reacts to published domain events. Handlers run after the
// producing transaction has committed, so a handler error cannot undo it.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the subscribed event types; nil subscribes to all
	EventTypes() []string
}

// EventPublisher delivers domain events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}
