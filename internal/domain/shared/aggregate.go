package shared

// BaseAggregateRoot adds an optimistic-locking version and pending domain
// events to an entity. Repositories compare Version in their UPDATE and
// publish the pending events only after the transaction commits.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot creates a new aggregate root at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// MarkModified touches the aggregate and bumps its version
func (a *BaseAggregateRoot) MarkModified() {
	a.Touch()
	a.Version++
}

// AddDomainEvent queues an event to publish after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// PullDomainEvents returns the pending events and clears them
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.domainEvents
	a.domainEvents = nil
	return events
}

// DomainEvents returns the pending events without clearing them
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return a.domainEvents
}
