package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_MarkModified(t *testing.T) {
	root := NewBaseAggregateRoot()
	created := root.UpdatedAt

	time.Sleep(time.Millisecond)
	root.MarkModified()

	assert.Equal(t, 2, root.Version)
	assert.True(t, root.UpdatedAt.After(created))
	assert.Equal(t, created, root.CreatedAt)
}

func TestBaseAggregateRoot_PullDomainEvents(t *testing.T) {
	root := NewBaseAggregateRoot()
	event := NewBaseDomainEvent("inventory.item.sold", "InventoryItem", uuid.New())
	root.AddDomainEvent(&event)

	assert.Len(t, root.DomainEvents(), 1)
	pulled := root.PullDomainEvents()
	assert.Len(t, pulled, 1)
	assert.Empty(t, root.DomainEvents())
	assert.Empty(t, root.PullDomainEvents())
}
