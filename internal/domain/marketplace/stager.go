package marketplace

import (
	"github.com/erp/resale/internal/domain/shared/service"
	"github.com/google/uuid"
)

// OrderStager turns grouped CSV rows into classified staged orders
type OrderStager struct {
	allocator *service.CostAllocator
}

// NewOrderStager creates a new order stager
func NewOrderStager(allocator *service.CostAllocator) *OrderStager {
	if allocator == nil {
		allocator = service.NewCostAllocator()
	}
	return &OrderStager{allocator: allocator}
}

// Stage allocates the group's shipping across its lines, matches every line
// against the index and classifies the resulting order. Matched units are
// added to claims so later groups of the same batch cannot take them.
func (s *OrderStager) Stage(batchID uuid.UUID, group OrderGroup, index InventoryIndex, claims ClaimSet) (*StagedOrder, error) {
	shares, err := s.allocator.AllocateShipping(group.ShippingGrossCents(), group.SaleGrossWeights())
	if err != nil {
		return nil, err
	}

	order, err := NewStagedOrder(batchID, group, shares)
	if err != nil {
		return nil, err
	}
	order.MatchLines(index, claims)
	return order, nil
}
