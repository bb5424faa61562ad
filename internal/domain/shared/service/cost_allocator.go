package service

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/erp/resale/internal/domain/shared"
)

// AllocationInputError reports a negative or otherwise unusable allocation input.
// It indicates a data-integrity problem upstream and is never clamped.
type AllocationInputError struct {
	Reason string
}

// Error implements the error interface
func (e *AllocationInputError) Error() string {
	return fmt.Sprintf("invalid allocation input: %s", e.Reason)
}

// Unwrap allows errors.Is(err, shared.ErrInvalidAllocationInput)
func (e *AllocationInputError) Unwrap() error {
	return shared.ErrInvalidAllocationInput
}

// Allocate splits totalCents across weights using the largest-remainder method.
//
// The result has one entry per weight and always sums to totalCents. Leftover
// cents after flooring go to the entries with the largest remainder, ties
// broken by ascending index. When every weight is zero the amount is split
// evenly and the extra cents go to the earliest entries.
func Allocate(totalCents int64, weights []int64) ([]int64, error) {
	if totalCents < 0 {
		return nil, &AllocationInputError{Reason: fmt.Sprintf("total %d is negative", totalCents)}
	}
	if len(weights) == 0 {
		if totalCents == 0 {
			return []int64{}, nil
		}
		return nil, &AllocationInputError{Reason: "no weights to allocate across"}
	}

	var totalWeight uint64
	for i, w := range weights {
		if w < 0 {
			return nil, &AllocationInputError{Reason: fmt.Sprintf("weight at index %d is negative", i)}
		}
		sum, carry := bits.Add64(totalWeight, uint64(w), 0)
		if carry != 0 || sum > math.MaxInt64 {
			return nil, &AllocationInputError{Reason: "sum of weights overflows"}
		}
		totalWeight = sum
	}

	result := make([]int64, len(weights))
	if totalWeight == 0 {
		n := int64(len(weights))
		base, extra := totalCents/n, totalCents%n
		for i := range result {
			result[i] = base
			if int64(i) < extra {
				result[i]++
			}
		}
		return result, nil
	}

	type share struct {
		index     int
		remainder uint64
	}
	shares := make([]share, len(weights))
	var allocated int64
	for i, w := range weights {
		// total*w/totalWeight <= total, so the quotient always fits and
		// hi < totalWeight holds for Div64.
		hi, lo := bits.Mul64(uint64(totalCents), uint64(w))
		q, r := bits.Div64(hi, lo, totalWeight)
		result[i] = int64(q)
		allocated += int64(q)
		shares[i] = share{index: i, remainder: r}
	}

	sort.SliceStable(shares, func(a, b int) bool {
		if shares[a].remainder != shares[b].remainder {
			return shares[a].remainder > shares[b].remainder
		}
		return shares[a].index < shares[b].index
	})

	leftover := totalCents - allocated
	for k := int64(0); k < leftover; k++ {
		result[shares[k].index]++
	}

	return result, nil
}

// LandedCost is the per-line outcome of a purchase cost allocation
type LandedCost struct {
	UnitPriceCents int64
	ShippingCents  int64
	FeesCents      int64
}

// TotalCents returns price plus allocated shipping and fees
func (l LandedCost) TotalCents() int64 {
	return l.UnitPriceCents + l.ShippingCents + l.FeesCents
}

// CostAllocator is a domain service distributing order-level amounts across lines.
// Marketplace imports use it for shipping, purchasing uses it for landed cost.
type CostAllocator struct{}

// NewCostAllocator creates a new cost allocator
func NewCostAllocator() *CostAllocator {
	return &CostAllocator{}
}

// AllocateShipping splits an order's shipping across its lines weighted by sale gross
func (a *CostAllocator) AllocateShipping(shippingCents int64, saleGrossCents []int64) ([]int64, error) {
	return Allocate(shippingCents, saleGrossCents)
}

// AllocateLandedCost spreads purchase shipping and fees across purchase lines
// proportionally to their unit prices.
func (a *CostAllocator) AllocateLandedCost(unitPriceCents []int64, shippingCents, feesCents int64) ([]LandedCost, error) {
	shipping, err := Allocate(shippingCents, unitPriceCents)
	if err != nil {
		return nil, err
	}
	fees, err := Allocate(feesCents, unitPriceCents)
	if err != nil {
		return nil, err
	}

	costs := make([]LandedCost, len(unitPriceCents))
	for i, price := range unitPriceCents {
		costs[i] = LandedCost{
			UnitPriceCents: price,
			ShippingCents:  shipping[i],
			FeesCents:      fees[i],
		}
	}
	return costs, nil
}
