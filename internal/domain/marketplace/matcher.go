package marketplace

import (
	"sort"
	"strings"
	"time"

	"github.com/erp/resale/internal/domain/catalog"
	"github.com/erp/resale/internal/domain/inventory"
	"github.com/google/uuid"
)

// MatchStrategy records how a staged line was resolved to an inventory unit
type MatchStrategy string

const (
	// MatchStrategyItemCode resolves an explicit item code to exactly that unit
	MatchStrategyItemCode MatchStrategy = "ITEM_CODE"
	// MatchStrategyMasterSKUFIFO picks the oldest available unit of a master product
	MatchStrategyMasterSKUFIFO MatchStrategy = "MASTER_SKU_FIFO"
	// MatchStrategyNone means the line could not be resolved
	MatchStrategyNone MatchStrategy = "NONE"
)

// IsValid checks if the strategy is a known value
func (s MatchStrategy) IsValid() bool {
	switch s {
	case MatchStrategyItemCode, MatchStrategyMasterSKUFIFO, MatchStrategyNone:
		return true
	}
	return false
}

// Match failure reasons stored on staged lines
const (
	MatchReasonItemNotFound          = "inventory item not found"
	MatchReasonItemNotAvailable      = "inventory item is not available"
	MatchReasonItemAlreadyClaimed    = "inventory item already claimed in this batch"
	MatchReasonMasterProductNotFound = "master product not found"
	MatchReasonNoAvailableInventory  = "no available inventory"
	MatchReasonEmptySKU              = "sku is empty"
)

// MatchError explains why a line could not be resolved to inventory.
// It is recoverable: the order needs attention, nothing else fails.
type MatchError struct {
	Reason string
}

// Error implements the error interface
func (e *MatchError) Error() string {
	return e.Reason
}

// MatchResult is the outcome of matching one SKU.
// ItemID is set iff Strategy is not NONE; Err is set iff it is.
type MatchResult struct {
	Strategy MatchStrategy
	ItemID   *uuid.UUID
	ItemCode string
	Err      *MatchError
}

// Matched returns true if an inventory unit was found
func (r MatchResult) Matched() bool {
	return r.ItemID != nil
}

func matched(strategy MatchStrategy, unit IndexedUnit) MatchResult {
	id := unit.ID
	return MatchResult{Strategy: strategy, ItemID: &id, ItemCode: unit.ItemCode}
}

func unmatched(reason string) MatchResult {
	return MatchResult{Strategy: MatchStrategyNone, Err: &MatchError{Reason: reason}}
}

// ClaimSet holds the inventory units already taken by lines of the current
// batch. It lives only for one staging pass.
type ClaimSet map[uuid.UUID]struct{}

// NewClaimSet creates an empty claim set
func NewClaimSet() ClaimSet {
	return make(ClaimSet)
}

// Claim marks a unit as taken
func (c ClaimSet) Claim(id uuid.UUID) {
	c[id] = struct{}{}
}

// IsClaimed reports whether a unit is already taken
func (c ClaimSet) IsClaimed(id uuid.UUID) bool {
	_, ok := c[id]
	return ok
}

// IndexedUnit is the matcher's view of one inventory unit
type IndexedUnit struct {
	ID              uuid.UUID
	ItemCode        string
	MasterProductID uuid.UUID
	Available       bool
	AcquiredAt      time.Time
}

// InventoryIndex answers the lookups the matcher needs
type InventoryIndex interface {
	// UnitByCode finds a unit by item code, whatever its status
	UnitByCode(code string) (IndexedUnit, bool)
	// HasMasterProduct reports whether a master product exists for sku
	HasMasterProduct(sku string) bool
	// AvailableUnits returns the AVAILABLE units of a master SKU, oldest first
	AvailableUnits(sku string) []IndexedUnit
}

// Match resolves a CSV SKU to an inventory unit.
//
// An SKU shaped like an item code is authoritative: it resolves to exactly
// that unit or fails, and never falls back to FIFO. Any other SKU is treated
// as a master product SKU and resolves to its oldest available unclaimed unit.
// Match does not modify claims.
func Match(sku string, index InventoryIndex, claims ClaimSet) MatchResult {
	normalized := catalog.NormalizeSKU(sku)
	if normalized == "" {
		return unmatched(MatchReasonEmptySKU)
	}

	if inventory.IsItemCode(normalized) {
		return matchItemCode(normalized, index, claims)
	}
	return matchMasterSKU(normalized, index, claims)
}

func matchItemCode(code string, index InventoryIndex, claims ClaimSet) MatchResult {
	unit, ok := index.UnitByCode(code)
	if !ok {
		return unmatched(MatchReasonItemNotFound)
	}
	if !unit.Available {
		return unmatched(MatchReasonItemNotAvailable)
	}
	if claims.IsClaimed(unit.ID) {
		return unmatched(MatchReasonItemAlreadyClaimed)
	}
	return matched(MatchStrategyItemCode, unit)
}

func matchMasterSKU(sku string, index InventoryIndex, claims ClaimSet) MatchResult {
	if !index.HasMasterProduct(sku) {
		return unmatched(MatchReasonMasterProductNotFound)
	}
	for _, unit := range index.AvailableUnits(sku) {
		if unit.Available && !claims.IsClaimed(unit.ID) {
			return matched(MatchStrategyMasterSKUFIFO, unit)
		}
	}
	return unmatched(MatchReasonNoAvailableInventory)
}

// MemoryInventoryIndex is an InventoryIndex over a preloaded snapshot
type MemoryInventoryIndex struct {
	byCode    map[string]IndexedUnit
	masterIDs map[string]uuid.UUID
	available map[uuid.UUID][]IndexedUnit
}

// NewInventoryIndex builds an index from master products and inventory units.
// Units of unknown master products are still reachable by item code.
func NewInventoryIndex(products []catalog.MasterProduct, items []inventory.InventoryItem) *MemoryInventoryIndex {
	idx := &MemoryInventoryIndex{
		byCode:    make(map[string]IndexedUnit, len(items)),
		masterIDs: make(map[string]uuid.UUID, len(products)),
		available: make(map[uuid.UUID][]IndexedUnit),
	}
	for _, p := range products {
		idx.masterIDs[catalog.NormalizeSKU(p.SKU)] = p.ID
	}
	for _, item := range items {
		idx.Add(item)
	}
	return idx
}

// Add inserts or replaces a unit in the index
func (idx *MemoryInventoryIndex) Add(item inventory.InventoryItem) {
	unit := IndexedUnit{
		ID:              item.ID,
		ItemCode:        strings.ToUpper(item.ItemCode),
		MasterProductID: item.MasterProductID,
		Available:       item.IsAvailable(),
		AcquiredAt:      item.AcquiredAt,
	}
	if previous, ok := idx.byCode[unit.ItemCode]; ok {
		idx.removeAvailable(previous)
	}
	idx.byCode[unit.ItemCode] = unit
	if !unit.Available {
		return
	}

	units := append(idx.available[unit.MasterProductID], unit)
	sort.SliceStable(units, func(i, j int) bool {
		if !units[i].AcquiredAt.Equal(units[j].AcquiredAt) {
			return units[i].AcquiredAt.Before(units[j].AcquiredAt)
		}
		return units[i].ItemCode < units[j].ItemCode
	})
	idx.available[unit.MasterProductID] = units
}

func (idx *MemoryInventoryIndex) removeAvailable(unit IndexedUnit) {
	units := idx.available[unit.MasterProductID]
	for i, u := range units {
		if u.ID == unit.ID {
			idx.available[unit.MasterProductID] = append(units[:i:i], units[i+1:]...)
			return
		}
	}
}

// UnitByCode implements InventoryIndex
func (idx *MemoryInventoryIndex) UnitByCode(code string) (IndexedUnit, bool) {
	unit, ok := idx.byCode[strings.ToUpper(code)]
	return unit, ok
}

// HasMasterProduct implements InventoryIndex
func (idx *MemoryInventoryIndex) HasMasterProduct(sku string) bool {
	_, ok := idx.masterIDs[catalog.NormalizeSKU(sku)]
	return ok
}

// AvailableUnits implements InventoryIndex
func (idx *MemoryInventoryIndex) AvailableUnits(sku string) []IndexedUnit {
	id, ok := idx.masterIDs[catalog.NormalizeSKU(sku)]
	if !ok {
		return nil
	}
	return idx.available[id]
}

var _ InventoryIndex = (*MemoryInventoryIndex)(nil)
