package marketplace

import (
	"time"
)

// OrderRow is one validated line of a marketplace order CSV
type OrderRow struct {
	RowNumber          int
	Channel            Channel
	ExternalOrderID    string
	OrderDate          time.Time
	SKU                string
	Title              string
	BuyerName          string
	BuyerAddress       string
	SaleGrossCents     int64
	ShippingGrossCents int64
}

// OrderKey identifies a marketplace order across imports
type OrderKey struct {
	Channel         Channel
	ExternalOrderID string
}

// Key returns the order key of the row
func (r OrderRow) Key() OrderKey {
	return OrderKey{Channel: r.Channel, ExternalOrderID: r.ExternalOrderID}
}

// OrderGroup collects the rows of one marketplace order
type OrderGroup struct {
	Key          OrderKey
	OrderDate    time.Time
	BuyerName    string
	BuyerAddress string
	Rows         []OrderRow
}

// ShippingGrossCents is the order's total shipping across its rows
func (g OrderGroup) ShippingGrossCents() int64 {
	var total int64
	for _, r := range g.Rows {
		total += r.ShippingGrossCents
	}
	return total
}

// SaleGrossWeights returns each row's sale gross, used to allocate shipping
func (g OrderGroup) SaleGrossWeights() []int64 {
	weights := make([]int64, len(g.Rows))
	for i, r := range g.Rows {
		weights[i] = r.SaleGrossCents
	}
	return weights
}

// GroupRows groups rows by (channel, external order id) in first-seen order.
// The order date comes from the first row; buyer fields come from the first
// row that carries them.
func GroupRows(rows []OrderRow) []OrderGroup {
	positions := make(map[OrderKey]int)
	groups := make([]OrderGroup, 0)

	for _, row := range rows {
		key := row.Key()
		pos, ok := positions[key]
		if !ok {
			positions[key] = len(groups)
			groups = append(groups, OrderGroup{
				Key:          key,
				OrderDate:    row.OrderDate,
				BuyerName:    row.BuyerName,
				BuyerAddress: row.BuyerAddress,
				Rows:         []OrderRow{row},
			})
			continue
		}

		group := &groups[pos]
		if group.BuyerName == "" {
			group.BuyerName = row.BuyerName
		}
		if group.BuyerAddress == "" {
			group.BuyerAddress = row.BuyerAddress
		}
		group.Rows = append(group.Rows, row)
	}

	return groups
}

// PartitionApplied splits groups into those to stage and those already applied
func PartitionApplied(groups []OrderGroup, applied map[OrderKey]bool) (toStage, skipped []OrderGroup) {
	for _, g := range groups {
		if applied[g.Key] {
			skipped = append(skipped, g)
			continue
		}
		toStage = append(toStage, g)
	}
	return toStage, skipped
}
