package persistence

import (
	"strings"
)

// sortColumns whitelists the columns a list query may be ordered by.
// Anything else falls back to the default column, so caller input never
// reaches the ORDER BY clause verbatim.
type sortColumns struct {
	allowed map[string]struct{}
	def     string
}

func newSortColumns(def string, names ...string) sortColumns {
	allowed := make(map[string]struct{}, len(names)+3)
	for _, name := range append([]string{"id", "created_at", "updated_at"}, names...) {
		allowed[name] = struct{}{}
	}
	return sortColumns{allowed: allowed, def: def}
}

// column returns the requested column when allowed, otherwise the default
func (s sortColumns) column(orderBy string) string {
	if _, ok := s.allowed[strings.TrimSpace(orderBy)]; ok {
		return strings.TrimSpace(orderBy)
	}
	return s.def
}

// clause builds the ORDER BY expression. Direction defaults to DESC. The
// id tie-breaker keeps pages stable when the sort column has duplicates.
func (s sortColumns) clause(orderBy, orderDir string) string {
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		dir = "ASC"
	}
	col := s.column(orderBy)
	if col == "id" {
		return "id " + dir
	}
	return col + " " + dir + ", id " + dir
}

var (
	importBatchSort = newSortColumns("created_at", "source_label", "total_rows", "failed_count")
	stagedOrderSort = newSortColumns("created_at",
		"channel", "external_order_id", "order_date", "buyer_name", "sale_gross_cents", "status")
	inventorySort  = newSortColumns("created_at", "item_code", "status", "acquired_at", "purchase_cost_cents")
	salesOrderSort = newSortColumns("created_at",
		"order_number", "channel", "order_date", "total_gross_cents", "status")
)
