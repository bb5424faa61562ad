package shared

// Page size bounds applied by Filter.Normalize
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Filter carries the paging, ordering and search options of a list query.
// Where holds repository specific equality filters keyed by column name;
// each repository documents the keys it honours and ignores the rest.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Where    map[string]any
}

// DefaultFilter returns the first page ordered newest first
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: DefaultPageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Where:    make(map[string]any),
	}
}

// With returns a copy of f with an additional equality filter
func (f Filter) With(key string, value any) Filter {
	where := make(map[string]any, len(f.Where)+1)
	for k, v := range f.Where {
		where[k] = v
	}
	where[key] = value
	f.Where = where
	return f
}

// Normalize clamps page to at least 1 and page size into [1, MaxPageSize],
// substituting DefaultPageSize for a non-positive size.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize <= 0:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset is the number of rows skipped before the current page
func (f Filter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paginated is one page of a list result
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps items with page metadata. A non-positive page size
// reports a single page.
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	switch {
	case total == 0:
	case pageSize <= 0:
		totalPages = 1
	default:
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
