package persistence

import (
	"errors"

	"github.com/erp/resale/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps gorm errors to domain errors. Unique violations are
// only recognized when the connection was opened with TranslateError.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}

// paginate applies page and page size to a query
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}
