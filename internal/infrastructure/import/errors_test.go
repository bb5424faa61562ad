package csvimport

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowError(t *testing.T) {
	withColumn := NewRowError(5, "order_date", ErrCodeImportInvalidType, "invalid date")
	assert.Equal(t, "row 5: order_date: invalid date", withColumn.Error())
	assert.Equal(t, "order_date: invalid date", withColumn.Detail())

	withoutColumn := NewRowError(10, "", ErrCodeImportMalformedRow, "malformed row")
	assert.Equal(t, "row 10: malformed row", withoutColumn.Error())
	assert.Equal(t, "malformed row", withoutColumn.Detail())

	withValue := NewRowErrorWithValue(3, "sale_gross_eur", ErrCodeImportInvalidType, "invalid amount", "abc")
	assert.Equal(t, RowError{
		Row:     3,
		Column:  "sale_gross_eur",
		Code:    ErrCodeImportInvalidType,
		Message: "invalid amount",
		Value:   "abc",
	}, withValue)
}

func TestJoinDetails(t *testing.T) {
	errs := []RowError{
		NewRowError(2, "channel", ErrCodeImportValidation, "unknown channel 'FOO'"),
		NewRowError(2, "sku", ErrCodeImportRequiredField, "is required"),
	}

	assert.Equal(t, "channel: unknown channel 'FOO'; sku: is required", JoinDetails(errs))
	assert.Equal(t, "", JoinDetails(nil))
}

func TestMissingHeadersError(t *testing.T) {
	err := &MissingHeadersError{Missing: []string{"order_date", "sku"}}

	assert.Equal(t, "missing required columns: order_date, sku", err.Error())
	assert.ErrorIs(t, err, ErrMissingHeader)
	assert.Equal(t, ErrCodeImportMissingHeader, ErrorCode(fmt.Errorf("import: %w", err)))
}

func TestErrorCode(t *testing.T) {
	tests := map[error]string{
		ErrEmptyFile:                                ErrCodeImportEmptyFile,
		ErrFileTooLarge:                             ErrCodeImportFileTooLarge,
		ErrInvalidEncoding:                          ErrCodeImportInvalidEncoding,
		ErrUnsupportedDelimiter:                     ErrCodeImportInvalidFile,
		fmt.Errorf("read: %w", ErrFileTooLarge):     ErrCodeImportFileTooLarge,
		fmt.Errorf("record on line 3: wrong quote"): ErrCodeImportCSVParsing,
	}
	for err, want := range tests {
		assert.Equal(t, want, ErrorCode(err), err.Error())
	}
}

func TestCapped(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		c := NewCapped[int](3)
		c.Add(1)
		c.Add(2)

		assert.Equal(t, []int{1, 2}, c.Items())
		assert.Equal(t, 2, c.Total())
		assert.False(t, c.Truncated())
	})

	t.Run("over limit keeps the first items", func(t *testing.T) {
		c := NewCapped[RowError](2)
		for row := 2; row <= 6; row++ {
			c.Add(NewRowError(row, "sku", ErrCodeImportRequiredField, "is required"))
		}

		assert.Len(t, c.Items(), 2)
		assert.Equal(t, 3, c.Items()[1].Row)
		assert.Equal(t, 5, c.Total())
		assert.True(t, c.Truncated())
	})

	t.Run("no limit", func(t *testing.T) {
		c := NewCapped[string](0)
		for range 1000 {
			c.Add("x")
		}
		assert.Len(t, c.Items(), 1000)
		assert.False(t, c.Truncated())
	})

	t.Run("empty items are not nil", func(t *testing.T) {
		assert.NotNil(t, NewCapped[string](5).Items())
	})
}
