package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// File level error codes. They double as API error codes.
const (
	ErrCodeImportInvalidFile     = "ERR_IMPORT_INVALID_FILE"
	ErrCodeImportEmptyFile       = "ERR_IMPORT_EMPTY_FILE"
	ErrCodeImportFileTooLarge    = "ERR_IMPORT_FILE_TOO_LARGE"
	ErrCodeImportInvalidEncoding = "ERR_IMPORT_INVALID_ENCODING"
	ErrCodeImportCSVParsing      = "ERR_IMPORT_CSV_PARSING"
	ErrCodeImportMissingHeader   = "ERR_IMPORT_MISSING_HEADER"
)

// Row level error codes
const (
	ErrCodeImportMalformedRow    = "ERR_IMPORT_MALFORMED_ROW"
	ErrCodeImportValidation      = "ERR_IMPORT_VALIDATION"
	ErrCodeImportRequiredField   = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType     = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidLength   = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeImportInvalidRange    = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeImportPatternMismatch = "ERR_IMPORT_PATTERN_MISMATCH"
)

var (
	ErrEmptyFile            = errors.New("CSV file is empty")
	ErrInvalidEncoding      = errors.New("invalid file encoding")
	ErrMissingHeader        = errors.New("CSV file missing header row")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrUnsupportedDelimiter = errors.New("unsupported delimiter")
)

var fileErrorCodes = []struct {
	err  error
	code string
}{
	{ErrEmptyFile, ErrCodeImportEmptyFile},
	{ErrFileTooLarge, ErrCodeImportFileTooLarge},
	{ErrInvalidEncoding, ErrCodeImportInvalidEncoding},
	{ErrMissingHeader, ErrCodeImportMissingHeader},
	{ErrUnsupportedDelimiter, ErrCodeImportInvalidFile},
}

// ErrorCode maps a file level error to its import error code. Anything
// unrecognised is a CSV parsing failure.
func ErrorCode(err error) string {
	for _, fc := range fileErrorCodes {
		if errors.Is(err, fc.err) {
			return fc.code
		}
	}
	return ErrCodeImportCSVParsing
}

// MissingHeadersError lists the required columns a file lacks. It matches
// ErrMissingHeader under errors.Is.
type MissingHeadersError struct {
	Missing []string
}

func (e *MissingHeadersError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *MissingHeadersError) Unwrap() error {
	return ErrMissingHeader
}

// RowError is one problem found on one line of the file
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// NewRowError creates a RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

// NewRowErrorWithValue creates a RowError that keeps the offending value
func NewRowErrorWithValue(row int, column, code, message, value string) RowError {
	e := NewRowError(row, column, code, message)
	e.Value = value
	return e
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Detail())
}

// Detail is the message prefixed by its column, without the row number
func (e RowError) Detail() string {
	if e.Column == "" {
		return e.Message
	}
	return e.Column + ": " + e.Message
}

// JoinDetails merges the errors of one row into a single message
func JoinDetails(errs []RowError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Detail()
	}
	return strings.Join(parts, "; ")
}

// Capped keeps the first Limit items added to it and counts the rest.
// A Limit of zero or less keeps everything.
type Capped[E any] struct {
	Limit int
	items []E
	total int
}

// NewCapped creates a Capped with the given limit
func NewCapped[E any](limit int) *Capped[E] {
	return &Capped[E]{Limit: limit, items: make([]E, 0)}
}

// Add records item, keeping it only while under the limit
func (c *Capped[E]) Add(item E) {
	c.total++
	if c.Limit <= 0 || len(c.items) < c.Limit {
		c.items = append(c.items, item)
	}
}

// Items returns the kept items in the order they were added
func (c *Capped[E]) Items() []E { return c.items }

// Total counts every Add, kept or not
func (c *Capped[E]) Total() int { return c.total }

// Truncated reports whether any item was dropped
func (c *Capped[E]) Truncated() bool { return c.total > len(c.items) }
