package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUnavailable is used when a dependency such as the database is down
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state,
	// e.g. discarding an APPLIED staged order
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInvalidAllocation is used when cost allocation input is unusable
	ErrCodeInvalidAllocation = "ERR_INVALID_ALLOCATION_INPUT"
	// ErrCodeItemNotAvailable is used when an inventory unit is already sold
	ErrCodeItemNotAvailable = "ERR_ITEM_NOT_AVAILABLE"
)

// Marketplace apply error codes
const (
	// ErrCodeApplyInProgress is used when another apply run holds the batch lock
	ErrCodeApplyInProgress = "ERR_APPLY_IN_PROGRESS"
	// ErrCodeApplyConflict is used when a staged order cannot be applied
	ErrCodeApplyConflict = "ERR_APPLY_CONFLICT"
)

// Input error codes
const (
	ErrCodeBadRequest       = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput     = "ERR_INVALID_INPUT"
	ErrCodeInvalidCSV       = "ERR_INVALID_CSV"
	ErrCodeRequestTooBig    = "ERR_REQUEST_TOO_LARGE"
	ErrCodeUnsupportedMedia = "ERR_UNSUPPORTED_MEDIA_TYPE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// importCodePrefix marks file level CSV import failures
const importCodePrefix = "ERR_IMPORT_"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:      http.StatusUnprocessableEntity,
	ErrCodeInvalidAllocation: http.StatusUnprocessableEntity,
	ErrCodeItemNotAvailable:  http.StatusUnprocessableEntity,

	ErrCodeApplyInProgress: http.StatusConflict,
	ErrCodeApplyConflict:   http.StatusConflict,

	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidCSV:       http.StatusBadRequest,
	ErrCodeRequestTooBig:    http.StatusRequestEntityTooLarge,
	ErrCodeUnsupportedMedia: http.StatusUnsupportedMediaType,

	ErrCodeRateLimited: http.StatusTooManyRequests,

	"ERR_IMPORT_FILE_TOO_LARGE": http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// CSV import codes map to 400 unless listed; unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, importCodePrefix) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_STATE":            ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"INVALID_ALLOCATION_INPUT": ErrCodeInvalidAllocation,
	"APPLY_CONFLICT":           ErrCodeApplyConflict,
	"APPLY_IN_PROGRESS":        ErrCodeApplyInProgress,
	"ITEM_NOT_AVAILABLE":       ErrCodeItemNotAvailable,
	"INVALID_CSV":              ErrCodeInvalidCSV,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}

// IsKnownCode reports whether a normalized code has an explicit status mapping
func IsKnownCode(code string) bool {
	_, ok := ErrorCodeHTTPStatus[code]
	return ok || strings.HasPrefix(code, importCodePrefix)
}
