package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// wrapped or re-created errors still match the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Marketplace reconciliation errors
var (
	ErrInvalidAllocationInput = NewDomainError("INVALID_ALLOCATION_INPUT", "Invalid cost allocation input")
	ErrApplyConflict          = NewDomainError("APPLY_CONFLICT", "Staged order cannot be applied")
	ErrApplyInProgress        = NewDomainError("APPLY_IN_PROGRESS", "Batch is already being applied")
	ErrItemNotAvailable       = NewDomainError("ITEM_NOT_AVAILABLE", "Inventory item is not available")
	ErrInvalidCSV             = NewDomainError("INVALID_CSV", "CSV input could not be read")
)
