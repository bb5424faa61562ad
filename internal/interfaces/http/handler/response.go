package handler

import "github.com/erp/resale/internal/interfaces/http/dto"

// APIResponse is dto.Response with a typed payload. Handlers write
// dto.Response; clients and tests decode into APIResponse.
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is an APIResponse that carries no payload
type ErrorResponse = APIResponse[struct{}]
