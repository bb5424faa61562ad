package handler

import (
	"errors"
	"net/http"

	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/interfaces/http/dto"
	"github.com/erp/resale/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BaseHandler holds the response helpers shared by every handler. All
// bodies go through the dto envelope; error bodies carry the request ID.
type BaseHandler struct{}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta adds pagination metadata to a list response
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes an error envelope with an explicit status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode looks the status up from code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError answers a failed ShouldBind with per-field details
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError writes the response for err. A DomainError keeps its code;
// codes without a status mapping are rule violations and answer 422.
// Anything else is attached to c.Errors for the access log and answers 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		_ = c.Error(err)
		h.InternalError(c, "An unexpected error occurred")
		return
	}

	code := dto.NormalizeErrorCode(domainErr.Code)
	status := http.StatusUnprocessableEntity
	if dto.IsKnownCode(code) {
		status = dto.GetHTTPStatus(code)
	}
	h.Error(c, status, code, domainErr.Message)
}
