// Package handler implements the HTTP handlers of the connector API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/domain/partner"
	"github.com/erp/amazon-connector/internal/domain/trade"
	"github.com/erp/amazon-connector/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var (
		currencyErr *amazon.CurrencyMismatchError
		unboundErr  *amazon.UnboundSKUError
		apiErr      *amazon.APIError
	)
	switch {
	case errors.Is(err, amazon.ErrBackendNotFound),
		errors.Is(err, amazon.ErrAttachmentNotFound),
		errors.Is(err, amazon.ErrBindingNotFound),
		errors.Is(err, partner.ErrPartnerNotFound),
		errors.Is(err, trade.ErrSaleOrderNotFound):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, err.Error())

	case errors.Is(err, amazon.ErrAttachmentExists),
		errors.Is(err, trade.ErrSaleOrderExists):
		h.Error(c, http.StatusConflict, dto.ErrCodeAlreadyExists, err.Error())

	case errors.Is(err, amazon.ErrAttachmentNotPending):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, err.Error())

	case errors.Is(err, amazon.ErrBackendInvalidHost),
		errors.Is(err, amazon.ErrBackendMissingName),
		errors.Is(err, amazon.ErrBackendMissingAccess),
		errors.Is(err, amazon.ErrBackendMissingMarket),
		errors.Is(err, amazon.ErrBackendInvalidPolicy),
		errors.Is(err, amazon.ErrBackendInvalidDelay),
		errors.Is(err, amazon.ErrBackendInvalidCurr):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())

	case errors.As(err, &currencyErr),
		errors.As(err, &unboundErr),
		errors.Is(err, amazon.ErrUnknownCountry),
		errors.Is(err, amazon.ErrUnknownState):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeUnresolvable, err.Error())

	case errors.As(err, &apiErr), errors.Is(err, amazon.ErrMarketplaceCall):
		h.Error(c, http.StatusBadGateway, dto.ErrCodeMarketplace, err.Error())

	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
