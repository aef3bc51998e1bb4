package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appshipping "github.com/erp/shipping/internal/application/shipping"
	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
	"github.com/erp/shipping/internal/interfaces/http/dto"
	"github.com/erp/shipping/internal/interfaces/http/middleware"
)

// BaseHandler provides common response helpers for all handlers
type BaseHandler struct {
	logger *zap.Logger
}

// NewBaseHandler creates a base handler
func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{logger: logger}
}

// Success sends a 200 response with data
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with data and pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response with data
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response for malformed input
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.respondError(c, dto.ErrCodeBadRequest, message)
}

// sentinelMapping maps well-known application and domain errors to
// error codes. Wrapped errors match via errors.Is.
var sentinelMapping = []struct {
	err  error
	code string
}{
	{shared.ErrNotFound, dto.ErrCodeNotFound},
	{shared.ErrAlreadyExists, dto.ErrCodeAlreadyExists},
	{appshipping.ErrShipmentExists, dto.ErrCodeConflict},
	{appshipping.ErrCarrierWeightLimit, dto.ErrCodeBusinessRule},
	{appshipping.ErrCarrierValueLimit, dto.ErrCodeBusinessRule},
	{appshipping.ErrCODNotSupported, dto.ErrCodeBusinessRule},
	{shipping.ErrInvalidWebhookSignature, dto.ErrCodeInvalidSignature},
	{shipping.ErrInvalidWebhookPayload, dto.ErrCodeBadRequest},
	{shipping.ErrUnsupportedCarrier, dto.ErrCodeNotFound},
	{shipping.ErrCarrierNotConfigured, dto.ErrCodeNotFound},
	{shipping.ErrCarrierUnavailable, dto.ErrCodeCarrierUnavailable},
	{shipping.ErrCarrierRejected, dto.ErrCodeCarrierRejected},
	{shipping.ErrCarrierRequestFailed, dto.ErrCodeCarrierUnavailable},
	{shipping.ErrCarrierInvalidResponse, dto.ErrCodeCarrierUnavailable},
	{shipping.ErrTrackingNotFound, dto.ErrCodeNotFound},
	{shipping.ErrPickupNotSupported, dto.ErrCodeBusinessRule},
	{shipping.ErrCancellationRejected, dto.ErrCodeCarrierRejected},
	{shipping.ErrNoRateAvailable, dto.ErrCodeBusinessRule},
}

// HandleError maps domain and application errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status, known := dto.ErrorCodeHTTPStatus[code]
		if !known {
			// Domain rule violations keep their original code but never
			// surface as a server fault.
			status = http.StatusUnprocessableEntity
		}
		resp := dto.NewErrorResponseWithRequestID(code, domainErr.Message, middleware.GetRequestID(c))
		c.AbortWithStatusJSON(status, resp)
		return
	}

	for _, m := range sentinelMapping {
		if errors.Is(err, m.err) {
			h.respondError(c, m.code, err.Error())
			return
		}
	}

	h.logger.Error("unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err))
	h.respondError(c, dto.ErrCodeInternal, "Internal server error")
}

func (h *BaseHandler) respondError(c *gin.Context, code, message string) {
	status := dto.GetHTTPStatus(code)
	resp := dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c))
	c.AbortWithStatusJSON(status, resp)
}
