package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appshipping "github.com/erp/shipping/internal/application/shipping"
)

// TrackingHandler exposes the public, unauthenticated tracking lookup
type TrackingHandler struct {
	*BaseHandler
	lookup *appshipping.LookupService
}

// NewTrackingHandler creates a tracking handler
func NewTrackingHandler(lookup *appshipping.LookupService, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		BaseHandler: NewBaseHandler(logger),
		lookup:      lookup,
	}
}

// Track handles GET /api/v1/track/:number
// @Summary Track a shipment by tracking number
// @Description Public lookup returning status and event history with the destination redacted to city level. Unknown numbers return found:false with HTTP 200.
// @Tags tracking
// @Produce json
// @Param number path string true "Tracking number"
// @Success 200 {object} dto.Response{data=appshipping.PublicTrackingResponse}
// @Router /api/v1/track/{number} [get]
func (h *TrackingHandler) Track(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		h.BadRequest(c, "Tracking number is required")
		return
	}

	resp, err := h.lookup.Track(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
