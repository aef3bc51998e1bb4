package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appshipping "github.com/erp/shipping/internal/application/shipping"
)

// RateHandler exposes the carrier rate comparison endpoint
type RateHandler struct {
	*BaseHandler
	rates *appshipping.RateService
}

// NewRateHandler creates a rate handler
func NewRateHandler(rates *appshipping.RateService, logger *zap.Logger) *RateHandler {
	return &RateHandler{
		BaseHandler: NewBaseHandler(logger),
		rates:       rates,
	}
}

// Compare handles POST /api/v1/shipments/rates
// @Summary Compare carrier rates for a route
// @Description Fans the route out to every enabled carrier and returns quotes sorted cheapest first
// @Tags rates
// @Accept json
// @Produce json
// @Param request body appshipping.CompareRatesRequest true "Route and parcel details"
// @Success 200 {object} dto.Response{data=appshipping.CompareRatesResponse}
// @Failure 400 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /api/v1/shipments/rates [post]
func (h *RateHandler) Compare(c *gin.Context) {
	var req appshipping.CompareRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.rates.CompareRates(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
