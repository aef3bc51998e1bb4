package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appshipping "github.com/erp/shipping/internal/application/shipping"
)

// CarrierAdminHandler exposes carrier configuration management.
// All routes are JWT-gated and require the admin role.
type CarrierAdminHandler struct {
	*BaseHandler
	carriers *appshipping.CarrierService
}

// NewCarrierAdminHandler creates a carrier admin handler
func NewCarrierAdminHandler(carriers *appshipping.CarrierService, logger *zap.Logger) *CarrierAdminHandler {
	return &CarrierAdminHandler{
		BaseHandler: NewBaseHandler(logger),
		carriers:    carriers,
	}
}

// List handles GET /api/v1/admin/carriers
// @Summary List carrier configurations
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response{data=[]appshipping.CarrierResponse}
// @Router /api/v1/admin/carriers [get]
func (h *CarrierAdminHandler) List(c *gin.Context) {
	carriers, err := h.carriers.ListCarriers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, carriers)
}

// Get handles GET /api/v1/admin/carriers/:code
// @Summary Get a carrier configuration
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param code path string true "Carrier code"
// @Success 200 {object} dto.Response{data=appshipping.CarrierResponse}
// @Failure 404 {object} dto.Response
// @Router /api/v1/admin/carriers/{code} [get]
func (h *CarrierAdminHandler) Get(c *gin.Context) {
	code, ok := h.carrierCode(c)
	if !ok {
		return
	}

	carrier, err := h.carriers.GetCarrier(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, carrier)
}

// Save handles PUT /api/v1/admin/carriers
// @Summary Create or update a carrier configuration
// @Description Upserts by carrier code. Rate cards, status maps and credentials are replaced wholesale.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body appshipping.SaveCarrierRequest true "Carrier configuration"
// @Success 200 {object} dto.Response{data=appshipping.CarrierResponse}
// @Failure 400 {object} dto.Response
// @Router /api/v1/admin/carriers [put]
func (h *CarrierAdminHandler) Save(c *gin.Context) {
	var req appshipping.SaveCarrierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	carrier, err := h.carriers.SaveCarrier(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, carrier)
}

// Enable handles POST /api/v1/admin/carriers/:code/enable
// @Summary Enable a carrier
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param code path string true "Carrier code"
// @Success 200 {object} dto.Response{data=appshipping.CarrierResponse}
// @Failure 404 {object} dto.Response
// @Router /api/v1/admin/carriers/{code}/enable [post]
func (h *CarrierAdminHandler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

// Disable handles POST /api/v1/admin/carriers/:code/disable
// @Summary Disable a carrier
// @Description Disabled carriers stop quoting and booking. Existing shipments keep tracking.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param code path string true "Carrier code"
// @Success 200 {object} dto.Response{data=appshipping.CarrierResponse}
// @Failure 404 {object} dto.Response
// @Router /api/v1/admin/carriers/{code}/disable [post]
func (h *CarrierAdminHandler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

// Delete handles DELETE /api/v1/admin/carriers/:code
// @Summary Delete a carrier configuration
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param code path string true "Carrier code"
// @Success 204
// @Failure 404 {object} dto.Response
// @Router /api/v1/admin/carriers/{code} [delete]
func (h *CarrierAdminHandler) Delete(c *gin.Context) {
	code, ok := h.carrierCode(c)
	if !ok {
		return
	}

	if err := h.carriers.DeleteCarrier(c.Request.Context(), code); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CarrierAdminHandler) setEnabled(c *gin.Context, enabled bool) {
	code, ok := h.carrierCode(c)
	if !ok {
		return
	}

	carrier, err := h.carriers.SetEnabled(c.Request.Context(), code, enabled)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, carrier)
}

func (h *CarrierAdminHandler) carrierCode(c *gin.Context) (string, bool) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		h.BadRequest(c, "Carrier code is required")
		return "", false
	}
	return code, true
}
