package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appshipping "github.com/erp/shipping/internal/application/shipping"
	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/interfaces/http/dto"
)

// ShipmentHandler exposes shipment booking and lifecycle endpoints
type ShipmentHandler struct {
	*BaseHandler
	bookings *appshipping.BookingService
}

// NewShipmentHandler creates a shipment handler
func NewShipmentHandler(bookings *appshipping.BookingService, logger *zap.Logger) *ShipmentHandler {
	return &ShipmentHandler{
		BaseHandler: NewBaseHandler(logger),
		bookings:    bookings,
	}
}

// Create handles POST /api/v1/shipments
// @Summary Book a shipment
// @Description Books a shipment with the selected carrier for a fulfillment unit
// @Tags shipments
// @Accept json
// @Produce json
// @Param request body appshipping.CreateShipmentRequest true "Booking request"
// @Success 201 {object} dto.Response{data=appshipping.ShipmentResponse}
// @Failure 400 {object} dto.Response
// @Failure 409 {object} dto.Response
// @Failure 502 {object} dto.Response
// @Router /api/v1/shipments [post]
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req appshipping.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.bookings.CreateShipment(c.Request.Context(), &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get handles GET /api/v1/shipments/:id
// @Summary Get a shipment
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} dto.Response{data=appshipping.ShipmentResponse}
// @Failure 404 {object} dto.Response
// @Router /api/v1/shipments/{id} [get]
func (h *ShipmentHandler) Get(c *gin.Context) {
	id, ok := h.shipmentID(c)
	if !ok {
		return
	}

	resp, err := h.bookings.GetShipment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List handles GET /api/v1/shipments
// @Summary List shipments
// @Tags shipments
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param search query string false "Search by tracking or AWB number"
// @Param status query string false "Filter by status"
// @Param carrier_code query string false "Filter by carrier"
// @Success 200 {object} dto.Response{data=[]appshipping.ShipmentResponse}
// @Router /api/v1/shipments [get]
func (h *ShipmentHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	req.ApplyDefaults()

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  map[string]interface{}{},
	}
	for _, key := range []string{"status", "carrier_code", "vendor_id", "order_id", "dest_city"} {
		if v := c.Query(key); v != "" {
			filter.Filters[key] = v
		}
	}

	page, err := h.bookings.ListShipments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Timeline handles GET /api/v1/shipments/:id/tracking
// @Summary Get a shipment's tracking timeline
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} dto.Response{data=[]appshipping.TrackingEventResponse}
// @Failure 404 {object} dto.Response
// @Router /api/v1/shipments/{id}/tracking [get]
func (h *ShipmentHandler) Timeline(c *gin.Context) {
	id, ok := h.shipmentID(c)
	if !ok {
		return
	}

	events, err := h.bookings.GetTimeline(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, events)
}

// Label handles GET /api/v1/shipments/:id/label
// @Summary Get the shipping label for a shipment
// @Tags shipments
// @Produce json
// @Param id path string true "Shipment ID"
// @Success 200 {object} dto.Response
// @Failure 404 {object} dto.Response
// @Router /api/v1/shipments/{id}/label [get]
func (h *ShipmentHandler) Label(c *gin.Context) {
	id, ok := h.shipmentID(c)
	if !ok {
		return
	}

	label, err := h.bookings.GetLabel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, label)
}

// UpdateStatus handles PUT /api/v1/shipments/:id/status
// @Summary Push a manual status update onto a shipment
// @Tags shipments
// @Accept json
// @Produce json
// @Param id path string true "Shipment ID"
// @Param request body appshipping.ManualStatusUpdateRequest true "Status update"
// @Success 200 {object} dto.Response{data=appshipping.ShipmentResponse}
// @Failure 422 {object} dto.Response
// @Router /api/v1/shipments/{id}/status [put]
func (h *ShipmentHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.shipmentID(c)
	if !ok {
		return
	}

	var req appshipping.ManualStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.bookings.UpdateStatusManual(c.Request.Context(), id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel handles POST /api/v1/shipments/:id/cancel
// @Summary Cancel a shipment before pickup
// @Tags shipments
// @Accept json
// @Produce json
// @Param id path string true "Shipment ID"
// @Param request body appshipping.CancelShipmentRequest true "Cancellation reason"
// @Success 200 {object} dto.Response{data=appshipping.ShipmentResponse}
// @Failure 422 {object} dto.Response
// @Router /api/v1/shipments/{id}/cancel [post]
func (h *ShipmentHandler) Cancel(c *gin.Context) {
	id, ok := h.shipmentID(c)
	if !ok {
		return
	}

	var req appshipping.CancelShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.bookings.CancelShipment(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// SchedulePickup handles POST /api/v1/shipments/:id/pickup
// @Summary Schedule a courier pickup for a shipment
// @Tags shipments
// @Accept json
// @Produce json
// @Param id path string true "Shipment ID"
// @Param request body appshipping.SchedulePickupRequest true "Pickup slot"
// @Success 200 {object} dto.Response{data=appshipping.PickupResponse}
// @Failure 422 {object} dto.Response
// @Router /api/v1/shipments/{id}/pickup [post]
func (h *ShipmentHandler) SchedulePickup(c *gin.Context) {
	id, ok := h.shipmentID(c)
	if !ok {
		return
	}

	var req appshipping.SchedulePickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.bookings.SchedulePickup(c.Request.Context(), id, &req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// shipmentID parses the :id path parameter, responding 400 on failure
func (h *ShipmentHandler) shipmentID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			dto.NewErrorResponse(dto.ErrCodeInvalidInput, "Invalid shipment ID"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			dto.NewErrorResponse(dto.ErrCodeInvalidInput, "Invalid shipment ID"))
		return uuid.Nil, false
	}
	return id, true
}
