package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appshipping "github.com/erp/shipping/internal/application/shipping"
)

// Signature header names accepted on webhook deliveries. Carriers differ
// in which one they send.
const (
	WebhookSignatureHeader    = "X-Webhook-Signature"
	WebhookSignatureHeaderAlt = "X-Signature"
)

// WebhookHandler receives tracking pushes from carriers
type WebhookHandler struct {
	*BaseHandler
	tracking *appshipping.TrackingService
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(tracking *appshipping.TrackingService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: NewBaseHandler(logger),
		tracking:    tracking,
	}
}

// Receive handles POST /api/v1/webhooks/courier/:code
// @Summary Receive a carrier tracking webhook
// @Description Verifies the HMAC signature before anything is parsed or written. Unknown tracking numbers and redelivered payloads are acknowledged with 200 so the carrier stops retrying.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param code path string true "Carrier code"
// @Param X-Webhook-Signature header string false "HMAC-SHA256 payload signature"
// @Success 200 {object} dto.Response{data=appshipping.WebhookAck}
// @Failure 401 {object} dto.Response
// @Router /api/v1/webhooks/courier/{code} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	carrierCode := strings.TrimSpace(c.Param("code"))
	if carrierCode == "" {
		h.BadRequest(c, "Carrier code is required")
		return
	}

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	signature := c.GetHeader(WebhookSignatureHeader)
	if signature == "" {
		signature = c.GetHeader(WebhookSignatureHeaderAlt)
	}

	ack, err := h.tracking.ProcessWebhook(c.Request.Context(), carrierCode, payload, signature)
	if err != nil {
		// A webhook for a shipment we do not know, or one we already
		// applied, is acknowledged so the carrier stops retrying.
		if errors.Is(err, appshipping.ErrWebhookShipmentUnknown) {
			h.logger.Info("webhook for unknown shipment ignored",
				zap.String("carrier_code", carrierCode))
			h.Success(c, &appshipping.WebhookAck{Accepted: false})
			return
		}
		if errors.Is(err, appshipping.ErrWebhookAlreadyProcessed) {
			h.Success(c, &appshipping.WebhookAck{Accepted: true})
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, ack)
}
