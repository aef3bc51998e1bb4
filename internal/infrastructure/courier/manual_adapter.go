package courier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/erp/shipping/internal/domain/shipping"
)

// ManualAdapter is the fallback carrier for self-delivered or walk-in
// shipments. Bookings mint a local tracking number, status updates arrive
// through the manual update endpoint, and no external API is called.
type ManualAdapter struct {
	config *shipping.CarrierConfig
}

// NewManualAdapter creates the manual fallback adapter
func NewManualAdapter(config *shipping.CarrierConfig) *ManualAdapter {
	return &ManualAdapter{config: config}
}

// CarrierCode returns the carrier code this adapter handles
func (a *ManualAdapter) CarrierCode() string {
	return a.config.Code
}

// CreateShipment mints a local tracking number without calling anyone
func (a *ManualAdapter) CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*shipping.BookingResult, error) {
	ref := strings.ReplaceAll(strings.ToUpper(req.OrderNumber), " ", "")
	if ref == "" {
		ref = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return &shipping.BookingResult{
		TrackingNumber: "MNL-" + ref,
	}, nil
}

// GetLabel is not available for manual shipments
func (a *ManualAdapter) GetLabel(ctx context.Context, trackingNumber string) (*shipping.LabelResult, error) {
	return nil, fmt.Errorf("%w: manual shipments have no label", shipping.ErrCarrierRequestFailed)
}

// GetTracking returns an empty snapshot; manual shipments are updated
// through the status endpoint, not polled
func (a *ManualAdapter) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingResult, error) {
	return &shipping.TrackingResult{}, nil
}

// CancelShipment always succeeds; there is nothing to unwind
func (a *ManualAdapter) CancelShipment(ctx context.Context, trackingNumber string) (*shipping.CancelResult, error) {
	return &shipping.CancelResult{Success: true}, nil
}

// CalculateRate prices from the configured rate card only
func (a *ManualAdapter) CalculateRate(ctx context.Context, req *shipping.RateRequest) (*shipping.RateQuote, error) {
	quote, err := a.config.QuoteFor(req.OriginCity, req.DestinationCity, req.WeightKg)
	if err != nil {
		return nil, err
	}
	quote.ServiceTier = req.ServiceTier
	quote.EstimatedDays = estimateTransitDays(req.OriginCity, req.DestinationCity)
	return quote, nil
}

// SchedulePickup is not supported for manual shipments
func (a *ManualAdapter) SchedulePickup(ctx context.Context, req *shipping.PickupRequest) (*shipping.PickupResult, error) {
	return nil, shipping.ErrPickupNotSupported
}

// NormalizeStatus maps a status string through the configured map
func (a *ManualAdapter) NormalizeStatus(carrierStatus string) shipping.ShipmentStatus {
	return a.config.NormalizeStatus(carrierStatus)
}

// ParseWebhook accepts the generic manual update body
func (a *ManualAdapter) ParseWebhook(payload []byte) (*shipping.WebhookResult, error) {
	var hook struct {
		TrackingNumber string `json:"tracking_number"`
		Status         string `json:"status"`
		Description    string `json:"description,omitempty"`
		Location       string `json:"location,omitempty"`
		OccurredAt     string `json:"occurred_at,omitempty"`
	}
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrInvalidWebhookPayload, err)
	}
	if hook.TrackingNumber == "" || hook.Status == "" {
		return nil, fmt.Errorf("%w: missing tracking number or status", shipping.ErrInvalidWebhookPayload)
	}

	occurredAt := time.Now()
	if hook.OccurredAt != "" {
		if t, err := time.Parse(time.RFC3339, hook.OccurredAt); err == nil {
			occurredAt = t
		}
	}
	status := a.NormalizeStatus(hook.Status)
	return &shipping.WebhookResult{
		TrackingNumber: hook.TrackingNumber,
		Status:         status,
		Events: []shipping.TrackingUpdate{{
			Status:        status,
			CarrierStatus: hook.Status,
			Description:   hook.Description,
			Location:      hook.Location,
			OccurredAt:    occurredAt,
		}},
		Raw: json.RawMessage(payload),
	}, nil
}

// VerifyWebhookSignature validates the HMAC signature header
func (a *ManualAdapter) VerifyWebhookSignature(payload []byte, signature string) bool {
	return verifySignature(a.config.WebhookSecret, payload, signature)
}

// Ensure ManualAdapter implements CourierAdapter interface
var _ shipping.CourierAdapter = (*ManualAdapter)(nil)
