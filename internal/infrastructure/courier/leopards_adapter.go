package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/shipping/internal/domain/shipping"
)

const (
	leopardsBookPacketPath  = "/webservice/bookPacket/format/json"
	leopardsTrackPacketPath = "/webservice/trackBookedPacket/format/json"
	leopardsCancelPath      = "/webservice/cancelBookedPackets/format/json"

	leopardsStatusOK = 1

	leopardsDateLayout = "2006-01-02 15:04:05"
)

// LeopardsAdapter integrates the Leopards Courier booking and tracking API
type LeopardsAdapter struct {
	config     *shipping.CarrierConfig
	httpClient *http.Client
}

// NewLeopardsAdapter creates a Leopards adapter from a carrier configuration
func NewLeopardsAdapter(config *shipping.CarrierConfig) *LeopardsAdapter {
	return &LeopardsAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CarrierCode returns the carrier code this adapter handles
func (a *LeopardsAdapter) CarrierCode() string {
	return a.config.Code
}

// CreateShipment books a packet with Leopards
func (a *LeopardsAdapter) CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*shipping.BookingResult, error) {
	codAmount := "0"
	if req.IsCOD {
		codAmount = req.CODAmount.StringFixed(0)
	}

	// Leopards takes weight in grams
	body := leopardsBookPacketRequest{
		APIKey:              a.config.APIKey,
		APIPassword:         a.config.APISecret,
		BookedPacketWeight:  int(req.WeightKg.Mul(decimal.NewFromInt(1000)).IntPart()),
		BookedPacketNoPiece: req.ItemCount,
		BookedPacketCODAmt:  codAmount,
		BookedPacketOrderID: req.OrderNumber,
		OriginCity:          req.Origin.City,
		DestinationCity:     req.Destination.City,
		ShipmentName:        req.Origin.Name,
		ShipmentPhone:       req.Origin.Phone,
		ShipmentAddress:     req.Origin.Line1,
		ConsigneeName:       req.Destination.Name,
		ConsigneePhone:      req.Destination.Phone,
		ConsigneeAddress:    req.Destination.Line1,
		SpecialInstructions: req.Description,
		ServiceType:         req.ServiceTier,
	}

	var resp leopardsBookPacketResponse
	if err := a.doRequest(ctx, leopardsBookPacketPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != leopardsStatusOK {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCarrierRejected, resp.Error)
	}
	if resp.TrackNumber == "" {
		return nil, fmt.Errorf("%w: booking response missing track number", shipping.ErrCarrierInvalidResponse)
	}

	return &shipping.BookingResult{
		TrackingNumber: resp.TrackNumber,
		AWBNumber:      resp.TrackNumber,
		BookingID:      resp.PacketID,
		LabelURL:       resp.SlipLink,
	}, nil
}

// GetLabel returns the booking slip link. Leopards serves labels by URL only,
// so the consignment is verified before the link is handed out.
func (a *LeopardsAdapter) GetLabel(ctx context.Context, trackingNumber string) (*shipping.LabelResult, error) {
	if _, err := a.track(ctx, trackingNumber); err != nil {
		return nil, err
	}
	return &shipping.LabelResult{
		LabelURL: fmt.Sprintf("%s/webservice/getSlip/%s", a.config.APIBaseURL, trackingNumber),
	}, nil
}

// GetTracking retrieves and normalizes the Leopards tracking history
func (a *LeopardsAdapter) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingResult, error) {
	packet, err := a.track(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	result := &shipping.TrackingResult{
		CurrentStatus: a.NormalizeStatus(packet.Status),
	}
	for _, detail := range packet.TrackingDetail {
		occurredAt, err := parseLeopardsTime(detail.ActivityDate, detail.ActivityTime)
		if err != nil {
			continue
		}
		status := a.NormalizeStatus(detail.Status)
		result.Events = append(result.Events, shipping.TrackingUpdate{
			Status:        status,
			CarrierStatus: detail.Status,
			Description:   detail.Reason,
			Location:      detail.Location,
			OccurredAt:    occurredAt,
		})
		if status == shipping.StatusDelivered {
			delivered := occurredAt
			result.DeliveredAt = &delivered
			if detail.ReceiverName != "" {
				result.SignedBy = detail.ReceiverName
			}
		}
	}
	if result.SignedBy == "" {
		result.SignedBy = packet.ReceiverName
	}
	return result, nil
}

// CancelShipment requests a booking cancellation
func (a *LeopardsAdapter) CancelShipment(ctx context.Context, trackingNumber string) (*shipping.CancelResult, error) {
	body := leopardsCancelRequest{
		APIKey:      a.config.APIKey,
		APIPassword: a.config.APISecret,
		CNNumbers:   trackingNumber,
	}
	var resp leopardsCancelResponse
	if err := a.doRequest(ctx, leopardsCancelPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != leopardsStatusOK {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCancellationRejected, resp.Error)
	}
	return &shipping.CancelResult{Success: true}, nil
}

// CalculateRate prices the route from the configured rate card.
// Leopards exposes no public rate API, so pricing is configuration-driven.
func (a *LeopardsAdapter) CalculateRate(ctx context.Context, req *shipping.RateRequest) (*shipping.RateQuote, error) {
	quote, err := a.config.QuoteFor(req.OriginCity, req.DestinationCity, req.WeightKg)
	if err != nil {
		return nil, err
	}
	quote.ServiceTier = req.ServiceTier
	quote.EstimatedDays = estimateTransitDays(req.OriginCity, req.DestinationCity)
	return quote, nil
}

// SchedulePickup is not offered by the Leopards API; parcels are dropped at
// a booking office or collected under a standing account arrangement
func (a *LeopardsAdapter) SchedulePickup(ctx context.Context, req *shipping.PickupRequest) (*shipping.PickupResult, error) {
	return nil, shipping.ErrPickupNotSupported
}

// NormalizeStatus maps a Leopards status string to the internal enum
func (a *LeopardsAdapter) NormalizeStatus(carrierStatus string) shipping.ShipmentStatus {
	return a.config.NormalizeStatus(carrierStatus)
}

// ParseWebhook parses a Leopards push notification
func (a *LeopardsAdapter) ParseWebhook(payload []byte) (*shipping.WebhookResult, error) {
	var hook leopardsWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrInvalidWebhookPayload, err)
	}
	if hook.TrackNumber == "" || hook.Status == "" {
		return nil, fmt.Errorf("%w: missing track number or status", shipping.ErrInvalidWebhookPayload)
	}

	occurredAt, err := time.Parse(leopardsDateLayout, hook.ActivityAt)
	if err != nil {
		occurredAt = time.Now()
	}
	status := a.NormalizeStatus(hook.Status)
	return &shipping.WebhookResult{
		TrackingNumber: hook.TrackNumber,
		Status:         status,
		Events: []shipping.TrackingUpdate{{
			Status:        status,
			CarrierStatus: hook.Status,
			Description:   hook.Reason,
			Location:      hook.Location,
			OccurredAt:    occurredAt,
		}},
		Raw: json.RawMessage(payload),
	}, nil
}

// VerifyWebhookSignature validates the HMAC signature header
func (a *LeopardsAdapter) VerifyWebhookSignature(payload []byte, signature string) bool {
	return verifySignature(a.config.WebhookSecret, payload, signature)
}

// track fetches the tracking record for one consignment
func (a *LeopardsAdapter) track(ctx context.Context, trackingNumber string) (*leopardsPacketTrack, error) {
	body := leopardsTrackRequest{
		APIKey:      a.config.APIKey,
		APIPassword: a.config.APISecret,
		TrackNumber: trackingNumber,
	}
	var resp leopardsTrackResponse
	if err := a.doRequest(ctx, leopardsTrackPacketPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != leopardsStatusOK {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCarrierRequestFailed, resp.Error)
	}
	if len(resp.PacketList) == 0 {
		return nil, shipping.ErrTrackingNotFound
	}
	return &resp.PacketList[0], nil
}

// doRequest performs a JSON POST to the Leopards API
func (a *LeopardsAdapter) doRequest(ctx context.Context, path string, body, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("leopards: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("leopards: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("leopards: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", shipping.ErrCarrierRequestFailed, resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", shipping.ErrCarrierInvalidResponse, err)
	}
	return nil
}

// parseLeopardsTime combines the split date and time fields of a checkpoint
func parseLeopardsTime(date, clock string) (time.Time, error) {
	if clock == "" {
		clock = "00:00:00"
	}
	return time.Parse(leopardsDateLayout, date+" "+clock)
}

// equalCity compares city names case-insensitively
func equalCity(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// estimateTransitDays gives a coarse delivery estimate per lane type
func estimateTransitDays(origin, destination string) int {
	if origin == "" || destination == "" {
		return 3
	}
	if equalCity(origin, destination) {
		return 1
	}
	return 3
}

// Ensure LeopardsAdapter implements CourierAdapter interface
var _ shipping.CourierAdapter = (*LeopardsAdapter)(nil)
