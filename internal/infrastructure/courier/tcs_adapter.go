package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/erp/shipping/internal/domain/shipping"
)

const (
	tcsCreateOrderPath = "/v1/cod/create-order"
	tcsTrackPath       = "/v1/shipment/detail"
	tcsCancelPath      = "/v1/cod/cancel-order"
	tcsPickupPath      = "/v1/pickup/create"

	tcsStatusSuccess = "0200"

	tcsDateTimeLayout = "02-Jan-2006 15:04"
	tcsDateLayout     = "02-Jan-2006"
)

// TCSAdapter integrates the TCS Express COD booking and tracking API
type TCSAdapter struct {
	config     *shipping.CarrierConfig
	httpClient *http.Client
}

// NewTCSAdapter creates a TCS adapter from a carrier configuration
func NewTCSAdapter(config *shipping.CarrierConfig) *TCSAdapter {
	return &TCSAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CarrierCode returns the carrier code this adapter handles
func (a *TCSAdapter) CarrierCode() string {
	return a.config.Code
}

// CreateShipment books a consignment with TCS
func (a *TCSAdapter) CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*shipping.BookingResult, error) {
	codAmount := "0"
	if req.IsCOD {
		codAmount = req.CODAmount.StringFixed(0)
	}

	body := tcsCreateOrderRequest{
		UserName:         a.config.APIKey,
		Password:         a.config.APISecret,
		CostCenterCode:   a.config.AccountNumber,
		ConsigneeName:    req.Destination.Name,
		ConsigneeAddress: req.Destination.Line1,
		ConsigneeMobNo:   req.Destination.Phone,
		OriginCityName:   req.Origin.City,
		DestinationCity:  req.Destination.City,
		Weight:           req.WeightKg.StringFixed(2),
		Pieces:           req.ItemCount,
		CODAmount:        codAmount,
		CustomerRefNo:    req.OrderNumber,
		ProductDetails:   req.Description,
		Services:         tcsServiceCode(req.ServiceTier),
	}

	var resp tcsCreateOrderResponse
	if err := a.doRequest(ctx, tcsCreateOrderPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.ReturnStatus.Code != tcsStatusSuccess {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCarrierRejected, resp.ReturnStatus.Message)
	}
	if resp.BookingReply == nil || resp.BookingReply.ConsignmentNo == "" {
		return nil, fmt.Errorf("%w: booking response missing consignment number", shipping.ErrCarrierInvalidResponse)
	}

	return &shipping.BookingResult{
		TrackingNumber: resp.BookingReply.ConsignmentNo,
		AWBNumber:      resp.BookingReply.ConsignmentNo,
		BookingID:      resp.BookingReply.RunID,
	}, nil
}

// GetLabel returns the consignment note print link
func (a *TCSAdapter) GetLabel(ctx context.Context, trackingNumber string) (*shipping.LabelResult, error) {
	if trackingNumber == "" {
		return nil, shipping.ErrTrackingNotFound
	}
	return &shipping.LabelResult{
		LabelURL: fmt.Sprintf("%s/v1/shipment/label/%s", a.config.APIBaseURL, trackingNumber),
	}, nil
}

// GetTracking retrieves and normalizes the TCS tracking history
func (a *TCSAdapter) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingResult, error) {
	body := map[string]string{
		"userName":      a.config.APIKey,
		"password":      a.config.APISecret,
		"consignmentNo": trackingNumber,
	}
	var resp tcsTrackResponse
	if err := a.doRequest(ctx, tcsTrackPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.ReturnStatus.Code != tcsStatusSuccess {
		return nil, fmt.Errorf("%w: %s", shipping.ErrTrackingNotFound, resp.ReturnStatus.Message)
	}

	result := &shipping.TrackingResult{}
	if resp.Shipment != nil {
		result.CurrentStatus = a.NormalizeStatus(resp.Shipment.Status)
	}
	for _, cp := range resp.Checkpoints {
		occurredAt, err := time.Parse(tcsDateTimeLayout, cp.DateTime)
		if err != nil {
			continue
		}
		result.Events = append(result.Events, shipping.TrackingUpdate{
			Status:        a.NormalizeStatus(cp.Status),
			CarrierStatus: cp.Status,
			Location:      cp.Location,
			OccurredAt:    occurredAt,
		})
	}
	if resp.DeliveryInfo != nil {
		if t, err := time.Parse(tcsDateTimeLayout, resp.DeliveryInfo.DeliveredAt); err == nil {
			result.DeliveredAt = &t
		}
		result.SignedBy = resp.DeliveryInfo.ReceivedBy
	}
	return result, nil
}

// CancelShipment cancels an unbooked or unpicked consignment
func (a *TCSAdapter) CancelShipment(ctx context.Context, trackingNumber string) (*shipping.CancelResult, error) {
	body := tcsCancelRequest{
		UserName:      a.config.APIKey,
		Password:      a.config.APISecret,
		ConsignmentNo: trackingNumber,
	}
	var resp tcsCancelResponse
	if err := a.doRequest(ctx, tcsCancelPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.ReturnStatus.Code != tcsStatusSuccess {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCancellationRejected, resp.ReturnStatus.Message)
	}
	return &shipping.CancelResult{Success: true, Message: resp.ReturnStatus.Message}, nil
}

// CalculateRate prices the route from the configured rate card
func (a *TCSAdapter) CalculateRate(ctx context.Context, req *shipping.RateRequest) (*shipping.RateQuote, error) {
	quote, err := a.config.QuoteFor(req.OriginCity, req.DestinationCity, req.WeightKg)
	if err != nil {
		return nil, err
	}
	quote.ServiceTier = req.ServiceTier
	if req.ServiceTier == "overnight" {
		quote.EstimatedDays = 1
	} else {
		quote.EstimatedDays = estimateTransitDays(req.OriginCity, req.DestinationCity)
	}
	return quote, nil
}

// SchedulePickup books a rider pickup at the vendor location
func (a *TCSAdapter) SchedulePickup(ctx context.Context, req *shipping.PickupRequest) (*shipping.PickupResult, error) {
	if !a.config.SupportsPickup {
		return nil, shipping.ErrPickupNotSupported
	}
	body := tcsPickupRequest{
		UserName:       a.config.APIKey,
		Password:       a.config.APISecret,
		CostCenterCode: a.config.AccountNumber,
		PickupAddress:  req.Address.Line1,
		PickupCity:     req.Address.City,
		PickupDate:     req.PickupDate.Format(tcsDateLayout),
		PickupTime:     req.TimeWindow,
		Pieces:         req.PieceCount,
		Weight:         req.WeightKg.StringFixed(2),
	}
	var resp tcsPickupResponse
	if err := a.doRequest(ctx, tcsPickupPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.ReturnStatus.Code != tcsStatusSuccess {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCarrierRejected, resp.ReturnStatus.Message)
	}
	return &shipping.PickupResult{
		PickupID:   resp.PickupID,
		PickupDate: req.PickupDate,
		PickupTime: req.TimeWindow,
	}, nil
}

// NormalizeStatus maps a TCS status string to the internal enum
func (a *TCSAdapter) NormalizeStatus(carrierStatus string) shipping.ShipmentStatus {
	return a.config.NormalizeStatus(carrierStatus)
}

// ParseWebhook parses a TCS status push
func (a *TCSAdapter) ParseWebhook(payload []byte) (*shipping.WebhookResult, error) {
	var hook tcsWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrInvalidWebhookPayload, err)
	}
	if hook.ConsignmentNo == "" || hook.Status == "" {
		return nil, fmt.Errorf("%w: missing consignment number or status", shipping.ErrInvalidWebhookPayload)
	}

	occurredAt, err := time.Parse(tcsDateTimeLayout, hook.DateTime)
	if err != nil {
		occurredAt = time.Now()
	}
	status := a.NormalizeStatus(hook.Status)
	return &shipping.WebhookResult{
		TrackingNumber: hook.ConsignmentNo,
		Status:         status,
		Events: []shipping.TrackingUpdate{{
			Status:        status,
			CarrierStatus: hook.Status,
			Description:   hook.ReceivedBy,
			Location:      hook.Location,
			OccurredAt:    occurredAt,
		}},
		Raw: json.RawMessage(payload),
	}, nil
}

// VerifyWebhookSignature validates the HMAC signature header
func (a *TCSAdapter) VerifyWebhookSignature(payload []byte, signature string) bool {
	return verifySignature(a.config.WebhookSecret, payload, signature)
}

// doRequest performs a JSON POST to the TCS API
func (a *TCSAdapter) doRequest(ctx context.Context, path string, body, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("tcs: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("tcs: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-IBM-Client-Id", a.config.AccountNumber)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tcs: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", shipping.ErrCarrierRequestFailed, resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", shipping.ErrCarrierInvalidResponse, err)
	}
	return nil
}

// tcsServiceCode maps service tiers to TCS service letters
func tcsServiceCode(tier string) string {
	switch tier {
	case "overnight":
		return "O"
	case "second_day":
		return "S"
	default:
		return "O"
	}
}

// Ensure TCSAdapter implements CourierAdapter interface
var _ shipping.CourierAdapter = (*TCSAdapter)(nil)
