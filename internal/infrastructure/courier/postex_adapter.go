package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/shipping/internal/domain/shipping"
)

const (
	postexCreateOrderPath = "/services/integration/api/order/v3/create-order"
	postexTrackPath       = "/services/integration/api/order/v1/track-order/%s"
	postexCancelPath      = "/services/integration/api/order/v1/cancel-order"
	postexRatePath        = "/services/integration/api/order/v1/get-rates"

	postexStatusOK = "200"

	postexTimeLayout = "2006-01-02T15:04:05"
)

// PostExAdapter integrates the PostEx merchant order API
type PostExAdapter struct {
	config     *shipping.CarrierConfig
	httpClient *http.Client
}

// NewPostExAdapter creates a PostEx adapter from a carrier configuration
func NewPostExAdapter(config *shipping.CarrierConfig) *PostExAdapter {
	return &PostExAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CarrierCode returns the carrier code this adapter handles
func (a *PostExAdapter) CarrierCode() string {
	return a.config.Code
}

// CreateShipment creates a PostEx order
func (a *PostExAdapter) CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*shipping.BookingResult, error) {
	codAmount := "0"
	if req.IsCOD {
		codAmount = req.CODAmount.StringFixed(0)
	}

	body := postexCreateOrderRequest{
		CityName:        req.Destination.City,
		PickupCityName:  req.Origin.City,
		CustomerName:    req.Destination.Name,
		CustomerPhone:   req.Destination.Phone,
		DeliveryAddress: req.Destination.Line1,
		InvoiceDivision: 1,
		InvoicePayment:  codAmount,
		Items:           req.ItemCount,
		OrderRefNumber:  req.OrderNumber,
		OrderType:       "Normal",
		OrderDetail:     req.Description,
	}

	var resp postexCreateOrderResponse
	if err := a.doRequest(ctx, http.MethodPost, postexCreateOrderPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != postexStatusOK {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCarrierRejected, resp.StatusMsg)
	}
	if resp.Dist == nil || resp.Dist.TrackingNumber == "" {
		return nil, fmt.Errorf("%w: order response missing tracking number", shipping.ErrCarrierInvalidResponse)
	}

	return &shipping.BookingResult{
		TrackingNumber: resp.Dist.TrackingNumber,
		AWBNumber:      resp.Dist.TrackingNumber,
		LabelURL:       fmt.Sprintf("%s/services/integration/api/order/v1/get-invoice/%s", a.config.APIBaseURL, resp.Dist.TrackingNumber),
	}, nil
}

// GetLabel returns the airway bill download link
func (a *PostExAdapter) GetLabel(ctx context.Context, trackingNumber string) (*shipping.LabelResult, error) {
	if trackingNumber == "" {
		return nil, shipping.ErrTrackingNotFound
	}
	return &shipping.LabelResult{
		LabelURL: fmt.Sprintf("%s/services/integration/api/order/v1/get-invoice/%s", a.config.APIBaseURL, trackingNumber),
	}, nil
}

// GetTracking retrieves and normalizes the PostEx transaction history
func (a *PostExAdapter) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingResult, error) {
	path := fmt.Sprintf(postexTrackPath, url.PathEscape(trackingNumber))
	var resp postexTrackResponse
	if err := a.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != postexStatusOK {
		return nil, fmt.Errorf("%w: %s", shipping.ErrTrackingNotFound, resp.StatusMsg)
	}
	if resp.Dist == nil {
		return nil, fmt.Errorf("%w: track response missing body", shipping.ErrCarrierInvalidResponse)
	}

	result := &shipping.TrackingResult{
		CurrentStatus: a.NormalizeStatus(resp.Dist.TransactionStatus),
	}
	for _, entry := range resp.Dist.History {
		occurredAt, err := time.Parse(postexTimeLayout, entry.UpdatedAt)
		if err != nil {
			continue
		}
		status := a.NormalizeStatus(entry.Status)
		result.Events = append(result.Events, shipping.TrackingUpdate{
			Status:        status,
			CarrierStatus: entry.Status,
			Description:   entry.Remarks,
			Location:      entry.City,
			OccurredAt:    occurredAt,
		})
		if status == shipping.StatusDelivered {
			delivered := occurredAt
			result.DeliveredAt = &delivered
		}
	}
	return result, nil
}

// CancelShipment cancels an un-dispatched PostEx order
func (a *PostExAdapter) CancelShipment(ctx context.Context, trackingNumber string) (*shipping.CancelResult, error) {
	body := map[string]string{"trackingNumber": trackingNumber}
	var resp postexCancelResponse
	if err := a.doRequest(ctx, http.MethodPut, postexCancelPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != postexStatusOK {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCancellationRejected, resp.StatusMsg)
	}
	return &shipping.CancelResult{Success: true, Message: resp.StatusMsg}, nil
}

// CalculateRate asks the PostEx rate API first and falls back to the
// configured rate card when the call fails
func (a *PostExAdapter) CalculateRate(ctx context.Context, req *shipping.RateRequest) (*shipping.RateQuote, error) {
	body := map[string]interface{}{
		"pickupCityName": req.OriginCity,
		"cityName":       req.DestinationCity,
		"weight":         req.WeightKg.StringFixed(2),
	}

	var resp postexRateResponse
	err := a.doRequest(ctx, http.MethodPost, postexRatePath, body, &resp)
	if err == nil && resp.StatusCode == postexStatusOK && resp.Dist != nil {
		if quote, ok := a.quoteFromRateDist(resp.Dist, req); ok {
			return quote, nil
		}
	}

	quote, qerr := a.config.QuoteFor(req.OriginCity, req.DestinationCity, req.WeightKg)
	if qerr != nil {
		if err != nil {
			return nil, err
		}
		return nil, qerr
	}
	quote.ServiceTier = req.ServiceTier
	quote.EstimatedDays = estimateTransitDays(req.OriginCity, req.DestinationCity)
	return quote, nil
}

// quoteFromRateDist converts a live rate response into a quote
func (a *PostExAdapter) quoteFromRateDist(dist *postexRateDist, req *shipping.RateRequest) (*shipping.RateQuote, bool) {
	base, err := decimal.NewFromString(dist.DeliveryCharges)
	if err != nil || base.LessThanOrEqual(decimal.Zero) {
		return nil, false
	}
	surcharge := decimal.Zero
	if dist.FuelSurcharge != "" {
		if s, err := decimal.NewFromString(dist.FuelSurcharge); err == nil {
			surcharge = s
		}
	}
	days := dist.EstimatedDays
	if days <= 0 {
		days = estimateTransitDays(req.OriginCity, req.DestinationCity)
	}
	return &shipping.RateQuote{
		CarrierCode:   a.config.Code,
		CarrierName:   a.config.Name,
		Amount:        base.Add(surcharge).Ceil(),
		Currency:      "PKR",
		EstimatedDays: days,
		ServiceTier:   req.ServiceTier,
		Breakdown: shipping.RateBreakdown{
			BaseAmount:    base,
			FuelSurcharge: surcharge,
		},
	}, true
}

// SchedulePickup is handled by PostEx account managers, not the API
func (a *PostExAdapter) SchedulePickup(ctx context.Context, req *shipping.PickupRequest) (*shipping.PickupResult, error) {
	return nil, shipping.ErrPickupNotSupported
}

// NormalizeStatus maps a PostEx status string to the internal enum
func (a *PostExAdapter) NormalizeStatus(carrierStatus string) shipping.ShipmentStatus {
	return a.config.NormalizeStatus(carrierStatus)
}

// ParseWebhook parses a PostEx order status push
func (a *PostExAdapter) ParseWebhook(payload []byte) (*shipping.WebhookResult, error) {
	var hook postexWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", shipping.ErrInvalidWebhookPayload, err)
	}
	if hook.TrackingNumber == "" || hook.OrderStatus == "" {
		return nil, fmt.Errorf("%w: missing tracking number or status", shipping.ErrInvalidWebhookPayload)
	}

	occurredAt, err := time.Parse(postexTimeLayout, hook.UpdatedAt)
	if err != nil {
		occurredAt = time.Now()
	}
	status := a.NormalizeStatus(hook.OrderStatus)
	return &shipping.WebhookResult{
		TrackingNumber: hook.TrackingNumber,
		Status:         status,
		Events: []shipping.TrackingUpdate{{
			Status:        status,
			CarrierStatus: hook.OrderStatus,
			Description:   hook.Remarks,
			Location:      hook.City,
			OccurredAt:    occurredAt,
		}},
		Raw: json.RawMessage(payload),
	}, nil
}

// VerifyWebhookSignature validates the HMAC signature header
func (a *PostExAdapter) VerifyWebhookSignature(payload []byte, signature string) bool {
	return verifySignature(a.config.WebhookSecret, payload, signature)
}

// doRequest performs a JSON request to the PostEx API.
// PostEx authenticates with a static token header.
func (a *PostExAdapter) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("postex: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("postex: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("token", a.config.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shipping.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("postex: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", shipping.ErrCarrierRequestFailed, resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", shipping.ErrCarrierInvalidResponse, err)
	}
	return nil
}

// Ensure PostExAdapter implements CourierAdapter interface
var _ shipping.CourierAdapter = (*PostExAdapter)(nil)
