package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
	"github.com/erp/shipping/internal/infrastructure/config"
)

// HTTPFulfillmentGateway talks to the order service's internal API.
// It is the only way the shipping context reads fulfillment units or
// reports terminal outcomes back.
type HTTPFulfillmentGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPFulfillmentGateway creates a gateway from configuration
func NewHTTPFulfillmentGateway(cfg config.FulfillmentConfig) *HTTPFulfillmentGateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFulfillmentGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type fulfillmentPayload struct {
	ID              uuid.UUID        `json:"id"`
	OrderID         uuid.UUID        `json:"order_id"`
	VendorID        uuid.UUID        `json:"vendor_id"`
	OrderNumber     string           `json:"order_number"`
	ItemCount       int              `json:"item_count"`
	WeightKg        decimal.Decimal  `json:"weight_kg"`
	DeclaredValue   decimal.Decimal  `json:"declared_value"`
	IsCOD           bool             `json:"is_cod"`
	CODAmount       decimal.Decimal  `json:"cod_amount"`
	PickupAddress   shipping.Address `json:"pickup_address"`
	DeliveryAddress shipping.Address `json:"delivery_address"`
}

// Get fetches the fulfillment unit details needed to book a shipment
func (g *HTTPFulfillmentGateway) Get(ctx context.Context, fulfillmentID uuid.UUID) (*shipping.FulfillmentInfo, error) {
	url := fmt.Sprintf("%s/internal/v1/fulfillments/%s", g.baseURL, fulfillmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to build request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: order service unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: fulfillment %s", shared.ErrNotFound, fulfillmentID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("gateway: order service returned HTTP %d", resp.StatusCode)
	}

	var payload fulfillmentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("gateway: invalid fulfillment response: %w", err)
	}

	return &shipping.FulfillmentInfo{
		ID:              payload.ID,
		OrderID:         payload.OrderID,
		VendorID:        payload.VendorID,
		OrderNumber:     payload.OrderNumber,
		ItemCount:       payload.ItemCount,
		WeightKg:        payload.WeightKg,
		DeclaredValue:   payload.DeclaredValue,
		IsCOD:           payload.IsCOD,
		CODAmount:       payload.CODAmount,
		PickupAddress:   payload.PickupAddress,
		DeliveryAddress: payload.DeliveryAddress,
	}, nil
}

// UpdateStatus reports a terminal outcome (delivered or returned) back to
// the order service
func (g *HTTPFulfillmentGateway) UpdateStatus(ctx context.Context, fulfillmentID uuid.UUID, status shipping.ShipmentStatus, at time.Time) error {
	body, err := json.Marshal(map[string]string{
		"status":      status.String(),
		"occurred_at": at.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("gateway: failed to encode status update: %w", err)
	}

	url := fmt.Sprintf("%s/internal/v1/fulfillments/%s/shipping-status", g.baseURL, fulfillmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: failed to build request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: order service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("gateway: order service returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (g *HTTPFulfillmentGateway) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}
}

var _ shipping.FulfillmentGateway = (*HTTPFulfillmentGateway)(nil)
