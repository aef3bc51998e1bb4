package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shipping"
)

// HTTPCustomerNotifier pushes tracking notifications to the notification
// service, which fans them out to SMS and email. Notification delivery is
// best-effort by contract; callers log and move on when it fails.
type HTTPCustomerNotifier struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPCustomerNotifier creates a notifier targeting the given endpoint
func NewHTTPCustomerNotifier(endpoint, apiKey string, logger *zap.Logger) *HTTPCustomerNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPCustomerNotifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// NotifyStatusChange delivers one notification. With no endpoint configured
// the notification is logged only, which keeps development setups working
// without a notification service.
func (n *HTTPCustomerNotifier) NotifyStatusChange(ctx context.Context, notification *shipping.ShipmentNotification) error {
	if n.endpoint == "" {
		n.logger.Info("customer notification (no endpoint configured)",
			zap.String("tracking_number", notification.TrackingNumber),
			zap.String("status", notification.Status.String()),
			zap.String("recipient", notification.Recipient))
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"shipment_id":     notification.ShipmentID,
		"order_number":    notification.OrderNumber,
		"tracking_number": notification.TrackingNumber,
		"carrier_name":    notification.CarrierName,
		"status":          notification.Status.String(),
		"recipient":       notification.Recipient,
		"phone":           notification.Phone,
		"occurred_at":     notification.OccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("notifier: failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("X-API-Key", n.apiKey)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: notification service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notifier: notification service returned HTTP %d", resp.StatusCode)
	}
	return nil
}

var _ shipping.CustomerNotifier = (*HTTPCustomerNotifier)(nil)
