package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/shipping/internal/domain/shipping"
)

type webhookResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Accepted       bool   `json:"accepted"`
		TrackingNumber string `json:"tracking_number"`
		EventsApplied  int    `json:"events_applied"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func pickupWebhook(trackingNumber string) *shipping.WebhookResult {
	return &shipping.WebhookResult{
		TrackingNumber: trackingNumber,
		Status:         shipping.StatusPickedUp,
		Events: []shipping.TrackingUpdate{{
			Status:        shipping.StatusPickedUp,
			CarrierStatus: "SHIPMENT PICKED",
			Description:   "Picked up from shipper",
			Location:      "Karachi",
			OccurredAt:    time.Now().UTC().Truncate(time.Second),
		}},
	}
}

func TestWebhookInvalidSignatureRejected(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedShipment(t, "LE100")
	env.adapter.webhook = pickupWebhook("LE100")

	rec := env.request(http.MethodPost, "/api/v1/webhooks/courier/leopards",
		[]byte(`{"track_number":"LE100"}`),
		map[string]string{"X-Webhook-Signature": "forged"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ERR_INVALID_SIGNATURE", resp.Error.Code)

	// a rejected webhook must leave no trace
	assert.EqualValues(t, 0, env.eventCount(t, s.ID))
	reloaded, err := env.shipments.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.StatusLabelCreated, reloaded.Status)
}

func TestWebhookAppliesTrackingEvents(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedShipment(t, "LE100")
	env.adapter.webhook = pickupWebhook("LE100")

	rec := env.request(http.MethodPost, "/api/v1/webhooks/courier/leopards",
		[]byte(`{"track_number":"LE100"}`),
		map[string]string{"X-Webhook-Signature": "valid-signature"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Accepted)
	assert.Equal(t, "LE100", resp.Data.TrackingNumber)
	assert.Equal(t, 1, resp.Data.EventsApplied)

	assert.EqualValues(t, 1, env.eventCount(t, s.ID))
	reloaded, err := env.shipments.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.StatusPickedUp, reloaded.Status)
}

func TestWebhookAcceptsAlternateSignatureHeader(t *testing.T) {
	env := newTestEnv(t)
	env.seedShipment(t, "LE100")
	env.adapter.webhook = pickupWebhook("LE100")

	rec := env.request(http.MethodPost, "/api/v1/webhooks/courier/leopards",
		[]byte(`{"track_number":"LE100"}`),
		map[string]string{"X-Signature": "valid-signature"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookUnknownShipmentAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	env.adapter.webhook = pickupWebhook("NO-SUCH-NUMBER")

	rec := env.request(http.MethodPost, "/api/v1/webhooks/courier/leopards",
		[]byte(`{"track_number":"NO-SUCH-NUMBER"}`),
		map[string]string{"X-Webhook-Signature": "valid-signature"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Data.Accepted)
}

func TestWebhookUnsupportedCarrier(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodPost, "/api/v1/webhooks/courier/bogus",
		[]byte(`{}`),
		map[string]string{"X-Webhook-Signature": "valid-signature"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
