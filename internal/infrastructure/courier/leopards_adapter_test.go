package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/shipping/internal/domain/shipping"
)

func leopardsTestConfig(t *testing.T, baseURL string) *shipping.CarrierConfig {
	t.Helper()
	c, err := shipping.NewCarrierConfig("leopards", "Leopards Courier")
	require.NoError(t, err)
	c.Enable()
	c.APIBaseURL = baseURL
	c.APIKey = "test-key"
	c.APISecret = "test-secret"
	c.WebhookSecret = "whsec-leopards"
	c.FuelSurchargePct = decimal.NewFromInt(5)
	c.StatusMap = map[string]shipping.ShipmentStatus{
		"Consignment Booked":  shipping.StatusLabelCreated,
		"Picked Up":           shipping.StatusPickedUp,
		"Arrived at Station":  shipping.StatusInTransit,
		"Being Delivered":     shipping.StatusOutForDelivery,
		"Delivered":           shipping.StatusDelivered,
		"Returned to Shipper": shipping.StatusReturned,
	}
	c.RateCard = []shipping.RateCardEntry{
		{
			OriginCity:      "Karachi",
			DestinationCity: "Lahore",
			BaseRate:        decimal.NewFromInt(250),
			PerKgRate:       decimal.NewFromInt(60),
			Slabs: []shipping.WeightSlab{
				{MaxWeightKg: decimal.NewFromFloat(0.5), Rate: decimal.NewFromInt(180)},
			},
		},
	}
	return c
}

func TestLeopardsAdapter_CreateShipment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, leopardsBookPacketPath, r.URL.Path)

		var req leopardsBookPacketRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, 1500, req.BookedPacketWeight) // kg converted to grams
		assert.Equal(t, "Karachi", req.OriginCity)
		assert.Equal(t, "2500", req.BookedPacketCODAmt)

		json.NewEncoder(w).Encode(leopardsBookPacketResponse{
			Status:      1,
			TrackNumber: "LE123456789",
			PacketID:    "PKT-1",
			SlipLink:    "https://example.com/slip/LE123456789",
		})
	}))
	defer server.Close()

	adapter := NewLeopardsAdapter(leopardsTestConfig(t, server.URL))
	result, err := adapter.CreateShipment(context.Background(), &shipping.ShipmentRequest{
		OrderNumber: "ORD-1001",
		Origin:      shipping.Address{Name: "Vendor", City: "Karachi", Line1: "SITE Area", Phone: "0300"},
		Destination: shipping.Address{Name: "Customer", City: "Lahore", Line1: "Gulberg", Phone: "0321"},
		WeightKg:    decimal.NewFromFloat(1.5),
		ItemCount:   1,
		IsCOD:       true,
		CODAmount:   decimal.NewFromInt(2500),
	})
	require.NoError(t, err)
	assert.Equal(t, "LE123456789", result.TrackingNumber)
	assert.Equal(t, "PKT-1", result.BookingID)
	assert.NotEmpty(t, result.LabelURL)
}

func TestLeopardsAdapter_CreateShipment_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(leopardsBookPacketResponse{
			Status: 0,
			Error:  "destination city not serviced",
		})
	}))
	defer server.Close()

	adapter := NewLeopardsAdapter(leopardsTestConfig(t, server.URL))
	_, err := adapter.CreateShipment(context.Background(), &shipping.ShipmentRequest{
		Origin:      shipping.Address{Name: "Vendor", City: "Karachi", Line1: "X"},
		Destination: shipping.Address{Name: "Customer", City: "Gwadar", Line1: "Y"},
		WeightKg:    decimal.NewFromInt(1),
		ItemCount:   1,
	})
	assert.ErrorIs(t, err, shipping.ErrCarrierRejected)
}

func TestLeopardsAdapter_CreateShipment_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	adapter := NewLeopardsAdapter(leopardsTestConfig(t, server.URL))
	_, err := adapter.CreateShipment(context.Background(), &shipping.ShipmentRequest{
		Origin:      shipping.Address{Name: "V", City: "Karachi", Line1: "X"},
		Destination: shipping.Address{Name: "C", City: "Lahore", Line1: "Y"},
		WeightKg:    decimal.NewFromInt(1),
		ItemCount:   1,
	})
	assert.ErrorIs(t, err, shipping.ErrCarrierUnavailable)
}

func TestLeopardsAdapter_GetTracking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, leopardsTrackPacketPath, r.URL.Path)
		json.NewEncoder(w).Encode(leopardsTrackResponse{
			Status: 1,
			PacketList: []leopardsPacketTrack{{
				TrackNumber: "LE123456789",
				Status:      "Delivered",
				TrackingDetail: []leopardsTrackDetail{
					{Status: "Picked Up", ActivityDate: "2026-03-10", ActivityTime: "09:15:00", Location: "Karachi Hub"},
					{Status: "Arrived at Station", ActivityDate: "2026-03-11", ActivityTime: "06:40:00", Location: "Lahore Hub"},
					{Status: "Delivered", ActivityDate: "2026-03-11", ActivityTime: "15:05:00", ReceiverName: "Ayesha"},
				},
			}},
		})
	}))
	defer server.Close()

	adapter := NewLeopardsAdapter(leopardsTestConfig(t, server.URL))
	result, err := adapter.GetTracking(context.Background(), "LE123456789")
	require.NoError(t, err)

	assert.Equal(t, shipping.StatusDelivered, result.CurrentStatus)
	require.Len(t, result.Events, 3)
	assert.Equal(t, shipping.StatusPickedUp, result.Events[0].Status)
	assert.Equal(t, shipping.StatusInTransit, result.Events[1].Status)
	assert.Equal(t, shipping.StatusDelivered, result.Events[2].Status)
	require.NotNil(t, result.DeliveredAt)
	assert.Equal(t, "Ayesha", result.SignedBy)
}

func TestLeopardsAdapter_GetTracking_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(leopardsTrackResponse{Status: 1})
	}))
	defer server.Close()

	adapter := NewLeopardsAdapter(leopardsTestConfig(t, server.URL))
	_, err := adapter.GetTracking(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, shipping.ErrTrackingNotFound)
}

func TestLeopardsAdapter_CalculateRate_UsesRateCard(t *testing.T) {
	adapter := NewLeopardsAdapter(leopardsTestConfig(t, "http://unused"))

	quote, err := adapter.CalculateRate(context.Background(), &shipping.RateRequest{
		OriginCity:      "Karachi",
		DestinationCity: "Lahore",
		WeightKg:        decimal.NewFromFloat(0.4),
	})
	require.NoError(t, err)
	assert.Equal(t, "leopards", quote.CarrierCode)
	assert.True(t, quote.Amount.Equal(decimal.NewFromInt(189)), "got %s", quote.Amount)
	assert.Equal(t, "PKR", quote.Currency)
	assert.Equal(t, 3, quote.EstimatedDays)
}

func TestLeopardsAdapter_ParseWebhook(t *testing.T) {
	adapter := NewLeopardsAdapter(leopardsTestConfig(t, "http://unused"))

	payload := []byte(`{
		"track_number": "LE123456789",
		"status": "Being Delivered",
		"location": "Lahore",
		"activity_datetime": "2026-03-11 12:30:00"
	}`)
	result, err := adapter.ParseWebhook(payload)
	require.NoError(t, err)
	assert.Equal(t, "LE123456789", result.TrackingNumber)
	assert.Equal(t, shipping.StatusOutForDelivery, result.Status)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "Being Delivered", result.Events[0].CarrierStatus)

	_, err = adapter.ParseWebhook([]byte(`{"status": "Delivered"}`))
	assert.ErrorIs(t, err, shipping.ErrInvalidWebhookPayload)

	_, err = adapter.ParseWebhook([]byte(`not json`))
	assert.ErrorIs(t, err, shipping.ErrInvalidWebhookPayload)
}

func TestLeopardsAdapter_VerifyWebhookSignature(t *testing.T) {
	adapter := NewLeopardsAdapter(leopardsTestConfig(t, "http://unused"))
	payload := []byte(`{"track_number":"LE1","status":"Delivered"}`)

	valid := computeSignature("whsec-leopards", payload)
	assert.True(t, adapter.VerifyWebhookSignature(payload, valid))
	assert.True(t, adapter.VerifyWebhookSignature(payload, "sha256="+valid))

	assert.False(t, adapter.VerifyWebhookSignature(payload, "deadbeef"))
	assert.False(t, adapter.VerifyWebhookSignature(payload, ""))
	// tampered payload
	assert.False(t, adapter.VerifyWebhookSignature([]byte(`{"track_number":"LE2"}`), valid))
}

func TestLeopardsAdapter_SchedulePickup_NotSupported(t *testing.T) {
	adapter := NewLeopardsAdapter(leopardsTestConfig(t, "http://unused"))
	_, err := adapter.SchedulePickup(context.Background(), &shipping.PickupRequest{})
	assert.ErrorIs(t, err, shipping.ErrPickupNotSupported)
}
