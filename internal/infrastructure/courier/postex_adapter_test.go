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

func postexTestConfig(t *testing.T, baseURL string) *shipping.CarrierConfig {
	t.Helper()
	c, err := shipping.NewCarrierConfig("postex", "PostEx")
	require.NoError(t, err)
	c.Enable()
	c.APIBaseURL = baseURL
	c.APIKey = "postex-token"
	c.WebhookSecret = "whsec-postex"
	c.StatusMap = map[string]shipping.ShipmentStatus{
		"Unbooked":         shipping.StatusLabelCreated,
		"Picked By PostEx": shipping.StatusPickedUp,
		"En-Route":         shipping.StatusInTransit,
		"Out For Delivery": shipping.StatusOutForDelivery,
		"Delivered":        shipping.StatusDelivered,
		"Returned":         shipping.StatusReturned,
	}
	c.RateCard = []shipping.RateCardEntry{
		{
			OriginCity:      "Karachi",
			DestinationCity: "Islamabad",
			BaseRate:        decimal.NewFromInt(300),
			PerKgRate:       decimal.NewFromInt(70),
		},
	}
	return c
}

func TestPostExAdapter_CreateShipment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, postexCreateOrderPath, r.URL.Path)
		assert.Equal(t, "postex-token", r.Header.Get("token"))

		json.NewEncoder(w).Encode(postexCreateOrderResponse{
			postexAPIResponse: postexAPIResponse{StatusCode: "200", StatusMsg: "SUCCESS"},
			Dist: &postexOrderDist{
				TrackingNumber: "PX987654321",
				OrderStatus:    "Unbooked",
			},
		})
	}))
	defer server.Close()

	adapter := NewPostExAdapter(postexTestConfig(t, server.URL))
	result, err := adapter.CreateShipment(context.Background(), &shipping.ShipmentRequest{
		OrderNumber: "ORD-2002",
		Origin:      shipping.Address{Name: "Vendor", City: "Karachi", Line1: "SITE"},
		Destination: shipping.Address{Name: "Customer", City: "Islamabad", Line1: "F-7", Phone: "0333"},
		WeightKg:    decimal.NewFromInt(2),
		ItemCount:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, "PX987654321", result.TrackingNumber)
	assert.Contains(t, result.LabelURL, "PX987654321")
}

func TestPostExAdapter_CalculateRate_PrefersLiveRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, postexRatePath, r.URL.Path)
		json.NewEncoder(w).Encode(postexRateResponse{
			postexAPIResponse: postexAPIResponse{StatusCode: "200"},
			Dist: &postexRateDist{
				DeliveryCharges: "310.50",
				FuelSurcharge:   "15.52",
				EstimatedDays:   2,
			},
		})
	}))
	defer server.Close()

	adapter := NewPostExAdapter(postexTestConfig(t, server.URL))
	quote, err := adapter.CalculateRate(context.Background(), &shipping.RateRequest{
		OriginCity:      "Karachi",
		DestinationCity: "Islamabad",
		WeightKg:        decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	// 310.50 + 15.52 = 326.02, rounded up
	assert.True(t, quote.Amount.Equal(decimal.NewFromInt(327)), "got %s", quote.Amount)
	assert.Equal(t, 2, quote.EstimatedDays)
}

func TestPostExAdapter_CalculateRate_FallsBackToRateCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewPostExAdapter(postexTestConfig(t, server.URL))
	quote, err := adapter.CalculateRate(context.Background(), &shipping.RateRequest{
		OriginCity:      "Karachi",
		DestinationCity: "Islamabad",
		WeightKg:        decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	// card formula: 300 base + 1kg extra at 70 = 370, no surcharge configured
	assert.True(t, quote.Amount.Equal(decimal.NewFromInt(370)), "got %s", quote.Amount)
}

func TestPostExAdapter_CalculateRate_NoLiveRateNoCard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := NewPostExAdapter(postexTestConfig(t, server.URL))
	_, err := adapter.CalculateRate(context.Background(), &shipping.RateRequest{
		OriginCity:      "Quetta",
		DestinationCity: "Gilgit",
		WeightKg:        decimal.NewFromInt(1),
	})
	assert.Error(t, err)
}

func TestPostExAdapter_GetTracking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(postexTrackResponse{
			postexAPIResponse: postexAPIResponse{StatusCode: "200"},
			Dist: &postexTrackDist{
				TrackingNumber:    "PX987654321",
				TransactionStatus: "Out For Delivery",
				History: []postexTransactionEntry{
					{Status: "Picked By PostEx", UpdatedAt: "2026-03-10T08:00:00", City: "Karachi"},
					{Status: "En-Route", UpdatedAt: "2026-03-10T22:30:00"},
					{Status: "Out For Delivery", UpdatedAt: "2026-03-11T09:10:00", City: "Islamabad"},
				},
			},
		})
	}))
	defer server.Close()

	adapter := NewPostExAdapter(postexTestConfig(t, server.URL))
	result, err := adapter.GetTracking(context.Background(), "PX987654321")
	require.NoError(t, err)
	assert.Equal(t, shipping.StatusOutForDelivery, result.CurrentStatus)
	require.Len(t, result.Events, 3)
	assert.Equal(t, shipping.StatusPickedUp, result.Events[0].Status)
	assert.Nil(t, result.DeliveredAt)
}

func TestPostExAdapter_ParseWebhook_UnmappedStatusDefaultsToInTransit(t *testing.T) {
	adapter := NewPostExAdapter(postexTestConfig(t, "http://unused"))

	payload := []byte(`{
		"trackingNumber": "PX987654321",
		"orderStatus": "Attempt Made But Customer Unreachable Via Depot Sweep",
		"updatedAt": "2026-03-11T14:00:00"
	}`)
	result, err := adapter.ParseWebhook(payload)
	require.NoError(t, err)
	assert.Equal(t, shipping.StatusInTransit, result.Status)
}
