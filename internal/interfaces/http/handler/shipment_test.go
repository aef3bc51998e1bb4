package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appshipping "github.com/erp/shipping/internal/application/shipping"
	"github.com/erp/shipping/internal/domain/shipping"
)

type shipmentResponse struct {
	Success bool
	Data    appshipping.ShipmentResponse
	Error   *struct {
		Code string `json:"code"`
	}
}

func (env *testEnv) seedCarrierConfig(t *testing.T) {
	t.Helper()
	config, err := shipping.NewCarrierConfig("leopards", "Leopards Courier")
	require.NoError(t, err)
	config.Enable()
	require.NoError(t, env.carriers.Save(context.Background(), config))
}

func TestCreateShipmentBooksWithCarrier(t *testing.T) {
	env := newTestEnv(t)
	env.seedCarrierConfig(t)

	fulfillmentID := uuid.New()
	body := []byte(fmt.Sprintf(`{"fulfillment_id":%q,"carrier_code":"leopards"}`, fulfillmentID))

	rec := env.request(http.MethodPost, "/api/v1/shipments", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp shipmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "STUB-1", resp.Data.TrackingNumber)
	assert.Equal(t, "leopards", resp.Data.CarrierCode)
	assert.Equal(t, "label_created", resp.Data.Status)

	// a second booking for the same fulfillment unit is a conflict
	rec = env.request(http.MethodPost, "/api/v1/shipments", body, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateShipmentUnknownCarrier(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(fmt.Sprintf(`{"fulfillment_id":%q,"carrier_code":"ghost"}`, uuid.New()))
	rec := env.request(http.MethodPost, "/api/v1/shipments", body, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetShipment(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedShipment(t, "LE100")

	rec := env.request(http.MethodGet, "/api/v1/shipments/"+s.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp shipmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, s.ID.String(), resp.Data.ID)
	assert.Equal(t, "LE100", resp.Data.TrackingNumber)
}

func TestGetShipmentInvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/api/v1/shipments/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetShipmentNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/api/v1/shipments/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListShipmentsPaginated(t *testing.T) {
	env := newTestEnv(t)
	env.seedShipment(t, "LE100")
	env.seedShipment(t, "LE101")
	env.seedShipment(t, "LE102")

	rec := env.request(http.MethodGet, "/api/v1/shipments?page=1&page_size=2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []appshipping.ShipmentResponse
		Meta struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		}
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.EqualValues(t, 3, resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
}

func TestCancelShipment(t *testing.T) {
	env := newTestEnv(t)
	s := env.seedShipment(t, "LE100")

	rec := env.request(http.MethodPost, "/api/v1/shipments/"+s.ID.String()+"/cancel",
		[]byte(`{"reason":"customer changed mind"}`), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp shipmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Data.Status)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
