package handler_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appshipping "github.com/erp/shipping/internal/application/shipping"
	"github.com/erp/shipping/internal/domain/shipping"
	"github.com/erp/shipping/internal/infrastructure/auth"
	"github.com/erp/shipping/internal/infrastructure/config"
	"github.com/erp/shipping/internal/infrastructure/persistence"
	"github.com/erp/shipping/internal/interfaces/http/handler"
	"github.com/erp/shipping/internal/interfaces/http/router"
)

const testJWTSecret = "test-secret-key-of-sufficient-length"

// stubAdapter is a scriptable carrier adapter for HTTP-level tests
type stubAdapter struct {
	code        string
	validSig    string
	webhook     *shipping.WebhookResult
	webhookErr  error
	tracking    *shipping.TrackingResult
	trackingErr error
}

func (a *stubAdapter) CarrierCode() string { return a.code }

func (a *stubAdapter) CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*shipping.BookingResult, error) {
	return &shipping.BookingResult{TrackingNumber: "STUB-1", AWBNumber: "STUB-1"}, nil
}

func (a *stubAdapter) GetLabel(ctx context.Context, trackingNumber string) (*shipping.LabelResult, error) {
	return &shipping.LabelResult{LabelURL: "https://labels.test/" + trackingNumber}, nil
}

func (a *stubAdapter) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingResult, error) {
	if a.trackingErr != nil {
		return nil, a.trackingErr
	}
	return a.tracking, nil
}

func (a *stubAdapter) CancelShipment(ctx context.Context, trackingNumber string) (*shipping.CancelResult, error) {
	return &shipping.CancelResult{Success: true}, nil
}

func (a *stubAdapter) CalculateRate(ctx context.Context, req *shipping.RateRequest) (*shipping.RateQuote, error) {
	return nil, shipping.ErrNoRateAvailable
}

func (a *stubAdapter) SchedulePickup(ctx context.Context, req *shipping.PickupRequest) (*shipping.PickupResult, error) {
	return nil, shipping.ErrPickupNotSupported
}

func (a *stubAdapter) NormalizeStatus(carrierStatus string) shipping.ShipmentStatus {
	return shipping.StatusInTransit
}

func (a *stubAdapter) ParseWebhook(payload []byte) (*shipping.WebhookResult, error) {
	if a.webhookErr != nil {
		return nil, a.webhookErr
	}
	if a.webhook == nil {
		return nil, shipping.ErrInvalidWebhookPayload
	}
	result := *a.webhook
	result.Raw = payload
	return &result, nil
}

func (a *stubAdapter) VerifyWebhookSignature(payload []byte, signature string) bool {
	return signature == a.validSig
}

type stubRegistry struct {
	adapters map[string]shipping.CourierAdapter
}

func (r *stubRegistry) Resolve(ctx context.Context, code string) (shipping.CourierAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, shipping.ErrUnsupportedCarrier
	}
	return adapter, nil
}

func (r *stubRegistry) ActiveAdapters(ctx context.Context) ([]shipping.CourierAdapter, error) {
	adapters := make([]shipping.CourierAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	return adapters, nil
}

type stubFulfillments struct{}

func (stubFulfillments) Get(ctx context.Context, fulfillmentID uuid.UUID) (*shipping.FulfillmentInfo, error) {
	return &shipping.FulfillmentInfo{
		ID:       fulfillmentID,
		OrderID:  uuid.New(),
		VendorID: uuid.New(),
		PickupAddress: shipping.Address{
			Name: "Vendor", City: "Karachi", Line1: "SITE Area", Phone: "+923001112233",
		},
		DeliveryAddress: shipping.Address{
			Name: "Customer", City: "Lahore", Line1: "Gulberg III", Phone: "+923004445566",
		},
		WeightKg:  decimal.NewFromFloat(0.4),
		ItemCount: 1,
	}, nil
}

func (stubFulfillments) UpdateStatus(ctx context.Context, fulfillmentID uuid.UUID, status shipping.ShipmentStatus, at time.Time) error {
	return nil
}

type stubSweeper struct{}

func (stubSweeper) RunOnce(ctx context.Context) (int, error) { return 0, nil }

// testEnv wires real services over an in-memory database behind the
// full router, with only the carrier boundary stubbed
type testEnv struct {
	engine    *gin.Engine
	db        *gorm.DB
	shipments *persistence.GormShipmentRepository
	events    *persistence.GormTrackingEventRepository
	carriers  *persistence.GormCarrierConfigRepository
	adapter   *stubAdapter
	jwt       *auth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&shipping.CarrierConfig{},
		&shipping.Shipment{},
		&shipping.TrackingEvent{},
	))

	shipments := persistence.NewGormShipmentRepository(db)
	events := persistence.NewGormTrackingEventRepository(db)
	carriers := persistence.NewGormCarrierConfigRepository(db)

	adapter := &stubAdapter{
		code:        "leopards",
		validSig:    "valid-signature",
		trackingErr: shipping.ErrCarrierUnavailable,
	}
	registry := &stubRegistry{adapters: map[string]shipping.CourierAdapter{
		adapter.code: adapter,
	}}

	log := zap.NewNop()
	tracking := appshipping.NewTrackingService(shipments, events, registry, nil, nil, log)
	booking := appshipping.NewBookingService(shipments, events, carriers, registry, stubFulfillments{}, nil, log)
	lookup := appshipping.NewLookupService(shipments, events, registry, tracking, log)
	rates := appshipping.NewRateService(registry, log)
	carrierSvc := appshipping.NewCarrierService(carriers, log)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                testJWTSecret,
		AccessTokenExpiration: time.Hour,
		Issuer:                "shipping-test",
	})

	cfg := &config.Config{
		App:  config.AppConfig{Name: "shipping-test", Env: "test"},
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 20},
	}

	engine := router.New(cfg, jwtService, router.Handlers{
		Shipments: handler.NewShipmentHandler(booking, log),
		Rates:     handler.NewRateHandler(rates, log),
		Tracking:  handler.NewTrackingHandler(lookup, log),
		Webhooks:  handler.NewWebhookHandler(tracking, log),
		Carriers:  handler.NewCarrierAdminHandler(carrierSvc, log),
		System:    handler.NewSystemHandler(nil, stubSweeper{}, "test", log),
	}, log)

	return &testEnv{
		engine:    engine,
		db:        db,
		shipments: shipments,
		events:    events,
		carriers:  carriers,
		adapter:   adapter,
		jwt:       jwtService,
	}
}

// seedShipment persists a booked shipment with the given tracking number
func (env *testEnv) seedShipment(t *testing.T, trackingNumber string) *shipping.Shipment {
	t.Helper()
	s, err := shipping.NewShipment(uuid.New(), uuid.New(), uuid.New(), "leopards",
		shipping.Address{Name: "Vendor", City: "Karachi", Line1: "SITE Area"},
		shipping.Address{Name: "Customer", City: "Lahore", Line1: "Gulberg III"},
		decimal.NewFromFloat(0.4))
	require.NoError(t, err)
	require.NoError(t, s.ConfirmBooking(&shipping.BookingResult{
		TrackingNumber: trackingNumber,
		AWBNumber:      trackingNumber,
	}))
	s.ClearDomainEvents()
	require.NoError(t, env.shipments.Save(context.Background(), s))
	return s
}

func (env *testEnv) request(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := env.jwt.GenerateAccessToken(uuid.New(), "ops", auth.RoleAdmin)
	require.NoError(t, err)
	return token
}

func (env *testEnv) eventCount(t *testing.T, shipmentID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(&shipping.TrackingEvent{}).
		Where("shipment_id = ?", shipmentID).Count(&count).Error)
	return count
}
