package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

type bookingFixture struct {
	svc       *BookingService
	shipments *fakeShipmentRepo
	events    *fakeEventRepo
	carriers  *stubCarrierConfigs
	adapter   *fakeAdapter
	publisher *capturePublisher
	info      *shipping.FulfillmentInfo
}

// stubCarrierConfigs serves a fixed set of carrier configurations by code
type stubCarrierConfigs struct {
	configs map[string]*shipping.CarrierConfig
}

func (s *stubCarrierConfigs) FindByID(ctx context.Context, id uuid.UUID) (*shipping.CarrierConfig, error) {
	for _, c := range s.configs {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubCarrierConfigs) FindByCode(ctx context.Context, code string) (*shipping.CarrierConfig, error) {
	c, ok := s.configs[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (s *stubCarrierConfigs) FindEnabled(ctx context.Context) ([]*shipping.CarrierConfig, error) {
	var out []*shipping.CarrierConfig
	for _, c := range s.configs {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCarrierConfigs) FindAll(ctx context.Context) ([]*shipping.CarrierConfig, error) {
	var out []*shipping.CarrierConfig
	for _, c := range s.configs {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubCarrierConfigs) Save(ctx context.Context, config *shipping.CarrierConfig) error {
	s.configs[config.Code] = config
	return nil
}

func (s *stubCarrierConfigs) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	config, err := shipping.NewCarrierConfig("leopards", "Leopards Courier")
	require.NoError(t, err)
	config.Enable()
	config.SupportsCOD = true
	config.MaxWeightKg = decimal.NewFromInt(25)
	config.RateCard = []shipping.RateCardEntry{{
		OriginCity:      "Karachi",
		DestinationCity: "Lahore",
		BaseRate:        decimal.NewFromInt(250),
		PerKgRate:       decimal.NewFromInt(60),
		Slabs: []shipping.WeightSlab{
			{MaxWeightKg: decimal.NewFromFloat(0.5), Rate: decimal.NewFromInt(180)},
		},
	}}
	config.FuelSurchargePct = decimal.NewFromInt(5)

	adapter := &fakeAdapter{
		code:          "leopards",
		bookingResult: &shipping.BookingResult{TrackingNumber: "LE200", AWBNumber: "LE200"},
		rateQuote: &shipping.RateQuote{
			CarrierCode: "leopards",
			Amount:      decimal.NewFromInt(189),
			Currency:    "PKR",
			Breakdown: shipping.RateBreakdown{
				BaseAmount:    decimal.NewFromInt(180),
				FuelSurcharge: decimal.NewFromInt(9),
			},
		},
	}

	info := &shipping.FulfillmentInfo{
		ID:            uuid.New(),
		OrderID:       uuid.New(),
		VendorID:      uuid.New(),
		OrderNumber:   "ORD-1001",
		ItemCount:     2,
		WeightKg:      decimal.NewFromFloat(0.4),
		DeclaredValue: decimal.NewFromInt(5000),
		IsCOD:         true,
		CODAmount:     decimal.NewFromInt(5000),
		PickupAddress: shipping.Address{Name: "Vendor", City: "Karachi", Line1: "SITE"},
		DeliveryAddress: shipping.Address{
			Name: "Customer", City: "Lahore", Line1: "Gulberg", Phone: "0321",
		},
	}

	shipments := newFakeShipmentRepo()
	events := newFakeEventRepo()
	carriers := &stubCarrierConfigs{configs: map[string]*shipping.CarrierConfig{"leopards": config}}
	publisher := &capturePublisher{}
	svc := NewBookingService(shipments, events, carriers,
		&fakeRegistry{adapters: []*fakeAdapter{adapter}},
		&fakeFulfillments{info: info}, publisher, zap.NewNop())

	return &bookingFixture{
		svc: svc, shipments: shipments, events: events,
		carriers: carriers, adapter: adapter, publisher: publisher, info: info,
	}
}

func TestBookingService_CreateShipment(t *testing.T) {
	f := newBookingFixture(t)

	resp, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{
		FulfillmentID: f.info.ID.String(),
		CarrierCode:   "leopards",
	})
	require.NoError(t, err)

	assert.Equal(t, "label_created", resp.Status)
	assert.Equal(t, "LE200", resp.TrackingNumber)
	assert.True(t, resp.IsCOD)
	assert.True(t, resp.CODAmount.Equal(decimal.NewFromInt(5000)))
	// cost captured from the quote at booking time
	assert.True(t, resp.ShippingCost.Equal(decimal.NewFromInt(180)))
	assert.True(t, resp.FuelSurcharge.Equal(decimal.NewFromInt(9)))
	assert.True(t, resp.TotalCost.Equal(decimal.NewFromInt(189)))

	// the timeline opens with a system event
	stored, err := f.shipments.FindByTrackingNumber(context.Background(), "LE200")
	require.NoError(t, err)
	assert.Equal(t, 1, f.events.count(stored.ID))
	assert.Contains(t, f.publisher.types(), shipping.EventShipmentBooked)
}

func TestBookingService_CreateShipment_DuplicateFulfillmentRejected(t *testing.T) {
	f := newBookingFixture(t)
	req := &CreateShipmentRequest{
		FulfillmentID: f.info.ID.String(),
		CarrierCode:   "leopards",
	}

	_, err := f.svc.CreateShipment(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.CreateShipment(context.Background(), req)
	assert.ErrorIs(t, err, ErrShipmentExists)
}

func TestBookingService_CreateShipment_CancelledDoesNotBlockRebooking(t *testing.T) {
	f := newBookingFixture(t)
	req := &CreateShipmentRequest{
		FulfillmentID: f.info.ID.String(),
		CarrierCode:   "leopards",
	}

	resp, err := f.svc.CreateShipment(context.Background(), req)
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.svc.CancelShipment(context.Background(), id, "vendor request")
	require.NoError(t, err)

	f.adapter.bookingResult = &shipping.BookingResult{TrackingNumber: "LE201"}
	resp, err = f.svc.CreateShipment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "LE201", resp.TrackingNumber)
}

func TestBookingService_CreateShipment_CarrierRejection(t *testing.T) {
	f := newBookingFixture(t)
	f.adapter.bookingErr = shipping.ErrCarrierRejected

	_, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{
		FulfillmentID: f.info.ID.String(),
		CarrierCode:   "leopards",
	})
	assert.ErrorIs(t, err, shipping.ErrCarrierRejected)
	// nothing persisted on failure
	_, err = f.shipments.FindByTrackingNumber(context.Background(), "LE200")
	assert.Error(t, err)
}

func TestBookingService_CreateShipment_WeightLimit(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{
		FulfillmentID: f.info.ID.String(),
		CarrierCode:   "leopards",
		WeightKg:      decimal.NewFromInt(40),
	})
	assert.ErrorIs(t, err, ErrCarrierWeightLimit)
}

func TestBookingService_CreateShipment_CODUnsupported(t *testing.T) {
	f := newBookingFixture(t)
	f.carriers.configs["leopards"].SupportsCOD = false

	_, err := f.svc.CreateShipment(context.Background(), &CreateShipmentRequest{
		FulfillmentID: f.info.ID.String(),
		CarrierCode:   "leopards",
	})
	assert.ErrorIs(t, err, ErrCODNotSupported)
}

func TestBookingService_CancelShipment_AfterPickupRejected(t *testing.T) {
	f := newBookingFixture(t)
	s := seedShipment(t, f.shipments, shipping.StatusPickedUp, false)

	_, err := f.svc.CancelShipment(context.Background(), s.ID, "too late")
	assert.Error(t, err)
}

func TestBookingService_UpdateStatusManual(t *testing.T) {
	f := newBookingFixture(t)
	s := seedShipment(t, f.shipments, shipping.StatusInTransit, false)

	resp, err := f.svc.UpdateStatusManual(context.Background(), s.ID, &ManualStatusUpdateRequest{
		Status:      "out_for_delivery",
		Description: "Handed to rider",
		Location:    "Lahore",
	})
	require.NoError(t, err)
	assert.Equal(t, "out_for_delivery", resp.Status)
	assert.Equal(t, 1, f.events.count(s.ID))

	_, err = f.svc.UpdateStatusManual(context.Background(), s.ID, &ManualStatusUpdateRequest{
		Status: "no_such_status",
	})
	assert.Error(t, err)
}
