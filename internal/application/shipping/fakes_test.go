package shipping

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

// fakeShipmentRepo is an in-memory ShipmentRepository
type fakeShipmentRepo struct {
	mu        sync.Mutex
	shipments map[uuid.UUID]*shipping.Shipment
	saveErr   error
	saveCount int
}

func newFakeShipmentRepo() *fakeShipmentRepo {
	return &fakeShipmentRepo{shipments: make(map[uuid.UUID]*shipping.Shipment)}
}

func (r *fakeShipmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shipments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return s, nil
}

func (r *fakeShipmentRepo) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*shipping.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shipments {
		if s.TrackingNumber == trackingNumber {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeShipmentRepo) FindByFulfillmentID(ctx context.Context, fulfillmentID uuid.UUID) ([]*shipping.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*shipping.Shipment
	for _, s := range r.shipments {
		if s.FulfillmentID == fulfillmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeShipmentRepo) ExistsActiveForFulfillment(ctx context.Context, fulfillmentID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shipments {
		if s.FulfillmentID == fulfillmentID && s.Status != shipping.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeShipmentRepo) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*shipping.Shipment], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*shipping.Shipment, 0, len(r.shipments))
	for _, s := range r.shipments {
		items = append(items, s)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeShipmentRepo) FindStaleActive(ctx context.Context, statuses []shipping.ShipmentStatus, olderThan time.Time, limit int) ([]*shipping.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*shipping.Shipment
	for _, s := range r.shipments {
		if s.IsStale(olderThan) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeShipmentRepo) Save(ctx context.Context, shipment *shipping.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.shipments[shipment.ID] = shipment
	r.saveCount++
	return nil
}

// fakeEventRepo is an in-memory append-only TrackingEventRepository
type fakeEventRepo struct {
	mu     sync.Mutex
	events []*shipping.TrackingEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) Append(ctx context.Context, event *shipping.TrackingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ShipmentID == event.ShipmentID && e.OccurredAt.Equal(event.OccurredAt) {
			return shared.ErrAlreadyExists
		}
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeEventRepo) ExistsAt(ctx context.Context, shipmentID uuid.UUID, occurredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ShipmentID == shipmentID && e.OccurredAt.Equal(occurredAt) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEventRepo) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*shipping.TrackingEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*shipping.TrackingEvent
	for _, e := range r.events {
		if e.ShipmentID == shipmentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (r *fakeEventRepo) count(shipmentID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.ShipmentID == shipmentID {
			n++
		}
	}
	return n
}

// fakeAdapter is a scriptable CourierAdapter
type fakeAdapter struct {
	code            string
	bookingResult   *shipping.BookingResult
	bookingErr      error
	trackingResult  *shipping.TrackingResult
	trackingErr     error
	rateQuote       *shipping.RateQuote
	rateErr         error
	rateDelay       time.Duration
	webhookResult   *shipping.WebhookResult
	webhookErr      error
	signatureValid  bool
	cancelErr       error
	trackingCalls   int
}

func (a *fakeAdapter) CarrierCode() string { return a.code }

func (a *fakeAdapter) CreateShipment(ctx context.Context, req *shipping.ShipmentRequest) (*shipping.BookingResult, error) {
	if a.bookingErr != nil {
		return nil, a.bookingErr
	}
	return a.bookingResult, nil
}

func (a *fakeAdapter) GetLabel(ctx context.Context, trackingNumber string) (*shipping.LabelResult, error) {
	return &shipping.LabelResult{LabelURL: "https://labels.example.com/" + trackingNumber}, nil
}

func (a *fakeAdapter) GetTracking(ctx context.Context, trackingNumber string) (*shipping.TrackingResult, error) {
	a.trackingCalls++
	if a.trackingErr != nil {
		return nil, a.trackingErr
	}
	if a.trackingResult == nil {
		return &shipping.TrackingResult{}, nil
	}
	return a.trackingResult, nil
}

func (a *fakeAdapter) CancelShipment(ctx context.Context, trackingNumber string) (*shipping.CancelResult, error) {
	if a.cancelErr != nil {
		return nil, a.cancelErr
	}
	return &shipping.CancelResult{Success: true}, nil
}

func (a *fakeAdapter) CalculateRate(ctx context.Context, req *shipping.RateRequest) (*shipping.RateQuote, error) {
	if a.rateDelay > 0 {
		select {
		case <-time.After(a.rateDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.rateErr != nil {
		return nil, a.rateErr
	}
	return a.rateQuote, nil
}

func (a *fakeAdapter) SchedulePickup(ctx context.Context, req *shipping.PickupRequest) (*shipping.PickupResult, error) {
	return &shipping.PickupResult{PickupID: "PU-1", PickupDate: req.PickupDate}, nil
}

func (a *fakeAdapter) NormalizeStatus(carrierStatus string) shipping.ShipmentStatus {
	if s := shipping.ShipmentStatus(strings.ToLower(carrierStatus)); s.IsValid() {
		return s
	}
	return shipping.StatusInTransit
}

func (a *fakeAdapter) ParseWebhook(payload []byte) (*shipping.WebhookResult, error) {
	if a.webhookErr != nil {
		return nil, a.webhookErr
	}
	return a.webhookResult, nil
}

func (a *fakeAdapter) VerifyWebhookSignature(payload []byte, signature string) bool {
	return a.signatureValid
}

// fakeRegistry serves scripted adapters in insertion order
type fakeRegistry struct {
	adapters []*fakeAdapter
}

func (r *fakeRegistry) Resolve(ctx context.Context, code string) (shipping.CourierAdapter, error) {
	for _, a := range r.adapters {
		if a.code == strings.ToLower(code) {
			return a, nil
		}
	}
	return nil, shipping.ErrUnsupportedCarrier
}

func (r *fakeRegistry) ActiveAdapters(ctx context.Context) ([]shipping.CourierAdapter, error) {
	out := make([]shipping.CourierAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out, nil
}

// fakeFulfillments serves one scripted fulfillment unit
type fakeFulfillments struct {
	info          *shipping.FulfillmentInfo
	updateCalls   []shipping.ShipmentStatus
	updateErr     error
}

func (f *fakeFulfillments) Get(ctx context.Context, fulfillmentID uuid.UUID) (*shipping.FulfillmentInfo, error) {
	if f.info == nil {
		return nil, shared.ErrNotFound
	}
	return f.info, nil
}

func (f *fakeFulfillments) UpdateStatus(ctx context.Context, fulfillmentID uuid.UUID, status shipping.ShipmentStatus, at time.Time) error {
	f.updateCalls = append(f.updateCalls, status)
	return f.updateErr
}

// fakeNotifier records customer notifications
type fakeNotifier struct {
	notifications []*shipping.ShipmentNotification
	err           error
}

func (n *fakeNotifier) NotifyStatusChange(ctx context.Context, notification *shipping.ShipmentNotification) error {
	n.notifications = append(n.notifications, notification)
	return n.err
}

// fakeIdempotency is an in-memory IdempotencyStore
type fakeIdempotency struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{seen: make(map[string]bool)}
}

func (s *fakeIdempotency) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *fakeIdempotency) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}

func (s *fakeIdempotency) Close() error { return nil }

// capturePublisher records published domain events
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
