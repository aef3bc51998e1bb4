package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

var (
	// ErrShipmentExists is returned when the fulfillment unit already has an active shipment
	ErrShipmentExists = errors.New("booking: fulfillment unit already has an active shipment")
	// ErrCarrierWeightLimit is returned when the parcel exceeds the carrier's weight limit
	ErrCarrierWeightLimit = errors.New("booking: parcel exceeds carrier weight limit")
	// ErrCarrierValueLimit is returned when the declared value exceeds the carrier's limit
	ErrCarrierValueLimit = errors.New("booking: declared value exceeds carrier limit")
	// ErrCODNotSupported is returned when the carrier does not offer cash on delivery
	ErrCODNotSupported = errors.New("booking: carrier does not support cash on delivery")
)

// BookingService books shipments against carriers and manages their lifecycle
type BookingService struct {
	shipments      shipping.ShipmentRepository
	events         shipping.TrackingEventRepository
	carriers       shipping.CarrierConfigRepository
	registry       shipping.CourierRegistry
	fulfillments   shipping.FulfillmentGateway
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewBookingService creates a booking service
func NewBookingService(
	shipments shipping.ShipmentRepository,
	events shipping.TrackingEventRepository,
	carriers shipping.CarrierConfigRepository,
	registry shipping.CourierRegistry,
	fulfillments shipping.FulfillmentGateway,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		shipments:      shipments,
		events:         events,
		carriers:       carriers,
		registry:       registry,
		fulfillments:   fulfillments,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// CreateShipment books a shipment for a fulfillment unit with the chosen
// carrier. The fulfillment details come from the order service; the request
// may override weight, origin and description.
func (s *BookingService) CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*ShipmentResponse, error) {
	fulfillmentID, err := uuid.Parse(req.FulfillmentID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_FULFILLMENT", "Fulfillment ID is not a valid UUID")
	}

	exists, err := s.shipments.ExistsActiveForFulfillment(ctx, fulfillmentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrShipmentExists
	}

	info, err := s.fulfillments.Get(ctx, fulfillmentID)
	if err != nil {
		return nil, fmt.Errorf("booking: failed to load fulfillment: %w", err)
	}

	adapter, err := s.registry.Resolve(ctx, req.CarrierCode)
	if err != nil {
		return nil, err
	}
	config, err := s.carriers.FindByCode(ctx, adapter.CarrierCode())
	if err != nil {
		return nil, err
	}

	weight := info.WeightKg
	if !req.WeightKg.IsZero() {
		weight = req.WeightKg
	}
	origin := info.PickupAddress
	if req.Origin != nil {
		origin = req.Origin.toDomain()
	}

	if !config.AcceptsWeight(weight) {
		return nil, ErrCarrierWeightLimit
	}
	if !config.AcceptsDeclaredValue(info.DeclaredValue) {
		return nil, ErrCarrierValueLimit
	}
	if info.IsCOD && !config.SupportsCOD {
		return nil, ErrCODNotSupported
	}

	shipment, err := shipping.NewShipment(info.VendorID, info.OrderID, fulfillmentID,
		adapter.CarrierCode(), origin, info.DeliveryAddress, weight)
	if err != nil {
		return nil, err
	}
	shipment.CarrierName = config.Name
	shipment.OrderNumber = info.OrderNumber
	shipment.ServiceTier = req.ServiceTier
	shipment.DeclaredValue = info.DeclaredValue
	shipment.ItemCount = info.ItemCount
	shipment.Description = req.Description
	if info.IsCOD {
		if err := shipment.SetCOD(info.CODAmount); err != nil {
			return nil, err
		}
	}

	// Price the booking before committing it
	if quote, err := adapter.CalculateRate(ctx, &shipping.RateRequest{
		OriginCity:      origin.City,
		DestinationCity: info.DeliveryAddress.City,
		WeightKg:        weight,
		IsCOD:           info.IsCOD,
		ServiceTier:     req.ServiceTier,
	}); err == nil {
		shipment.SetCost(quote.Breakdown.BaseAmount, quote.Breakdown.FuelSurcharge)
	} else if !errors.Is(err, shipping.ErrNoRateAvailable) {
		s.logger.Warn("rate calculation failed during booking",
			zap.String("carrier_code", adapter.CarrierCode()),
			zap.Error(err))
	}

	booking, err := adapter.CreateShipment(ctx, &shipping.ShipmentRequest{
		OrderNumber:   info.OrderNumber,
		Origin:        origin,
		Destination:   info.DeliveryAddress,
		WeightKg:      weight,
		DeclaredValue: info.DeclaredValue,
		ItemCount:     info.ItemCount,
		IsCOD:         info.IsCOD,
		CODAmount:     info.CODAmount,
		ServiceTier:   req.ServiceTier,
		Description:   req.Description,
	})
	if err != nil {
		s.logger.Error("carrier booking failed",
			zap.String("carrier_code", adapter.CarrierCode()),
			zap.String("fulfillment_id", fulfillmentID.String()),
			zap.Error(err))
		return nil, err
	}

	if err := shipment.ConfirmBooking(booking); err != nil {
		return nil, err
	}
	if err := s.shipments.Save(ctx, shipment); err != nil {
		return nil, err
	}
	s.seedBookingEvent(ctx, shipment)
	s.publishEvents(ctx, shipment)

	s.logger.Info("shipment booked",
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("carrier_code", shipment.CarrierCode),
		zap.String("tracking_number", shipment.TrackingNumber))

	return ToShipmentResponse(shipment), nil
}

// GetShipment returns a shipment with its timeline
func (s *BookingService) GetShipment(ctx context.Context, id uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(shipment)
	if events, err := s.events.ListByShipment(ctx, id); err == nil {
		resp.Events = ToTrackingEventResponses(events)
	}
	return resp, nil
}

// ListShipments returns shipments with pagination
func (s *BookingService) ListShipments(ctx context.Context, filter shared.Filter) (*shared.Paginated[*ShipmentResponse], error) {
	page, err := s.shipments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]*ShipmentResponse, 0, len(page.Items))
	for _, shipment := range page.Items {
		items = append(items, ToShipmentResponse(shipment))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// GetTimeline returns the shipment's tracking timeline, oldest first
func (s *BookingService) GetTimeline(ctx context.Context, id uuid.UUID) ([]TrackingEventResponse, error) {
	if _, err := s.shipments.FindByID(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.events.ListByShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToTrackingEventResponses(events), nil
}

// GetLabel fetches the shipping label from the carrier
func (s *BookingService) GetLabel(ctx context.Context, id uuid.UUID) (*shipping.LabelResult, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Resolve(ctx, shipment.CarrierCode)
	if err != nil {
		return nil, err
	}
	return adapter.GetLabel(ctx, shipment.TrackingNumber)
}

// CancelShipment cancels a shipment before pickup, at the carrier first and
// then in the ledger
func (s *BookingService) CancelShipment(ctx context.Context, id uuid.UUID, reason string) (*ShipmentResponse, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shipment.Status.CanTransitionTo(shipping.StatusCancelled) {
		return nil, shared.NewDomainError("INVALID_TRANSITION",
			"Shipment in "+shipment.Status.String()+" can no longer be cancelled")
	}

	if shipment.TrackingNumber != "" {
		adapter, err := s.registry.Resolve(ctx, shipment.CarrierCode)
		if err == nil {
			if _, cerr := adapter.CancelShipment(ctx, shipment.TrackingNumber); cerr != nil {
				return nil, cerr
			}
		}
	}

	if err := shipment.Cancel(reason); err != nil {
		return nil, err
	}
	if err := s.shipments.Save(ctx, shipment); err != nil {
		return nil, err
	}
	s.appendSystemEvent(ctx, shipment, shipping.StatusCancelled, reason)
	s.publishEvents(ctx, shipment)
	return ToShipmentResponse(shipment), nil
}

// SchedulePickup books a pickup slot with the carrier
func (s *BookingService) SchedulePickup(ctx context.Context, id uuid.UUID, req *SchedulePickupRequest) (*PickupResponse, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	adapter, err := s.registry.Resolve(ctx, shipment.CarrierCode)
	if err != nil {
		return nil, err
	}
	result, err := adapter.SchedulePickup(ctx, &shipping.PickupRequest{
		Address:    shipment.Origin,
		PickupDate: req.PickupDate,
		TimeWindow: req.TimeWindow,
		PieceCount: shipment.ItemCount,
		WeightKg:   shipment.WeightKg,
	})
	if err != nil {
		return nil, err
	}
	return &PickupResponse{
		PickupID:   result.PickupID,
		PickupDate: result.PickupDate,
		PickupTime: result.PickupTime,
	}, nil
}

// UpdateStatusManual applies a hand-entered status update to a shipment
func (s *BookingService) UpdateStatusManual(ctx context.Context, id uuid.UUID, req *ManualStatusUpdateRequest) (*ShipmentResponse, error) {
	shipment, err := s.shipments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status := shipping.ShipmentStatus(req.Status)
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown shipment status")
	}
	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	if err := shipment.ApplyStatus(status, occurredAt); err != nil {
		return nil, err
	}
	if err := s.shipments.Save(ctx, shipment); err != nil {
		return nil, err
	}

	event, err := shipping.NewTrackingEvent(shipment.ID, status, shipping.SourceManual, occurredAt)
	if err == nil {
		event.WithDetail("", req.Description, req.Location)
		if aerr := s.events.Append(ctx, event); aerr != nil && !errors.Is(aerr, shared.ErrAlreadyExists) {
			s.logger.Error("failed to append manual tracking event",
				zap.String("shipment_id", shipment.ID.String()),
				zap.Error(aerr))
		}
	}
	s.publishEvents(ctx, shipment)
	return ToShipmentResponse(shipment), nil
}

// seedBookingEvent writes the label_created event that opens the timeline
func (s *BookingService) seedBookingEvent(ctx context.Context, shipment *shipping.Shipment) {
	event, err := shipping.NewTrackingEvent(shipment.ID, shipping.StatusLabelCreated,
		shipping.SourceSystem, time.Now())
	if err != nil {
		return
	}
	event.WithDetail("", "Shipment booked with "+shipment.CarrierName, shipment.Origin.City)
	if err := s.events.Append(ctx, event); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
		s.logger.Error("failed to seed booking event",
			zap.String("shipment_id", shipment.ID.String()),
			zap.Error(err))
	}
}

// appendSystemEvent records a system-originated timeline entry
func (s *BookingService) appendSystemEvent(ctx context.Context, shipment *shipping.Shipment, status shipping.ShipmentStatus, description string) {
	event, err := shipping.NewTrackingEvent(shipment.ID, status, shipping.SourceSystem, time.Now())
	if err != nil {
		return
	}
	event.WithDetail("", description, "")
	if err := s.events.Append(ctx, event); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
		s.logger.Error("failed to append system event",
			zap.String("shipment_id", shipment.ID.String()),
			zap.Error(err))
	}
}

// publishEvents drains and publishes the aggregate's pending domain events
func (s *BookingService) publishEvents(ctx context.Context, shipment *shipping.Shipment) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range shipment.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	shipment.ClearDomainEvents()
}
