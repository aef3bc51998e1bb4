package shipping

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

// lookupRefreshTimeout bounds the silent refresh on a ledger hit
const lookupRefreshTimeout = 5 * time.Second

// LookupService answers public (unauthenticated) tracking queries.
// The ledger is consulted first; only unknown numbers are broadcast to the
// carriers, in deterministic code order, first non-empty answer wins.
// Responses are redacted: destination to city level, no cost or COD detail.
type LookupService struct {
	shipments shipping.ShipmentRepository
	events    shipping.TrackingEventRepository
	registry  shipping.CourierRegistry
	tracking  *TrackingService
	logger    *zap.Logger
}

// NewLookupService creates a public tracking lookup service
func NewLookupService(
	shipments shipping.ShipmentRepository,
	events shipping.TrackingEventRepository,
	registry shipping.CourierRegistry,
	tracking *TrackingService,
	logger *zap.Logger,
) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{
		shipments: shipments,
		events:    events,
		registry:  registry,
		tracking:  tracking,
		logger:    logger,
	}
}

// Track resolves a tracking number to its public view.
// A miss everywhere is not an error: the response carries found=false.
func (s *LookupService) Track(ctx context.Context, trackingNumber string) (*PublicTrackingResponse, error) {
	shipment, err := s.shipments.FindByTrackingNumber(ctx, trackingNumber)
	if err == nil {
		return s.fromLedger(ctx, shipment), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return s.broadcast(ctx, trackingNumber)
}

// fromLedger builds the public view of a known shipment, refreshing stale
// active shipments from the carrier first. A refresh failure is silent:
// the stored timeline is served either way.
func (s *LookupService) fromLedger(ctx context.Context, shipment *shipping.Shipment) *PublicTrackingResponse {
	if s.tracking != nil && shipment.IsStale(time.Now().Add(-defaultStaleness)) {
		refreshCtx, cancel := context.WithTimeout(ctx, lookupRefreshTimeout)
		if _, err := s.tracking.RefreshShipment(refreshCtx, shipment); err != nil {
			s.logger.Debug("lookup refresh failed, serving stored timeline",
				zap.String("tracking_number", shipment.TrackingNumber),
				zap.Error(err))
		}
		cancel()
	}

	dest := addressDTOFrom(shipment.Destination.Redacted())
	resp := &PublicTrackingResponse{
		Found:             true,
		TrackingNumber:    shipment.TrackingNumber,
		CarrierCode:       shipment.CarrierCode,
		CarrierName:       shipment.CarrierName,
		Status:            shipment.Status.String(),
		Destination:       &dest,
		EstimatedDelivery: shipment.EstimatedDelivery,
		DeliveredAt:       shipment.ActualDelivery,
	}
	if events, err := s.events.ListByShipment(ctx, shipment.ID); err == nil {
		resp.Events = ToTrackingEventResponses(events)
	}
	return resp
}

// broadcast queries every enabled carrier for an unknown number.
// Carrier order is deterministic (code-sorted) so repeated lookups of an
// ambiguous number answer consistently.
func (s *LookupService) broadcast(ctx context.Context, trackingNumber string) (*PublicTrackingResponse, error) {
	adapters, err := s.registry.ActiveAdapters(ctx)
	if err != nil {
		return nil, err
	}

	for _, adapter := range adapters {
		result, err := adapter.GetTracking(ctx, trackingNumber)
		if err != nil {
			if !errors.Is(err, shipping.ErrTrackingNotFound) {
				s.logger.Debug("carrier lookup failed",
					zap.String("carrier_code", adapter.CarrierCode()),
					zap.String("tracking_number", trackingNumber),
					zap.Error(err))
			}
			continue
		}
		if len(result.Events) == 0 && result.CurrentStatus == "" {
			continue
		}

		resp := &PublicTrackingResponse{
			Found:          true,
			TrackingNumber: trackingNumber,
			CarrierCode:    adapter.CarrierCode(),
			Status:         result.CurrentStatus.String(),
			DeliveredAt:    result.DeliveredAt,
		}
		for _, update := range result.Events {
			resp.Events = append(resp.Events, TrackingEventResponse{
				Status:        update.Status.String(),
				CarrierStatus: update.CarrierStatus,
				Description:   update.Description,
				Location:      update.Location,
				Source:        string(shipping.SourceCourierAPI),
				OccurredAt:    update.OccurredAt,
			})
		}
		return resp, nil
	}

	return &PublicTrackingResponse{Found: false}, nil
}
