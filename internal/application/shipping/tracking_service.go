package shipping

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

var (
	// ErrWebhookShipmentUnknown is returned when no shipment matches the webhook's tracking number
	ErrWebhookShipmentUnknown = errors.New("tracking: no shipment for tracking number")
	// ErrWebhookAlreadyProcessed is returned when the exact webhook delivery was seen before
	ErrWebhookAlreadyProcessed = errors.New("tracking: webhook already processed")
)

// webhookDedupTTL bounds how long a processed webhook delivery is remembered
const webhookDedupTTL = 24 * time.Hour

// TrackingService ingests carrier tracking data from webhooks and polls and
// applies it to the shipment ledger. All ingestion funnels through
// applyUpdates so dedup and transition rules hold regardless of source.
type TrackingService struct {
	shipments      shipping.ShipmentRepository
	events         shipping.TrackingEventRepository
	registry       shipping.CourierRegistry
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTrackingService creates a tracking ingestion service
func NewTrackingService(
	shipments shipping.ShipmentRepository,
	events shipping.TrackingEventRepository,
	registry shipping.CourierRegistry,
	idempotency shared.IdempotencyStore,
	eventPublisher shared.EventPublisher,
	logger *zap.Logger,
) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		shipments:      shipments,
		events:         events,
		registry:       registry,
		idempotency:    idempotency,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// ProcessWebhook verifies, parses and applies a carrier webhook.
// The signature is checked before anything is parsed or written; a bad
// signature leaves no trace in the ledger.
func (s *TrackingService) ProcessWebhook(ctx context.Context, carrierCode string, payload []byte, signature string) (*WebhookAck, error) {
	adapter, err := s.registry.Resolve(ctx, carrierCode)
	if err != nil {
		return nil, err
	}

	if !adapter.VerifyWebhookSignature(payload, signature) {
		s.logger.Warn("webhook signature verification failed",
			zap.String("carrier_code", carrierCode))
		return nil, shipping.ErrInvalidWebhookSignature
	}

	if s.idempotency != nil {
		key := webhookDedupKey(carrierCode, payload)
		first, err := s.idempotency.MarkProcessed(ctx, key, webhookDedupTTL)
		if err != nil {
			s.logger.Warn("webhook idempotency check failed, continuing",
				zap.String("carrier_code", carrierCode),
				zap.Error(err))
		} else if !first {
			return nil, ErrWebhookAlreadyProcessed
		}
	}

	result, err := adapter.ParseWebhook(payload)
	if err != nil {
		return nil, err
	}

	shipment, err := s.shipments.FindByTrackingNumber(ctx, result.TrackingNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrWebhookShipmentUnknown, result.TrackingNumber)
		}
		return nil, err
	}

	applied, err := s.applyUpdates(ctx, shipment, result.Events, shipping.SourceWebhook, string(result.Raw))
	if err != nil {
		return nil, err
	}

	s.logger.Info("webhook applied",
		zap.String("carrier_code", carrierCode),
		zap.String("tracking_number", result.TrackingNumber),
		zap.Int("events_applied", applied))

	return &WebhookAck{
		Accepted:       true,
		TrackingNumber: result.TrackingNumber,
		EventsApplied:  applied,
	}, nil
}

// RefreshShipment pulls the carrier's current tracking snapshot for one
// shipment and applies anything new
func (s *TrackingService) RefreshShipment(ctx context.Context, shipment *shipping.Shipment) (int, error) {
	adapter, err := s.registry.Resolve(ctx, shipment.CarrierCode)
	if err != nil {
		return 0, err
	}
	result, err := adapter.GetTracking(ctx, shipment.TrackingNumber)
	if err != nil {
		return 0, err
	}

	applied, err := s.applyUpdates(ctx, shipment, result.Events, shipping.SourceCourierAPI, "")
	if err != nil {
		return applied, err
	}
	if result.SignedBy != "" {
		shipment.MarkSignedBy(result.SignedBy)
	}

	// Even a no-news poll refreshes the staleness watermark
	if applied == 0 {
		shipment.TouchTracking()
	}
	if err := s.shipments.Save(ctx, shipment); err != nil {
		return applied, err
	}
	s.publishEvents(ctx, shipment)
	return applied, nil
}

// applyUpdates walks carrier checkpoints in chronological order, appending
// timeline events (timestamp identity dedups replays) and advancing the
// shipment state machine where the transition is legal. Checkpoints that
// cannot transition (stale, out of order, or post-terminal) still land on
// the timeline but never move the shipment.
func (s *TrackingService) applyUpdates(ctx context.Context, shipment *shipping.Shipment, updates []shipping.TrackingUpdate, source shipping.EventSource, raw string) (int, error) {
	sorted := make([]shipping.TrackingUpdate, len(updates))
	copy(sorted, updates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	applied := 0
	statusChanged := false
	for _, update := range sorted {
		exists, err := s.events.ExistsAt(ctx, shipment.ID, update.OccurredAt.UTC())
		if err != nil {
			return applied, err
		}
		if exists {
			continue
		}

		event, err := shipping.NewTrackingEvent(shipment.ID, update.Status, source, update.OccurredAt)
		if err != nil {
			s.logger.Warn("skipping malformed tracking update",
				zap.String("shipment_id", shipment.ID.String()),
				zap.Error(err))
			continue
		}
		event.WithDetail(update.CarrierStatus, update.Description, update.Location)
		if raw != "" {
			event.WithRawPayload(raw)
		}

		if err := s.events.Append(ctx, event); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				continue
			}
			return applied, err
		}
		applied++

		if shipment.Status.CanTransitionTo(update.Status) {
			if err := shipment.ApplyStatus(update.Status, update.OccurredAt); err == nil {
				statusChanged = true
			}
		}
	}

	if statusChanged || applied > 0 {
		shipment.TouchTracking()
		if err := s.shipments.Save(ctx, shipment); err != nil {
			return applied, err
		}
		s.publishEvents(ctx, shipment)
	}
	return applied, nil
}

// publishEvents drains and publishes the aggregate's pending domain events
func (s *TrackingService) publishEvents(ctx context.Context, shipment *shipping.Shipment) {
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

// webhookDedupKey identifies one webhook delivery by carrier and body hash
func webhookDedupKey(carrierCode string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return "webhook:" + carrierCode + ":" + hex.EncodeToString(sum[:])
}
