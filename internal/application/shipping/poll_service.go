package shipping

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shipping"
)

const (
	// defaultStaleness is how old a tracking watermark must be before a poll
	defaultStaleness = time.Hour
	// defaultPollBatchSize caps the shipments refreshed per sweep
	defaultPollBatchSize = 100
	// defaultInterItemDelay spaces carrier calls so a sweep never bursts
	defaultInterItemDelay = 200 * time.Millisecond
)

// PollService sweeps active shipments whose tracking data has gone stale
// and refreshes them from their carriers. A failure on one shipment is
// logged and the sweep moves on.
type PollService struct {
	shipments      Trackable
	tracking       *TrackingService
	logger         *zap.Logger
	staleness      time.Duration
	batchSize      int
	interItemDelay time.Duration
}

// Trackable is the slice of the shipment repository the poller needs
type Trackable interface {
	FindStaleActive(ctx context.Context, statuses []shipping.ShipmentStatus, olderThan time.Time, limit int) ([]*shipping.Shipment, error)
}

// PollServiceOption customizes the poll service
type PollServiceOption func(*PollService)

// WithStaleness overrides the staleness cutoff
func WithStaleness(d time.Duration) PollServiceOption {
	return func(s *PollService) { s.staleness = d }
}

// WithBatchSize overrides the per-sweep shipment cap
func WithBatchSize(n int) PollServiceOption {
	return func(s *PollService) { s.batchSize = n }
}

// WithInterItemDelay overrides the delay between carrier calls
func WithInterItemDelay(d time.Duration) PollServiceOption {
	return func(s *PollService) { s.interItemDelay = d }
}

// NewPollService creates a tracking poll service
func NewPollService(shipments Trackable, tracking *TrackingService, logger *zap.Logger, opts ...PollServiceOption) *PollService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PollService{
		shipments:      shipments,
		tracking:       tracking,
		logger:         logger,
		staleness:      defaultStaleness,
		batchSize:      defaultPollBatchSize,
		interItemDelay: defaultInterItemDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one poll sweep and returns how many shipments were refreshed
func (s *PollService) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.staleness)
	stale, err := s.shipments.FindStaleActive(ctx, shipping.ActiveStatuses(), cutoff, s.batchSize)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	s.logger.Info("tracking poll sweep started", zap.Int("stale_shipments", len(stale)))

	refreshed := 0
	for i, shipment := range stale {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if i > 0 && s.interItemDelay > 0 {
			select {
			case <-time.After(s.interItemDelay):
			case <-ctx.Done():
				return refreshed, ctx.Err()
			}
		}

		applied, err := s.tracking.RefreshShipment(ctx, shipment)
		if err != nil {
			s.logger.Warn("tracking refresh failed",
				zap.String("shipment_id", shipment.ID.String()),
				zap.String("carrier_code", shipment.CarrierCode),
				zap.String("tracking_number", shipment.TrackingNumber),
				zap.Error(err))
			continue
		}
		refreshed++
		if applied > 0 {
			s.logger.Info("tracking refreshed",
				zap.String("shipment_id", shipment.ID.String()),
				zap.String("status", shipment.Status.String()),
				zap.Int("events_applied", applied))
		}
	}

	s.logger.Info("tracking poll sweep finished",
		zap.Int("refreshed", refreshed),
		zap.Int("failed", len(stale)-refreshed))
	return refreshed, nil
}
