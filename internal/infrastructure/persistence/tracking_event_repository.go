package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

// GormTrackingEventRepository implements TrackingEventRepository using GORM.
// The table is append-only: rows are inserted, never updated or deleted, and
// the unique (shipment_id, occurred_at) index enforces timestamp identity.
type GormTrackingEventRepository struct {
	db *gorm.DB
}

// NewGormTrackingEventRepository creates a new GormTrackingEventRepository
func NewGormTrackingEventRepository(db *gorm.DB) *GormTrackingEventRepository {
	return &GormTrackingEventRepository{db: db}
}

// Append inserts a tracking event. A duplicate (shipment_id, occurred_at)
// pair returns shared.ErrAlreadyExists.
func (r *GormTrackingEventRepository) Append(ctx context.Context, event *shipping.TrackingEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ExistsAt reports whether an event already exists for the shipment at the
// exact timestamp
func (r *GormTrackingEventRepository) ExistsAt(ctx context.Context, shipmentID uuid.UUID, occurredAt time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&shipping.TrackingEvent{}).
		Where("shipment_id = ? AND occurred_at = ?", shipmentID, occurredAt.UTC()).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByShipment returns the shipment's timeline in ascending occurred_at order
func (r *GormTrackingEventRepository) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*shipping.TrackingEvent, error) {
	var events []*shipping.TrackingEvent
	if err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("occurred_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Ensure GormTrackingEventRepository implements TrackingEventRepository
var _ shipping.TrackingEventRepository = (*GormTrackingEventRepository)(nil)
