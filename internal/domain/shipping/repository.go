package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/erp/shipping/internal/domain/shared"
)

// ShipmentRepository persists shipment aggregates
type ShipmentRepository interface {
	// FindByID retrieves a shipment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)

	// FindByTrackingNumber retrieves a shipment by carrier tracking number
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*Shipment, error)

	// FindByFulfillmentID retrieves all shipments for a fulfillment unit
	FindByFulfillmentID(ctx context.Context, fulfillmentID uuid.UUID) ([]*Shipment, error)

	// ExistsActiveForFulfillment reports whether a non-cancelled shipment
	// already exists for the fulfillment unit
	ExistsActiveForFulfillment(ctx context.Context, fulfillmentID uuid.UUID) (bool, error)

	// FindAll retrieves shipments with pagination and filtering
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Shipment], error)

	// FindStaleActive retrieves up to limit shipments in the given statuses
	// whose last tracking update is older than the cutoff (or never set),
	// oldest watermark first
	FindStaleActive(ctx context.Context, statuses []ShipmentStatus, olderThan time.Time, limit int) ([]*Shipment, error)

	// Save creates or updates a shipment
	Save(ctx context.Context, shipment *Shipment) error
}

// TrackingEventRepository persists the append-only tracking timeline.
// Implementations never update or delete rows.
type TrackingEventRepository interface {
	// Append inserts a tracking event. A duplicate (shipment_id, occurred_at)
	// pair returns shared.ErrAlreadyExists.
	Append(ctx context.Context, event *TrackingEvent) error

	// ExistsAt reports whether an event already exists for the shipment at
	// the exact timestamp
	ExistsAt(ctx context.Context, shipmentID uuid.UUID, occurredAt time.Time) (bool, error)

	// ListByShipment returns the shipment's timeline in ascending
	// occurred_at order
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*TrackingEvent, error)
}

// CarrierConfigRepository persists carrier configurations
type CarrierConfigRepository interface {
	// FindByID retrieves a carrier configuration by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*CarrierConfig, error)

	// FindByCode retrieves a carrier configuration by its unique code
	FindByCode(ctx context.Context, code string) (*CarrierConfig, error)

	// FindEnabled retrieves all enabled carriers in code-sorted order
	FindEnabled(ctx context.Context) ([]*CarrierConfig, error)

	// FindAll retrieves all carriers in code-sorted order
	FindAll(ctx context.Context) ([]*CarrierConfig, error)

	// Save creates or updates a carrier configuration
	Save(ctx context.Context, config *CarrierConfig) error

	// Delete removes a carrier configuration
	Delete(ctx context.Context, id uuid.UUID) error
}
