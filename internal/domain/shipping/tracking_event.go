package shipping

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/shipping/internal/domain/shared"
)

// EventSource records where a tracking event came from
type EventSource string

const (
	SourceCourierAPI EventSource = "courier_api"
	SourceWebhook    EventSource = "webhook"
	SourceManual     EventSource = "manual"
	SourceSystem     EventSource = "system"
)

// IsValid checks if the source is a valid EventSource
func (s EventSource) IsValid() bool {
	switch s {
	case SourceCourierAPI, SourceWebhook, SourceManual, SourceSystem:
		return true
	}
	return false
}

// TrackingEvent is one immutable fact on a shipment's timeline.
// The per-shipment timeline is append-only; duplicates are suppressed by
// timestamp identity (shipment_id, occurred_at). Rows are never mutated or
// deleted.
type TrackingEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ShipmentID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_tracking_events_shipment_time,unique,composite:shipment_time"`
	Status        ShipmentStatus `gorm:"size:32;not null"`
	CarrierStatus string         `gorm:"size:128"`
	Description   string         `gorm:"size:512"`
	Location      string         `gorm:"size:128"`
	OccurredAt    time.Time      `gorm:"not null;index:idx_tracking_events_shipment_time,unique,composite:shipment_time"`
	Source        EventSource    `gorm:"size:16;not null"`
	RawPayload    string         `gorm:"type:text"`
	CreatedAt     time.Time
}

// NewTrackingEvent creates an immutable tracking event
func NewTrackingEvent(shipmentID uuid.UUID, status ShipmentStatus, source EventSource, occurredAt time.Time) (*TrackingEvent, error) {
	if shipmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHIPMENT", "Shipment ID cannot be empty")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown shipment status")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Unknown tracking event source")
	}
	if occurredAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_TIMESTAMP", "Event timestamp cannot be zero")
	}
	return &TrackingEvent{
		ID:         uuid.New(),
		ShipmentID: shipmentID,
		Status:     status,
		OccurredAt: occurredAt.UTC(),
		Source:     source,
		CreatedAt:  time.Now(),
	}, nil
}

// WithDetail attaches carrier detail to the event
func (e *TrackingEvent) WithDetail(carrierStatus, description, location string) *TrackingEvent {
	e.CarrierStatus = carrierStatus
	e.Description = description
	e.Location = location
	return e
}

// WithRawPayload attaches the original carrier payload for audit
func (e *TrackingEvent) WithRawPayload(raw string) *TrackingEvent {
	e.RawPayload = raw
	return e
}
