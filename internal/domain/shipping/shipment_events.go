package shipping

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/shipping/internal/domain/shared"
)

const (
	EventShipmentCreated       = "shipping.shipment.created"
	EventShipmentBooked        = "shipping.shipment.booked"
	EventShipmentStatusChanged = "shipping.shipment.status_changed"
	EventShipmentDelivered     = "shipping.shipment.delivered"
	EventShipmentReturned      = "shipping.shipment.returned"
	EventShipmentCancelled     = "shipping.shipment.cancelled"
)

const aggregateTypeShipment = "shipment"

// ShipmentCreatedEvent is raised when a pending shipment is created
type ShipmentCreatedEvent struct {
	shared.BaseDomainEvent
	FulfillmentID string `json:"fulfillment_id"`
	CarrierCode   string `json:"carrier_code"`
}

// NewShipmentCreatedEvent creates a shipment created event
func NewShipmentCreatedEvent(s *Shipment) *ShipmentCreatedEvent {
	return &ShipmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentCreated, aggregateTypeShipment, s.ID),
		FulfillmentID:   s.FulfillmentID.String(),
		CarrierCode:     s.CarrierCode,
	}
}

// ShipmentBookedEvent is raised when a carrier booking is confirmed
type ShipmentBookedEvent struct {
	shared.BaseDomainEvent
	CarrierCode    string `json:"carrier_code"`
	TrackingNumber string `json:"tracking_number"`
	AWBNumber      string `json:"awb_number,omitempty"`
	LabelURL       string `json:"label_url,omitempty"`
}

// NewShipmentBookedEvent creates a shipment booked event
func NewShipmentBookedEvent(s *Shipment) *ShipmentBookedEvent {
	return &ShipmentBookedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentBooked, aggregateTypeShipment, s.ID),
		CarrierCode:     s.CarrierCode,
		TrackingNumber:  s.TrackingNumber,
		AWBNumber:       s.AWBNumber,
		LabelURL:        s.LabelURL,
	}
}

// ShipmentStatusChangedEvent is raised on every status transition
type ShipmentStatusChangedEvent struct {
	shared.BaseDomainEvent
	TrackingNumber string         `json:"tracking_number"`
	CarrierCode    string         `json:"carrier_code"`
	FromStatus     ShipmentStatus `json:"from_status"`
	ToStatus       ShipmentStatus `json:"to_status"`
}

// NewShipmentStatusChangedEvent creates a status changed event
func NewShipmentStatusChangedEvent(s *Shipment, from, to ShipmentStatus) *ShipmentStatusChangedEvent {
	return &ShipmentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentStatusChanged, aggregateTypeShipment, s.ID),
		TrackingNumber:  s.TrackingNumber,
		CarrierCode:     s.CarrierCode,
		FromStatus:      from,
		ToStatus:        to,
	}
}

// ShipmentDeliveredEvent is raised when a shipment reaches delivered.
// Downstream consumers use it to close the fulfillment unit and, for COD
// shipments, to open the remittance window.
type ShipmentDeliveredEvent struct {
	shared.BaseDomainEvent
	FulfillmentID  string          `json:"fulfillment_id"`
	OrderID        string          `json:"order_id"`
	TrackingNumber string          `json:"tracking_number"`
	CarrierCode    string          `json:"carrier_code"`
	DeliveredAt    time.Time       `json:"delivered_at"`
	IsCOD          bool            `json:"is_cod"`
	CODAmount      decimal.Decimal `json:"cod_amount"`
	SignedBy       string          `json:"signed_by,omitempty"`
}

// NewShipmentDeliveredEvent creates a shipment delivered event
func NewShipmentDeliveredEvent(s *Shipment) *ShipmentDeliveredEvent {
	deliveredAt := time.Now()
	if s.ActualDelivery != nil {
		deliveredAt = *s.ActualDelivery
	}
	return &ShipmentDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentDelivered, aggregateTypeShipment, s.ID),
		FulfillmentID:   s.FulfillmentID.String(),
		OrderID:         s.OrderID.String(),
		TrackingNumber:  s.TrackingNumber,
		CarrierCode:     s.CarrierCode,
		DeliveredAt:     deliveredAt,
		IsCOD:           s.IsCOD,
		CODAmount:       s.CODAmount,
		SignedBy:        s.DeliverySignedBy,
	}
}

// ShipmentReturnedEvent is raised when a shipment is returned to origin
type ShipmentReturnedEvent struct {
	shared.BaseDomainEvent
	FulfillmentID  string `json:"fulfillment_id"`
	OrderID        string `json:"order_id"`
	TrackingNumber string `json:"tracking_number"`
	CarrierCode    string `json:"carrier_code"`
	Attempts       int    `json:"delivery_attempts"`
}

// NewShipmentReturnedEvent creates a shipment returned event
func NewShipmentReturnedEvent(s *Shipment) *ShipmentReturnedEvent {
	return &ShipmentReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentReturned, aggregateTypeShipment, s.ID),
		FulfillmentID:   s.FulfillmentID.String(),
		OrderID:         s.OrderID.String(),
		TrackingNumber:  s.TrackingNumber,
		CarrierCode:     s.CarrierCode,
		Attempts:        s.DeliveryAttempts,
	}
}

// ShipmentCancelledEvent is raised when a shipment is cancelled before pickup
type ShipmentCancelledEvent struct {
	shared.BaseDomainEvent
	FulfillmentID  string `json:"fulfillment_id"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	CarrierCode    string `json:"carrier_code"`
	Reason         string `json:"reason"`
}

// NewShipmentCancelledEvent creates a shipment cancelled event
func NewShipmentCancelledEvent(s *Shipment, reason string) *ShipmentCancelledEvent {
	return &ShipmentCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventShipmentCancelled, aggregateTypeShipment, s.ID),
		FulfillmentID:   s.FulfillmentID.String(),
		TrackingNumber:  s.TrackingNumber,
		CarrierCode:     s.CarrierCode,
		Reason:          reason,
	}
}
