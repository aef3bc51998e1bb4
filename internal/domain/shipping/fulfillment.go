package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FulfillmentInfo is the order-side view of a fulfillment unit, fetched
// from the order service when booking a shipment
type FulfillmentInfo struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	VendorID        uuid.UUID
	OrderNumber     string
	ItemCount       int
	WeightKg        decimal.Decimal
	DeclaredValue   decimal.Decimal
	IsCOD           bool
	CODAmount       decimal.Decimal
	PickupAddress   Address
	DeliveryAddress Address
}

// FulfillmentGateway is the outbound port to the order service.
// The shipping context never reaches into order tables directly.
type FulfillmentGateway interface {
	// Get fetches the fulfillment unit details needed to book a shipment
	Get(ctx context.Context, fulfillmentID uuid.UUID) (*FulfillmentInfo, error)

	// UpdateStatus notifies the order service of a terminal outcome
	// (delivered or returned)
	UpdateStatus(ctx context.Context, fulfillmentID uuid.UUID, status ShipmentStatus, at time.Time) error
}

// ShipmentNotification is a customer-facing tracking notification
type ShipmentNotification struct {
	ShipmentID     uuid.UUID
	OrderNumber    string
	TrackingNumber string
	CarrierName    string
	Status         ShipmentStatus
	Recipient      string
	Phone          string
	OccurredAt     time.Time
}

// CustomerNotifier is the outbound port for customer notifications.
// Delivery failures are logged, never propagated into the tracking flow.
type CustomerNotifier interface {
	NotifyStatusChange(ctx context.Context, notification *ShipmentNotification) error
}
