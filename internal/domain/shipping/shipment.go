package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/shipping/internal/domain/shared"
)

// DefaultMaxDeliveryAttempts is applied when a shipment doesn't override it
const DefaultMaxDeliveryAttempts = 3

// Shipment is the aggregate root for one fulfillment unit's parcel.
// Created on carrier booking, mutated only through status transitions,
// never hard-deleted (cancellation is a status). At most one non-cancelled
// shipment may exist per fulfillment unit; the booking service enforces
// this through the repository.
type Shipment struct {
	shared.BaseAggregateRoot

	// Ownership and references
	VendorID      uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	FulfillmentID uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderNumber   string    `gorm:"size:50"`

	// Carrier identity
	CarrierCode    string `gorm:"size:32;not null;index"`
	CarrierName    string `gorm:"size:128"`
	TrackingNumber string `gorm:"size:64;index"`
	AWBNumber      string `gorm:"size:64"`
	BookingID      string `gorm:"size:64"`
	LabelURL       string `gorm:"size:512"`
	ServiceTier    string `gorm:"size:32"`

	// Addresses
	Origin      Address `gorm:"embedded;embeddedPrefix:origin_"`
	Destination Address `gorm:"embedded;embeddedPrefix:dest_"`

	// Package descriptors
	WeightKg      decimal.Decimal `gorm:"type:decimal(8,2)"`
	LengthCm      decimal.Decimal `gorm:"type:decimal(8,2)"`
	WidthCm       decimal.Decimal `gorm:"type:decimal(8,2)"`
	HeightCm      decimal.Decimal `gorm:"type:decimal(8,2)"`
	DeclaredValue decimal.Decimal `gorm:"type:decimal(12,2)"`
	ItemCount     int
	Description   string `gorm:"size:512"`

	// Cash on delivery
	IsCOD          bool
	CODAmount      decimal.Decimal `gorm:"type:decimal(12,2)"`
	CODCollected   bool
	CODCollectedAt *time.Time

	// Cost breakdown
	ShippingCost  decimal.Decimal `gorm:"type:decimal(12,2)"`
	FuelSurcharge decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(12,2)"`

	// Lifecycle
	Status              ShipmentStatus `gorm:"size:32;not null;index"`
	DeliveryAttempts    int
	MaxDeliveryAttempts int
	EstimatedDelivery   *time.Time
	PickedUpAt          *time.Time
	ActualDelivery      *time.Time
	DeliverySignedBy    string `gorm:"size:128"`
	CancelReason        string `gorm:"size:255"`

	// LastTrackingUpdate is the staleness watermark the poll job keys on
	LastTrackingUpdate *time.Time `gorm:"index"`
}

// NewShipment creates a pending shipment for a fulfillment unit
func NewShipment(vendorID, orderID, fulfillmentID uuid.UUID, carrierCode string, origin, destination Address, weightKg decimal.Decimal) (*Shipment, error) {
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if fulfillmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FULFILLMENT", "Fulfillment ID cannot be empty")
	}
	if carrierCode == "" {
		return nil, shared.NewDomainError("INVALID_CARRIER_CODE", "Carrier code cannot be empty")
	}
	if destination.IsZero() {
		return nil, shared.NewDomainError("INVALID_DESTINATION", "Destination address cannot be empty")
	}
	if weightKg.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_WEIGHT", "Weight must be positive")
	}

	s := &Shipment{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		VendorID:            vendorID,
		OrderID:             orderID,
		FulfillmentID:       fulfillmentID,
		CarrierCode:         carrierCode,
		Origin:              origin,
		Destination:         destination,
		WeightKg:            weightKg,
		Status:              StatusPending,
		MaxDeliveryAttempts: DefaultMaxDeliveryAttempts,
	}
	s.AddDomainEvent(NewShipmentCreatedEvent(s))
	return s, nil
}

// ConfirmBooking records a successful carrier booking and moves the
// shipment to label_created
func (s *Shipment) ConfirmBooking(result *BookingResult) error {
	if s.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Booking can only be confirmed on a pending shipment")
	}
	if result == nil || result.TrackingNumber == "" {
		return shared.NewDomainError("INVALID_BOOKING", "Booking result must carry a tracking number")
	}
	s.TrackingNumber = result.TrackingNumber
	s.AWBNumber = result.AWBNumber
	s.BookingID = result.BookingID
	s.LabelURL = result.LabelURL
	s.EstimatedDelivery = result.EstimatedDelivery
	s.Status = StatusLabelCreated
	s.UpdatedAt = time.Now()
	s.AddDomainEvent(NewShipmentBookedEvent(s))
	return nil
}

// ApplyStatus transitions the shipment and performs the transition's side
// effects. The caller appends the matching tracking event and persists both.
func (s *Shipment) ApplyStatus(target ShipmentStatus, at time.Time) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown shipment status")
	}
	if !s.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			"Cannot transition from "+s.Status.String()+" to "+target.String())
	}

	previous := s.Status
	s.Status = target
	now := time.Now()
	s.UpdatedAt = now
	s.LastTrackingUpdate = &now

	switch target {
	case StatusPickedUp:
		if s.PickedUpAt == nil {
			pickedUp := at
			s.PickedUpAt = &pickedUp
		}
	case StatusAttemptedDelivery:
		s.DeliveryAttempts++
	case StatusDelivered:
		delivered := at
		s.ActualDelivery = &delivered
		if s.IsCOD && !s.CODCollected {
			// Collection is assumed at handover; remittance reconciliation
			// happens downstream in finance.
			s.CODCollected = true
			collectedAt := at
			s.CODCollectedAt = &collectedAt
		}
	}

	s.AddDomainEvent(NewShipmentStatusChangedEvent(s, previous, target))
	switch target {
	case StatusDelivered:
		s.AddDomainEvent(NewShipmentDeliveredEvent(s))
	case StatusReturned:
		s.AddDomainEvent(NewShipmentReturnedEvent(s))
	}
	return nil
}

// Cancel cancels the shipment before pickup
func (s *Shipment) Cancel(reason string) error {
	if !s.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_TRANSITION",
			"Shipment in "+s.Status.String()+" can no longer be cancelled")
	}
	previous := s.Status
	s.Status = StatusCancelled
	s.CancelReason = reason
	s.UpdatedAt = time.Now()
	s.AddDomainEvent(NewShipmentStatusChangedEvent(s, previous, StatusCancelled))
	s.AddDomainEvent(NewShipmentCancelledEvent(s, reason))
	return nil
}

// SetCost records the cost breakdown from the selected quote
func (s *Shipment) SetCost(base, surcharge decimal.Decimal) {
	s.ShippingCost = base
	s.FuelSurcharge = surcharge
	s.TotalCost = base.Add(surcharge)
	s.UpdatedAt = time.Now()
}

// SetCOD flags the shipment as cash-on-delivery
func (s *Shipment) SetCOD(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_COD_AMOUNT", "COD amount must be positive")
	}
	s.IsCOD = true
	s.CODAmount = amount
	return nil
}

// MarkSignedBy records who accepted the parcel at delivery
func (s *Shipment) MarkSignedBy(name string) {
	if name != "" {
		s.DeliverySignedBy = name
	}
}

// TouchTracking refreshes the staleness watermark without a status change
func (s *Shipment) TouchTracking() {
	now := time.Now()
	s.LastTrackingUpdate = &now
	s.UpdatedAt = now
}

// ExceededDeliveryAttempts reports whether the attempt budget is exhausted.
// Exceeding it is surfaced to the caller, never auto-transitioned.
func (s *Shipment) ExceededDeliveryAttempts() bool {
	max := s.MaxDeliveryAttempts
	if max <= 0 {
		max = DefaultMaxDeliveryAttempts
	}
	return s.DeliveryAttempts >= max
}

// IsStale reports whether the shipment needs a tracking poll
func (s *Shipment) IsStale(olderThan time.Time) bool {
	if !s.Status.IsActive() {
		return false
	}
	return s.LastTrackingUpdate == nil || s.LastTrackingUpdate.Before(olderThan)
}
