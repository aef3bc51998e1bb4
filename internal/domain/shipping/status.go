package shipping

// ShipmentStatus is the carrier-agnostic shipment status
type ShipmentStatus string

const (
	StatusPending           ShipmentStatus = "pending"
	StatusLabelCreated      ShipmentStatus = "label_created"
	StatusReadyForPickup    ShipmentStatus = "ready_for_pickup"
	StatusPickedUp          ShipmentStatus = "picked_up"
	StatusInTransit         ShipmentStatus = "in_transit"
	StatusOutForDelivery    ShipmentStatus = "out_for_delivery"
	StatusAttemptedDelivery ShipmentStatus = "attempted_delivery"
	StatusDelivered         ShipmentStatus = "delivered"
	StatusReturned          ShipmentStatus = "returned"
	StatusFailed            ShipmentStatus = "failed"
	StatusCancelled         ShipmentStatus = "cancelled"
)

// IsValid checks if the status is a valid ShipmentStatus
func (s ShipmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusLabelCreated, StatusReadyForPickup, StatusPickedUp,
		StatusInTransit, StatusOutForDelivery, StatusAttemptedDelivery,
		StatusDelivered, StatusReturned, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ShipmentStatus
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed
func (s ShipmentStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusReturned, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsActive returns true if the shipment is moving and worth polling
func (s ShipmentStatus) IsActive() bool {
	switch s {
	case StatusPickedUp, StatusInTransit, StatusOutForDelivery, StatusAttemptedDelivery:
		return true
	}
	return false
}

// ActiveStatuses returns the statuses the tracking poller watches
func ActiveStatuses() []ShipmentStatus {
	return []ShipmentStatus{
		StatusPickedUp,
		StatusInTransit,
		StatusOutForDelivery,
		StatusAttemptedDelivery,
	}
}

// CanTransitionTo checks if the status can transition to the target status.
// Cancellation is only allowed before pickup; carrier feeds may skip
// intermediate states, so forward jumps past in_transit are permitted once
// the parcel is with the carrier.
func (s ShipmentStatus) CanTransitionTo(target ShipmentStatus) bool {
	if s == target {
		return false
	}
	switch s {
	case StatusPending:
		return target == StatusLabelCreated || target == StatusCancelled
	case StatusLabelCreated:
		return target == StatusReadyForPickup || target == StatusPickedUp || target == StatusCancelled
	case StatusReadyForPickup:
		return target == StatusPickedUp || target == StatusCancelled
	case StatusPickedUp:
		return target == StatusInTransit || target == StatusOutForDelivery ||
			target == StatusDelivered || target == StatusAttemptedDelivery ||
			target == StatusReturned || target == StatusFailed
	case StatusInTransit:
		return target == StatusOutForDelivery || target == StatusDelivered ||
			target == StatusAttemptedDelivery || target == StatusReturned || target == StatusFailed
	case StatusOutForDelivery:
		return target == StatusDelivered || target == StatusAttemptedDelivery ||
			target == StatusReturned || target == StatusFailed
	case StatusAttemptedDelivery:
		return target == StatusInTransit || target == StatusOutForDelivery ||
			target == StatusDelivered || target == StatusReturned || target == StatusFailed
	case StatusDelivered, StatusReturned, StatusFailed, StatusCancelled:
		return false
	}
	return false
}
