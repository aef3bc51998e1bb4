package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShipmentStatus_IsValid(t *testing.T) {
	valid := []ShipmentStatus{
		StatusPending, StatusLabelCreated, StatusReadyForPickup, StatusPickedUp,
		StatusInTransit, StatusOutForDelivery, StatusAttemptedDelivery,
		StatusDelivered, StatusReturned, StatusFailed, StatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, ShipmentStatus("").IsValid())
	assert.False(t, ShipmentStatus("shipped").IsValid())
	assert.False(t, ShipmentStatus("IN_TRANSIT").IsValid())
}

func TestShipmentStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusReturned.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())

	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInTransit.IsTerminal())
	assert.False(t, StatusAttemptedDelivery.IsTerminal())
}

func TestShipmentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    ShipmentStatus
		to      ShipmentStatus
		allowed bool
	}{
		{"pending to label_created", StatusPending, StatusLabelCreated, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending cannot skip to in_transit", StatusPending, StatusInTransit, false},
		{"label_created to picked_up", StatusLabelCreated, StatusPickedUp, true},
		{"label_created to ready_for_pickup", StatusLabelCreated, StatusReadyForPickup, true},
		{"ready_for_pickup to cancelled", StatusReadyForPickup, StatusCancelled, true},
		{"picked_up to in_transit", StatusPickedUp, StatusInTransit, true},
		{"picked_up cannot be cancelled", StatusPickedUp, StatusCancelled, false},
		{"in_transit to out_for_delivery", StatusInTransit, StatusOutForDelivery, true},
		{"in_transit to delivered skips ofd", StatusInTransit, StatusDelivered, true},
		{"in_transit cannot go back to picked_up", StatusInTransit, StatusPickedUp, false},
		{"out_for_delivery to delivered", StatusOutForDelivery, StatusDelivered, true},
		{"out_for_delivery to attempted", StatusOutForDelivery, StatusAttemptedDelivery, true},
		{"attempted back out for delivery", StatusAttemptedDelivery, StatusOutForDelivery, true},
		{"attempted to returned", StatusAttemptedDelivery, StatusReturned, true},
		{"delivered is terminal", StatusDelivered, StatusReturned, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
		{"returned is terminal", StatusReturned, StatusInTransit, false},
		{"same status is not a transition", StatusInTransit, StatusInTransit, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestActiveStatuses(t *testing.T) {
	statuses := ActiveStatuses()
	assert.Len(t, statuses, 4)
	for _, s := range statuses {
		assert.True(t, s.IsActive())
		assert.False(t, s.IsTerminal())
	}
	assert.False(t, StatusPending.IsActive())
	assert.False(t, StatusDelivered.IsActive())
}
