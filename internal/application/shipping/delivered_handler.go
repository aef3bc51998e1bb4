package shipping

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

// ShipmentOutcomeHandler reacts to terminal shipment events: it closes the
// fulfillment unit in the order service and notifies the customer. Both
// calls are best-effort; a downstream failure never unwinds the shipment.
type ShipmentOutcomeHandler struct {
	shipments    shipping.ShipmentRepository
	fulfillments shipping.FulfillmentGateway
	notifier     shipping.CustomerNotifier
	logger       *zap.Logger
}

// NewShipmentOutcomeHandler creates the terminal-outcome event handler
func NewShipmentOutcomeHandler(
	shipments shipping.ShipmentRepository,
	fulfillments shipping.FulfillmentGateway,
	notifier shipping.CustomerNotifier,
	logger *zap.Logger,
) *ShipmentOutcomeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentOutcomeHandler{
		shipments:    shipments,
		fulfillments: fulfillments,
		notifier:     notifier,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *ShipmentOutcomeHandler) EventTypes() []string {
	return []string{
		shipping.EventShipmentDelivered,
		shipping.EventShipmentReturned,
		shipping.EventShipmentStatusChanged,
	}
}

// Handle processes one shipment domain event
func (h *ShipmentOutcomeHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *shipping.ShipmentDeliveredEvent:
		return h.handleTerminal(ctx, e.AggregateID(), shipping.StatusDelivered)
	case *shipping.ShipmentReturnedEvent:
		return h.handleTerminal(ctx, e.AggregateID(), shipping.StatusReturned)
	case *shipping.ShipmentStatusChangedEvent:
		return h.notifyStatusChange(ctx, e)
	}
	return nil
}

// handleTerminal pushes the terminal outcome to the order service
func (h *ShipmentOutcomeHandler) handleTerminal(ctx context.Context, shipmentID uuid.UUID, status shipping.ShipmentStatus) error {
	shipment, err := h.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		h.logger.Error("outcome handler could not load shipment",
			zap.String("shipment_id", shipmentID.String()),
			zap.Error(err))
		return err
	}

	at := shipment.UpdatedAt
	if shipment.ActualDelivery != nil {
		at = *shipment.ActualDelivery
	}
	if err := h.fulfillments.UpdateStatus(ctx, shipment.FulfillmentID, status, at); err != nil {
		h.logger.Error("failed to update fulfillment status",
			zap.String("fulfillment_id", shipment.FulfillmentID.String()),
			zap.String("status", status.String()),
			zap.Error(err))
		return err
	}
	return nil
}

// notifyStatusChange sends a customer notification for visible transitions
func (h *ShipmentOutcomeHandler) notifyStatusChange(ctx context.Context, e *shipping.ShipmentStatusChangedEvent) error {
	if h.notifier == nil || !customerVisible(e.ToStatus) {
		return nil
	}

	shipment, err := h.shipments.FindByID(ctx, e.AggregateID())
	if err != nil {
		return err
	}

	notification := &shipping.ShipmentNotification{
		ShipmentID:     shipment.ID,
		OrderNumber:    shipment.OrderNumber,
		TrackingNumber: shipment.TrackingNumber,
		CarrierName:    shipment.CarrierName,
		Status:         e.ToStatus,
		Recipient:      shipment.Destination.Name,
		Phone:          shipment.Destination.Phone,
		OccurredAt:     e.OccurredAt(),
	}
	if err := h.notifier.NotifyStatusChange(ctx, notification); err != nil {
		h.logger.Warn("customer notification failed",
			zap.String("shipment_id", shipment.ID.String()),
			zap.String("status", e.ToStatus.String()),
			zap.Error(err))
	}
	return nil
}

// customerVisible filters transitions worth a customer message
func customerVisible(status shipping.ShipmentStatus) bool {
	switch status {
	case shipping.StatusPickedUp, shipping.StatusOutForDelivery,
		shipping.StatusDelivered, shipping.StatusAttemptedDelivery,
		shipping.StatusReturned:
		return true
	}
	return false
}

// Ensure ShipmentOutcomeHandler implements EventHandler interface
var _ shared.EventHandler = (*ShipmentOutcomeHandler)(nil)
