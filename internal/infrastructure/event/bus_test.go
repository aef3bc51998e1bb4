package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shared"
)

type recordingHandler struct {
	types    []string
	received []string
	err      error
	panics   bool
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.received = append(h.received, event.EventType())
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func testEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "shipment", uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishDispatchesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	delivered := &recordingHandler{types: []string{"shipping.shipment.delivered"}}
	all := &recordingHandler{}

	bus.Subscribe(delivered)
	bus.Subscribe(all) // no types declared, receives everything

	err := bus.Publish(context.Background(),
		testEvent("shipping.shipment.delivered"),
		testEvent("shipping.shipment.created"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"shipping.shipment.delivered"}, delivered.received)
	assert.Equal(t, []string{"shipping.shipment.delivered", "shipping.shipment.created"}, all.received)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"shipping.shipment.created"}, err: errors.New("boom")}
	healthy := &recordingHandler{types: []string{"shipping.shipment.created"}}

	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), testEvent("shipping.shipment.created"))
	require.NoError(t, err)
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &recordingHandler{types: []string{"shipping.shipment.created"}, panics: true}
	healthy := &recordingHandler{types: []string{"shipping.shipment.created"}}

	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	assert.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), testEvent("shipping.shipment.created"))
	})
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"shipping.shipment.created"}}

	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), testEvent("shipping.shipment.created")))
	assert.Empty(t, handler.received)
}
