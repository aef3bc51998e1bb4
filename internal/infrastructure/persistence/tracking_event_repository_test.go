package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

func TestGormTrackingEventRepository_AppendAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTrackingEventRepository(db)
	ctx := context.Background()

	s := newPersistedShipment(t, "LE200")
	base := time.Now().Truncate(time.Second)

	// append out of order; listing sorts by occurred_at
	second, err := shipping.NewTrackingEvent(s.ID, shipping.StatusInTransit, shipping.SourceWebhook, base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, second))

	first, err := shipping.NewTrackingEvent(s.ID, shipping.StatusPickedUp, shipping.SourceWebhook, base)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, first))

	timeline, err := repo.ListByShipment(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, shipping.StatusPickedUp, timeline[0].Status)
	assert.Equal(t, shipping.StatusInTransit, timeline[1].Status)
}

func TestGormTrackingEventRepository_DuplicateTimestampRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTrackingEventRepository(db)
	ctx := context.Background()

	s := newPersistedShipment(t, "LE201")
	occurredAt := time.Now().Truncate(time.Second)

	event, err := shipping.NewTrackingEvent(s.ID, shipping.StatusPickedUp, shipping.SourceWebhook, occurredAt)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, event))

	// same shipment, same timestamp, fresh event ID
	duplicate, err := shipping.NewTrackingEvent(s.ID, shipping.StatusPickedUp, shipping.SourceWebhook, occurredAt)
	require.NoError(t, err)
	err = repo.Append(ctx, duplicate)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// a different shipment at the same instant is fine
	other := newPersistedShipment(t, "LE202")
	sibling, err := shipping.NewTrackingEvent(other.ID, shipping.StatusPickedUp, shipping.SourceWebhook, occurredAt)
	require.NoError(t, err)
	assert.NoError(t, repo.Append(ctx, sibling))
}

func TestGormTrackingEventRepository_ExistsAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormTrackingEventRepository(db)
	ctx := context.Background()

	s := newPersistedShipment(t, "LE203")
	occurredAt := time.Now().Truncate(time.Second)

	exists, err := repo.ExistsAt(ctx, s.ID, occurredAt)
	require.NoError(t, err)
	assert.False(t, exists)

	event, err := shipping.NewTrackingEvent(s.ID, shipping.StatusPickedUp, shipping.SourceWebhook, occurredAt)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, event))

	exists, err = repo.ExistsAt(ctx, s.ID, occurredAt)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsAt(ctx, s.ID, occurredAt.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, exists)
}
