package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/erp/shipping/internal/domain/shipping"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&shipping.CarrierConfig{},
		&shipping.Shipment{},
		&shipping.TrackingEvent{},
	)
	require.NoError(t, err)
	return db
}

func newPersistedShipment(t *testing.T, trackingNumber string) *shipping.Shipment {
	t.Helper()
	s, err := shipping.NewShipment(uuid.New(), uuid.New(), uuid.New(), "leopards",
		shipping.Address{Name: "Vendor", City: "Karachi", Line1: "SITE Area"},
		shipping.Address{Name: "Customer", City: "Lahore", Line1: "Gulberg III"},
		decimal.NewFromFloat(0.4))
	require.NoError(t, err)
	require.NoError(t, s.ConfirmBooking(&shipping.BookingResult{
		TrackingNumber: trackingNumber,
		AWBNumber:      trackingNumber,
	}))
	s.ClearDomainEvents()
	return s
}
