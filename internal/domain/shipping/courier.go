package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Courier Errors
// ---------------------------------------------------------------------------

var (
	// Registry errors
	ErrUnsupportedCarrier   = errors.New("shipping: unsupported carrier code")
	ErrCarrierNotConfigured = errors.New("shipping: carrier not configured")

	// Carrier call errors (expected, non-fatal)
	ErrCarrierUnavailable     = errors.New("shipping: carrier temporarily unavailable")
	ErrCarrierRequestFailed   = errors.New("shipping: carrier request failed")
	ErrCarrierRejected        = errors.New("shipping: carrier rejected the shipment")
	ErrCarrierInvalidResponse = errors.New("shipping: invalid carrier response")
	ErrTrackingNotFound       = errors.New("shipping: tracking number not found at carrier")
	ErrPickupNotSupported     = errors.New("shipping: carrier does not support pickup scheduling")
	ErrCancellationRejected   = errors.New("shipping: carrier rejected the cancellation")

	// Webhook errors
	ErrInvalidWebhookSignature = errors.New("shipping: invalid webhook signature")
	ErrInvalidWebhookPayload   = errors.New("shipping: invalid webhook payload")

	// Rate errors
	ErrNoRateAvailable = errors.New("shipping: no rate available for route")
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// ShipmentRequest is the normalized booking request sent to a carrier
type ShipmentRequest struct {
	// OrderNumber is the marketplace order reference printed on the label
	OrderNumber string
	// Origin is the vendor pickup address
	Origin Address
	// Destination is the customer delivery address
	Destination Address
	// WeightKg is the chargeable weight in kilograms
	WeightKg decimal.Decimal
	// DeclaredValue is the declared parcel value
	DeclaredValue decimal.Decimal
	// ItemCount is the number of pieces in the parcel
	ItemCount int
	// IsCOD indicates cash-on-delivery collection
	IsCOD bool
	// CODAmount is the amount the courier collects on delivery
	CODAmount decimal.Decimal
	// ServiceTier selects the carrier service (overnight, economy, ...)
	ServiceTier string
	// Description is the parcel content summary
	Description string
}

// BookingResult is a successful carrier booking
type BookingResult struct {
	TrackingNumber    string
	AWBNumber         string
	BookingID         string
	LabelURL          string
	EstimatedDelivery *time.Time
}

// LabelResult carries the shipping label reference and raw bytes when available
type LabelResult struct {
	LabelURL  string
	LabelData []byte
}

// TrackingUpdate is one normalized checkpoint from a carrier feed
type TrackingUpdate struct {
	// Status is the normalized status for this checkpoint
	Status ShipmentStatus
	// CarrierStatus is the carrier's native status string
	CarrierStatus string
	Description   string
	Location      string
	OccurredAt    time.Time
}

// TrackingResult is a carrier tracking snapshot
type TrackingResult struct {
	CurrentStatus ShipmentStatus
	Events        []TrackingUpdate
	DeliveredAt   *time.Time
	SignedBy      string
}

// CancelResult is the outcome of a cancellation request
type CancelResult struct {
	Success bool
	Message string
}

// RateRequest asks a carrier to price a route
type RateRequest struct {
	OriginCity      string
	DestinationCity string
	WeightKg        decimal.Decimal
	IsCOD           bool
	ServiceTier     string
}

// RateBreakdown itemizes how a quote was computed
type RateBreakdown struct {
	BaseAmount    decimal.Decimal `json:"base_amount"`
	FuelSurcharge decimal.Decimal `json:"fuel_surcharge"`
	CODFee        decimal.Decimal `json:"cod_fee"`
}

// RateQuote is one carrier's priced offer for a route
type RateQuote struct {
	CarrierCode   string          `json:"carrier_code"`
	CarrierName   string          `json:"carrier_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	EstimatedDays int             `json:"estimated_days"`
	ServiceTier   string          `json:"service_tier,omitempty"`
	Breakdown     RateBreakdown   `json:"breakdown"`
}

// PickupRequest schedules a courier pickup at the vendor location
type PickupRequest struct {
	Address    Address
	PickupDate time.Time
	TimeWindow string
	PieceCount int
	WeightKg   decimal.Decimal
}

// PickupResult is a confirmed pickup slot
type PickupResult struct {
	PickupID   string
	PickupDate time.Time
	PickupTime string
}

// WebhookResult is a parsed, normalized carrier webhook payload
type WebhookResult struct {
	TrackingNumber string
	Status         ShipmentStatus
	Events         []TrackingUpdate
	Raw            json.RawMessage
}

// ---------------------------------------------------------------------------
// CourierAdapter Port Interface
// ---------------------------------------------------------------------------

// CourierAdapter is the capability set every carrier integration implements.
// It follows the Ports & Adapters pattern: the interface lives in the domain
// layer and concrete implementations (Leopards, TCS, PostEx, manual) live in
// the infrastructure layer. Expected carrier failures are returned as wrapped
// sentinel errors, never panics; nothing carrier-specific crosses this
// boundary un-normalized.
type CourierAdapter interface {
	// CarrierCode returns the carrier code this adapter handles
	CarrierCode() string

	// CreateShipment books a shipment with the carrier.
	// A rejection is returned as ErrCarrierRejected wrapping the carrier's
	// stated reason.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*BookingResult, error)

	// GetLabel retrieves the shipping label for a booked shipment
	GetLabel(ctx context.Context, trackingNumber string) (*LabelResult, error)

	// GetTracking retrieves the current tracking snapshot.
	// Returned events carry normalized statuses; unmapped carrier statuses
	// default to in_transit.
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingResult, error)

	// CancelShipment requests a cancellation at the carrier
	CancelShipment(ctx context.Context, trackingNumber string) (*CancelResult, error)

	// CalculateRate prices a route. On carrier API failure the adapter falls
	// back to configuration-driven pricing before giving up.
	CalculateRate(ctx context.Context, req *RateRequest) (*RateQuote, error)

	// SchedulePickup books a pickup slot at the origin address
	SchedulePickup(ctx context.Context, req *PickupRequest) (*PickupResult, error)

	// NormalizeStatus maps a carrier status string to the internal enum.
	// Pure and case-insensitive; unmapped statuses map to in_transit.
	NormalizeStatus(carrierStatus string) ShipmentStatus

	// ParseWebhook parses a raw carrier webhook body into normalized events
	ParseWebhook(payload []byte) (*WebhookResult, error)

	// VerifyWebhookSignature validates the webhook signature header.
	// A carrier without a configured secret is always-valid by policy.
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// CourierRegistry resolves carrier codes to configured adapter instances
type CourierRegistry interface {
	// Resolve returns the adapter for the given code.
	// ErrUnsupportedCarrier when no implementation exists,
	// ErrCarrierNotConfigured when no enabled configuration row exists.
	Resolve(ctx context.Context, code string) (CourierAdapter, error)

	// ActiveAdapters returns adapters for all enabled carriers in
	// deterministic (code-sorted) order, for fan-out operations.
	ActiveAdapters(ctx context.Context) ([]CourierAdapter, error)
}
