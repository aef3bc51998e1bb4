package shipping

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erp/shipping/internal/domain/shared"
)

// CarrierEnvironment selects the carrier API environment
type CarrierEnvironment string

const (
	EnvironmentSandbox    CarrierEnvironment = "sandbox"
	EnvironmentProduction CarrierEnvironment = "production"
)

// WeightSlab is a weight bracket with a flat price in a rate card
type WeightSlab struct {
	// MaxWeightKg is the inclusive upper bound of the bracket
	MaxWeightKg decimal.Decimal `json:"max_weight_kg"`
	Rate        decimal.Decimal `json:"rate"`
}

// RateCardEntry prices one origin→destination lane
type RateCardEntry struct {
	OriginCity      string          `json:"origin_city"`
	DestinationCity string          `json:"destination_city"`
	// BaseRate is the first-kilogram price when no slab matches
	BaseRate  decimal.Decimal `json:"base_rate"`
	PerKgRate decimal.Decimal `json:"per_kg_rate"`
	// Slabs are consulted before the base+per-kg formula; the smallest
	// covering slab wins, whatever order they were entered in
	Slabs []WeightSlab `json:"slabs,omitempty"`
}

// CarrierConfig holds the persisted settings for one carrier integration.
// The code is globally unique and is the join key used by the registry.
// Administrator-managed; read-only everywhere else.
type CarrierConfig struct {
	shared.BaseAggregateRoot
	Code        string             `gorm:"size:32;uniqueIndex;not null"`
	Name        string             `gorm:"size:128;not null"`
	Enabled     bool               `gorm:"not null;default:false;index"`
	Environment CarrierEnvironment `gorm:"size:16;not null;default:sandbox"`

	// Credentials and endpoint
	APIBaseURL    string `gorm:"size:255"`
	APIKey        string `gorm:"size:255"`
	APISecret     string `gorm:"size:255"`
	AccountNumber string `gorm:"size:64"`
	WebhookSecret string `gorm:"size:255"`

	// Service catalog and coverage
	ServiceTiers []string `gorm:"serializer:json"`
	Cities       []string `gorm:"serializer:json"`

	// StatusMap maps carrier-native status strings (stored lowercase) to
	// normalized statuses
	StatusMap map[string]ShipmentStatus `gorm:"serializer:json"`

	// Rate card
	RateCard         []RateCardEntry `gorm:"serializer:json"`
	DefaultRate      decimal.Decimal `gorm:"type:decimal(12,2)"`
	FuelSurchargePct decimal.Decimal `gorm:"type:decimal(5,2)"`

	// Operational settings
	MaxWeightKg         decimal.Decimal `gorm:"type:decimal(8,2)"`
	MaxDeclaredValue    decimal.Decimal `gorm:"type:decimal(12,2)"`
	SupportsCOD         bool
	SupportsPickup      bool
	SupportsReturn      bool
	PollIntervalMinutes int `gorm:"default:60"`
}

// NewCarrierConfig creates a carrier configuration in sandbox, disabled
func NewCarrierConfig(code, name string) (*CarrierConfig, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CARRIER_CODE", "Carrier code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CARRIER_NAME", "Carrier name cannot be empty")
	}
	return &CarrierConfig{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		Code:                code,
		Name:                name,
		Enabled:             false,
		Environment:         EnvironmentSandbox,
		StatusMap:           make(map[string]ShipmentStatus),
		PollIntervalMinutes: 60,
	}, nil
}

// Enable marks the carrier as active for booking and fan-out operations
func (c *CarrierConfig) Enable() {
	c.Enabled = true
}

// Disable removes the carrier from booking and fan-out operations
func (c *CarrierConfig) Disable() {
	c.Enabled = false
}

// HasWebhookSecret reports whether webhook signatures can be verified
func (c *CarrierConfig) HasWebhookSecret() bool {
	return c.WebhookSecret != ""
}

// NormalizeStatus maps a carrier-native status string to the internal enum.
// Matching is case-insensitive; unmapped statuses default to in_transit.
func (c *CarrierConfig) NormalizeStatus(carrierStatus string) ShipmentStatus {
	key := strings.ToLower(strings.TrimSpace(carrierStatus))
	if key == "" {
		return StatusInTransit
	}
	for mapped, status := range c.StatusMap {
		if strings.ToLower(mapped) == key {
			return status
		}
	}
	// An already-normalized value passes through unchanged
	if s := ShipmentStatus(key); s.IsValid() {
		return s
	}
	return StatusInTransit
}

// findLane returns the rate-card entry for an origin/destination pair
func (c *CarrierConfig) findLane(originCity, destinationCity string) *RateCardEntry {
	for i := range c.RateCard {
		entry := &c.RateCard[i]
		if strings.EqualFold(entry.OriginCity, strings.TrimSpace(originCity)) &&
			strings.EqualFold(entry.DestinationCity, strings.TrimSpace(destinationCity)) {
			return entry
		}
	}
	return nil
}

// QuoteFor computes the configuration-driven price for a route (rate tier 2).
// Slab selection picks the smallest slab with MaxWeightKg >= weight
// (boundary inclusive), regardless of the order the card was entered in;
// with no covering slab the base + per-kg formula applies, where the first
// kilogram is included in the base rate. The fuel surcharge
// percentage is applied on top and the total is rounded up to a whole unit.
// A route with no rate-card entry falls back to the carrier's flat default
// rate. Returns ErrNoRateAvailable only when no default rate is set either.
func (c *CarrierConfig) QuoteFor(originCity, destinationCity string, weightKg decimal.Decimal) (*RateQuote, error) {
	quote := &RateQuote{
		CarrierCode: c.Code,
		CarrierName: c.Name,
		Currency:    "PKR",
	}

	lane := c.findLane(originCity, destinationCity)
	if lane == nil {
		if c.DefaultRate.IsZero() {
			return nil, ErrNoRateAvailable
		}
		quote.Amount = c.DefaultRate.Ceil()
		quote.Breakdown = RateBreakdown{BaseAmount: c.DefaultRate}
		return quote, nil
	}

	base := decimal.Zero
	slabCap := decimal.Zero
	matched := false
	for _, slab := range lane.Slabs {
		if slab.MaxWeightKg.LessThan(weightKg) {
			continue
		}
		if !matched || slab.MaxWeightKg.LessThan(slabCap) {
			base = slab.Rate
			slabCap = slab.MaxWeightKg
			matched = true
		}
	}
	if !matched {
		extra := decimal.Max(decimal.Zero, weightKg.Sub(decimal.NewFromInt(1)))
		base = lane.BaseRate.Add(lane.PerKgRate.Mul(extra))
	}

	surcharge := base.Mul(c.FuelSurchargePct).Div(decimal.NewFromInt(100))
	quote.Breakdown = RateBreakdown{
		BaseAmount:    base,
		FuelSurcharge: surcharge,
	}
	quote.Amount = base.Add(surcharge).Ceil()
	return quote, nil
}

// AcceptsWeight checks the shipment weight against the configured limit
func (c *CarrierConfig) AcceptsWeight(weightKg decimal.Decimal) bool {
	if c.MaxWeightKg.IsZero() {
		return true
	}
	return weightKg.LessThanOrEqual(c.MaxWeightKg)
}

// AcceptsDeclaredValue checks the declared value against the configured limit
func (c *CarrierConfig) AcceptsDeclaredValue(value decimal.Decimal) bool {
	if c.MaxDeclaredValue.IsZero() {
		return true
	}
	return value.LessThanOrEqual(c.MaxDeclaredValue)
}
