package shipping

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/shipping/internal/domain/shipping"
)

// AddressDTO mirrors the domain address for transport
type AddressDTO struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" binding:"required"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (d AddressDTO) toDomain() shipping.Address {
	country := d.Country
	if country == "" {
		country = "PK"
	}
	return shipping.Address{
		Name:       d.Name,
		Phone:      d.Phone,
		Line1:      d.Line1,
		Line2:      d.Line2,
		City:       d.City,
		Province:   d.Province,
		PostalCode: d.PostalCode,
		Country:    country,
	}
}

func addressDTOFrom(a shipping.Address) AddressDTO {
	return AddressDTO{
		Name:       a.Name,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Province:   a.Province,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// CreateShipmentRequest books a shipment for a fulfillment unit
type CreateShipmentRequest struct {
	FulfillmentID string          `json:"fulfillment_id" binding:"required,uuid"`
	CarrierCode   string          `json:"carrier_code" binding:"required,carriercode"`
	ServiceTier   string          `json:"service_tier,omitempty"`
	WeightKg      decimal.Decimal `json:"weight_kg,omitempty"`
	Description   string          `json:"description,omitempty"`
	// Origin overrides the vendor pickup address on file when set
	Origin *AddressDTO `json:"origin,omitempty"`
}

// ManualStatusUpdateRequest pushes a hand-entered status onto a shipment
type ManualStatusUpdateRequest struct {
	Status      string     `json:"status" binding:"required"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
}

// CancelShipmentRequest cancels a shipment before pickup
type CancelShipmentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SchedulePickupRequest books a courier pickup slot
type SchedulePickupRequest struct {
	PickupDate time.Time `json:"pickup_date" binding:"required"`
	TimeWindow string    `json:"time_window,omitempty"`
}

// CompareRatesRequest fans a route out to all enabled carriers
type CompareRatesRequest struct {
	OriginCity      string          `json:"origin_city" binding:"required"`
	DestinationCity string          `json:"destination_city" binding:"required"`
	WeightKg        decimal.Decimal `json:"weight_kg" binding:"required"`
	IsCOD           bool            `json:"is_cod,omitempty"`
	ServiceTier     string          `json:"service_tier,omitempty"`
}

// ShipmentResponse is the full internal view of a shipment
type ShipmentResponse struct {
	ID                 string                  `json:"id"`
	VendorID           string                  `json:"vendor_id"`
	OrderID            string                  `json:"order_id"`
	FulfillmentID      string                  `json:"fulfillment_id"`
	OrderNumber        string                  `json:"order_number,omitempty"`
	CarrierCode        string                  `json:"carrier_code"`
	CarrierName        string                  `json:"carrier_name,omitempty"`
	TrackingNumber     string                  `json:"tracking_number,omitempty"`
	AWBNumber          string                  `json:"awb_number,omitempty"`
	LabelURL           string                  `json:"label_url,omitempty"`
	ServiceTier        string                  `json:"service_tier,omitempty"`
	Status             string                  `json:"status"`
	Origin             AddressDTO              `json:"origin"`
	Destination        AddressDTO              `json:"destination"`
	WeightKg           decimal.Decimal         `json:"weight_kg"`
	DeclaredValue      decimal.Decimal         `json:"declared_value"`
	ItemCount          int                     `json:"item_count"`
	IsCOD              bool                    `json:"is_cod"`
	CODAmount          decimal.Decimal         `json:"cod_amount"`
	CODCollected       bool                    `json:"cod_collected"`
	CODCollectedAt     *time.Time              `json:"cod_collected_at,omitempty"`
	ShippingCost       decimal.Decimal         `json:"shipping_cost"`
	FuelSurcharge      decimal.Decimal         `json:"fuel_surcharge"`
	TotalCost          decimal.Decimal         `json:"total_cost"`
	DeliveryAttempts   int                     `json:"delivery_attempts"`
	EstimatedDelivery  *time.Time              `json:"estimated_delivery,omitempty"`
	PickedUpAt         *time.Time              `json:"picked_up_at,omitempty"`
	ActualDelivery     *time.Time              `json:"actual_delivery,omitempty"`
	DeliverySignedBy   string                  `json:"delivery_signed_by,omitempty"`
	CancelReason       string                  `json:"cancel_reason,omitempty"`
	LastTrackingUpdate *time.Time              `json:"last_tracking_update,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	Events             []TrackingEventResponse `json:"events,omitempty"`
}

// ToShipmentResponse converts a domain shipment to its response DTO
func ToShipmentResponse(s *shipping.Shipment) *ShipmentResponse {
	return &ShipmentResponse{
		ID:                 s.ID.String(),
		VendorID:           s.VendorID.String(),
		OrderID:            s.OrderID.String(),
		FulfillmentID:      s.FulfillmentID.String(),
		OrderNumber:        s.OrderNumber,
		CarrierCode:        s.CarrierCode,
		CarrierName:        s.CarrierName,
		TrackingNumber:     s.TrackingNumber,
		AWBNumber:          s.AWBNumber,
		LabelURL:           s.LabelURL,
		ServiceTier:        s.ServiceTier,
		Status:             s.Status.String(),
		Origin:             addressDTOFrom(s.Origin),
		Destination:        addressDTOFrom(s.Destination),
		WeightKg:           s.WeightKg,
		DeclaredValue:      s.DeclaredValue,
		ItemCount:          s.ItemCount,
		IsCOD:              s.IsCOD,
		CODAmount:          s.CODAmount,
		CODCollected:       s.CODCollected,
		CODCollectedAt:     s.CODCollectedAt,
		ShippingCost:       s.ShippingCost,
		FuelSurcharge:      s.FuelSurcharge,
		TotalCost:          s.TotalCost,
		DeliveryAttempts:   s.DeliveryAttempts,
		EstimatedDelivery:  s.EstimatedDelivery,
		PickedUpAt:         s.PickedUpAt,
		ActualDelivery:     s.ActualDelivery,
		DeliverySignedBy:   s.DeliverySignedBy,
		CancelReason:       s.CancelReason,
		LastTrackingUpdate: s.LastTrackingUpdate,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// TrackingEventResponse is one timeline entry
type TrackingEventResponse struct {
	Status        string    `json:"status"`
	CarrierStatus string    `json:"carrier_status,omitempty"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location,omitempty"`
	Source        string    `json:"source"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ToTrackingEventResponses converts a timeline to response DTOs
func ToTrackingEventResponses(events []*shipping.TrackingEvent) []TrackingEventResponse {
	out := make([]TrackingEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, TrackingEventResponse{
			Status:        e.Status.String(),
			CarrierStatus: e.CarrierStatus,
			Description:   e.Description,
			Location:      e.Location,
			Source:        string(e.Source),
			OccurredAt:    e.OccurredAt,
		})
	}
	return out
}

// PublicTrackingResponse is the unauthenticated lookup view.
// The destination is redacted to city level and no cost or COD detail leaks.
type PublicTrackingResponse struct {
	Found             bool                    `json:"found"`
	TrackingNumber    string                  `json:"tracking_number,omitempty"`
	CarrierCode       string                  `json:"carrier_code,omitempty"`
	CarrierName       string                  `json:"carrier_name,omitempty"`
	Status            string                  `json:"status,omitempty"`
	Destination       *AddressDTO             `json:"destination,omitempty"`
	EstimatedDelivery *time.Time              `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time              `json:"delivered_at,omitempty"`
	Events            []TrackingEventResponse `json:"events,omitempty"`
}

// RateQuoteResponse is one carrier's offer in a comparison
type RateQuoteResponse struct {
	CarrierCode   string          `json:"carrier_code"`
	CarrierName   string          `json:"carrier_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	EstimatedDays int             `json:"estimated_days"`
	ServiceTier   string          `json:"service_tier,omitempty"`
	BaseAmount    decimal.Decimal `json:"base_amount"`
	FuelSurcharge decimal.Decimal `json:"fuel_surcharge"`
	CODFee        decimal.Decimal `json:"cod_fee"`
}

func toRateQuoteResponse(q *shipping.RateQuote) RateQuoteResponse {
	return RateQuoteResponse{
		CarrierCode:   q.CarrierCode,
		CarrierName:   q.CarrierName,
		Amount:        q.Amount,
		Currency:      q.Currency,
		EstimatedDays: q.EstimatedDays,
		ServiceTier:   q.ServiceTier,
		BaseAmount:    q.Breakdown.BaseAmount,
		FuelSurcharge: q.Breakdown.FuelSurcharge,
		CODFee:        q.Breakdown.CODFee,
	}
}

// CompareRatesResponse is the fan-out result, cheapest first
type CompareRatesResponse struct {
	Quotes []RateQuoteResponse `json:"quotes"`
	// Failures lists carriers that could not quote, by code
	Failures []string `json:"failures,omitempty"`
}

// PickupResponse is a confirmed pickup slot
type PickupResponse struct {
	PickupID   string    `json:"pickup_id"`
	PickupDate time.Time `json:"pickup_date"`
	PickupTime string    `json:"pickup_time,omitempty"`
}

// SaveCarrierRequest creates or updates a carrier configuration
type SaveCarrierRequest struct {
	Code                string                     `json:"code" binding:"required,carriercode"`
	Name                string                     `json:"name" binding:"required"`
	Environment         string                     `json:"environment,omitempty"`
	APIBaseURL          string                     `json:"api_base_url,omitempty"`
	APIKey              string                     `json:"api_key,omitempty"`
	APISecret           string                     `json:"api_secret,omitempty"`
	AccountNumber       string                     `json:"account_number,omitempty"`
	WebhookSecret       string                     `json:"webhook_secret,omitempty"`
	ServiceTiers        []string                   `json:"service_tiers,omitempty"`
	Cities              []string                   `json:"cities,omitempty"`
	StatusMap           map[string]string          `json:"status_map,omitempty"`
	RateCard            []RateCardEntryDTO         `json:"rate_card,omitempty"`
	DefaultRate         decimal.Decimal            `json:"default_rate,omitempty"`
	FuelSurchargePct    decimal.Decimal            `json:"fuel_surcharge_pct,omitempty"`
	MaxWeightKg         decimal.Decimal            `json:"max_weight_kg,omitempty"`
	MaxDeclaredValue    decimal.Decimal            `json:"max_declared_value,omitempty"`
	SupportsCOD         bool                       `json:"supports_cod"`
	SupportsPickup      bool                       `json:"supports_pickup"`
	SupportsReturn      bool                       `json:"supports_return"`
	PollIntervalMinutes int                        `json:"poll_interval_minutes,omitempty"`
}

// RateCardEntryDTO is one lane of a carrier rate card
type RateCardEntryDTO struct {
	OriginCity      string          `json:"origin_city" binding:"required"`
	DestinationCity string          `json:"destination_city" binding:"required"`
	BaseRate        decimal.Decimal `json:"base_rate"`
	PerKgRate       decimal.Decimal `json:"per_kg_rate"`
	Slabs           []WeightSlabDTO `json:"slabs,omitempty"`
}

// WeightSlabDTO is one weight bracket of a lane
type WeightSlabDTO struct {
	MaxWeightKg decimal.Decimal `json:"max_weight_kg" binding:"required"`
	Rate        decimal.Decimal `json:"rate" binding:"required"`
}

// CarrierResponse is the admin view of a carrier configuration.
// Secrets are masked; the admin surface never echoes credentials back.
type CarrierResponse struct {
	ID                  string             `json:"id"`
	Code                string             `json:"code"`
	Name                string             `json:"name"`
	Enabled             bool               `json:"enabled"`
	Environment         string             `json:"environment"`
	APIBaseURL          string             `json:"api_base_url,omitempty"`
	HasCredentials      bool               `json:"has_credentials"`
	HasWebhookSecret    bool               `json:"has_webhook_secret"`
	ServiceTiers        []string           `json:"service_tiers,omitempty"`
	Cities              []string           `json:"cities,omitempty"`
	StatusMap           map[string]string  `json:"status_map,omitempty"`
	RateCard            []RateCardEntryDTO `json:"rate_card,omitempty"`
	DefaultRate         decimal.Decimal    `json:"default_rate"`
	FuelSurchargePct    decimal.Decimal    `json:"fuel_surcharge_pct"`
	MaxWeightKg         decimal.Decimal    `json:"max_weight_kg"`
	MaxDeclaredValue    decimal.Decimal    `json:"max_declared_value"`
	SupportsCOD         bool               `json:"supports_cod"`
	SupportsPickup      bool               `json:"supports_pickup"`
	SupportsReturn      bool               `json:"supports_return"`
	PollIntervalMinutes int                `json:"poll_interval_minutes"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ToCarrierResponse converts a carrier configuration to its masked view
func ToCarrierResponse(c *shipping.CarrierConfig) *CarrierResponse {
	statusMap := make(map[string]string, len(c.StatusMap))
	for k, v := range c.StatusMap {
		statusMap[k] = v.String()
	}
	rateCard := make([]RateCardEntryDTO, 0, len(c.RateCard))
	for _, entry := range c.RateCard {
		slabs := make([]WeightSlabDTO, 0, len(entry.Slabs))
		for _, slab := range entry.Slabs {
			slabs = append(slabs, WeightSlabDTO{MaxWeightKg: slab.MaxWeightKg, Rate: slab.Rate})
		}
		rateCard = append(rateCard, RateCardEntryDTO{
			OriginCity:      entry.OriginCity,
			DestinationCity: entry.DestinationCity,
			BaseRate:        entry.BaseRate,
			PerKgRate:       entry.PerKgRate,
			Slabs:           slabs,
		})
	}
	return &CarrierResponse{
		ID:                  c.ID.String(),
		Code:                c.Code,
		Name:                c.Name,
		Enabled:             c.Enabled,
		Environment:         string(c.Environment),
		APIBaseURL:          c.APIBaseURL,
		HasCredentials:      c.APIKey != "",
		HasWebhookSecret:    c.HasWebhookSecret(),
		ServiceTiers:        c.ServiceTiers,
		Cities:              c.Cities,
		StatusMap:           statusMap,
		RateCard:            rateCard,
		DefaultRate:         c.DefaultRate,
		FuelSurchargePct:    c.FuelSurchargePct,
		MaxWeightKg:         c.MaxWeightKg,
		MaxDeclaredValue:    c.MaxDeclaredValue,
		SupportsCOD:         c.SupportsCOD,
		SupportsPickup:      c.SupportsPickup,
		SupportsReturn:      c.SupportsReturn,
		PollIntervalMinutes: c.PollIntervalMinutes,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// WebhookAck is returned to the carrier after a webhook is accepted
type WebhookAck struct {
	Accepted       bool   `json:"accepted"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	EventsApplied  int    `json:"events_applied"`
}
