package shipping

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shared"
	"github.com/erp/shipping/internal/domain/shipping"
)

// CarrierService manages carrier configurations for the admin surface
type CarrierService struct {
	carriers shipping.CarrierConfigRepository
	logger   *zap.Logger
}

// NewCarrierService creates a carrier administration service
func NewCarrierService(carriers shipping.CarrierConfigRepository, logger *zap.Logger) *CarrierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CarrierService{carriers: carriers, logger: logger}
}

// ListCarriers returns all configured carriers
func (s *CarrierService) ListCarriers(ctx context.Context) ([]*CarrierResponse, error) {
	configs, err := s.carriers.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*CarrierResponse, 0, len(configs))
	for _, c := range configs {
		out = append(out, ToCarrierResponse(c))
	}
	return out, nil
}

// GetCarrier returns one carrier configuration by code
func (s *CarrierService) GetCarrier(ctx context.Context, code string) (*CarrierResponse, error) {
	config, err := s.carriers.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return ToCarrierResponse(config), nil
}

// SaveCarrier creates or updates a carrier configuration.
// Blank credential fields on update keep the stored values, so an admin can
// edit the rate card without re-entering secrets.
func (s *CarrierService) SaveCarrier(ctx context.Context, req *SaveCarrierRequest) (*CarrierResponse, error) {
	config, err := s.carriers.FindByCode(ctx, req.Code)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		config, err = shipping.NewCarrierConfig(req.Code, req.Name)
		if err != nil {
			return nil, err
		}
	}

	config.Name = req.Name
	if req.Environment != "" {
		env := shipping.CarrierEnvironment(req.Environment)
		if env != shipping.EnvironmentSandbox && env != shipping.EnvironmentProduction {
			return nil, shared.NewDomainError("INVALID_ENVIRONMENT", "Environment must be sandbox or production")
		}
		config.Environment = env
	}
	if req.APIBaseURL != "" {
		config.APIBaseURL = req.APIBaseURL
	}
	if req.APIKey != "" {
		config.APIKey = req.APIKey
	}
	if req.APISecret != "" {
		config.APISecret = req.APISecret
	}
	if req.AccountNumber != "" {
		config.AccountNumber = req.AccountNumber
	}
	if req.WebhookSecret != "" {
		config.WebhookSecret = req.WebhookSecret
	}
	if req.ServiceTiers != nil {
		config.ServiceTiers = req.ServiceTiers
	}
	if req.Cities != nil {
		config.Cities = req.Cities
	}
	if req.StatusMap != nil {
		statusMap := make(map[string]shipping.ShipmentStatus, len(req.StatusMap))
		for carrierStatus, normalized := range req.StatusMap {
			status := shipping.ShipmentStatus(normalized)
			if !status.IsValid() {
				return nil, shared.NewDomainError("INVALID_STATUS_MAP",
					"Status map value "+normalized+" is not a valid status")
			}
			statusMap[carrierStatus] = status
		}
		config.StatusMap = statusMap
	}
	if req.RateCard != nil {
		rateCard := make([]shipping.RateCardEntry, 0, len(req.RateCard))
		for _, entry := range req.RateCard {
			slabs := make([]shipping.WeightSlab, 0, len(entry.Slabs))
			for _, slab := range entry.Slabs {
				slabs = append(slabs, shipping.WeightSlab{MaxWeightKg: slab.MaxWeightKg, Rate: slab.Rate})
			}
			rateCard = append(rateCard, shipping.RateCardEntry{
				OriginCity:      entry.OriginCity,
				DestinationCity: entry.DestinationCity,
				BaseRate:        entry.BaseRate,
				PerKgRate:       entry.PerKgRate,
				Slabs:           slabs,
			})
		}
		config.RateCard = rateCard
	}
	if !req.DefaultRate.IsZero() {
		config.DefaultRate = req.DefaultRate
	}
	if !req.FuelSurchargePct.IsZero() {
		config.FuelSurchargePct = req.FuelSurchargePct
	}
	if !req.MaxWeightKg.IsZero() {
		config.MaxWeightKg = req.MaxWeightKg
	}
	if !req.MaxDeclaredValue.IsZero() {
		config.MaxDeclaredValue = req.MaxDeclaredValue
	}
	config.SupportsCOD = req.SupportsCOD
	config.SupportsPickup = req.SupportsPickup
	config.SupportsReturn = req.SupportsReturn
	if req.PollIntervalMinutes > 0 {
		config.PollIntervalMinutes = req.PollIntervalMinutes
	}

	if err := s.carriers.Save(ctx, config); err != nil {
		return nil, err
	}
	s.logger.Info("carrier configuration saved",
		zap.String("carrier_code", config.Code),
		zap.Bool("enabled", config.Enabled))
	return ToCarrierResponse(config), nil
}

// SetEnabled flips a carrier in or out of the booking and fan-out pool
func (s *CarrierService) SetEnabled(ctx context.Context, code string, enabled bool) (*CarrierResponse, error) {
	config, err := s.carriers.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if enabled {
		config.Enable()
	} else {
		config.Disable()
	}
	if err := s.carriers.Save(ctx, config); err != nil {
		return nil, err
	}
	s.logger.Info("carrier enablement changed",
		zap.String("carrier_code", code),
		zap.Bool("enabled", enabled))
	return ToCarrierResponse(config), nil
}

// DeleteCarrier removes a carrier configuration
func (s *CarrierService) DeleteCarrier(ctx context.Context, code string) error {
	config, err := s.carriers.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if config.Enabled {
		return shared.NewDomainError("CARRIER_ENABLED", "Disable the carrier before deleting it")
	}
	return s.carriers.Delete(ctx, config.ID)
}
