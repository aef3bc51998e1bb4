package courier

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shipping"
)

// adapterFactory builds an adapter for one carrier implementation
type adapterFactory func(config *shipping.CarrierConfig) shipping.CourierAdapter

// Registry resolves carrier codes to adapter instances backed by their
// stored configuration. Adapters are built per call so configuration edits
// take effect without a restart.
type Registry struct {
	configs   shipping.CarrierConfigRepository
	factories map[string]adapterFactory
	logger    *zap.Logger
}

// NewRegistry creates a courier registry with the built-in carrier
// implementations registered
func NewRegistry(configs shipping.CarrierConfigRepository, logger *zap.Logger) *Registry {
	r := &Registry{
		configs:   configs,
		factories: make(map[string]adapterFactory),
		logger:    logger,
	}
	r.factories["leopards"] = func(c *shipping.CarrierConfig) shipping.CourierAdapter { return NewLeopardsAdapter(c) }
	r.factories["tcs"] = func(c *shipping.CarrierConfig) shipping.CourierAdapter { return NewTCSAdapter(c) }
	r.factories["postex"] = func(c *shipping.CarrierConfig) shipping.CourierAdapter { return NewPostExAdapter(c) }
	r.factories["manual"] = func(c *shipping.CarrierConfig) shipping.CourierAdapter { return NewManualAdapter(c) }
	return r
}

// Register adds or replaces a carrier implementation
func (r *Registry) Register(code string, factory func(config *shipping.CarrierConfig) shipping.CourierAdapter) {
	r.factories[strings.ToLower(code)] = factory
}

// Resolve returns the adapter for the given carrier code
func (r *Registry) Resolve(ctx context.Context, code string) (shipping.CourierAdapter, error) {
	code = strings.ToLower(strings.TrimSpace(code))

	factory, ok := r.factories[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shipping.ErrUnsupportedCarrier, code)
	}

	config, err := r.configs.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shipping.ErrCarrierNotConfigured, code)
	}
	if !config.Enabled {
		return nil, fmt.Errorf("%w: %s is disabled", shipping.ErrCarrierNotConfigured, code)
	}

	return factory(config), nil
}

// ActiveAdapters returns adapters for all enabled carriers in code-sorted
// order. Enabled carriers without a registered implementation are skipped
// with a warning rather than failing the whole fan-out.
func (r *Registry) ActiveAdapters(ctx context.Context) ([]shipping.CourierAdapter, error) {
	configs, err := r.configs.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}

	adapters := make([]shipping.CourierAdapter, 0, len(configs))
	for _, config := range configs {
		factory, ok := r.factories[config.Code]
		if !ok {
			r.logger.Warn("enabled carrier has no adapter implementation",
				zap.String("carrier_code", config.Code))
			continue
		}
		adapters = append(adapters, factory(config))
	}
	return adapters, nil
}

// Ensure Registry implements CourierRegistry interface
var _ shipping.CourierRegistry = (*Registry)(nil)
