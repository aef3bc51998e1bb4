package shipping

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erp/shipping/internal/domain/shipping"
)

// defaultQuoteTimeout bounds each carrier call during a comparison
const defaultQuoteTimeout = 10 * time.Second

// RateService fans a rate request out to all enabled carriers and returns
// the comparable quotes sorted cheapest first. One slow or failing carrier
// never sinks the comparison; its failure is recorded and the rest proceed.
type RateService struct {
	registry     shipping.CourierRegistry
	logger       *zap.Logger
	quoteTimeout time.Duration
}

// NewRateService creates a rate comparison service
func NewRateService(registry shipping.CourierRegistry, logger *zap.Logger) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateService{
		registry:     registry,
		logger:       logger,
		quoteTimeout: defaultQuoteTimeout,
	}
}

// CompareRates queries every enabled carrier concurrently
func (s *RateService) CompareRates(ctx context.Context, req *CompareRatesRequest) (*CompareRatesResponse, error) {
	adapters, err := s.registry.ActiveAdapters(ctx)
	if err != nil {
		return nil, err
	}

	rateReq := &shipping.RateRequest{
		OriginCity:      req.OriginCity,
		DestinationCity: req.DestinationCity,
		WeightKg:        req.WeightKg,
		IsCOD:           req.IsCOD,
		ServiceTier:     req.ServiceTier,
	}

	type outcome struct {
		code  string
		quote *shipping.RateQuote
		err   error
	}

	results := make([]outcome, len(adapters))
	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter shipping.CourierAdapter) {
			defer wg.Done()
			quoteCtx, cancel := context.WithTimeout(ctx, s.quoteTimeout)
			defer cancel()
			quote, err := adapter.CalculateRate(quoteCtx, rateReq)
			results[i] = outcome{code: adapter.CarrierCode(), quote: quote, err: err}
		}(i, adapter)
	}
	wg.Wait()

	resp := &CompareRatesResponse{Quotes: make([]RateQuoteResponse, 0, len(adapters))}
	for _, r := range results {
		if r.err != nil {
			s.logger.Warn("carrier could not quote route",
				zap.String("carrier_code", r.code),
				zap.String("origin", req.OriginCity),
				zap.String("destination", req.DestinationCity),
				zap.Error(r.err))
			resp.Failures = append(resp.Failures, r.code)
			continue
		}
		resp.Quotes = append(resp.Quotes, toRateQuoteResponse(r.quote))
	}

	// cheapest first; carrier code breaks ties deterministically
	sort.SliceStable(resp.Quotes, func(i, j int) bool {
		if !resp.Quotes[i].Amount.Equal(resp.Quotes[j].Amount) {
			return resp.Quotes[i].Amount.LessThan(resp.Quotes[j].Amount)
		}
		return resp.Quotes[i].CarrierCode < resp.Quotes[j].CarrierCode
	})

	// An empty comparison is a valid outcome: callers see the per-carrier
	// failures and decide what to do with the route.
	if len(resp.Quotes) == 0 && len(resp.Failures) > 0 {
		s.logger.Warn("no carrier could quote route",
			zap.String("origin", req.OriginCity),
			zap.String("destination", req.DestinationCity),
			zap.Strings("failed_carriers", resp.Failures))
	}
	return resp, nil
}
