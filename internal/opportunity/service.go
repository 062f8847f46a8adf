package opportunity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/interfaces"
	"github.com/quantfold/marketlens/internal/models"
)

// Service orchestrates the detector set: it assembles snapshots, fans
// detection out over a symbol universe, merges results, and deduplicates
// by (symbol, type, date).
type Service struct {
	store      interfaces.MarketDataStore
	indicators interfaces.IndicatorService
	cache      interfaces.ResultCache
	detectors  []Detector
	cfg        common.ScanConfig
	limiter    *rate.Limiter
	logger     *common.Logger
}

// NewService creates an opportunity service with the fixed detector set.
func NewService(
	store interfaces.MarketDataStore,
	indicatorSvc interfaces.IndicatorService,
	resultCache interfaces.ResultCache,
	detectorCfg common.DetectorConfig,
	scanCfg common.ScanConfig,
	logger *common.Logger,
) *Service {
	return &Service{
		store:      store,
		indicators: indicatorSvc,
		cache:      resultCache,
		detectors:  DefaultDetectors(detectorCfg),
		cfg:        scanCfg,
		limiter:    rate.NewLimiter(rate.Limit(scanCfg.RatePerSec), scanCfg.RatePerSec),
		logger:     logger,
	}
}

// ScanSymbol runs all detectors against one symbol's snapshots. Results
// are memoized per (symbol, day).
func (s *Service) ScanSymbol(ctx context.Context, symbol string) ([]models.Opportunity, error) {
	key := interfaces.NewCacheKey(symbol, interfaces.KindOpportunities, time.Now())
	v, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.scan(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	opportunities, ok := v.([]models.Opportunity)
	if !ok {
		return nil, fmt.Errorf("unexpected cached type %T for %s", v, symbol)
	}
	return opportunities, nil
}

func (s *Service) scan(ctx context.Context, symbol string) ([]models.Opportunity, error) {
	snap, err := s.buildSnapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var merged []models.Opportunity
	for _, detector := range s.detectors {
		merged = append(merged, detector.Detect(snap)...)
	}
	result := dedupe(merged)

	for i := range result {
		result[i].ID = uuid.NewString()
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Int("opportunities", len(result)).
		Msg("Scanned symbol")

	return result, nil
}

// buildSnapshot fetches every input a detector may need. Price history is
// mandatory; trades and option chains are optional extras whose absence
// just disables the detectors that read them.
func (s *Service) buildSnapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	series, err := s.store.GetPriceSeries(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("price series for %s: %w: %v", symbol, models.ErrDataUnavailable, err)
	}
	latest, ok := series.Latest()
	if !ok {
		return nil, fmt.Errorf("price series for %s is empty: %w", symbol, models.ErrInsufficientData)
	}

	snap := &Snapshot{
		Series: series,
		AsOf:   latest.Date,
	}

	set, err := s.indicators.Compute(ctx, series)
	if err == nil {
		snap.Indicators = set
	} else {
		s.logger.Debug().Str("symbol", symbol).Err(err).Msg("Indicators unavailable for scan")
	}

	if trades, err := s.store.GetTrades(ctx, symbol, latest.Date.AddDate(0, 0, -1)); err == nil {
		snap.Trades = trades
	} else {
		s.logger.Debug().Str("symbol", symbol).Err(err).Msg("Trade tape unavailable for scan")
	}

	if chains, err := s.store.GetOptionChains(ctx, symbol); err == nil {
		snap.Chains = chains
	} else {
		s.logger.Debug().Str("symbol", symbol).Err(err).Msg("Option chains unavailable for scan")
	}

	return snap, nil
}

// ScanUniverse fans detection out over symbols with bounded concurrency,
// a batch-level rate limit, and cooperative cancellation. Symbols that
// fail individually are logged and skipped; cancellation aborts the batch.
func (s *Service) ScanUniverse(ctx context.Context, symbols []string) ([]models.Opportunity, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	var mu sync.Mutex
	var all []models.Opportunity

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
			opportunities, err := s.ScanSymbol(ctx, symbol)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Skipping symbol in scan")
				return nil
			}
			mu.Lock()
			all = append(all, opportunities...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Deterministic batch ordering: confidence descending, then symbol.
	sort.Slice(all, func(i, j int) bool {
		if all[i].Confidence != all[j].Confidence {
			return all[i].Confidence > all[j].Confidence
		}
		if all[i].Symbol != all[j].Symbol {
			return all[i].Symbol < all[j].Symbol
		}
		return all[i].Type < all[j].Type
	})
	return all, nil
}

// dedupe enforces at most one opportunity per (symbol, type, date),
// keeping the highest-confidence record. Output order is stable.
func dedupe(opportunities []models.Opportunity) []models.Opportunity {
	if len(opportunities) == 0 {
		return nil
	}
	best := make(map[string]models.Opportunity, len(opportunities))
	order := make([]string, 0, len(opportunities))
	for _, opp := range opportunities {
		key := opp.DedupeKey()
		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = opp
			continue
		}
		if opp.Confidence > existing.Confidence {
			best[key] = opp
		}
	}
	result := make([]models.Opportunity, 0, len(order))
	for _, key := range order {
		result = append(result, best[key])
	}
	return result
}

// Ensure Service implements OpportunityService
var _ interfaces.OpportunityService = (*Service)(nil)
