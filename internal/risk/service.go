package risk

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/interfaces"
	"github.com/quantfold/marketlens/internal/models"
)

// minAssessmentPoints is the shortest price history a risk profile is
// computed from. VaR, drawdown, and the rolling-volatility classification
// all need a workable return sample.
const minAssessmentPoints = 30

// Service builds per-asset risk profiles and portfolio-level reports from
// stored price history.
type Service struct {
	store  interfaces.MarketDataStore
	cache  interfaces.ResultCache
	cfg    common.RiskConfig
	scan   common.ScanConfig
	logger *common.Logger
}

// NewService creates a risk service.
func NewService(
	store interfaces.MarketDataStore,
	resultCache interfaces.ResultCache,
	riskCfg common.RiskConfig,
	scanCfg common.ScanConfig,
	logger *common.Logger,
) *Service {
	return &Service{
		store:  store,
		cache:  resultCache,
		cfg:    riskCfg,
		scan:   scanCfg,
		logger: logger,
	}
}

// AssessSymbol builds a RiskProfile for one symbol, memoized per day.
func (s *Service) AssessSymbol(ctx context.Context, symbol string) (*models.RiskProfile, error) {
	key := interfaces.NewCacheKey(symbol, interfaces.KindRiskProfile, time.Now())
	v, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.assess(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	profile, ok := v.(*models.RiskProfile)
	if !ok {
		return nil, fmt.Errorf("unexpected cached type %T for %s", v, symbol)
	}
	return profile, nil
}

func (s *Service) assess(ctx context.Context, symbol string) (*models.RiskProfile, error) {
	series, err := s.store.GetPriceSeries(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("price series for %s: %w: %v", symbol, models.ErrDataUnavailable, err)
	}
	if series.Len() < minAssessmentPoints {
		return nil, fmt.Errorf("%d points for %s: %w", series.Len(), symbol, models.ErrInsufficientData)
	}
	returns := series.Returns()

	var95, err := HistoricalVaR(returns, 0.95, s.cfg.HoldingPeriodDays)
	if err != nil {
		return nil, fmt.Errorf("var_95 for %s: %w", symbol, err)
	}
	var99, err := HistoricalVaR(returns, 0.99, s.cfg.HoldingPeriodDays)
	if err != nil {
		return nil, fmt.Errorf("var_99 for %s: %w", symbol, err)
	}

	drawdown, err := Drawdown(series)
	if err != nil {
		return nil, fmt.Errorf("drawdown for %s: %w", symbol, err)
	}

	rolling, err := RollingVolatility(returns, s.cfg.VolatilityWindow)
	if err != nil {
		return nil, fmt.Errorf("volatility for %s: %w", symbol, err)
	}
	currentVol := rolling[len(rolling)-1]
	volClass := ClassifyVolatility(currentVol, rolling[:len(rolling)-1])

	sharpe, err := SharpeRatio(returns, s.cfg.RiskFreeRate)
	if err != nil {
		// A flat series has no defined ratio; report zero rather than fail
		// the whole profile.
		sharpe = 0
	}

	latest, _ := series.Latest()
	profile := &models.RiskProfile{
		Symbol:          symbol,
		AsOf:            latest.Date,
		VaR95:           var95,
		VaR99:           var99,
		HoldingPeriod:   s.cfg.HoldingPeriodDays,
		MaxDrawdown:     drawdown.Max,
		CurrentDrawdown: drawdown.Current,
		DrawdownDays:    drawdown.Days,
		Volatility:      currentVol,
		VolatilityClass: volClass,
		SharpeRatio:     sharpe,
	}

	if s.cfg.Benchmark != "" && s.cfg.Benchmark != symbol {
		if market, err := s.store.GetPriceSeries(ctx, s.cfg.Benchmark); err == nil {
			if beta, err := Beta(series, market); err == nil {
				profile.Beta = beta
			}
		} else {
			s.logger.Debug().Str("benchmark", s.cfg.Benchmark).Err(err).Msg("Benchmark unavailable, skipping beta")
		}
	}

	profile.RiskScore, profile.RiskLevel, profile.RiskFactors = scoreRisk(profile)

	s.logger.Debug().
		Str("symbol", symbol).
		Float64("var_95", profile.VaR95).
		Float64("volatility", profile.Volatility).
		Str("risk_level", string(profile.RiskLevel)).
		Msg("Assessed symbol")

	return profile, nil
}

// AssessUniverse assesses many symbols concurrently. Symbols that fail
// individually are logged and skipped; only context cancellation aborts
// the whole pass.
func (s *Service) AssessUniverse(ctx context.Context, symbols []string) ([]*models.RiskProfile, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.scan.Concurrency)

	var mu sync.Mutex
	var profiles []*models.RiskProfile
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			profile, err := s.AssessSymbol(ctx, symbol)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn().Str("symbol", symbol).Err(err).Msg("Skipping symbol in risk pass")
				return nil
			}
			mu.Lock()
			profiles = append(profiles, profile)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].RiskScore != profiles[j].RiskScore {
			return profiles[i].RiskScore > profiles[j].RiskScore
		}
		return profiles[i].Symbol < profiles[j].Symbol
	})
	return profiles, nil
}

// PortfolioReport computes correlation, concentration, and rebalancing
// suggestions for a portfolio. Target weights come from the caller; an
// empty target map means every drifted position reads as over target.
func (s *Service) PortfolioReport(ctx context.Context, portfolio *models.Portfolio, targets map[string]float64) (*models.PortfolioRiskReport, error) {
	if portfolio == nil || len(portfolio.Positions) == 0 {
		return nil, models.ErrInsufficientData
	}

	key := interfaces.NewCacheKey(portfolio.Name, interfaces.KindPortfolioRisk, time.Now())
	v, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (interface{}, error) {
		return s.report(ctx, portfolio, targets)
	})
	if err != nil {
		return nil, err
	}
	report, ok := v.(*models.PortfolioRiskReport)
	if !ok {
		return nil, fmt.Errorf("unexpected cached type %T for %s", v, portfolio.Name)
	}
	return report, nil
}

func (s *Service) report(ctx context.Context, portfolio *models.Portfolio, targets map[string]float64) (*models.PortfolioRiskReport, error) {
	concentration, err := Concentration(portfolio)
	if err != nil {
		return nil, fmt.Errorf("concentration for %s: %w", portfolio.Name, err)
	}

	seriesBySymbol := make(map[string]*models.PriceSeries, len(portfolio.Positions))
	for _, pos := range portfolio.Positions {
		series, err := s.store.GetPriceSeries(ctx, pos.Symbol)
		if err != nil {
			s.logger.Warn().Str("symbol", pos.Symbol).Err(err).Msg("No history for correlation matrix")
			continue
		}
		seriesBySymbol[pos.Symbol] = series
	}

	suggestions, err := RebalanceSuggestions(portfolio, targets, s.cfg.RebalanceBand)
	if err != nil {
		return nil, fmt.Errorf("rebalancing for %s: %w", portfolio.Name, err)
	}

	return &models.PortfolioRiskReport{
		Portfolio:            portfolio.Name,
		AsOf:                 time.Now().UTC(),
		Correlations:         CorrelationMatrix(seriesBySymbol),
		HerfindahlIndex:      concentration.HerfindahlIndex,
		TopPositionWeight:    concentration.TopWeight,
		ConcentrationLevel:   concentration.Level,
		DiversificationScore: concentration.DiversificationScore,
		Suggestions:          suggestions,
	}, nil
}

// scoreRisk folds volatility, drawdown depth, and risk-adjusted return
// into a 0-100 score, then grades it. Each input contributes a bucketed
// penalty; the named factors explain the grade.
func scoreRisk(p *models.RiskProfile) (float64, models.RiskLevel, []string) {
	score := 0.0
	var factors []string

	switch {
	case p.Volatility < 0.15:
		score += 10
	case p.Volatility < 0.25:
		score += 20
	case p.Volatility < 0.35:
		score += 30
		factors = append(factors, "elevated volatility")
	default:
		score += 40
		factors = append(factors, "high volatility")
	}

	maxDD := -p.MaxDrawdown
	switch {
	case maxDD < 0.10:
		score += 5
	case maxDD < 0.20:
		score += 10
	case maxDD < 0.35:
		score += 20
		factors = append(factors, "significant historical drawdown")
	default:
		score += 30
		factors = append(factors, "severe historical drawdown")
	}

	switch {
	case p.SharpeRatio > 2:
		// strong risk-adjusted return, no penalty
	case p.SharpeRatio > 1.5:
		score += 5
	case p.SharpeRatio > 1:
		score += 10
	case p.SharpeRatio > 0.5:
		score += 20
	default:
		score += 30
		factors = append(factors, "weak risk-adjusted returns")
	}

	var level models.RiskLevel
	switch {
	case score < 20:
		level = models.RiskVeryLow
	case score < 35:
		level = models.RiskLow
	case score < 50:
		level = models.RiskMedium
	case score < 70:
		level = models.RiskHigh
	default:
		level = models.RiskVeryHigh
	}
	return score, level, factors
}

var _ interfaces.RiskService = (*Service)(nil)
