// Package interfaces defines service contracts for MarketLens
package interfaces

import (
	"context"
	"time"

	"github.com/quantfold/marketlens/internal/models"
)

// MarketDataStore supplies input snapshots to the analytics engines. All
// fetching happens before a computation is invoked; the engines themselves
// never perform I/O.
type MarketDataStore interface {
	// GetPriceSeries retrieves the ordered price history for a symbol.
	GetPriceSeries(ctx context.Context, symbol string) (*models.PriceSeries, error)

	// GetTrades retrieves the trade tape for a symbol since a cutoff.
	GetTrades(ctx context.Context, symbol string, since time.Time) ([]models.Trade, error)

	// GetOptionChains retrieves option chain snapshots for a symbol, one per
	// expiration.
	GetOptionChains(ctx context.Context, symbol string) ([]models.OptionChainSnapshot, error)

	// Symbols lists all symbols with stored price history.
	Symbols(ctx context.Context) ([]string, error)
}

// ComputationKind partitions the result cache by computation type
type ComputationKind string

const (
	KindQuote         ComputationKind = "quote"
	KindIndicators    ComputationKind = "indicators"
	KindOpportunities ComputationKind = "opportunities"
	KindRiskProfile   ComputationKind = "risk_profile"
	KindPortfolioRisk ComputationKind = "portfolio_risk"
	KindStress        ComputationKind = "stress"
)

// CacheKey identifies one cached computation. Structured fields rule out
// collisions between unrelated computations on the same subject.
type CacheKey struct {
	Subject string
	Kind    ComputationKind
	AsOf    string // calendar date, YYYY-MM-DD
}

// NewCacheKey builds a key with the as-of date taken from t.
func NewCacheKey(subject string, kind ComputationKind, t time.Time) CacheKey {
	return CacheKey{Subject: subject, Kind: kind, AsOf: t.Format("2006-01-02")}
}

// ComputeFunc produces a value for a cache key
type ComputeFunc func(ctx context.Context) (interface{}, error)

// ResultCache memoizes expensive computations with per-kind TTLs.
// Concurrent callers for the same key share a single computation.
type ResultCache interface {
	// GetOrCompute returns the cached value for key, or runs compute once
	// and caches the result. Errors are returned to all waiting callers and
	// never cached.
	GetOrCompute(ctx context.Context, key CacheKey, compute ComputeFunc) (interface{}, error)

	// Invalidate drops a cached entry.
	Invalidate(ctx context.Context, key CacheKey) error

	// Close releases background resources.
	Close() error
}

// IndicatorService computes technical indicators from price series
type IndicatorService interface {
	// Compute validates the series and returns a fresh IndicatorSet.
	Compute(ctx context.Context, series *models.PriceSeries) (*models.IndicatorSet, error)
}

// OpportunityService detects scored trading opportunities
type OpportunityService interface {
	// ScanSymbol runs all detectors against one symbol's snapshots.
	ScanSymbol(ctx context.Context, symbol string) ([]models.Opportunity, error)

	// ScanUniverse fans out over symbols; partially successful scans return
	// whatever was found before ctx was cancelled.
	ScanUniverse(ctx context.Context, symbols []string) ([]models.Opportunity, error)
}

// RiskService computes per-asset and portfolio risk
type RiskService interface {
	// AssessSymbol builds a RiskProfile from stored price history.
	AssessSymbol(ctx context.Context, symbol string) (*models.RiskProfile, error)

	// AssessUniverse assesses many symbols concurrently.
	AssessUniverse(ctx context.Context, symbols []string) ([]*models.RiskProfile, error)

	// PortfolioReport computes correlation, concentration, and rebalancing
	// suggestions. Target weights are supplied by the caller.
	PortfolioReport(ctx context.Context, portfolio *models.Portfolio, targets map[string]float64) (*models.PortfolioRiskReport, error)
}

// StressService projects scenario losses over a portfolio
type StressService interface {
	// Run applies one named scenario.
	Run(ctx context.Context, portfolio *models.Portfolio, scenario string) (*models.StressResult, error)

	// RunAll applies the whole scenario library, worst loss first.
	RunAll(ctx context.Context, portfolio *models.Portfolio) ([]*models.StressResult, error)
}
