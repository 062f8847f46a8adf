package risk

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/marketlens/internal/cache"
	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/models"
)

type fakeStore struct {
	series map[string]*models.PriceSeries
}

func (f *fakeStore) GetPriceSeries(_ context.Context, symbol string) (*models.PriceSeries, error) {
	s, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("no history for %s", symbol)
	}
	return s, nil
}

func (f *fakeStore) GetTrades(context.Context, string, time.Time) ([]models.Trade, error) {
	return nil, nil
}

func (f *fakeStore) GetOptionChains(context.Context, string) ([]models.OptionChainSnapshot, error) {
	return nil, nil
}

func (f *fakeStore) Symbols(context.Context) ([]string, error) {
	symbols := make([]string, 0, len(f.series))
	for s := range f.series {
		symbols = append(symbols, s)
	}
	return symbols, nil
}

func newTestService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	cfg, err := common.LoadConfig("")
	require.NoError(t, err)
	logger := common.NewSilentLogger()
	resultCache := cache.New(cache.NewMemoryStore(100, time.Minute), cache.TTLsFromConfig(cfg.Cache), logger)
	t.Cleanup(func() { _ = resultCache.Close() })
	return NewService(store, resultCache, cfg.Risk, cfg.Scan, logger)
}

// choppySeries has enough history for every profile metric and a visible
// drawdown in the middle.
func choppySeries(symbol string, n int) *models.PriceSeries {
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		price *= 1 + 0.012*math.Sin(float64(i)*0.9)
		if i == n/2 {
			price *= 0.85
		}
		closes[i] = price
	}
	return seriesFromCloses(symbol, closes)
}

func TestAssessSymbol(t *testing.T) {
	store := &fakeStore{series: map[string]*models.PriceSeries{
		"ACME": choppySeries("ACME", 120),
	}}
	svc := newTestService(t, store)

	profile, err := svc.AssessSymbol(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, "ACME", profile.Symbol)
	assert.Negative(t, profile.VaR95)
	assert.GreaterOrEqual(t, math.Abs(profile.VaR99), math.Abs(profile.VaR95))
	assert.Less(t, profile.MaxDrawdown, -0.10)
	assert.Positive(t, profile.Volatility)
	assert.NotEmpty(t, profile.VolatilityClass)
	assert.GreaterOrEqual(t, profile.RiskScore, 0.0)
	assert.LessOrEqual(t, profile.RiskScore, 100.0)
	assert.NotEmpty(t, profile.RiskLevel)
}

func TestAssessSymbolComputesBetaAgainstBenchmark(t *testing.T) {
	market := make([]float64, 80)
	leveraged := make([]float64, 80)
	for i := range market {
		r := 0.01 * math.Sin(float64(i)*0.6)
		market[i] = r
		leveraged[i] = 2 * r
	}
	store := &fakeStore{series: map[string]*models.PriceSeries{
		"AST": seriesFromCloses("AST", closesFromReturns(leveraged)),
		"SPY": seriesFromCloses("SPY", closesFromReturns(market)),
	}}
	svc := newTestService(t, store)

	profile, err := svc.AssessSymbol(context.Background(), "AST")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, profile.Beta, 0.05)
}

func TestAssessSymbolShortHistory(t *testing.T) {
	store := &fakeStore{series: map[string]*models.PriceSeries{
		"NEW": choppySeries("NEW", 10),
	}}
	svc := newTestService(t, store)

	_, err := svc.AssessSymbol(context.Background(), "NEW")
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestAssessSymbolDataUnavailable(t *testing.T) {
	svc := newTestService(t, &fakeStore{series: map[string]*models.PriceSeries{}})
	_, err := svc.AssessSymbol(context.Background(), "GHOST")
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestAssessUniverseSkipsFailedSymbols(t *testing.T) {
	store := &fakeStore{series: map[string]*models.PriceSeries{
		"ACME": choppySeries("ACME", 120),
		"BOLT": choppySeries("BOLT", 120),
	}}
	svc := newTestService(t, store)

	profiles, err := svc.AssessUniverse(context.Background(), []string{"ACME", "GHOST", "BOLT"})
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	// sorted riskiest first, symbol breaking ties
	if profiles[0].RiskScore == profiles[1].RiskScore {
		assert.Less(t, profiles[0].Symbol, profiles[1].Symbol)
	} else {
		assert.Greater(t, profiles[0].RiskScore, profiles[1].RiskScore)
	}
}

func TestPortfolioReport(t *testing.T) {
	store := &fakeStore{series: map[string]*models.PriceSeries{
		"AAA": choppySeries("AAA", 120),
		"BBB": choppySeries("BBB", 120),
	}}
	svc := newTestService(t, store)

	portfolio := &models.Portfolio{
		Name: "core",
		Positions: []models.Position{
			{Symbol: "AAA", MarketValue: 25_000},
			{Symbol: "BBB", MarketValue: 25_000},
			{Symbol: "CCC", MarketValue: 25_000},
			{Symbol: "DDD", MarketValue: 25_000},
		},
	}
	targets := map[string]float64{"AAA": 0.25, "BBB": 0.25, "CCC": 0.25, "DDD": 0.25}

	report, err := svc.PortfolioReport(context.Background(), portfolio, targets)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, report.HerfindahlIndex, 1e-12)
	assert.Equal(t, models.ConcentrationMedium, report.ConcentrationLevel)
	assert.Empty(t, report.Suggestions)

	// identical histories for the two stored symbols correlate perfectly
	corr, ok := report.Correlations.At("AAA", "BBB")
	require.True(t, ok)
	assert.InDelta(t, 1.0, corr, 1e-9)

	// symbols without history stay out of the matrix
	_, ok = report.Correlations.At("AAA", "CCC")
	assert.False(t, ok)
}

func TestPortfolioReportEmptyPortfolio(t *testing.T) {
	svc := newTestService(t, &fakeStore{series: map[string]*models.PriceSeries{}})
	_, err := svc.PortfolioReport(context.Background(), &models.Portfolio{Name: "empty"}, nil)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}
