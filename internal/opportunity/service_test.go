package opportunity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/marketlens/internal/cache"
	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/indicators"
	"github.com/quantfold/marketlens/internal/interfaces"
	"github.com/quantfold/marketlens/internal/models"
)

// fakeStore serves canned snapshots from memory.
type fakeStore struct {
	series map[string]*models.PriceSeries
	trades map[string][]models.Trade
	chains map[string][]models.OptionChainSnapshot
}

var _ interfaces.MarketDataStore = (*fakeStore)(nil)

func (f *fakeStore) GetPriceSeries(_ context.Context, symbol string) (*models.PriceSeries, error) {
	s, ok := f.series[symbol]
	if !ok {
		return nil, fmt.Errorf("no series for %s", symbol)
	}
	return s, nil
}

func (f *fakeStore) GetTrades(_ context.Context, symbol string, _ time.Time) ([]models.Trade, error) {
	return f.trades[symbol], nil
}

func (f *fakeStore) GetOptionChains(_ context.Context, symbol string) ([]models.OptionChainSnapshot, error) {
	return f.chains[symbol], nil
}

func (f *fakeStore) Symbols(_ context.Context) ([]string, error) {
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

	return NewService(store, indicators.NewEngine(logger), resultCache, cfg.Detectors, cfg.Scan, logger)
}

// surgeSeries ends on a 4x-volume, +6% session.
func surgeSeries(symbol string) *models.PriceSeries {
	series := flatSeries(symbol, 40)
	last := len(series.Points) - 1
	series.Points[last].Volume = 400000
	series.Points[last].Close = 106
	series.Points[last].High = 107
	return series
}

func TestScanSymbol(t *testing.T) {
	store := &fakeStore{
		series: map[string]*models.PriceSeries{"SRG": surgeSeries("SRG")},
		trades: map[string][]models.Trade{
			"SRG": {{Symbol: "SRG", Side: models.TradeSideBuy, Price: 100, Quantity: 50000}},
		},
	}
	svc := newTestService(t, store)

	opps, err := svc.ScanSymbol(context.Background(), "SRG")
	require.NoError(t, err)

	types := make(map[models.OpportunityType]models.Opportunity, len(opps))
	for _, opp := range opps {
		assert.NotEmpty(t, opp.ID)
		assert.GreaterOrEqual(t, opp.Confidence, 0.0)
		assert.LessOrEqual(t, opp.Confidence, 1.0)
		types[opp.Type] = opp
	}

	surge, ok := types[models.OpportunityVolumeSurgeUp]
	require.True(t, ok, "expected a volume surge, got %v", opps)
	assert.Equal(t, models.StrengthModerate, surge.Strength)

	flow, ok := types[models.OpportunityInstitutionalFlow]
	require.True(t, ok, "expected institutional flow, got %v", opps)
	assert.Equal(t, models.SentimentBullish, flow.Sentiment)
}

func TestScanSymbolDataUnavailable(t *testing.T) {
	svc := newTestService(t, &fakeStore{series: map[string]*models.PriceSeries{}})

	_, err := svc.ScanSymbol(context.Background(), "MISSING")
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestScanSymbolNoOpportunitiesIsNotAnError(t *testing.T) {
	store := &fakeStore{
		series: map[string]*models.PriceSeries{"FLAT": flatSeries("FLAT", 40)},
	}
	svc := newTestService(t, store)

	opps, err := svc.ScanSymbol(context.Background(), "FLAT")
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestScanUniverse(t *testing.T) {
	store := &fakeStore{
		series: map[string]*models.PriceSeries{
			"SRG":  surgeSeries("SRG"),
			"FLAT": flatSeries("FLAT", 40),
		},
	}
	svc := newTestService(t, store)

	// An unknown symbol is skipped, not fatal to the batch.
	opps, err := svc.ScanUniverse(context.Background(), []string{"SRG", "FLAT", "GONE"})
	require.NoError(t, err)
	require.NotEmpty(t, opps)

	// Confidence-descending batch order.
	for i := 1; i < len(opps); i++ {
		assert.GreaterOrEqual(t, opps[i-1].Confidence, opps[i].Confidence)
	}
}

func TestScanUniverseCancellation(t *testing.T) {
	store := &fakeStore{
		series: map[string]*models.PriceSeries{"SRG": surgeSeries("SRG")},
	}
	svc := newTestService(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ScanUniverse(ctx, []string{"SRG"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanSymbolMemoized(t *testing.T) {
	store := &fakeStore{
		series: map[string]*models.PriceSeries{"SRG": surgeSeries("SRG")},
	}
	svc := newTestService(t, store)

	first, err := svc.ScanSymbol(context.Background(), "SRG")
	require.NoError(t, err)
	second, err := svc.ScanSymbol(context.Background(), "SRG")
	require.NoError(t, err)

	// Same cached records, IDs included.
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestConfidenceClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
	assert.Equal(t, 0.25, clamp01(0.25))
}
