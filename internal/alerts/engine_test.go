package alerts

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/models"
)

var testAsOf = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

func newTestEngine(rules []models.AlertRule) *Engine {
	return NewEngine(rules, common.NewSilentLogger())
}

func snapshotWith(symbols map[string]SymbolSnapshot) Snapshot {
	return Snapshot{AsOf: testAsOf, Symbols: symbols}
}

func TestPriceDropRule(t *testing.T) {
	engine := newTestEngine(DefaultRules())

	alerts := engine.Evaluate(snapshotWith(map[string]SymbolSnapshot{
		"CRSH": {DayReturn: -0.20},
	}))
	require.Len(t, alerts, 1)
	assert.Equal(t, models.RulePriceDrop, alerts[0].RuleKind)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "CRSH", alerts[0].Subject)
	assert.InDelta(t, -0.20, alerts[0].Value, 1e-12)
	assert.NotEmpty(t, alerts[0].Message)
	assert.NotEmpty(t, alerts[0].SuggestedAction)
	assert.NotEmpty(t, alerts[0].ID)
}

func TestPriceDropBelowThresholdIsSilent(t *testing.T) {
	engine := newTestEngine(DefaultRules())

	alerts := engine.Evaluate(snapshotWith(map[string]SymbolSnapshot{
		"DIP": {DayReturn: -0.10},
	}))
	assert.Empty(t, alerts)
}

func TestVolatilitySpikeAndVolumeSurge(t *testing.T) {
	engine := newTestEngine(DefaultRules())

	alerts := engine.Evaluate(snapshotWith(map[string]SymbolSnapshot{
		"WILD": {VolatilityRatio: 3.5, VolumeRatio: 6.0},
	}))
	require.Len(t, alerts, 2)
	// same severity and subject, ordered by kind
	assert.Equal(t, models.RuleVolatilitySpike, alerts[0].RuleKind)
	assert.Equal(t, models.RuleVolumeSurge, alerts[1].RuleKind)
}

func TestUndefinedRatiosStaySilent(t *testing.T) {
	engine := newTestEngine(DefaultRules())

	// zero ratios mean the baseline was undefined, not that the reading is
	// below threshold
	alerts := engine.Evaluate(snapshotWith(map[string]SymbolSnapshot{
		"THIN": {VolatilityRatio: 0, VolumeRatio: 0},
	}))
	assert.Empty(t, alerts)
}

func TestHighCorrelationRule(t *testing.T) {
	engine := newTestEngine(DefaultRules())

	snap := snapshotWith(nil)
	snap.Correlations = models.CorrelationMatrix{
		Symbols: []string{"AAA", "BBB", "CCC"},
		Values: map[string]map[string]float64{
			"AAA": {"AAA": 1, "BBB": 0.92, "CCC": 0.40},
			"BBB": {"BBB": 1, "AAA": 0.92, "CCC": 0.40},
			"CCC": {"CCC": 1, "AAA": 0.40, "BBB": 0.40},
		},
	}

	alerts := engine.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.RuleHighCorrelation, alerts[0].RuleKind)
	assert.Equal(t, "AAA/BBB", alerts[0].Subject)
	assert.Equal(t, models.SeverityLow, alerts[0].Severity)
}

func TestRepeatFiringsSuppressedWithinDay(t *testing.T) {
	engine := newTestEngine(DefaultRules())
	snap := snapshotWith(map[string]SymbolSnapshot{
		"CRSH": {DayReturn: -0.20},
	})

	first := engine.Evaluate(snap)
	require.Len(t, first, 1)

	second := engine.Evaluate(snap)
	assert.Empty(t, second, "same condition must not re-fire the same day")

	nextDay := snap
	nextDay.AsOf = snap.AsOf.AddDate(0, 0, 1)
	third := engine.Evaluate(nextDay)
	assert.Len(t, third, 1, "condition still true the next day fires again")
}

func TestAlertsSortedBySeverity(t *testing.T) {
	engine := newTestEngine(DefaultRules())

	alerts := engine.Evaluate(snapshotWith(map[string]SymbolSnapshot{
		"AAA": {VolumeRatio: 7.0},
		"BBB": {DayReturn: -0.30},
	}))
	require.Len(t, alerts, 2)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, models.SeverityMedium, alerts[1].Severity)
}

func TestBuildSnapshot(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, 30)
	price := 100.0
	for i := range points {
		if i%2 == 0 {
			price *= 1.001
		} else {
			price *= 0.999
		}
		points[i] = models.PricePoint{
			Date:   start.AddDate(0, 0, i),
			Close:  price,
			Volume: 100_000,
		}
	}
	// final session: 6x volume on a 20% drop
	points[29].Close = points[28].Close * 0.80
	points[29].Volume = 600_000

	snap := BuildSnapshot(map[string]*models.PriceSeries{
		"SYM": {Symbol: "SYM", Points: points},
	}, models.CorrelationMatrix{}, 20, testAsOf)

	s, ok := snap.Symbols["SYM"]
	require.True(t, ok)
	assert.InDelta(t, -0.20, s.DayReturn, 1e-12)
	assert.InDelta(t, 6.0, s.VolumeRatio, 1e-9)
	assert.Greater(t, s.VolatilityRatio, 3.0, "20%% drop dwarfs the 0.1%% baseline wiggle")
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		rules, err := LoadRules("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		doc := `rules:
  - kind: price_drop
    threshold: -0.10
    priority: high
  - kind: volume_surge
    threshold: 4.0
    baseline_window: 10
    priority: low
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, models.RulePriceDrop, rules[0].Kind)
		assert.InDelta(t, -0.10, rules[0].Threshold, 1e-12)
		assert.Equal(t, 10, rules[1].BaselineWindow)
	})

	t.Run("invalid threshold rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		doc := "rules:\n  - kind: price_drop\n    threshold: 0.10\n    priority: high\n"
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		_, err := LoadRules(path)
		assert.Error(t, err)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		doc := "rules:\n  - kind: moon_phase\n    threshold: 0.5\n    priority: low\n"
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		_, err := LoadRules(path)
		assert.Error(t, err)
	})
}

func TestEvaluateIsDeterministic(t *testing.T) {
	symbols := make(map[string]SymbolSnapshot)
	for i := 0; i < 10; i++ {
		symbols[fmt.Sprintf("S%02d", i)] = SymbolSnapshot{DayReturn: -0.25}
	}

	first := newTestEngine(DefaultRules()).Evaluate(snapshotWith(symbols))
	second := newTestEngine(DefaultRules()).Evaluate(snapshotWith(symbols))

	require.Len(t, first, 10)
	require.Len(t, second, 10)
	for i := range first {
		assert.Equal(t, first[i].Subject, second[i].Subject)
		assert.Equal(t, first[i].Message, second[i].Message)
	}
}
