package alerts

import (
	"time"

	"github.com/quantfold/marketlens/internal/indicators"
	"github.com/quantfold/marketlens/internal/models"
)

// shortVolWindow is the recent-return window whose dispersion is compared
// against the rule's baseline window for spike detection.
const shortVolWindow = 5

// SymbolSnapshot carries the precomputed per-symbol readings a rule set is
// evaluated against. Ratios left at zero mean the underlying measurement
// was undefined (flat baseline, too little history) and the corresponding
// rules stay silent.
type SymbolSnapshot struct {
	DayReturn       float64 // latest close over prior close, minus one
	VolatilityRatio float64 // short-window dispersion over baseline dispersion
	VolumeRatio     float64 // latest volume over baseline average volume
}

// Snapshot is the full input to one evaluation pass. Building it is
// separated from evaluating it so evaluation stays a pure function.
type Snapshot struct {
	AsOf         time.Time
	Symbols      map[string]SymbolSnapshot
	Correlations models.CorrelationMatrix
}

// BuildSnapshot derives per-symbol readings from price history. Symbols
// with too little history for a reading simply omit it; they are skipped
// by the rules that need it rather than failing the whole pass.
func BuildSnapshot(seriesBySymbol map[string]*models.PriceSeries, correlations models.CorrelationMatrix, baselineWindow int, asOf time.Time) Snapshot {
	if baselineWindow < 2 {
		baselineWindow = 20
	}
	snap := Snapshot{
		AsOf:         asOf,
		Symbols:      make(map[string]SymbolSnapshot, len(seriesBySymbol)),
		Correlations: correlations,
	}
	for symbol, series := range seriesBySymbol {
		if series == nil || series.Len() < 2 {
			continue
		}
		snap.Symbols[symbol] = buildSymbolSnapshot(series, baselineWindow)
	}
	return snap
}

func buildSymbolSnapshot(series *models.PriceSeries, baselineWindow int) SymbolSnapshot {
	var s SymbolSnapshot
	points := series.Points
	last := len(points) - 1

	if prev := points[last-1].Close; prev > 0 {
		s.DayReturn = points[last].Close/prev - 1
	}

	returns := series.Returns()
	if len(returns) >= shortVolWindow+baselineWindow {
		recent := indicators.StdDev(returns[len(returns)-shortVolWindow:])
		baseline := indicators.StdDev(returns[len(returns)-shortVolWindow-baselineWindow : len(returns)-shortVolWindow])
		if baseline > 0 {
			s.VolatilityRatio = recent / baseline
		}
	}

	if len(points) >= baselineWindow+1 {
		avg, err := indicators.AverageVolume(points[:last], baselineWindow)
		if err == nil && avg > 0 {
			s.VolumeRatio = float64(points[last].Volume) / avg
		}
	}
	return s
}
