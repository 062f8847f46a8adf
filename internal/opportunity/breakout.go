package opportunity

import (
	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/models"
)

// BreakoutDetector triggers when the latest close clears the resistance
// level formed by recent pivot highs on confirming volume.
type BreakoutDetector struct {
	cfg common.DetectorConfig
}

// Name implements Detector
func (d *BreakoutDetector) Name() string { return "breakout" }

// fullExtension is the price extension beyond the level that scores 1.0.
const fullExtension = 0.05

// Detect implements Detector
func (d *BreakoutDetector) Detect(snap *Snapshot) []models.Opportunity {
	series := snap.Series
	if series == nil || series.Len() < d.cfg.BreakoutLookback+1 {
		return nil
	}

	points := series.Points
	latest := points[len(points)-1]

	support, resistance, ok := pivotLevels(points[:len(points)-1], d.cfg.BreakoutLookback, d.cfg.BreakoutMinSeparation)
	if !ok || resistance <= 0 {
		return nil
	}
	if latest.Close <= resistance {
		return nil
	}

	avgVol, ok := priorAverageVolume(points, d.cfg.VolumeWindow)
	if !ok {
		return nil
	}
	volRatio := float64(latest.Volume) / avgVol
	if volRatio <= d.cfg.BreakoutVolumeRatio {
		return nil
	}

	extension := (latest.Close - resistance) / resistance
	extScore := clamp01(extension / fullExtension)
	volScore := clamp01((volRatio - d.cfg.BreakoutVolumeRatio) / d.cfg.BreakoutVolumeRatio)
	confidence := (extScore + volScore) / 2

	return []models.Opportunity{{
		Symbol:     series.Symbol,
		Type:       models.OpportunityResistanceBreakout,
		Confidence: confidence,
		DetectedAt: latest.Date,
		Sentiment:  models.SentimentBullish,
		Metrics: map[string]float64{
			"resistance_level": resistance,
			"support_level":    support,
			"close":            latest.Close,
			"extension":        extension,
			"volume_ratio":     volRatio,
		},
	}}
}

// pivotLevels finds support and resistance as local price extrema over the
// trailing lookback. A pivot must top (or bottom) every bar within
// minSeparation sessions on both sides, which filters single-bar noise.
// Resistance is the highest pivot high, support the lowest pivot low.
func pivotLevels(points []models.PricePoint, lookback, minSeparation int) (support, resistance float64, ok bool) {
	if lookback > len(points) {
		lookback = len(points)
	}
	window := points[len(points)-lookback:]
	if len(window) < 2*minSeparation+1 {
		return 0, 0, false
	}

	foundHigh, foundLow := false, false
	for i := minSeparation; i < len(window)-minSeparation; i++ {
		isHigh, isLow := true, true
		for j := i - minSeparation; j <= i+minSeparation; j++ {
			if j == i {
				continue
			}
			if window[j].High >= window[i].High {
				isHigh = false
			}
			if window[j].Low <= window[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh && (!foundHigh || window[i].High > resistance) {
			resistance = window[i].High
			foundHigh = true
		}
		if isLow && (!foundLow || window[i].Low < support) {
			support = window[i].Low
			foundLow = true
		}
	}
	return support, resistance, foundHigh || foundLow
}
