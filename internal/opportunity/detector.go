// Package opportunity detects scored trading opportunities
package opportunity

import (
	"time"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/models"
)

// Snapshot bundles the inputs a detector may read. All fields are fetched
// before detection; detectors are pure functions over this value.
type Snapshot struct {
	Series     *models.PriceSeries
	Indicators *models.IndicatorSet
	Trades     []models.Trade
	Chains     []models.OptionChainSnapshot
	AsOf       time.Time
}

// Detector is one independent opportunity detector. Detect returns zero or
// more opportunities; returning none is a normal outcome, not an error.
type Detector interface {
	Name() string
	Detect(snap *Snapshot) []models.Opportunity
}

// DefaultDetectors builds the fixed detector set from configuration.
func DefaultDetectors(cfg common.DetectorConfig) []Detector {
	return []Detector{
		&BreakoutDetector{cfg: cfg},
		&OversoldOverboughtDetector{cfg: cfg},
		&VolumeAnomalyDetector{cfg: cfg},
		&InstitutionalFlowDetector{cfg: cfg},
		&OptionVolatilityDetector{cfg: cfg},
	}
}

// clamp01 bounds a score to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// priorAverageVolume returns the mean volume of the window sessions
// preceding the latest bar, so the latest bar does not dilute its own
// baseline. False when history is short.
func priorAverageVolume(points []models.PricePoint, window int) (float64, bool) {
	if len(points) < window+1 {
		return 0, false
	}
	prior := points[:len(points)-1]
	var sum int64
	for _, p := range prior[len(prior)-window:] {
		sum += p.Volume
	}
	avg := float64(sum) / float64(window)
	if avg == 0 {
		return 0, false
	}
	return avg, true
}

// sameDayReturn returns the latest session's close-over-close return.
// False when fewer than two points exist.
func sameDayReturn(points []models.PricePoint) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}
	prev := points[len(points)-2].Close
	if prev == 0 {
		return 0, false
	}
	return (points[len(points)-1].Close - prev) / prev, true
}
