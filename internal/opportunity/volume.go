package opportunity

import (
	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/models"
)

// VolumeAnomalyDetector flags sessions whose volume dwarfs the trailing
// average while price moves decisively upward.
type VolumeAnomalyDetector struct {
	cfg common.DetectorConfig
}

// Name implements Detector
func (d *VolumeAnomalyDetector) Name() string { return "volume_anomaly" }

// fullSurgeReturn is the same-day return that scores 1.0.
const fullSurgeReturn = 0.10

// Detect implements Detector
func (d *VolumeAnomalyDetector) Detect(snap *Snapshot) []models.Opportunity {
	series := snap.Series
	if series == nil {
		return nil
	}
	points := series.Points

	avgVol, ok := priorAverageVolume(points, d.cfg.VolumeWindow)
	if !ok {
		return nil
	}
	latest := points[len(points)-1]
	ratio := float64(latest.Volume) / avgVol
	if ratio <= d.cfg.VolumeSurgeRatio {
		return nil
	}

	ret, ok := sameDayReturn(points)
	if !ok || ret <= d.cfg.VolumeSurgeReturn {
		return nil
	}

	strength := models.StrengthModerate
	if ratio > d.cfg.VolumeStrongRatio {
		strength = models.StrengthStrong
	}

	ratioScore := clamp01((ratio - d.cfg.VolumeSurgeRatio) / (d.cfg.VolumeStrongRatio - d.cfg.VolumeSurgeRatio))
	returnScore := clamp01(ret / fullSurgeReturn)

	return []models.Opportunity{{
		Symbol:     series.Symbol,
		Type:       models.OpportunityVolumeSurgeUp,
		Confidence: (ratioScore + returnScore) / 2,
		DetectedAt: latest.Date,
		Strength:   strength,
		Sentiment:  models.SentimentBullish,
		Metrics: map[string]float64{
			"volume_ratio":    ratio,
			"same_day_return": ret,
			"average_volume":  avgVol,
		},
	}}
}
