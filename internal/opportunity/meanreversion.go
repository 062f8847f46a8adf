package opportunity

import (
	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/models"
)

// OversoldOverboughtDetector pairs RSI extremes with Bollinger band
// touches: both conditions must hold before an opportunity is emitted.
type OversoldOverboughtDetector struct {
	cfg common.DetectorConfig
}

// Name implements Detector
func (d *OversoldOverboughtDetector) Name() string { return "oversold_overbought" }

// Detect implements Detector
func (d *OversoldOverboughtDetector) Detect(snap *Snapshot) []models.Opportunity {
	ind := snap.Indicators
	if ind == nil {
		return nil
	}

	price := ind.CurrentPrice
	rsi := ind.RSI14
	bands := ind.Bollinger

	if rsi < d.cfg.RSIOversold && price <= bands.Lower {
		return []models.Opportunity{{
			Symbol:     ind.Symbol,
			Type:       models.OpportunityOversoldBounce,
			Confidence: d.confidence(d.cfg.RSIOversold-rsi, d.cfg.RSIOversold, bands.Lower-price, bands.Middle-bands.Lower),
			DetectedAt: ind.AsOf,
			Sentiment:  models.SentimentBullish,
			Metrics: map[string]float64{
				"rsi":        rsi,
				"close":      price,
				"lower_band": bands.Lower,
			},
		}}
	}

	if rsi > d.cfg.RSIOverbought && price >= bands.Upper {
		return []models.Opportunity{{
			Symbol:     ind.Symbol,
			Type:       models.OpportunityOverboughtPullback,
			Confidence: d.confidence(rsi-d.cfg.RSIOverbought, 100-d.cfg.RSIOverbought, price-bands.Upper, bands.Upper-bands.Middle),
			DetectedAt: ind.AsOf,
			Sentiment:  models.SentimentBearish,
			Metrics: map[string]float64{
				"rsi":        rsi,
				"close":      price,
				"upper_band": bands.Upper,
			},
		}}
	}

	return nil
}

// confidence averages how deep RSI sits past its threshold with how far
// price penetrated the band, each scaled to [0, 1].
func (d *OversoldOverboughtDetector) confidence(rsiDepth, rsiRange, penetration, bandHalfWidth float64) float64 {
	rsiScore := 0.0
	if rsiRange > 0 {
		rsiScore = clamp01(rsiDepth / rsiRange)
	}
	bandScore := 0.0
	if bandHalfWidth > 0 {
		bandScore = clamp01(penetration / bandHalfWidth)
	}
	return (rsiScore + bandScore) / 2
}
