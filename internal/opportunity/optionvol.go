package opportunity

import (
	"math"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/indicators"
	"github.com/quantfold/marketlens/internal/models"
)

// OptionVolatilityDetector compares the chain's average implied volatility
// to the underlying's realized volatility. A cheap chain suggests
// long-volatility structures; a rich one the inverse.
type OptionVolatilityDetector struct {
	cfg common.DetectorConfig
}

// Name implements Detector
func (d *OptionVolatilityDetector) Name() string { return "option_volatility" }

const tradingDaysPerYear = 252

// Detect implements Detector
func (d *OptionVolatilityDetector) Detect(snap *Snapshot) []models.Opportunity {
	if len(snap.Chains) == 0 || snap.Series == nil {
		return nil
	}

	histVol, ok := d.historicalVol(snap.Series)
	if !ok || histVol == 0 {
		return nil
	}

	var opportunities []models.Opportunity
	for _, chain := range snap.Chains {
		avgIV, ok := chain.AverageImpliedVol()
		if !ok {
			continue
		}
		ratio := avgIV / histVol

		var oppType models.OpportunityType
		var gap float64
		switch {
		case ratio < d.cfg.IVDiscountRatio:
			oppType = models.OpportunityIVUndervalued
			gap = (d.cfg.IVDiscountRatio - ratio) / d.cfg.IVDiscountRatio
		case ratio > d.cfg.IVPremiumRatio:
			oppType = models.OpportunityIVOvervalued
			gap = (ratio - d.cfg.IVPremiumRatio) / d.cfg.IVPremiumRatio
		default:
			continue
		}

		expiry := chain.Expiration
		opportunities = append(opportunities, models.Opportunity{
			Symbol:     chain.Symbol,
			Type:       oppType,
			Confidence: clamp01(gap),
			DetectedAt: snap.AsOf,
			ExpiresAt:  &expiry,
			Metrics: map[string]float64{
				"avg_implied_vol": avgIV,
				"historical_vol":  histVol,
				"iv_ratio":        ratio,
			},
		})
	}
	return opportunities
}

// historicalVol annualizes the standard deviation of daily returns over
// the configured window.
func (d *OptionVolatilityDetector) historicalVol(series *models.PriceSeries) (float64, bool) {
	returns := series.Returns()
	if len(returns) < d.cfg.HistVolWindow {
		return 0, false
	}
	window := returns[len(returns)-d.cfg.HistVolWindow:]
	daily := indicators.StdDev(window)
	return daily * math.Sqrt(tradingDaysPerYear), true
}
