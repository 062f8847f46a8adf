package risk

import (
	"github.com/quantfold/marketlens/internal/models"
)

// ConcentrationStats summarizes how concentrated a portfolio's weights are.
type ConcentrationStats struct {
	HerfindahlIndex      float64
	TopWeight            float64
	Level                models.ConcentrationLevel
	DiversificationScore float64
}

// Concentration computes the Herfindahl index (sum of squared weights) and
// grades it: above 0.25 is high, above 0.15 is medium. A portfolio of N
// equal positions scores exactly 1/N, so four equal positions sit on the
// 0.25 boundary and grade medium.
func Concentration(portfolio *models.Portfolio) (ConcentrationStats, error) {
	if portfolio == nil || len(portfolio.Positions) == 0 {
		return ConcentrationStats{}, models.ErrInsufficientData
	}
	weights, ok := portfolio.Weights()
	if !ok {
		return ConcentrationStats{}, models.ErrUndefined
	}

	var stats ConcentrationStats
	for _, w := range weights {
		stats.HerfindahlIndex += w * w
		if w > stats.TopWeight {
			stats.TopWeight = w
		}
	}
	stats.DiversificationScore = 1 - stats.HerfindahlIndex

	switch {
	case stats.HerfindahlIndex > 0.25:
		stats.Level = models.ConcentrationHigh
	case stats.HerfindahlIndex > 0.15:
		stats.Level = models.ConcentrationMedium
	default:
		stats.Level = models.ConcentrationLow
	}
	return stats, nil
}
