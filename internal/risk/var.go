// Package risk computes per-asset and portfolio risk metrics
package risk

import (
	"math"
	"sort"

	"github.com/quantfold/marketlens/internal/models"
)

// minVaRObservations is the fewest daily returns accepted for a
// historical-simulation VaR estimate.
const minVaRObservations = 20

// HistoricalVaR estimates value at risk from the empirical return
// distribution: the (1-confidence) percentile of daily returns, scaled by
// sqrt(holdingDays). The scaling assumes independent daily returns, which
// is an approximation, not a model guarantee. The result is a signed loss
// fraction (losses are negative).
func HistoricalVaR(returns []float64, confidence float64, holdingDays int) (float64, error) {
	if confidence <= 0 || confidence >= 1 {
		return 0, models.NewValidationError("confidence", "must be in (0, 1)")
	}
	if holdingDays < 1 {
		return 0, models.NewValidationError("holding_days", "must be >= 1")
	}
	if len(returns) < minVaRObservations {
		return 0, models.ErrInsufficientData
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	daily := percentile(sorted, (1-confidence)*100)
	return daily * math.Sqrt(float64(holdingDays)), nil
}

// percentile computes the p-th percentile of a sorted slice with linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
