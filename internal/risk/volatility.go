package risk

import (
	"math"
	"sort"

	"github.com/quantfold/marketlens/internal/models"
)

// tradingDaysPerYear annualizes daily volatility figures.
const tradingDaysPerYear = 252

// RollingVolatility computes the annualized standard deviation of returns
// over each trailing window, oldest window first. The last element is the
// asset's current volatility.
func RollingVolatility(returns []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, models.NewValidationError("window", "must be >= 2")
	}
	if len(returns) < window {
		return nil, models.ErrInsufficientData
	}
	out := make([]float64, 0, len(returns)-window+1)
	for i := window; i <= len(returns); i++ {
		out = append(out, stdDev(returns[i-window:i])*math.Sqrt(tradingDaysPerYear))
	}
	return out, nil
}

// ClassifyVolatility grades the current volatility against the asset's own
// rolling-volatility history: below the 25th percentile is low, above the
// 75th is high. With fewer than four observations there is no meaningful
// distribution to grade against, so the class defaults to medium.
func ClassifyVolatility(current float64, history []float64) models.VolatilityClass {
	if len(history) < 4 {
		return models.VolatilityMedium
	}
	sorted := make([]float64, len(history))
	copy(sorted, history)
	sort.Float64s(sorted)

	if current < percentile(sorted, 25) {
		return models.VolatilityLow
	}
	if current > percentile(sorted, 75) {
		return models.VolatilityHigh
	}
	return models.VolatilityMedium
}

// SharpeRatio annualizes mean return and volatility from daily returns and
// reports excess return per unit of risk. A zero-volatility series has no
// defined ratio.
func SharpeRatio(returns []float64, riskFreeRate float64) (float64, error) {
	if len(returns) < 2 {
		return 0, models.ErrInsufficientData
	}
	annReturn := mean(returns) * tradingDaysPerYear
	annVol := stdDev(returns) * math.Sqrt(tradingDaysPerYear)
	if annVol == 0 {
		return 0, models.ErrUndefined
	}
	return (annReturn - riskFreeRate) / annVol, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}
