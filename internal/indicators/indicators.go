// Package indicators computes technical indicators from price series
package indicators

import (
	"math"

	"github.com/quantfold/marketlens/internal/models"
)

// MovingAverage returns the arithmetic mean of the trailing n closes.
// Defined iff the series holds at least n points; MovingAverage(closes, 1)
// equals the latest close.
func MovingAverage(closes []float64, n int) (float64, error) {
	if n < 1 {
		return 0, models.NewValidationError("period", "must be >= 1")
	}
	if len(closes) < n {
		return 0, models.ErrInsufficientData
	}
	sum := 0.0
	for _, c := range closes[len(closes)-n:] {
		sum += c
	}
	return sum / float64(n), nil
}

// emaSeries computes the EMA over values, seeded with the SMA of the first
// period entries. The result holds one value per input from index period-1
// onward.
func emaSeries(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)

	multiplier := 2.0 / float64(period+1)
	ema := seed
	for _, v := range values[period:] {
		ema = (v-ema)*multiplier + ema
		out = append(out, ema)
	}
	return out
}

// EMA returns the exponential moving average of the closes for a period.
func EMA(closes []float64, period int) (float64, error) {
	if period < 1 {
		return 0, models.NewValidationError("period", "must be >= 1")
	}
	series := emaSeries(closes, period)
	if series == nil {
		return 0, models.ErrInsufficientData
	}
	return series[len(series)-1], nil
}

// RSI computes Wilder's relative strength index over the trailing history.
// The result is always within [0, 100]. Needs period+1 closes.
func RSI(closes []float64, period int) (float64, error) {
	if period < 1 {
		return 0, models.NewValidationError("period", "must be >= 1")
	}
	if len(closes) < period+1 {
		return 0, models.ErrInsufficientData
	}

	// Seed averages from the first period deltas, then apply Wilder
	// smoothing across the rest of the series.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil // no movement either way
		}
		return 100, nil
	}
	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))
	return math.Min(100, math.Max(0, rsi)), nil
}

// MACD computes the fast EMA minus slow EMA line with a signal-period EMA
// of the line itself. Needs slow+signal-1 closes so the signal line is a
// true EMA rather than an approximation.
func MACD(closes []float64, fast, slow, signal int) (models.MACDValue, error) {
	if fast >= slow {
		return models.MACDValue{}, models.NewValidationError("period", "fast must be below slow")
	}
	if len(closes) < slow+signal-1 {
		return models.MACDValue{}, models.ErrInsufficientData
	}

	fastSeries := emaSeries(closes, fast)
	slowSeries := emaSeries(closes, slow)

	// Align: slowSeries[i] pairs with fastSeries[i + (slow-fast)].
	offset := slow - fast
	line := make([]float64, len(slowSeries))
	for i := range slowSeries {
		line[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries := emaSeries(line, signal)
	macdLine := line[len(line)-1]
	signalLine := signalSeries[len(signalSeries)-1]

	return models.MACDValue{
		Line:      macdLine,
		Signal:    signalLine,
		Histogram: macdLine - signalLine,
	}, nil
}

// Bollinger computes SMA(period) +/- width standard deviations over the
// same window.
func Bollinger(closes []float64, period int, width float64) (models.BollingerBands, error) {
	middle, err := MovingAverage(closes, period)
	if err != nil {
		return models.BollingerBands{}, err
	}
	window := closes[len(closes)-period:]
	sd := StdDev(window)
	return models.BollingerBands{
		Upper:  middle + width*sd,
		Middle: middle,
		Lower:  middle - width*sd,
	}, nil
}

// StochasticK computes the %K oscillator over the trailing period of bars.
func StochasticK(points []models.PricePoint, period int) (float64, error) {
	if len(points) < period {
		return 0, models.ErrInsufficientData
	}
	window := points[len(points)-period:]
	high := window[0].High
	low := window[0].Low
	for _, p := range window[1:] {
		if p.High > high {
			high = p.High
		}
		if p.Low < low {
			low = p.Low
		}
	}
	if high == low {
		return 0, models.ErrUndefined
	}
	current := points[len(points)-1].Close
	return (current - low) / (high - low) * 100, nil
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// AverageVolume returns the mean volume over the trailing window.
func AverageVolume(points []models.PricePoint, window int) (float64, error) {
	if len(points) < window {
		return 0, models.ErrInsufficientData
	}
	var sum int64
	for _, p := range points[len(points)-window:] {
		sum += p.Volume
	}
	return float64(sum) / float64(window), nil
}
