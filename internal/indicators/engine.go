package indicators

import (
	"context"
	"fmt"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/interfaces"
	"github.com/quantfold/marketlens/internal/models"
)

// Core periods. MACD's signal line is the longest requirement, so Compute
// needs slow+signal-1 points.
const (
	rsiPeriod       = 14
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	bollingerPeriod = 20
	bollingerWidth  = 2.0
	stochPeriod     = 14

	minComputePoints = macdSlow + macdSignal - 1
)

// smaPeriods are the windows published in IndicatorSet.SMA when defined.
var smaPeriods = []int{5, 10, 20, 50, 200}

// Engine implements IndicatorService
type Engine struct {
	logger *common.Logger
}

// NewEngine creates a new indicator engine
func NewEngine(logger *common.Logger) *Engine {
	return &Engine{logger: logger}
}

// ValidateSeries rejects malformed input: unordered or duplicate dates,
// negative prices, negative volume. The engine never repairs input.
func ValidateSeries(series *models.PriceSeries) error {
	if series == nil {
		return models.NewValidationError("series", "nil")
	}
	for i, p := range series.Points {
		if p.Open < 0 || p.High < 0 || p.Low < 0 || p.Close < 0 {
			return models.NewValidationError("price", fmt.Sprintf("negative price at index %d", i))
		}
		if p.Volume < 0 {
			return models.NewValidationError("volume", fmt.Sprintf("negative volume at index %d", i))
		}
		if i > 0 && !series.Points[i-1].Date.Before(p.Date) {
			return models.NewValidationError("date", fmt.Sprintf("dates not strictly ascending at index %d", i))
		}
	}
	return nil
}

// Compute validates the series and returns a fresh IndicatorSet. Series
// shorter than the longest indicator lookback yield ErrInsufficientData
// rather than partial values with fabricated zeros.
func (e *Engine) Compute(_ context.Context, series *models.PriceSeries) (*models.IndicatorSet, error) {
	if err := ValidateSeries(series); err != nil {
		return nil, err
	}
	if series.Len() < minComputePoints {
		return nil, fmt.Errorf("%s: %d points, need %d: %w",
			series.Symbol, series.Len(), minComputePoints, models.ErrInsufficientData)
	}

	closes := series.Closes()
	latest, _ := series.Latest()

	sma := make(map[int]float64, len(smaPeriods))
	for _, period := range smaPeriods {
		if v, err := MovingAverage(closes, period); err == nil {
			sma[period] = v
		}
	}

	ema12, err := EMA(closes, macdFast)
	if err != nil {
		return nil, err
	}
	ema26, err := EMA(closes, macdSlow)
	if err != nil {
		return nil, err
	}
	rsi, err := RSI(closes, rsiPeriod)
	if err != nil {
		return nil, err
	}
	macd, err := MACD(closes, macdFast, macdSlow, macdSignal)
	if err != nil {
		return nil, err
	}
	bands, err := Bollinger(closes, bollingerPeriod, bollingerWidth)
	if err != nil {
		return nil, err
	}
	stoch, err := StochasticK(series.Points, stochPeriod)
	if err != nil {
		// A flat window makes %K undefined; publish the midpoint and move on.
		stoch = 50
	}

	set := &models.IndicatorSet{
		Symbol:       series.Symbol,
		AsOf:         latest.Date,
		CurrentPrice: latest.Close,
		SMA:          sma,
		EMA12:        ema12,
		EMA26:        ema26,
		RSI14:        rsi,
		MACD:         macd,
		Bollinger:    bands,
		Stochastic:   stoch,
	}
	set.Signals = summarizeSignals(set)

	e.logger.Debug().
		Str("symbol", series.Symbol).
		Float64("rsi", rsi).
		Str("overall", string(set.Signals.Overall)).
		Msg("Computed indicators")

	return set, nil
}

// summarizeSignals classifies each indicator and aggregates an overall
// call. Two or more bullish-leaning signals make a buy, three a strong buy;
// bearish symmetric; otherwise hold.
func summarizeSignals(set *models.IndicatorSet) models.SignalSummary {
	s := models.SignalSummary{
		Trend:     models.SignalNeutral,
		RSI:       models.SignalNeutral,
		MACD:      models.SignalBearish,
		Bollinger: models.SignalNeutral,
	}

	price := set.CurrentPrice
	sma20, ok20 := set.SMAAt(20)
	sma50, ok50 := set.SMAAt(50)
	if ok20 && ok50 {
		if price > sma20 && sma20 > sma50 {
			s.Trend = models.SignalBullish
		} else if price < sma20 && sma20 < sma50 {
			s.Trend = models.SignalBearish
		}
	}

	if set.RSI14 < 30 {
		s.RSI = models.SignalOversold
	} else if set.RSI14 > 70 {
		s.RSI = models.SignalOverbought
	}

	if set.MACD.Histogram > 0 {
		s.MACD = models.SignalBullish
	}

	if price > set.Bollinger.Upper {
		s.Bollinger = models.SignalOverbought
	} else if price < set.Bollinger.Lower {
		s.Bollinger = models.SignalOversold
	}

	bullish, bearish := 0, 0
	for _, sig := range []models.TradingSignal{s.Trend, s.RSI, s.MACD, s.Bollinger} {
		switch sig {
		case models.SignalBullish, models.SignalOversold:
			bullish++
		case models.SignalBearish, models.SignalOverbought:
			bearish++
		}
	}

	switch {
	case bullish >= 3:
		s.Overall = models.OverallStrongBuy
	case bullish >= 2:
		s.Overall = models.OverallBuy
	case bearish >= 3:
		s.Overall = models.OverallStrongSell
	case bearish >= 2:
		s.Overall = models.OverallSell
	default:
		s.Overall = models.OverallHold
	}
	return s
}

// Ensure Engine implements IndicatorService
var _ interfaces.IndicatorService = (*Engine)(nil)
