package models

import (
	"time"
)

// MACDValue holds the MACD line, its signal line, and the histogram
type MACDValue struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerBands holds the three band values for a (period, width) pair
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// TradingSignal classifies an indicator reading
type TradingSignal string

const (
	SignalBullish    TradingSignal = "bullish"
	SignalBearish    TradingSignal = "bearish"
	SignalNeutral    TradingSignal = "neutral"
	SignalOversold   TradingSignal = "oversold"
	SignalOverbought TradingSignal = "overbought"
)

// OverallSignal is the aggregated recommendation across indicator signals
type OverallSignal string

const (
	OverallStrongBuy  OverallSignal = "strong_buy"
	OverallBuy        OverallSignal = "buy"
	OverallHold       OverallSignal = "hold"
	OverallSell       OverallSignal = "sell"
	OverallStrongSell OverallSignal = "strong_sell"
)

// SignalSummary groups per-indicator signals with the overall call
type SignalSummary struct {
	Trend     TradingSignal `json:"trend"`
	RSI       TradingSignal `json:"rsi"`
	MACD      TradingSignal `json:"macd"`
	Bollinger TradingSignal `json:"bollinger"`
	Overall   OverallSignal `json:"overall"`
}

// IndicatorSet is an immutable snapshot of computed indicators for a
// (symbol, as-of date). Each computation produces a fresh value; prior sets
// are never mutated, which keeps cached copies consistent.
type IndicatorSet struct {
	Symbol       string          `json:"symbol"`
	AsOf         time.Time       `json:"as_of"`
	CurrentPrice float64         `json:"current_price"`
	SMA          map[int]float64 `json:"sma"` // period -> value, only defined periods present
	EMA12        float64         `json:"ema_12"`
	EMA26        float64         `json:"ema_26"`
	RSI14        float64         `json:"rsi_14"`
	MACD         MACDValue       `json:"macd"`
	Bollinger    BollingerBands  `json:"bollinger"`
	Stochastic   float64         `json:"stochastic_k"`
	Signals      SignalSummary   `json:"signals"`
}

// SMAAt returns the SMA for a period. The second return is false when the
// period had insufficient history at compute time.
func (s IndicatorSet) SMAAt(period int) (float64, bool) {
	v, ok := s.SMA[period]
	return v, ok
}
