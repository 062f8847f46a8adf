// Package models defines data structures for MarketLens
package models

import (
	"time"
)

// PricePoint represents a single session's price data
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is an ordered price history for a symbol, ascending by date.
// Missing sessions are simply absent, never zero-filled.
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of points in the series.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Latest returns the most recent point. The second return is false for an
// empty series.
func (s PriceSeries) Latest() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Closes returns the close prices in ascending date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Returns computes the daily return series: r_i = (c_i - c_{i-1}) / c_{i-1}.
// The result has len(points)-1 entries; an empty or single-point series
// yields nil.
func (s PriceSeries) Returns() []float64 {
	if len(s.Points) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (s.Points[i].Close-prev)/prev)
	}
	return returns
}

// TradeSide indicates trade direction
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Trade represents a single tape print
type Trade struct {
	Symbol     string    `json:"symbol"`
	Side       TradeSide `json:"side"`
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Notional returns the trade's dollar value.
func (t Trade) Notional() float64 {
	return t.Price * t.Quantity
}

// SignedNotional returns the notional signed by direction (sells negative).
func (t Trade) SignedNotional() float64 {
	if t.Side == TradeSideSell {
		return -t.Notional()
	}
	return t.Notional()
}

// OptionType distinguishes calls from puts
type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

// OptionContract represents a single contract within a chain snapshot
type OptionContract struct {
	Strike       float64    `json:"strike"`
	Type         OptionType `json:"type"`
	Bid          float64    `json:"bid"`
	Ask          float64    `json:"ask"`
	ImpliedVol   float64    `json:"implied_vol"`
	OpenInterest int64      `json:"open_interest"`
	Volume       int64      `json:"volume"`
}

// OptionChainSnapshot holds a chain for one (symbol, expiration)
type OptionChainSnapshot struct {
	Symbol     string           `json:"symbol"`
	Expiration time.Time        `json:"expiration"`
	Contracts  []OptionContract `json:"contracts"`
	TakenAt    time.Time        `json:"taken_at"`
}

// AverageImpliedVol returns the mean implied volatility across the chain.
// The second return is false for an empty chain.
func (c OptionChainSnapshot) AverageImpliedVol() (float64, bool) {
	if len(c.Contracts) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, contract := range c.Contracts {
		sum += contract.ImpliedVol
	}
	return sum / float64(len(c.Contracts)), true
}

// Position represents a portfolio position as supplied by the collaborator
type Position struct {
	Symbol          string  `json:"symbol"`
	Sector          string  `json:"sector,omitempty"`
	Quantity        float64 `json:"quantity"`
	Price           float64 `json:"price"`
	MarketValue     float64 `json:"market_value"`
	RateSensitivity float64 `json:"rate_sensitivity,omitempty"` // duration-like factor for rate shocks
}

// Portfolio is a snapshot of positions passed into the engine. The engine
// only reads it; ownership stays with the caller.
type Portfolio struct {
	Name      string     `json:"name"`
	Positions []Position `json:"positions"`
	AsOf      time.Time  `json:"as_of"`
}

// TotalValue sums position market values.
func (p Portfolio) TotalValue() float64 {
	total := 0.0
	for _, pos := range p.Positions {
		total += pos.MarketValue
	}
	return total
}

// Weights returns symbol -> fraction of portfolio value. The second return
// is false when total value is zero.
func (p Portfolio) Weights() (map[string]float64, bool) {
	total := p.TotalValue()
	if total == 0 {
		return nil, false
	}
	weights := make(map[string]float64, len(p.Positions))
	for _, pos := range p.Positions {
		weights[pos.Symbol] += pos.MarketValue / total
	}
	return weights, true
}
