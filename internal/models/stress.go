package models

import (
	"time"
)

// StressScenario describes a set of shocks applied to a portfolio. A zero
// shock leaves the corresponding positions untouched.
type StressScenario struct {
	Name           string             `json:"name" yaml:"name"`
	Description    string             `json:"description,omitempty" yaml:"description,omitempty"`
	MarketShock    float64            `json:"market_shock,omitempty" yaml:"market_shock,omitempty"` // uniform fractional decline, e.g. -0.20
	SectorShocks   map[string]float64 `json:"sector_shocks,omitempty" yaml:"sector_shocks,omitempty"`
	RateShock      float64            `json:"rate_shock,omitempty" yaml:"rate_shock,omitempty"`           // in rate points, scaled by position rate sensitivity
	LiquidityShock float64            `json:"liquidity_shock,omitempty" yaml:"liquidity_shock,omitempty"` // spread-widening haircut fraction
}

// PositionImpact is one position's contribution to a scenario loss
type PositionImpact struct {
	Symbol         string  `json:"symbol"`
	PreShockValue  float64 `json:"pre_shock_value"`
	PostShockValue float64 `json:"post_shock_value"`
	Loss           float64 `json:"loss"` // positive number, pre - post
	LossPct        float64 `json:"loss_pct"`
}

// StressResult holds one scenario's projected portfolio loss
type StressResult struct {
	Scenario       string           `json:"scenario"`
	RunAt          time.Time        `json:"run_at"`
	PreShockValue  float64          `json:"pre_shock_value"`
	PotentialLoss  float64          `json:"potential_loss"`
	LossPercentage float64          `json:"loss_percentage"`
	WorstAffected  []PositionImpact `json:"worst_affected_positions"` // ranked by absolute loss, top-k
}
