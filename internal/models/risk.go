package models

import (
	"time"
)

// VolatilityClass buckets an asset's volatility against its own history
type VolatilityClass string

const (
	VolatilityLow    VolatilityClass = "low"
	VolatilityMedium VolatilityClass = "medium"
	VolatilityHigh   VolatilityClass = "high"
)

// RiskLevel grades overall asset risk
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very_low"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// RiskProfile holds per-asset risk metrics. VaR values are signed loss
// fractions; |VaR99| >= |VaR95| always holds for the same inputs.
type RiskProfile struct {
	Symbol          string          `json:"symbol"`
	AsOf            time.Time       `json:"as_of"`
	VaR95           float64         `json:"var_95"`
	VaR99           float64         `json:"var_99"`
	HoldingPeriod   int             `json:"holding_period_days"`
	MaxDrawdown     float64         `json:"max_drawdown"`
	CurrentDrawdown float64         `json:"current_drawdown"`
	DrawdownDays    int             `json:"drawdown_days"` // sessions below the last peak
	Volatility      float64         `json:"volatility"`    // annualized
	VolatilityClass VolatilityClass `json:"volatility_classification"`
	SharpeRatio     float64         `json:"sharpe_ratio"`
	Beta            float64         `json:"beta,omitempty"`
	RiskScore       float64         `json:"risk_score"` // 0-100, higher is riskier
	RiskLevel       RiskLevel       `json:"risk_level"`
	RiskFactors     []string        `json:"risk_factors,omitempty"`
}

// ConcentrationLevel buckets portfolio concentration by Herfindahl index
type ConcentrationLevel string

const (
	ConcentrationLow    ConcentrationLevel = "low"
	ConcentrationMedium ConcentrationLevel = "medium"
	ConcentrationHigh   ConcentrationLevel = "high"
)

// RebalanceAction indicates the direction of a suggested adjustment
type RebalanceAction string

const (
	RebalanceIncrease RebalanceAction = "increase"
	RebalanceReduce   RebalanceAction = "reduce"
)

// RebalanceSuggestion flags a position whose weight drifted from target
type RebalanceSuggestion struct {
	Symbol        string          `json:"symbol"`
	CurrentWeight float64         `json:"current_weight"`
	TargetWeight  float64         `json:"target_weight"`
	Action        RebalanceAction `json:"action"`
	Adjustment    float64         `json:"adjustment"` // magnitude of the weight change, in fraction terms
}

// CorrelationMatrix holds pairwise return correlations. Symmetric with a
// unit diagonal; unaligned pairs are absent rather than imputed.
type CorrelationMatrix struct {
	Symbols []string             `json:"symbols"`
	Values  map[string]map[string]float64 `json:"values"`
}

// At returns the correlation for a pair. The second return is false when
// the pair was excluded for lack of overlapping history.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	row, ok := m.Values[a]
	if !ok {
		return 0, false
	}
	v, ok := row[b]
	return v, ok
}

// PortfolioRiskReport holds portfolio-level risk metrics
type PortfolioRiskReport struct {
	Portfolio            string                `json:"portfolio"`
	AsOf                 time.Time             `json:"as_of"`
	Correlations         CorrelationMatrix     `json:"correlations"`
	HerfindahlIndex      float64               `json:"herfindahl_index"`
	TopPositionWeight    float64               `json:"top_position_weight"`
	ConcentrationLevel   ConcentrationLevel    `json:"concentration_level"`
	DiversificationScore float64               `json:"diversification_score"` // 1 - HHI
	Suggestions          []RebalanceSuggestion `json:"rebalancing_suggestions,omitempty"`
}
