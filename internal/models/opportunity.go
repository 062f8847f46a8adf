package models

import (
	"time"
)

// OpportunityType identifies the detector that produced an opportunity
type OpportunityType string

const (
	OpportunityResistanceBreakout OpportunityType = "resistance_breakout"
	OpportunityOversoldBounce     OpportunityType = "oversold_bounce"
	OpportunityOverboughtPullback OpportunityType = "overbought_pullback"
	OpportunityVolumeSurgeUp      OpportunityType = "volume_surge_up"
	OpportunityInstitutionalFlow  OpportunityType = "institutional_flow"
	OpportunityIVUndervalued      OpportunityType = "iv_undervalued"
	OpportunityIVOvervalued       OpportunityType = "iv_overvalued"
)

// Strength grades a signal's magnitude
type Strength string

const (
	StrengthStrong   Strength = "strong"
	StrengthModerate Strength = "moderate"
)

// Sentiment indicates directional bias
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
)

// Opportunity is a scored trading opportunity produced by a detector.
// Confidence is always within [0, 1]. At most one opportunity exists per
// (symbol, type, calendar date).
type Opportunity struct {
	ID         string             `json:"id"`
	Symbol     string             `json:"symbol"`
	Type       OpportunityType    `json:"type"`
	Confidence float64            `json:"confidence"`
	DetectedAt time.Time          `json:"detected_at"`
	Metrics    map[string]float64 `json:"metrics,omitempty"` // supporting metrics, e.g. volume_ratio
	Strength   Strength           `json:"strength,omitempty"`
	Sentiment  Sentiment          `json:"sentiment,omitempty"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
}

// DedupeKey returns the (symbol, type, date) identity used for daily
// deduplication.
func (o Opportunity) DedupeKey() string {
	return o.Symbol + "|" + string(o.Type) + "|" + o.DetectedAt.Format("2006-01-02")
}
