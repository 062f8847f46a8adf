package models

import (
	"time"
)

// RuleKind identifies an alert rule
type RuleKind string

const (
	RulePriceDrop       RuleKind = "price_drop"
	RuleVolatilitySpike RuleKind = "volatility_spike"
	RuleVolumeSurge     RuleKind = "volume_surge"
	RuleHighCorrelation RuleKind = "high_correlation"
)

// AlertSeverity grades alert urgency
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// AlertRule configures a single threshold rule. Rule sets are explicit
// configuration passed to the engine, never hidden globals.
type AlertRule struct {
	Kind           RuleKind      `json:"kind" yaml:"kind"`
	Threshold      float64       `json:"threshold" yaml:"threshold"`
	BaselineWindow int           `json:"baseline_window,omitempty" yaml:"baseline_window,omitempty"`
	Priority       AlertSeverity `json:"priority" yaml:"priority"`
}

// Alert is a single rule firing
type Alert struct {
	ID              string        `json:"id"`
	RuleKind        RuleKind      `json:"rule_kind"`
	Severity        AlertSeverity `json:"severity"`
	Subject         string        `json:"subject"` // symbol, or "SYM1/SYM2" for pair rules
	Message         string        `json:"message"`
	SuggestedAction string        `json:"suggested_action"`
	Value           float64       `json:"value"`
	Threshold       float64       `json:"threshold"`
	TriggeredAt     time.Time     `json:"triggered_at"`
}

// DedupeKey returns the (subject, kind, date) identity used to suppress
// repeat firings within a calendar day.
func (a Alert) DedupeKey() string {
	return a.Subject + "|" + string(a.RuleKind) + "|" + a.TriggeredAt.Format("2006-01-02")
}
