package alerts

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/models"
)

// Engine evaluates a fixed rule set against snapshots. Each (subject,
// kind) fires at most once per calendar day; a condition that stays true
// re-fires the next day, not before.
type Engine struct {
	rules  []models.AlertRule
	logger *common.Logger

	mu    sync.Mutex
	fired map[string]struct{}
}

// NewEngine creates an alert engine with the given rule set.
func NewEngine(rules []models.AlertRule, logger *common.Logger) *Engine {
	return &Engine{
		rules:  rules,
		logger: logger,
		fired:  make(map[string]struct{}),
	}
}

// Evaluate runs every rule against the snapshot and returns new alerts,
// ordered by severity, then subject, then kind. Identical snapshots and
// rules always produce identical output, apart from the once-per-day
// suppression of repeats.
func (e *Engine) Evaluate(snap Snapshot) []models.Alert {
	var alerts []models.Alert
	for _, rule := range e.rules {
		switch rule.Kind {
		case models.RulePriceDrop, models.RuleVolatilitySpike, models.RuleVolumeSurge:
			alerts = append(alerts, e.evaluateSymbolRule(snap, rule)...)
		case models.RuleHighCorrelation:
			alerts = append(alerts, e.evaluateCorrelationRule(snap, rule)...)
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].Severity != alerts[j].Severity {
			return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
		}
		if alerts[i].Subject != alerts[j].Subject {
			return alerts[i].Subject < alerts[j].Subject
		}
		return alerts[i].RuleKind < alerts[j].RuleKind
	})

	fresh := e.suppressRepeats(alerts)
	for i := range fresh {
		fresh[i].ID = uuid.NewString()
	}

	e.logger.Debug().
		Int("evaluated", len(snap.Symbols)).
		Int("alerts", len(fresh)).
		Msg("Evaluated alert rules")

	return fresh
}

func (e *Engine) evaluateSymbolRule(snap Snapshot, rule models.AlertRule) []models.Alert {
	var alerts []models.Alert
	for symbol, s := range snap.Symbols {
		var value float64
		var triggered bool
		switch rule.Kind {
		case models.RulePriceDrop:
			value = s.DayReturn
			triggered = value <= rule.Threshold
		case models.RuleVolatilitySpike:
			value = s.VolatilityRatio
			triggered = value > 0 && value > rule.Threshold
		case models.RuleVolumeSurge:
			value = s.VolumeRatio
			triggered = value > 0 && value > rule.Threshold
		}
		if !triggered {
			continue
		}
		alerts = append(alerts, models.Alert{
			RuleKind:        rule.Kind,
			Severity:        rule.Priority,
			Subject:         symbol,
			Message:         ruleMessage(rule, symbol, value),
			SuggestedAction: ruleAction(rule.Kind),
			Value:           value,
			Threshold:       rule.Threshold,
			TriggeredAt:     snap.AsOf,
		})
	}
	return alerts
}

func (e *Engine) evaluateCorrelationRule(snap Snapshot, rule models.AlertRule) []models.Alert {
	var alerts []models.Alert
	symbols := snap.Correlations.Symbols
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			corr, ok := snap.Correlations.At(symbols[i], symbols[j])
			if !ok || corr <= rule.Threshold {
				continue
			}
			pair := symbols[i] + "/" + symbols[j]
			alerts = append(alerts, models.Alert{
				RuleKind:        rule.Kind,
				Severity:        rule.Priority,
				Subject:         pair,
				Message:         ruleMessage(rule, pair, corr),
				SuggestedAction: ruleAction(rule.Kind),
				Value:           corr,
				Threshold:       rule.Threshold,
				TriggeredAt:     snap.AsOf,
			})
		}
	}
	return alerts
}

// suppressRepeats drops alerts whose (subject, kind, date) already fired.
func (e *Engine) suppressRepeats(alerts []models.Alert) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	fresh := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		key := a.DedupeKey()
		if _, seen := e.fired[key]; seen {
			continue
		}
		e.fired[key] = struct{}{}
		fresh = append(fresh, a)
	}
	return fresh
}

func severityRank(s models.AlertSeverity) int {
	switch s {
	case models.SeverityHigh:
		return 0
	case models.SeverityMedium:
		return 1
	default:
		return 2
	}
}

func ruleMessage(rule models.AlertRule, subject string, value float64) string {
	switch rule.Kind {
	case models.RulePriceDrop:
		return fmt.Sprintf("%s fell %.1f%% on the day (threshold %.1f%%)", subject, value*100, rule.Threshold*100)
	case models.RuleVolatilitySpike:
		return fmt.Sprintf("%s volatility is %.1fx its %d-day baseline (threshold %.1fx)", subject, value, rule.BaselineWindow, rule.Threshold)
	case models.RuleVolumeSurge:
		return fmt.Sprintf("%s volume is %.1fx its %d-day average (threshold %.1fx)", subject, value, rule.BaselineWindow, rule.Threshold)
	case models.RuleHighCorrelation:
		return fmt.Sprintf("%s return correlation %.2f exceeds %.2f", subject, value, rule.Threshold)
	default:
		return fmt.Sprintf("%s triggered %s at %.4f", subject, rule.Kind, value)
	}
}

func ruleAction(kind models.RuleKind) string {
	switch kind {
	case models.RulePriceDrop:
		return "Review position sizing and stop levels"
	case models.RuleVolatilitySpike:
		return "Reassess exposure and consider hedging"
	case models.RuleVolumeSurge:
		return "Check for news or unusual trading activity"
	case models.RuleHighCorrelation:
		return "Review overlapping exposure between the pair"
	default:
		return "Review the position"
	}
}
